// Package eventaction implements ST[19] event-action binding
// (spec.md §4.7, C7), grounded on
// original_source/src/Services/EventActionService.cpp's multimap
// semantics.
package eventaction

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/services/function"
)

const ServiceTypeNum uint8 = 19

// NMax is N_EA: the bounded mapping's total entry capacity.
const NMax = 64

const (
	AddEventAction          uint8 = 1
	DeleteEventAction        uint8 = 3
	DeleteAllEventAction     uint8 = 4
	EnableEventAction        uint8 = 5
	DisableEventAction       uint8 = 6
	ReportStatusOfEachEventAction uint8 = 7
	EventActionStatusReport       uint8 = 8
	EnableEventActionFunction     uint8 = 8
	DisableEventActionFunction    uint8 = 9
)

// Definition is one EventActionDefinition (spec.md §3).
type Definition struct {
	APID       uint16
	EventID    uint16
	FunctionID uint16
	Args       [function.ArgMax]byte
	Enabled    bool
}

// FunctionCaller is the subset of ST[08] that on_event invokes.
type FunctionCaller interface {
	Call(events dispatch.EventRaiser, functionID uint16, args [function.ArgMax]byte) ccsds.ErrorCode
}

// Service is ST[19]: a bounded multimap from event id to zero or more
// Definitions.
type Service struct {
	entries        map[uint16][]*Definition
	count          int
	functionStatus bool // global gate; starts enabled, matching the original default

	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
	fm       FunctionCaller
	events   dispatch.EventRaiser
}

// New builds an empty binder with the function-status gate enabled.
// events is forwarded to fm.Call so an unresolved function id can
// still raise a FailedStartOfExecution event, without requiring a
// full dispatch.Context at the point OnEvent is invoked from ST[05].
func New(counters *ccsds.Counters, storeTM func(*ccsds.Message), fm FunctionCaller, events dispatch.EventRaiser) *Service {
	return &Service{
		entries:        make(map[uint16][]*Definition),
		functionStatus: true,
		counters:       counters,
		storeTM:        storeTM,
		fm:             fm,
		events:         events,
	}
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

func (s *Service) findEnabled(eventID uint16) *Definition {
	for _, d := range s.entries[eventID] {
		if d.Enabled {
			return d
		}
	}
	return nil
}

// Add inserts or overwrites a disabled entry for def.EventID, per
// spec.md §4.7 "Add": rejects if an enabled mapping already exists for
// that event; otherwise overwrites an existing disabled entry for the
// same (event, function) pair or appends a new one; reports MAP_FULL
// and continues when the table is full.
func (s *Service) Add(def Definition) ccsds.ErrorCode {
	if s.findEnabled(def.EventID) != nil {
		return ccsds.ErrEventActionEnabledError
	}
	for _, existing := range s.entries[def.EventID] {
		if existing.FunctionID == def.FunctionID {
			*existing = def
			return ccsds.ErrNone
		}
	}
	if s.count >= NMax {
		return ccsds.ErrMapFull
	}
	copyDef := def
	s.entries[def.EventID] = append(s.entries[def.EventID], &copyDef)
	s.count++
	return ccsds.ErrNone
}

// Delete removes the entry for (eventID, functionID); rejects if
// enabled or not found.
func (s *Service) Delete(eventID, functionID uint16) ccsds.ErrorCode {
	list := s.entries[eventID]
	for i, d := range list {
		if d.FunctionID != functionID {
			continue
		}
		if d.Enabled {
			return ccsds.ErrEventActionEnabledError
		}
		s.entries[eventID] = append(list[:i], list[i+1:]...)
		s.count--
		return ccsds.ErrNone
	}
	return ccsds.ErrInvalidArgument
}

// DeleteAll clears every mapping and disables the global function gate.
func (s *Service) DeleteAll() {
	s.entries = make(map[uint16][]*Definition)
	s.count = 0
	s.functionStatus = false
}

// SetEnabled toggles every entry bound to each listed event id, or —
// when eventIDs is empty — every entry, matching "empty list means all".
func (s *Service) SetEnabled(eventIDs []uint16, value bool) {
	if len(eventIDs) == 0 {
		for _, list := range s.entries {
			for _, d := range list {
				d.Enabled = value
			}
		}
		return
	}
	for _, id := range eventIDs {
		for _, d := range s.entries[id] {
			d.Enabled = value
		}
	}
}

// OnEvent invokes the bound function for every enabled entry on
// eventID, short-circuiting if the global function-status gate is
// off, matching EventActionService::executeAction. It satisfies
// event.ActionBinder.
func (s *Service) OnEvent(eventID uint16) {
	if !s.functionStatus {
		return
	}
	for _, d := range s.entries[eventID] {
		if !d.Enabled {
			continue
		}
		if s.fm != nil {
			s.fm.Call(s.events, d.FunctionID, d.Args)
		}
	}
}

// Execute dispatches TC[19,{1,3,4,5,6,7,8,9}] per spec.md §4.7.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	switch msg.MessageType {
	case AddEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, AddEventAction) {
			return ccsds.ErrOtherMessageType
		}
		return s.executeAdd(ctx, msg, req)
	case DeleteEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DeleteEventAction) {
			return ccsds.ErrOtherMessageType
		}
		return s.executeDelete(ctx, msg, req)
	case DeleteAllEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DeleteAllEventAction) {
			return ccsds.ErrOtherMessageType
		}
		s.DeleteAll()
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	case EnableEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, EnableEventAction) {
			return ccsds.ErrOtherMessageType
		}
		return s.executeSetEnabled(ctx, msg, req, true)
	case DisableEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DisableEventAction) {
			return ccsds.ErrOtherMessageType
		}
		return s.executeSetEnabled(ctx, msg, req, false)
	case ReportStatusOfEachEventAction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ReportStatusOfEachEventAction) {
			return ccsds.ErrOtherMessageType
		}
		s.reportStatus(ctx, req)
		return nil
	case EnableEventActionFunction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, EnableEventActionFunction) {
			return ccsds.ErrOtherMessageType
		}
		s.functionStatus = true
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	case DisableEventActionFunction:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DisableEventActionFunction) {
			return ccsds.ErrOtherMessageType
		}
		s.functionStatus = false
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	default:
		ctx.Verification.FailAcceptance(req, ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) executeAdd(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	ctx.Verification.SuccessStart(req)
	for i := uint16(0); i < n; i++ {
		apid, e1 := msg.ReadHalf()
		eventID, e2 := msg.ReadHalf()
		functionID, e3 := msg.ReadHalf()
		raw, e4 := msg.ReadString(function.ArgMax)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		var args [function.ArgMax]byte
		copy(args[:], raw)
		code := s.Add(Definition{APID: apid, EventID: eventID, FunctionID: functionID, Args: args, Enabled: false})
		if code != ccsds.ErrNone {
			ctx.Verification.FailProgress(req, uint8(i), code)
			continue
		}
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) executeDelete(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	eventID, err1 := msg.ReadHalf()
	functionID, err2 := msg.ReadHalf()
	if err1 != nil || err2 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}
	ctx.Verification.SuccessAcceptance(req)
	if code := s.Delete(eventID, functionID); code != ccsds.ErrNone {
		ctx.Verification.FailCompletion(req, code)
		return code
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) executeSetEnabled(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID, value bool) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ids := make([]uint16, 0, n)
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
			return err
		}
		ids = append(ids, id)
	}
	ctx.Verification.SuccessAcceptance(req)
	s.SetEnabled(ids, value)
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) reportStatus(ctx *dispatch.Context, req dispatch.RequestID) {
	ctx.Verification.SuccessAcceptance(req)

	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, EventActionStatusReport, 0)
	var tuples []*Definition
	for _, list := range s.entries {
		tuples = append(tuples, list...)
	}
	_ = tm.AppendHalf(uint16(len(tuples)))
	for _, d := range tuples {
		_ = tm.AppendHalf(d.APID)
		_ = tm.AppendHalf(d.EventID)
		enabled := byte(0)
		if d.Enabled {
			enabled = 1
		}
		_ = tm.AppendByte(enabled)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
	ctx.Verification.SuccessCompletion(req)
}

type definitionSnapshot struct {
	APID       uint16 `json:"apid"`
	EventID    uint16 `json:"eventId"`
	FunctionID uint16 `json:"functionId"`
	Enabled    bool   `json:"enabled"`
}

type eventActionSnapshot struct {
	FunctionStatus bool                  `json:"functionStatus"`
	Definitions    []definitionSnapshot  `json:"definitions"`
}

// Snapshot renders every bound definition for the debug server's
// /eventaction route.
func (s *Service) Snapshot() interface{} {
	out := eventActionSnapshot{FunctionStatus: s.functionStatus}
	for _, defs := range s.entries {
		for _, d := range defs {
			out.Definitions = append(out.Definitions, definitionSnapshot{
				APID:       d.APID,
				EventID:    d.EventID,
				FunctionID: d.FunctionID,
				Enabled:    d.Enabled,
			})
		}
	}
	return out
}
