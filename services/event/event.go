// Package event implements ST[05] event reporting (spec.md §4.5, C5),
// grounded on original_source/src/Services/EventReportService.cpp and
// its header's event/severity taxonomy.
package event

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

const ServiceTypeNum uint8 = 5

// NumEvents is N_EVENT: the size of the per-event enable bitset.
const NumEvents = 15

// TM/TC message types, matching EventReportService::MessageType.
const (
	InformativeEventReport          uint8 = 1
	LowSeverityAnomalyReport        uint8 = 2
	MediumSeverityAnomalyReport     uint8 = 3
	HighSeverityAnomalyReport       uint8 = 4
	EnableReportGenerationOfEvents  uint8 = 5
	DisableReportGenerationOfEvents uint8 = 6
	ReportListOfDisabledEvents      uint8 = 7
	DisabledListEventReport         uint8 = 8
)

// Concrete on-board event ids carried from
// original_source/inc/Services/EventReportService.hpp, supplementing
// spec.md's abstract event_id with realistic values.
const (
	UnknownEvent    uint16 = 1
	WWDGReset       uint16 = 2
	AssertionFail   uint16 = 3
	MemoryCorrupted uint16 = 4
)

// ActionBinder is the subset of ST[19] that ST[05] invokes after
// emitting a report, per spec.md §4.5 step "after emitting, call the
// event-action binder's on_event(event_id)".
type ActionBinder interface {
	OnEvent(eventID uint16)
}

// Service is ST[05]. It satisfies dispatch.EventRaiser so it can be
// installed as Context.Events.
type Service struct {
	enabled  [NumEvents + 1]bool // 1-indexed; index 0 unused
	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)

	lowReportCount, mediumReportCount, highReportCount       uint16
	lowEventCount, mediumEventCount, highEventCount           uint16
	lastLowID, lastMediumID, lastHighID                       uint16

	binder ActionBinder
}

const lastElementID = 0xFFFF

// New builds ST[05] with every event enabled, matching the original
// constructor's stateOfEvents.set().
func New(counters *ccsds.Counters, storeTM func(*ccsds.Message), binder ActionBinder) *Service {
	s := &Service{
		counters:     counters,
		storeTM:      storeTM,
		binder:       binder,
		lastLowID:    lastElementID,
		lastMediumID: lastElementID,
		lastHighID:   lastElementID,
	}
	for i := range s.enabled {
		s.enabled[i] = true
	}
	return s
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// SetBinder installs the ST[19] binder after construction, breaking
// the New(event) <-> New(eventaction) construction cycle: callers
// build the event Service with a nil binder, build eventaction.Service
// around it (event.Service already satisfies dispatch.EventRaiser),
// then wire the binder back in.
func (s *Service) SetBinder(binder ActionBinder) {
	s.binder = binder
}

// Report validates the event id, always increments its per-severity
// occurrence counter, and — only if the event is enabled — increments
// the report counter, records the last-report id, emits TM[5,k], and
// invokes the bound action, matching spec.md §4.5.
func (s *Service) Report(eventID uint16, severity uint8, auxData []byte) {
	if eventID == 0 || int(eventID) >= len(s.enabled) {
		return
	}
	switch severity {
	case LowSeverityAnomalyReport:
		s.lowEventCount++
	case MediumSeverityAnomalyReport:
		s.mediumEventCount++
	case HighSeverityAnomalyReport:
		s.highEventCount++
	}

	if !s.enabled[eventID] {
		return
	}

	switch severity {
	case LowSeverityAnomalyReport:
		s.lowReportCount++
		s.lastLowID = eventID
	case MediumSeverityAnomalyReport:
		s.mediumReportCount++
		s.lastMediumID = eventID
	case HighSeverityAnomalyReport:
		s.highReportCount++
		s.lastHighID = eventID
	}

	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, severity, 0)
	_ = tm.AppendHalf(eventID)
	_ = tm.AppendString(auxData)
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}

	if s.binder != nil {
		s.binder.OnEvent(eventID)
	}
}

// Execute dispatches TC[5,5]/TC[5,6]/TC[5,7] per spec.md §4.5.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	switch msg.MessageType {
	case EnableReportGenerationOfEvents:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, EnableReportGenerationOfEvents) {
			return ccsds.ErrOtherMessageType
		}
		return s.setEnabled(ctx, msg, true)
	case DisableReportGenerationOfEvents:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DisableReportGenerationOfEvents) {
			return ccsds.ErrOtherMessageType
		}
		return s.setEnabled(ctx, msg, false)
	case ReportListOfDisabledEvents:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ReportListOfDisabledEvents) {
			return ccsds.ErrOtherMessageType
		}
		s.reportDisabled(ctx, msg)
		return nil
	default:
		ctx.Verification.FailAcceptance(dispatch.RequestIDOf(msg), ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) setEnabled(ctx *dispatch.Context, msg *ccsds.Message, value bool) error {
	req := dispatch.RequestIDOf(msg)
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
			return err
		}
		if id == 0 || int(id) >= len(s.enabled) {
			continue
		}
		s.enabled[id] = value
	}
	ctx.Verification.SuccessAcceptance(req)
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) reportDisabled(ctx *dispatch.Context, msg *ccsds.Message) {
	req := dispatch.RequestIDOf(msg)
	ctx.Verification.SuccessAcceptance(req)

	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, DisabledListEventReport, 0)
	var disabled []uint16
	for id := uint16(1); id < uint16(len(s.enabled)); id++ {
		if !s.enabled[id] {
			disabled = append(disabled, id)
		}
	}
	_ = tm.AppendHalf(uint16(len(disabled)))
	for _, id := range disabled {
		_ = tm.AppendHalf(id)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
	ctx.Verification.SuccessCompletion(req)
}

type eventSnapshot struct {
	DisabledEvents []uint16 `json:"disabledEvents"`
	LowReportCount    uint16 `json:"lowReportCount"`
	MediumReportCount uint16 `json:"mediumReportCount"`
	HighReportCount   uint16 `json:"highReportCount"`
	LastLowID    uint16 `json:"lastLowId"`
	LastMediumID uint16 `json:"lastMediumId"`
	LastHighID   uint16 `json:"lastHighId"`
}

// Snapshot renders the event state for the debug server's /events
// route.
func (s *Service) Snapshot() interface{} {
	out := eventSnapshot{
		LowReportCount:    s.lowReportCount,
		MediumReportCount: s.mediumReportCount,
		HighReportCount:   s.highReportCount,
		LastLowID:    s.lastLowID,
		LastMediumID: s.lastMediumID,
		LastHighID:   s.lastHighID,
	}
	for id := uint16(1); id < uint16(len(s.enabled)); id++ {
		if !s.enabled[id] {
			out.DisabledEvents = append(out.DisabledEvents, id)
		}
	}
	return out
}
