// Package dispatch implements the service dispatcher (C3) and the
// ServiceContext threading pattern spec.md §9 calls for in place of
// the original's global "services container" singleton: every
// handler receives an explicit *Context instead of reaching into
// mutable global state.
package dispatch

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/clock"
)

// Verifier is the subset of the ST[01] verification reporter that the
// dispatcher and every service handler depend on.
type Verifier interface {
	FailAcceptance(req RequestID, code ccsds.ErrorCode)
	SuccessAcceptance(req RequestID)
	FailStart(req RequestID, code ccsds.ErrorCode)
	SuccessStart(req RequestID)
	FailProgress(req RequestID, step uint8, code ccsds.ErrorCode)
	SuccessProgress(req RequestID, step uint8)
	FailCompletion(req RequestID, code ccsds.ErrorCode)
	SuccessCompletion(req RequestID)
	FailRouting(req RequestID, code ccsds.ErrorCode)
	SuccessRouting(req RequestID)
}

// EventRaiser is the subset of the ST[05] event reporter the
// dispatcher needs to route internal errors, per spec.md §7 and the
// original ErrorHandler::reportInternalError.
type EventRaiser interface {
	Report(eventID uint16, severity uint8, aux []byte)
}

// Known event severities, mirroring EventReportService::MessageType.
const (
	SeverityInformative uint8 = 1
	SeverityLow         uint8 = 2
	SeverityMedium      uint8 = 3
	SeverityHigh        uint8 = 4
)

// FailedStartOfExecution is the event id the original raises for
// internal errors it cannot attach to a request (ErrorHandler.cpp).
const FailedStartOfExecution uint16 = 3

// RequestID is the replayed identity of the TC that triggered a
// verification report: version/type/secondary-header-flag/apid/
// seq-flags/seq-count, plus an optional function id for
// function-managed TCs (spec.md §4.4).
type RequestID struct {
	PacketVersion uint8
	PacketType    ccsds.PacketType
	SecHdrFlag    uint8
	APID          uint16
	SeqFlags      uint8
	SeqCount      uint16
	FunctionID    uint16
	HasFunctionID bool
}

// RequestIDOf builds a RequestID from a parsed TC Message.
func RequestIDOf(msg *ccsds.Message) RequestID {
	return RequestID{
		PacketVersion: 0,
		PacketType:    msg.PacketType,
		SecHdrFlag:    1,
		APID:          msg.ApplicationID,
		SeqFlags:      0b11,
		SeqCount:      msg.SequenceCount,
		FunctionID:    msg.FunctionID,
	}
}

// Context is threaded by reference through every service handler. It
// is the idiomatic-Go replacement for the original's mutable global
// services container (spec.md §9).
type Context struct {
	Clock        clock.Clock
	Counters     *ccsds.Counters
	Options      ccsds.Options
	Verification Verifier
	Events       EventRaiser
	StoreTM      func(*ccsds.Message)
}

// ReportInternalError raises an InternalError event via ST[05]
// instead of emitting a TM verification report, per spec.md §7 and
// the original's reportInternalError.
func (c *Context) ReportInternalError(code ccsds.ErrorCode, aux ...uint16) {
	if c.Events == nil {
		return
	}
	payload := make([]byte, 0, 2*len(aux)+2)
	payload = append(payload, byte(code>>8), byte(code))
	for _, a := range aux {
		payload = append(payload, byte(a>>8), byte(a))
	}
	c.Events.Report(FailedStartOfExecution, SeverityLow, payload)
}

// Service is implemented by every PUS service. Execute dispatches on
// msg.MessageType internally; handlers begin with AssertTC.
type Service interface {
	ServiceType() uint8
	Execute(ctx *Context, msg *ccsds.Message) error
}

// AssertTC is the dispatcher's type guard (spec.md §4.3): any handler
// begins with it; on mismatch it emits a failed-acceptance
// verification report and the caller must return without side
// effects.
func AssertTC(ctx *Context, msg *ccsds.Message, expectedService, expectedType uint8) bool {
	if msg.PacketType != ccsds.TC || msg.ServiceType != expectedService || msg.MessageType != expectedType {
		if ctx.Verification != nil {
			ctx.Verification.FailAcceptance(RequestIDOf(msg), ccsds.ErrOtherMessageType)
		}
		return false
	}
	return true
}

// Dispatcher routes a parsed TC to the service registered for its
// ServiceType.
type Dispatcher struct {
	services map[uint8]Service
}

// NewDispatcher returns an empty dispatcher; register services with
// Register before calling Dispatch.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{services: make(map[uint8]Service)}
}

// Register binds a service to the ServiceType it declares.
func (d *Dispatcher) Register(s Service) {
	d.services[s.ServiceType()] = s
}

// Dispatch routes msg to the registered service matching its
// ServiceType. An unrecognized type raises an internal error
// (OTHER_MESSAGE_TYPE) instead of a verification report, matching
// spec.md §4.3.
func (d *Dispatcher) Dispatch(ctx *Context, msg *ccsds.Message) error {
	svc, ok := d.services[msg.ServiceType]
	if !ok {
		ctx.ReportInternalError(ccsds.ErrOtherMessageType, uint16(msg.ServiceType))
		return ccsds.ErrOtherMessageType
	}
	return svc.Execute(ctx, msg)
}
