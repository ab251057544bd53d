// Package function implements ST[08] function management (spec.md
// §4.6, C6), grounded on
// original_source/src/Services/FunctionManagementService.cpp.
package function

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

const ServiceTypeNum uint8 = 8

const (
	PerformFunction uint8 = 1
)

// ArgMax is ARG_MAX: the fixed-length argument blob every registered
// function receives.
const ArgMax = 32

// Func is a callable registered under a 16-bit function id.
type Func func(args [ArgMax]byte) ccsds.ErrorCode

// Service is ST[08]: a static registry of functions keyed by id.
type Service struct {
	funcs    map[uint16]Func
	counters *ccsds.Counters
}

// New builds an empty function registry.
func New(counters *ccsds.Counters) *Service {
	return &Service{funcs: make(map[uint16]Func), counters: counters}
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// Register binds a function id to its implementation.
func (s *Service) Register(id uint16, fn Func) {
	s.funcs[id] = fn
}

// Call looks up and invokes a function by id, matching
// FunctionManagementService::call. An unknown id returns
// FUNCTION_NOT_FOUND and raises a FailedStartOfExecution event via
// ST[05], per spec.md §4.6. events may be nil (e.g. in tests).
func (s *Service) Call(events dispatch.EventRaiser, functionID uint16, args [ArgMax]byte) ccsds.ErrorCode {
	fn, ok := s.funcs[functionID]
	if !ok {
		if events != nil {
			events.Report(dispatch.FailedStartOfExecution, dispatch.SeverityLow, nil)
		}
		return ccsds.ErrFunctionNotFound
	}
	return fn(args)
}

// Execute handles TC[8,1]: function_id(u16) ‖ args[...].
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, PerformFunction) {
		return ccsds.ErrOtherMessageType
	}
	req := dispatch.RequestIDOf(msg)

	functionID, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}

	remaining := msg.RemainingLen()
	if remaining > ArgMax {
		ctx.Verification.FailAcceptance(req, ccsds.ErrUnacceptableMessage)
		return ccsds.ErrUnacceptableMessage
	}
	var args [ArgMax]byte
	raw, err := msg.ReadString(remaining)
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	copy(args[:], raw)

	req.FunctionID = functionID
	req.HasFunctionID = true
	ctx.Verification.SuccessAcceptance(req)
	ctx.Verification.SuccessStart(req)

	if code := s.Call(ctx.Events, functionID, args); code != ccsds.ErrNone {
		ctx.Verification.FailCompletion(req, code)
		return code
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}
