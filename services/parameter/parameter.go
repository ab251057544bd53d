// Package parameter implements ST[20] parameter management (spec.md
// §4.11, C11), grounded on
// original_source/src/Services/ParameterService.cpp's two-pass
// reportParameters (count valid ids, rewind, then emit).
package parameter

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/registry"
)

const ServiceTypeNum uint8 = 20

const (
	ReportParameterValues uint8 = 1
	ParameterValuesReport uint8 = 2
	SetParameterValues    uint8 = 3
)

// Service is ST[20].
type Service struct {
	registry registry.ParameterRegistry
	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
}

// New builds ST[20] over reg.
func New(reg registry.ParameterRegistry, counters *ccsds.Counters, storeTM func(*ccsds.Message)) *Service {
	return &Service{registry: reg, counters: counters, storeTM: storeTM}
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// Execute dispatches TC[20,{1,3}] per spec.md §4.11.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	switch msg.MessageType {
	case ReportParameterValues:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ReportParameterValues) {
			return ccsds.ErrOtherMessageType
		}
		return s.reportParameters(ctx, msg, req)
	case SetParameterValues:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, SetParameterValues) {
			return ccsds.ErrOtherMessageType
		}
		return s.setParameters(ctx, msg, req)
	default:
		ctx.Verification.FailAcceptance(req, ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

// reportParameters mirrors the original's two-pass structure: a first
// pass over the request counts how many carried ids actually exist
// (so the TM's count field can be written before the per-id loop),
// then the read cursor is reset and a second pass emits (id, value)
// pairs for the valid ones only.
func (s *Service) reportParameters(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	var validCount uint16
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailCompletion(req, ccsds.ErrInvalidArgument)
			return err
		}
		if s.registry.Exists(id) {
			validCount++
		}
	}

	msg.ResetRead()
	if _, err := msg.ReadHalf(); err != nil {
		ctx.Verification.FailCompletion(req, ccsds.ErrInvalidArgument)
		return err
	}

	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, ParameterValuesReport, 0)
	_ = tm.AppendHalf(validCount)
	for i := uint16(0); i < n; i++ {
		id, _ := msg.ReadHalf()
		if !s.registry.Exists(id) {
			continue
		}
		v, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		_ = tm.AppendHalf(id)
		_ = v.AppendTo(tm)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}

	ctx.Verification.SuccessCompletion(req)
	return nil
}

// setParameters iterates every carried (id, value) pair, skipping ids
// the registry doesn't recognize rather than aborting the whole
// message, matching updateParameterFromMessage's default no-op case.
func (s *Service) setParameters(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		wantType, ok := s.registry.TypeOf(id)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			continue
		}
		v, err := registry.ReadValue(msg, wantType)
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		if err := s.registry.Set(id, v); err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			continue
		}
	}

	ctx.Verification.SuccessCompletion(req)
	return nil
}
