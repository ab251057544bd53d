// Package verification implements ST[01] request verification
// (spec.md §4.4, C4): acceptance/start/progress/completion/routing
// success and failure reports, grounded on
// original_source/src/Services/RequestVerificationService.cpp.
package verification

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

const ServiceTypeNum uint8 = 1

// TM message types, matching RequestVerificationService::MessageType.
const (
	SuccessfulAcceptanceReport    uint8 = 1
	FailedAcceptanceReport        uint8 = 2
	SuccessfulStartOfExecution    uint8 = 3
	FailedStartOfExecution        uint8 = 4
	SuccessfulProgressOfExecution uint8 = 5
	FailedProgressOfExecution     uint8 = 6
	SuccessfulCompletionOfExecution uint8 = 7
	FailedCompletionOfExecution     uint8 = 8
	SuccessfulRoutingReport         uint8 = 9
	FailedRoutingReport             uint8 = 10
)

// Service is ST[01]. It implements dispatch.Verifier so it can be
// installed directly as Context.Verification.
type Service struct {
	counters *ccsds.Counters
	opts     ccsds.Options
	epoch    func() uint64
	storeTM  func(*ccsds.Message)
}

// New builds the verification service. opts and epoch are kept on the
// Service but not read by it; storeTM receives each finalized report
// Message uncomposed, and composing it into a TM packet is left to
// storeTM (spec.md §5: "the core only calls store_message(tm)").
func New(counters *ccsds.Counters, opts ccsds.Options, epoch func() uint64, storeTM func(*ccsds.Message)) *Service {
	return &Service{counters: counters, opts: opts, epoch: epoch, storeTM: storeTM}
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// Execute exists so Service also satisfies dispatch.Service, though
// in practice nothing sends a TC addressed to ST[01] in this design.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	ctx.ReportInternalError(ccsds.ErrOtherMessageType, uint16(ServiceTypeNum))
	return ccsds.ErrOtherMessageType
}

// assembleReportMessage replays the request identity — version, type,
// secondary-header-flag, apid, seq-flags, sequence-count, and
// optionally function_id — into the outgoing TM, matching
// RequestVerificationService::assembleReportMessage.
func (s *Service) assembleReportMessage(messageType uint8, req dispatch.RequestID) *ccsds.Message {
	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, messageType, 0)
	tm.ApplicationID = req.APID

	var typeBit uint32
	if req.PacketType == ccsds.TC {
		typeBit = 1
	}
	packetIDFields := uint32(req.PacketVersion&0x7)<<13 | typeBit<<12 | uint32(req.SecHdrFlag&0x1)<<11 | uint32(req.APID&0x7FF)
	_ = tm.AppendBits(16, packetIDFields)

	seqControlFields := uint32(req.SeqFlags&0x3)<<14 | uint32(req.SeqCount&0x3FFF)
	_ = tm.AppendBits(16, seqControlFields)

	if req.HasFunctionID {
		_ = tm.AppendHalf(req.FunctionID)
	}
	return tm
}

func (s *Service) emit(messageType uint8, req dispatch.RequestID, tail func(*ccsds.Message)) {
	tm := s.assembleReportMessage(messageType, req)
	if tail != nil {
		tail(tm)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
}

func (s *Service) SuccessAcceptance(req dispatch.RequestID) {
	s.emit(SuccessfulAcceptanceReport, req, nil)
}

func (s *Service) FailAcceptance(req dispatch.RequestID, code ccsds.ErrorCode) {
	s.emit(FailedAcceptanceReport, req, func(tm *ccsds.Message) { _ = tm.AppendHalf(uint16(code)) })
}

func (s *Service) SuccessStart(req dispatch.RequestID) {
	s.emit(SuccessfulStartOfExecution, req, nil)
}

func (s *Service) FailStart(req dispatch.RequestID, code ccsds.ErrorCode) {
	s.emit(FailedStartOfExecution, req, func(tm *ccsds.Message) { _ = tm.AppendHalf(uint16(code)) })
}

func (s *Service) SuccessProgress(req dispatch.RequestID, step uint8) {
	s.emit(SuccessfulProgressOfExecution, req, func(tm *ccsds.Message) { _ = tm.AppendByte(step) })
}

func (s *Service) FailProgress(req dispatch.RequestID, step uint8, code ccsds.ErrorCode) {
	s.emit(FailedProgressOfExecution, req, func(tm *ccsds.Message) {
		_ = tm.AppendByte(step)
		_ = tm.AppendHalf(uint16(code))
	})
}

func (s *Service) SuccessCompletion(req dispatch.RequestID) {
	s.emit(SuccessfulCompletionOfExecution, req, nil)
}

func (s *Service) FailCompletion(req dispatch.RequestID, code ccsds.ErrorCode) {
	s.emit(FailedCompletionOfExecution, req, func(tm *ccsds.Message) { _ = tm.AppendHalf(uint16(code)) })
}

func (s *Service) SuccessRouting(req dispatch.RequestID) {
	s.emit(SuccessfulRoutingReport, req, nil)
}

func (s *Service) FailRouting(req dispatch.RequestID, code ccsds.ErrorCode) {
	s.emit(FailedRoutingReport, req, func(tm *ccsds.Message) { _ = tm.AppendHalf(uint16(code)) })
}
