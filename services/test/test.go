// Package test implements ST[17] the connection test service
// (spec.md §4.11, C11), grounded on
// original_source/src/Services/TestService.cpp.
package test

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

const ServiceTypeNum uint8 = 17

const (
	AreYouAliveTest             uint8 = 1
	AreYouAliveTestReport       uint8 = 2
	OnBoardConnectionTest       uint8 = 3
	OnBoardConnectionTestReport uint8 = 4
)

// Service is ST[17].
type Service struct {
	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
}

// New builds ST[17].
func New(counters *ccsds.Counters, storeTM func(*ccsds.Message)) *Service {
	return &Service{counters: counters, storeTM: storeTM}
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// Execute dispatches TC[17,{1,3}] per spec.md §4.11.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	switch msg.MessageType {
	case AreYouAliveTest:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, AreYouAliveTest) {
			return ccsds.ErrOtherMessageType
		}
		ctx.Verification.SuccessAcceptance(req)
		s.emit(AreYouAliveTestReport, func(*ccsds.Message) {})
		ctx.Verification.SuccessCompletion(req)
		return nil
	case OnBoardConnectionTest:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, OnBoardConnectionTest) {
			return ccsds.ErrOtherMessageType
		}
		apid, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
			return err
		}
		ctx.Verification.SuccessAcceptance(req)
		s.emit(OnBoardConnectionTestReport, func(tm *ccsds.Message) {
			_ = tm.AppendHalf(apid)
		})
		ctx.Verification.SuccessCompletion(req)
		return nil
	default:
		ctx.Verification.FailAcceptance(req, ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) emit(messageType uint8, fill func(*ccsds.Message)) {
	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, messageType, 0)
	fill(tm)
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
}
