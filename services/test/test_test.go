package test

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

type noopVerifier struct{}

func (noopVerifier) FailAcceptance(dispatch.RequestID, ccsds.ErrorCode)      {}
func (noopVerifier) SuccessAcceptance(dispatch.RequestID)                   {}
func (noopVerifier) FailStart(dispatch.RequestID, ccsds.ErrorCode)          {}
func (noopVerifier) SuccessStart(dispatch.RequestID)                        {}
func (noopVerifier) FailProgress(dispatch.RequestID, uint8, ccsds.ErrorCode) {}
func (noopVerifier) SuccessProgress(dispatch.RequestID, uint8)              {}
func (noopVerifier) FailCompletion(dispatch.RequestID, ccsds.ErrorCode)     {}
func (noopVerifier) SuccessCompletion(dispatch.RequestID)                   {}
func (noopVerifier) FailRouting(dispatch.RequestID, ccsds.ErrorCode)        {}
func (noopVerifier) SuccessRouting(dispatch.RequestID)                      {}

func TestAreYouAliveEmitsReport(t *testing.T) {
	var got *ccsds.Message
	s := New(ccsds.NewCounters(), func(tm *ccsds.Message) { got = tm })

	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, AreYouAliveTest, 0)
	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got == nil {
		t.Fatal("AreYouAliveTest did not emit a TM")
	}
	if got.ServiceType != ServiceTypeNum || got.MessageType != AreYouAliveTestReport {
		t.Errorf("emitted TM[%d,%d]; want TM[17,2]", got.ServiceType, got.MessageType)
	}
}

func TestOnBoardConnectionTestEchoesAPID(t *testing.T) {
	var got *ccsds.Message
	s := New(ccsds.NewCounters(), func(tm *ccsds.Message) { got = tm })

	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, OnBoardConnectionTest, 0)
	_ = msg.AppendHalf(123)
	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got == nil {
		t.Fatal("OnBoardConnectionTest did not emit a TM")
	}
	if got.MessageType != OnBoardConnectionTestReport {
		t.Errorf("emitted messageType = %d; want OnBoardConnectionTestReport", got.MessageType)
	}
	got.ResetRead()
	apid, err := got.ReadHalf()
	if err != nil || apid != 123 {
		t.Errorf("echoed apid = %d, %v; want 123, nil", apid, err)
	}
}

func TestOnBoardConnectionTestRejectsShortPayload(t *testing.T) {
	s := New(ccsds.NewCounters(), nil)
	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, OnBoardConnectionTest, 0)
	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err == nil {
		t.Error("Execute with no apid payload returned nil error; want a read error")
	}
}

func TestUnknownMessageTypeFailsAcceptance(t *testing.T) {
	s := New(ccsds.NewCounters(), nil)
	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, 99, 0)
	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != ccsds.ErrOtherMessageType {
		t.Errorf("Execute(unknown messageType) = %v; want ErrOtherMessageType", err)
	}
}
