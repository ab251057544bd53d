package function

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

type stubEventRaiser struct {
	reports int
}

func (r *stubEventRaiser) Report(uint16, uint8, []byte) { r.reports++ }

func TestCallInvokesRegisteredFunction(t *testing.T) {
	s := New(ccsds.NewCounters())
	var got [ArgMax]byte
	s.Register(1, func(args [ArgMax]byte) ccsds.ErrorCode {
		got = args
		return ccsds.ErrNone
	})

	var args [ArgMax]byte
	args[0] = 0xFF
	if code := s.Call(nil, 1, args); code != ccsds.ErrNone {
		t.Fatalf("Call = %v; want ErrNone", code)
	}
	if got[0] != 0xFF {
		t.Errorf("registered function received args[0] = %x; want 0xFF", got[0])
	}
}

func TestCallUnknownFunctionRaisesEventAndReturnsError(t *testing.T) {
	s := New(ccsds.NewCounters())
	events := &stubEventRaiser{}
	var args [ArgMax]byte
	code := s.Call(events, 42, args)
	if code != ccsds.ErrFunctionNotFound {
		t.Errorf("Call(unknown) = %v; want ErrFunctionNotFound", code)
	}
	if events.reports != 1 {
		t.Errorf("Call(unknown) raised %d events; want 1", events.reports)
	}
}

func TestExecuteRejectsOversizedArgs(t *testing.T) {
	s := New(ccsds.NewCounters())
	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, PerformFunction, 0)
	_ = msg.AppendHalf(1)
	oversized := make([]byte, ArgMax+1)
	_ = msg.AppendString(oversized)

	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != ccsds.ErrUnacceptableMessage {
		t.Errorf("Execute(oversized args) = %v; want ErrUnacceptableMessage", err)
	}
}

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
