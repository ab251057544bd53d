package parameter

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/registry"
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

func newTestRegistry() *registry.InMemory {
	reg := registry.NewInMemory()
	reg.Register(1, registry.Value{Type: registry.U8, U: 7})
	reg.Register(2, registry.Value{Type: registry.U16, U: 4242})
	return reg
}

func TestReportParametersSkipsUnknownIdsInCount(t *testing.T) {
	reg := newTestRegistry()
	var got *ccsds.Message
	s := New(reg, ccsds.NewCounters(), func(tm *ccsds.Message) { got = tm })

	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, ReportParameterValues, 0)
	_ = msg.AppendHalf(3)
	_ = msg.AppendHalf(1)
	_ = msg.AppendHalf(99)
	_ = msg.AppendHalf(2)

	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got == nil {
		t.Fatal("reportParameters did not emit a TM")
	}
	got.ResetRead()
	count, _ := got.ReadHalf()
	if count != 2 {
		t.Errorf("reported count = %d; want 2 (unknown id 99 excluded)", count)
	}
	id1, _ := got.ReadHalf()
	v1, _ := got.ReadByte()
	if id1 != 1 || v1 != 7 {
		t.Errorf("first pair = (%d, %d); want (1, 7)", id1, v1)
	}
	id2, _ := got.ReadHalf()
	v2, _ := got.ReadHalf()
	if id2 != 2 || v2 != 4242 {
		t.Errorf("second pair = (%d, %d); want (2, 4242)", id2, v2)
	}
}

func TestSetParametersSkipsUnknownIdWithoutAbortingMessage(t *testing.T) {
	reg := newTestRegistry()
	s := New(reg, ccsds.NewCounters(), nil)

	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, SetParameterValues, 0)
	_ = msg.AppendHalf(2)
	_ = msg.AppendHalf(99)
	_ = msg.AppendHalf(1)
	_ = msg.AppendByte(55)

	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	v, err := reg.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if v.U != 55 {
		t.Errorf("parameter 1 after set = %d; want 55", v.U)
	}
}

func TestSetParametersUpdatesKnownID(t *testing.T) {
	reg := newTestRegistry()
	s := New(reg, ccsds.NewCounters(), nil)

	msg := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, SetParameterValues, 0)
	_ = msg.AppendHalf(1)
	_ = msg.AppendHalf(2)
	_ = msg.AppendHalf(1000)

	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	v, _ := reg.Get(2)
	if v.U != 1000 {
		t.Errorf("parameter 2 after set = %d; want 1000", v.U)
	}
}
