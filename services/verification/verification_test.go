package verification

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

func TestRoutingReportMessageTypesMatchWireSpec(t *testing.T) {
	if SuccessfulRoutingReport != 9 {
		t.Errorf("SuccessfulRoutingReport = %d; want 9 (TM[1,9])", SuccessfulRoutingReport)
	}
	if FailedRoutingReport != 10 {
		t.Errorf("FailedRoutingReport = %d; want 10 (TM[1,10])", FailedRoutingReport)
	}
}

func TestSuccessAcceptanceEmitsTM1_1(t *testing.T) {
	var got *ccsds.Message
	s := New(ccsds.NewCounters(), ccsds.DefaultOptions(), func() uint64 { return 0 }, func(tm *ccsds.Message) { got = tm })

	s.SuccessAcceptance(dispatch.RequestID{APID: 9, SeqCount: 3})
	if got == nil {
		t.Fatal("SuccessAcceptance did not call storeTM")
	}
	if got.ServiceType != ServiceTypeNum || got.MessageType != SuccessfulAcceptanceReport {
		t.Errorf("emitted TM[%d,%d]; want TM[1,1]", got.ServiceType, got.MessageType)
	}
}

func TestFailAcceptanceAppendsErrorCode(t *testing.T) {
	var got *ccsds.Message
	s := New(ccsds.NewCounters(), ccsds.DefaultOptions(), func() uint64 { return 0 }, func(tm *ccsds.Message) { got = tm })

	s.FailAcceptance(dispatch.RequestID{}, ccsds.ErrInvalidArgument)
	if got.MessageType != FailedAcceptanceReport {
		t.Fatalf("message type = %d; want FailedAcceptanceReport", got.MessageType)
	}

	got.ResetRead()
	if _, err := got.ReadBits(16); err != nil {
		t.Fatalf("read packetID field: %v", err)
	}
	if _, err := got.ReadBits(16); err != nil {
		t.Fatalf("read seqControl field: %v", err)
	}
	code, err := got.ReadHalf()
	if err != nil {
		t.Fatalf("ReadHalf (error code): %v", err)
	}
	if ccsds.ErrorCode(code) != ccsds.ErrInvalidArgument {
		t.Errorf("appended error code = %d; want %d", code, ccsds.ErrInvalidArgument)
	}
}

func TestAssembleReportMessageIncludesFunctionID(t *testing.T) {
	s := New(ccsds.NewCounters(), ccsds.DefaultOptions(), func() uint64 { return 0 }, nil)
	req := dispatch.RequestID{APID: 1, FunctionID: 99, HasFunctionID: true}
	tm := s.assembleReportMessage(SuccessfulStartOfExecution, req)

	tm.ResetRead()
	_, _ = tm.ReadBits(16)
	_, _ = tm.ReadBits(16)
	fn, err := tm.ReadHalf()
	if err != nil || fn != 99 {
		t.Errorf("function id in TM = %d, %v; want 99, nil", fn, err)
	}
}

func TestProgressReportsCarryStepNumber(t *testing.T) {
	var got *ccsds.Message
	s := New(ccsds.NewCounters(), ccsds.DefaultOptions(), func() uint64 { return 0 }, func(tm *ccsds.Message) { got = tm })

	s.SuccessProgress(dispatch.RequestID{}, 4)
	got.ResetRead()
	_, _ = got.ReadBits(16)
	_, _ = got.ReadBits(16)
	step, err := got.ReadByte()
	if err != nil || step != 4 {
		t.Errorf("step = %d, %v; want 4, nil", step, err)
	}
}
