package event

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
)

type stubBinder struct {
	seen []uint16
}

func (b *stubBinder) OnEvent(eventID uint16) { b.seen = append(b.seen, eventID) }

func TestReportEmitsTMAndInvokesBinderWhenEnabled(t *testing.T) {
	var tms []*ccsds.Message
	binder := &stubBinder{}
	s := New(ccsds.NewCounters(), func(tm *ccsds.Message) { tms = append(tms, tm) }, binder)

	s.Report(WWDGReset, LowSeverityAnomalyReport, []byte("aux"))

	if len(tms) != 1 {
		t.Fatalf("Report emitted %d TMs; want 1", len(tms))
	}
	if tms[0].MessageType != LowSeverityAnomalyReport {
		t.Errorf("emitted messageType = %d; want LowSeverityAnomalyReport", tms[0].MessageType)
	}
	if len(binder.seen) != 1 || binder.seen[0] != WWDGReset {
		t.Errorf("binder saw %v; want [WWDGReset]", binder.seen)
	}
}

func TestReportOnDisabledEventStillCountsButDoesNotEmit(t *testing.T) {
	var tms []*ccsds.Message
	binder := &stubBinder{}
	s := New(ccsds.NewCounters(), func(tm *ccsds.Message) { tms = append(tms, tm) }, binder)
	s.enabled[WWDGReset] = false

	s.Report(WWDGReset, LowSeverityAnomalyReport, nil)

	if len(tms) != 0 {
		t.Errorf("Report on a disabled event emitted %d TMs; want 0", len(tms))
	}
	if len(binder.seen) != 0 {
		t.Errorf("Report on a disabled event invoked the binder %d times; want 0", len(binder.seen))
	}
	if s.lowEventCount != 1 {
		t.Errorf("lowEventCount = %d; want 1 (occurrence still counted)", s.lowEventCount)
	}
}

func TestReportIgnoresOutOfRangeEventID(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil)
	s.Report(0, LowSeverityAnomalyReport, nil)
	s.Report(NumEvents+50, LowSeverityAnomalyReport, nil)
	if s.lowEventCount != 0 {
		t.Errorf("out-of-range event ids incremented counters; lowEventCount = %d", s.lowEventCount)
	}
}

func TestSetBinderWiresLateBoundActionBinder(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil)
	binder := &stubBinder{}
	s.SetBinder(binder)
	s.Report(WWDGReset, LowSeverityAnomalyReport, nil)
	if len(binder.seen) != 1 {
		t.Errorf("binder set after New saw %d events; want 1", len(binder.seen))
	}
}

func TestDisableThenReportListOfDisabledEvents(t *testing.T) {
	var tms []*ccsds.Message
	s := New(ccsds.NewCounters(), func(tm *ccsds.Message) { tms = append(tms, tm) }, nil)

	disable := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, DisableReportGenerationOfEvents, 0)
	_ = disable.AppendHalf(1)
	_ = disable.AppendHalf(WWDGReset)

	ctx := &dispatch.Context{Verification: noopVerifier{}}
	if err := s.Execute(ctx, disable); err != nil {
		t.Fatalf("Execute(disable): %v", err)
	}
	if s.enabled[WWDGReset] {
		t.Errorf("event still enabled after DisableReportGenerationOfEvents")
	}

	list := ccsds.NewMessage(ccsds.TC, ServiceTypeNum, ReportListOfDisabledEvents, 0)
	if err := s.Execute(ctx, list); err != nil {
		t.Fatalf("Execute(list): %v", err)
	}
	if len(tms) != 1 {
		t.Fatalf("Execute(list) emitted %d TMs; want 1", len(tms))
	}
	tms[0].ResetRead()
	n, _ := tms[0].ReadHalf()
	if n != 1 {
		t.Errorf("disabled count in report = %d; want 1", n)
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
