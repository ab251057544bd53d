package eventaction

import (
	"testing"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/services/function"
)

type stubFunctionCaller struct {
	calls []uint16
}

func (f *stubFunctionCaller) Call(events dispatch.EventRaiser, functionID uint16, args [function.ArgMax]byte) ccsds.ErrorCode {
	f.calls = append(f.calls, functionID)
	return ccsds.ErrNone
}

func TestAddRejectsWhenEnabledMappingExists(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	def := Definition{EventID: 1, FunctionID: 2, Enabled: true}
	s.entries[1] = []*Definition{&def}
	s.count = 1

	code := s.Add(Definition{EventID: 1, FunctionID: 3})
	if code != ccsds.ErrEventActionEnabledError {
		t.Errorf("Add with an enabled mapping present = %v; want ErrEventActionEnabledError", code)
	}
}

func TestAddOverwritesExistingDisabledEntry(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	if code := s.Add(Definition{EventID: 1, FunctionID: 2, APID: 10}); code != ccsds.ErrNone {
		t.Fatalf("first Add: %v", code)
	}
	if code := s.Add(Definition{EventID: 1, FunctionID: 2, APID: 20}); code != ccsds.ErrNone {
		t.Fatalf("overwrite Add: %v", code)
	}
	if s.count != 1 {
		t.Errorf("count after overwrite = %d; want 1", s.count)
	}
	if s.entries[1][0].APID != 20 {
		t.Errorf("APID after overwrite = %d; want 20", s.entries[1][0].APID)
	}
}

func TestAddReportsMapFullAtCapacity(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	for i := uint16(0); i < NMax; i++ {
		if code := s.Add(Definition{EventID: i, FunctionID: 1}); code != ccsds.ErrNone {
			t.Fatalf("Add #%d: %v", i, code)
		}
	}
	if code := s.Add(Definition{EventID: NMax + 1, FunctionID: 1}); code != ccsds.ErrMapFull {
		t.Errorf("Add beyond capacity = %v; want ErrMapFull", code)
	}
}

func TestDeleteRejectsEnabledEntry(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	_ = s.Add(Definition{EventID: 1, FunctionID: 2})
	s.SetEnabled([]uint16{1}, true)
	if code := s.Delete(1, 2); code != ccsds.ErrEventActionEnabledError {
		t.Errorf("Delete an enabled entry = %v; want ErrEventActionEnabledError", code)
	}
}

func TestDeleteUnknownReturnsInvalidArgument(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	if code := s.Delete(99, 1); code != ccsds.ErrInvalidArgument {
		t.Errorf("Delete unknown = %v; want ErrInvalidArgument", code)
	}
}

func TestSetEnabledEmptyListAffectsEverything(t *testing.T) {
	s := New(ccsds.NewCounters(), nil, nil, nil)
	_ = s.Add(Definition{EventID: 1, FunctionID: 1})
	_ = s.Add(Definition{EventID: 2, FunctionID: 1})
	s.SetEnabled(nil, true)
	if !s.entries[1][0].Enabled || !s.entries[2][0].Enabled {
		t.Errorf("SetEnabled(nil, true) did not enable every entry")
	}
}

func TestOnEventSkipsWhenFunctionStatusDisabled(t *testing.T) {
	fm := &stubFunctionCaller{}
	s := New(ccsds.NewCounters(), nil, fm, nil)
	_ = s.Add(Definition{EventID: 1, FunctionID: 7})
	s.SetEnabled([]uint16{1}, true)
	s.functionStatus = false

	s.OnEvent(1)
	if len(fm.calls) != 0 {
		t.Errorf("OnEvent invoked %d functions while function status disabled; want 0", len(fm.calls))
	}
}

func TestOnEventInvokesOnlyEnabledEntries(t *testing.T) {
	fm := &stubFunctionCaller{}
	s := New(ccsds.NewCounters(), nil, fm, nil)
	_ = s.Add(Definition{EventID: 1, FunctionID: 7})
	_ = s.Add(Definition{EventID: 1, FunctionID: 8})
	s.SetEnabled([]uint16{1}, true)
	s.entries[1][1].Enabled = false

	s.OnEvent(1)
	if len(fm.calls) != 1 || fm.calls[0] != 7 {
		t.Errorf("OnEvent calls = %v; want [7]", fm.calls)
	}
}
