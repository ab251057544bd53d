package ccsds

import "testing"

func TestMessageAppendReadRoundTrip(t *testing.T) {
	msg := NewMessage(TC, 17, 1, 0)
	if err := msg.AppendByte(0xAB); err != nil {
		t.Fatalf("AppendByte: %v", err)
	}
	if err := msg.AppendHalf(0x1234); err != nil {
		t.Fatalf("AppendHalf: %v", err)
	}
	if err := msg.AppendWord(0xDEADBEEF); err != nil {
		t.Fatalf("AppendWord: %v", err)
	}
	if err := msg.AppendString([]byte("hi")); err != nil {
		t.Fatalf("AppendString: %v", err)
	}

	msg.ResetRead()
	if b, err := msg.ReadByte(); err != nil || b != 0xAB {
		t.Errorf("ReadByte = %x, %v; want 0xAB, nil", b, err)
	}
	if h, err := msg.ReadHalf(); err != nil || h != 0x1234 {
		t.Errorf("ReadHalf = %x, %v; want 0x1234, nil", h, err)
	}
	if w, err := msg.ReadWord(); err != nil || w != 0xDEADBEEF {
		t.Errorf("ReadWord = %x, %v; want 0xDEADBEEF, nil", w, err)
	}
	if s, err := msg.ReadString(2); err != nil || string(s) != "hi" {
		t.Errorf("ReadString = %q, %v; want \"hi\", nil", s, err)
	}
}

func TestMessageAppendBitsMSBFirst(t *testing.T) {
	msg := NewMessage(TC, 0, 0, 0)
	if err := msg.AppendBits(3, 0b101); err != nil {
		t.Fatalf("AppendBits: %v", err)
	}
	if err := msg.AppendBits(5, 0b11001); err != nil {
		t.Fatalf("AppendBits: %v", err)
	}
	want := byte(0b10111001)
	if got := msg.Payload()[0]; got != want {
		t.Errorf("payload[0] = %08b; want %08b", got, want)
	}
}

func TestMessageTooManyBitsAppend(t *testing.T) {
	msg := NewMessage(TC, 0, 0, 0)
	if err := msg.AppendBits(33, 0); err != ErrTooManyBitsAppend {
		t.Errorf("AppendBits(33, ...) = %v; want ErrTooManyBitsAppend", err)
	}
}

func TestCountersMonotonic(t *testing.T) {
	c := NewCounters()
	a := c.nextTypeCounter(3, 25)
	b := c.nextTypeCounter(3, 25)
	if b != a+1 {
		t.Errorf("nextTypeCounter sequence = %d, %d; want consecutive", a, b)
	}
	other := c.nextTypeCounter(3, 26)
	if other != 0 {
		t.Errorf("nextTypeCounter for a new (service,type) pair = %d; want 0", other)
	}
}

func TestFinalizeAssignsTMCountersOnly(t *testing.T) {
	c := NewCounters()
	tm := NewMessage(TM, 17, 2, 0)
	tm.Finalize(c)
	if tm.SequenceCount != 0 {
		t.Errorf("first TM SequenceCount = %d; want 0", tm.SequenceCount)
	}

	tc := NewMessage(TC, 17, 1, 0)
	tc.Finalize(c)
	if tc.SequenceCount != 0 || tc.MessageTypeCounter != 0 {
		t.Errorf("TC Finalize must not touch counters; got seq=%d typeCounter=%d", tc.SequenceCount, tc.MessageTypeCounter)
	}
}
