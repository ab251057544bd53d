package ccsds

import "testing"

func TestComposeParseTCRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	msg := NewMessage(TC, 17, 1, 0)
	msg.ApplicationID = 0x123
	msg.SourceID = 7
	if err := msg.AppendHalf(0xBEEF); err != nil {
		t.Fatalf("AppendHalf: %v", err)
	}
	msg.Finalize(nil)

	data, err := Compose(opts, msg, 5+2, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	parsed, err := Parse(opts, data, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.PacketType != TC || parsed.ServiceType != 17 || parsed.MessageType != 1 {
		t.Errorf("parsed header = %+v; want TC[17,1]", parsed)
	}
	if parsed.ApplicationID != 0x123 {
		t.Errorf("ApplicationID = %x; want 0x123", parsed.ApplicationID)
	}
	if v, err := parsed.ReadHalf(); err != nil || v != 0xBEEF {
		t.Errorf("payload ReadHalf = %x, %v; want 0xBEEF, nil", v, err)
	}
}

func TestComposeParseTMRoundTripWithCRC(t *testing.T) {
	opts := DefaultOptions()
	opts.CRCEnabled = true

	msg := NewMessage(TM, 1, 1, 0)
	msg.Finalize(NewCounters())

	data, err := Compose(opts, msg, 15, func() uint64 { return 123456 })
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !VerifyCRC(data) {
		t.Errorf("VerifyCRC = false; want true for a freshly composed packet")
	}

	parsed, err := Parse(opts, data[:len(data)-2], true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.PacketType != TM || parsed.ServiceType != 1 || parsed.MessageType != 1 {
		t.Errorf("parsed header = %+v; want TM[1,1]", parsed)
	}
}

func TestParseRejectsShortBuffer(t *testing.T) {
	opts := DefaultOptions()
	if _, err := Parse(opts, []byte{1, 2, 3}, true); err != ErrLengthLessThanExpected {
		t.Errorf("Parse(3 bytes) = %v; want ErrLengthLessThanExpected", err)
	}
}

func TestVerifyCRCDetectsCorruption(t *testing.T) {
	opts := DefaultOptions()
	opts.CRCEnabled = true
	msg := NewMessage(TC, 17, 1, 0)
	msg.Finalize(nil)
	data, err := Compose(opts, msg, 5, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	data[0] ^= 0xFF
	if VerifyCRC(data) {
		t.Errorf("VerifyCRC = true after corrupting a byte; want false")
	}
}
