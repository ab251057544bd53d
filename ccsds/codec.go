package ccsds

// ECSSPUSVersion is the only 4-bit PUS version nibble accepted in the
// secondary header. The CCSDS primary header's version bits are
// checked separately and must be 0.
const ECSSPUSVersion = 2

const (
	ccsdsPrimarySize = 6
	tcSecondarySize  = 5
	tmSecondarySize  = 15
)

// Options parameterises the codec with the configurable constants
// named in spec.md §6.
type Options struct {
	MaxMessageSize      int // ECSS_MAX_MESSAGE_SIZE
	MaxCCSDSMessageSize int // CCSDS_MAX_MESSAGE_SIZE
	CRCEnabled          bool
	ErrorReportingActive bool
}

// DefaultOptions returns the spec's default constants.
func DefaultOptions() Options {
	return Options{
		MaxMessageSize:       DefaultMaxMessageSize,
		MaxCCSDSMessageSize:  DefaultMaxCCSDSMessageSize,
		CRCEnabled:           false,
		ErrorReportingActive: true,
	}
}

// Parse decodes a composed packet into a Message. parseCCSDS mirrors
// the original parse(bytes, parse_ccsds) contract: the caller always
// passes true in this core, and false is reserved for a raw-ECSS
// fast path that's never exercised here — so a false value is itself
// an error, per spec.md §4.2 step 2.
func Parse(opts Options, data []byte, parseCCSDS bool) (*Message, error) {
	if len(data) < ccsdsPrimarySize {
		return nil, ErrLengthLessThanExpected
	}
	if !parseCCSDS {
		return nil, ErrWrongPUSVersion
	}

	versionBits := (data[0] >> 5) & 0x7
	typeBit := (data[0] >> 4) & 0x1
	secHdrFlag := (data[0] >> 3) & 0x1
	apid := uint16(data[0]&0x7)<<8 | uint16(data[1])
	seqFlags := (data[2] >> 6) & 0x3
	seqCount := uint16(data[2]&0x3F)<<8 | uint16(data[3])
	dataLength := uint16(data[4])<<8 | uint16(data[5])

	packetType := TM
	if typeBit == 1 {
		packetType = TC
	}

	secHdrSize := tmSecondarySize
	if packetType == TC {
		secHdrSize = tcSecondarySize
	}
	if len(data) < ccsdsPrimarySize+secHdrSize {
		if packetType == TC {
			return nil, ErrTCSizeLessThanExpected
		}
		return nil, ErrTMSizeLessThanExpected
	}

	if opts.ErrorReportingActive {
		if versionBits != 0 {
			return nil, ErrWrongPUSVersion
		}
		if secHdrFlag != 1 {
			return nil, ErrWrongPUSVersion
		}
		if seqFlags != 0b11 {
			return nil, ErrWrongPUSVersion
		}
	}

	maxLen := opts.MaxMessageSize
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageSize
	}
	if int(dataLength) > maxLen+secHdrSize-1 {
		return nil, ErrTCSizeLargerThanExpected
	}

	ecss := data[ccsdsPrimarySize:]

	msg := NewMessage(packetType, 0, 0, maxLen)
	msg.ApplicationID = apid
	msg.SequenceCount = seqCount

	if packetType == TC {
		pusVersion := (ecss[0] >> 4) & 0xF
		if pusVersion != ECSSPUSVersion {
			return nil, ErrWrongPUSVersion
		}
		msg.ServiceType = ecss[1]
		msg.MessageType = ecss[2]
		msg.SourceID = uint16(ecss[3])<<8 | uint16(ecss[4])
		payload := ecss[tcSecondarySize:]
		if err := msg.AppendString(payload); err != nil {
			return nil, err
		}
	} else {
		pusVersion := (ecss[0] >> 4) & 0xF
		if pusVersion != ECSSPUSVersion {
			return nil, ErrWrongPUSVersion
		}
		msg.ServiceType = ecss[1]
		msg.MessageType = ecss[2]
		msg.MessageTypeCounter = uint16(ecss[3])<<8 | uint16(ecss[4])
		// destinationId ecss[5:7], epoch seconds ecss[7:11], spare ecss[11:15] — not retained on Message.
		payload := ecss[tmSecondarySize:]
		if err := msg.AppendString(payload); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

// EpochSecondsFunc supplies the 4-byte big-endian epoch-seconds field
// of a composed TM secondary header. Production code passes
// clock.Clock.NowUTC().ToEpochSeconds; tests pass a fixed value.
type EpochSecondsFunc func() uint64

// Compose builds the wire bytes for msg: ECSS secondary header plus
// zero-padded payload to ecssTotalSize, then the CCSDS primary header,
// then an optional trailing CRC-16/CCITT.
func Compose(opts Options, msg *Message, ecssTotalSize int, nowEpochSeconds EpochSecondsFunc) ([]byte, error) {
	maxCCSDS := opts.MaxCCSDSMessageSize
	if maxCCSDS <= 0 {
		maxCCSDS = DefaultMaxCCSDSMessageSize
	}
	if ecssTotalSize > maxCCSDS-ccsdsPrimarySize {
		return nil, ErrTCSizeLargerThanExpected
	}

	var secHdrSize int
	ecss := make([]byte, 0, ecssTotalSize)
	if msg.PacketType == TC {
		secHdrSize = tcSecondarySize
		ecss = append(ecss,
			ECSSPUSVersion<<4, // pusVersion nibble, ack-flags nibble left as 0
			msg.ServiceType,
			msg.MessageType,
			byte(msg.SourceID>>8), byte(msg.SourceID),
		)
	} else {
		secHdrSize = tmSecondarySize
		epoch := uint32(0)
		if nowEpochSeconds != nil {
			epoch = uint32(nowEpochSeconds())
		}
		ecss = append(ecss,
			ECSSPUSVersion<<4, // pusVersion nibble, spare nibble 0
			msg.ServiceType,
			msg.MessageType,
			byte(msg.MessageTypeCounter>>8), byte(msg.MessageTypeCounter),
			0, 0, // destinationId
			byte(epoch>>24), byte(epoch>>16), byte(epoch>>8), byte(epoch),
			0, 0, 0, 0, // spare
		)
	}

	if ecssTotalSize < secHdrSize {
		return nil, ErrTCSizeLargerThanExpected
	}
	payloadSpace := ecssTotalSize - secHdrSize
	payload := msg.Payload()
	if len(payload) > payloadSpace {
		return nil, ErrTCSizeLargerThanExpected
	}
	ecss = append(ecss, payload...)
	for i := len(payload); i < payloadSpace; i++ {
		ecss = append(ecss, 0)
	}

	composedLen := ccsdsPrimarySize + len(ecss)
	out := make([]byte, ccsdsPrimarySize, composedLen+2)

	var typeBit byte
	if msg.PacketType == TC {
		typeBit = 1
	}
	secHdrFlag := byte(1)
	packetID := (msg.ApplicationID & 0x7FF) | uint16(secHdrFlag)<<11 | uint16(typeBit)<<12
	seqControl := (msg.SequenceCount & 0x3FFF) | uint16(0b11)<<14
	dataLength := uint16(len(ecss) - 1)

	out[0] = byte(packetID >> 8)
	out[1] = byte(packetID)
	out[2] = byte(seqControl >> 8)
	out[3] = byte(seqControl)
	out[4] = byte(dataLength >> 8)
	out[5] = byte(dataLength)
	out = append(out, ecss...)

	if opts.CRCEnabled {
		crc := CRC16CCITT(out)
		out = append(out, byte(crc>>8), byte(crc))
	}

	return out, nil
}

// VerifyCRC reports whether the trailing 2 bytes of data are a valid
// CRC-16/CCITT over the preceding bytes.
func VerifyCRC(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	body := data[:len(data)-2]
	want := uint16(data[len(data)-2])<<8 | uint16(data[len(data)-1])
	return CRC16CCITT(body) == want
}
