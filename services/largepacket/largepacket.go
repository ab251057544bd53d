// Package largepacket implements ST[13] large packet transfer
// (spec.md §4.9, C9), grounded on
// original_source/src/Services/LargePacketTransferService.cpp: a
// three-state uplink reassembly machine with persisted offset
// bookkeeping.
package largepacket

import (
	"fmt"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/registry"
	"github.com/nyxsat/pusd/store"
)

const ServiceTypeNum uint8 = 13

const (
	FirstDownlinkPartReport uint8 = 1
	IntermediateDownlinkPartReport uint8 = 2
	LastDownlinkPartReport uint8 = 3
	FirstUplinkPart  uint8 = 9
	IntermediateUplinkPart uint8 = 10
	LastUplinkPart   uint8 = 11
)

// PartSize is ECSS_MAX_FIXED_OCTET_STRING_SIZE: the fixed size of
// every intermediate part; last parts may be shorter.
const PartSize = 127

// Recognized uplink transaction identifiers, per spec.md §4.9 and
// original_source/src/Services/LargePacketTransferService.cpp's
// isValidUpLinkIdentifier.
const (
	AtlasMcuFirmware   uint16 = 33
	AtlasSoftCpuFirmware uint16 = 34
	AtlasBitStream     uint16 = 35
	ScheduledTC        uint16 = 36
	ObcFirmware        uint16 = 70
)

func isValidUplinkIdentifier(id uint16) bool {
	switch id {
	case AtlasMcuFirmware, AtlasSoftCpuFirmware, AtlasBitStream, ScheduledTC, ObcFirmware:
		return true
	default:
		return false
	}
}

func isFirmwareUplink(id uint16) bool {
	switch id {
	case AtlasMcuFirmware, AtlasSoftCpuFirmware, AtlasBitStream:
		return true
	default:
		return false
	}
}

// state is the three-state machine's current phase.
type state uint8

const (
	stateIdle state = iota
	stateReceiving
)

// Service is ST[13].
type Service struct {
	state            state
	transactionID    uint16
	nextSeq          uint32
	uplinkSize       uint32
	receivedCount    uint32
	discontinuity    uint32

	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
	mem      store.MemoryStore
	params   registry.ParameterRegistry
}

// New builds ST[13] and recovers any in-flight transaction's state
// from the parameter registry, matching "a restart after a crash
// resumes from the persisted LFT_SEQUENCE_NUM" (spec.md §4.9).
func New(counters *ccsds.Counters, storeTM func(*ccsds.Message), mem store.MemoryStore, params registry.ParameterRegistry) *Service {
	s := &Service{counters: counters, storeTM: storeTM, mem: mem, params: params}
	s.recover()
	return s
}

func (s *Service) recover() {
	if s.params == nil {
		return
	}
	if !s.params.Exists(registry.LFTTransactionID) {
		return
	}
	if v, err := s.params.Get(registry.LFTTransactionID); err == nil && v.U != 0 {
		s.transactionID = uint16(v.U)
		s.state = stateReceiving
		if v, err := s.params.Get(registry.LFTSequenceNum); err == nil {
			s.nextSeq = uint32(v.U) + 1
		}
		if v, err := s.params.Get(registry.LFTCount); err == nil {
			s.receivedCount = uint32(v.U)
		}
		if v, err := s.params.Get(registry.LFTUplinkSize); err == nil {
			s.uplinkSize = uint32(v.U)
		}
		if v, err := s.params.Get(registry.LFTDiscontinuityCounter); err == nil {
			s.discontinuity = uint32(v.U)
		}
	}
}

// persistU32 writes a well-known LFT_* parameter. The registry is
// expected to pre-register every well-known id (see cmd/serve.go's
// wiring) so Set always succeeds here.
func (s *Service) persistU32(id uint16, v uint32) {
	if s.params == nil {
		return
	}
	_ = s.params.Set(id, registry.Value{Type: registry.U32, U: uint64(v)})
}

func (s *Service) fileFor(transactionID uint16) string {
	return fmt.Sprintf("LPT_%d", transactionID)
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// Execute dispatches TC[13,{9,10,11}] per spec.md §4.9.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	switch msg.MessageType {
	case FirstUplinkPart:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, FirstUplinkPart) {
			return ccsds.ErrOtherMessageType
		}
		return s.first(ctx, msg)
	case IntermediateUplinkPart:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, IntermediateUplinkPart) {
			return ccsds.ErrOtherMessageType
		}
		return s.intermediate(ctx, msg)
	case LastUplinkPart:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, LastUplinkPart) {
			return ccsds.ErrOtherMessageType
		}
		return s.last(ctx, msg)
	default:
		ctx.Verification.FailAcceptance(dispatch.RequestIDOf(msg), ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) first(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	transactionID, e1 := msg.ReadHalf()
	_, e2 := msg.ReadWord() // part_seq, always 0 for "first"
	filename, e3 := msg.ReadString(10)
	size, e4 := msg.ReadWord()
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}
	_ = filename

	if !isValidUplinkIdentifier(transactionID) {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}
	ctx.Verification.SuccessAcceptance(req)

	s.state = stateReceiving
	s.transactionID = transactionID
	s.nextSeq = 1
	s.uplinkSize = size
	s.receivedCount = 0
	s.discontinuity = 0
	s.persistU32(registry.LFTTransactionID, uint32(transactionID))
	s.persistU32(registry.LFTSequenceNum, 0)
	s.persistU32(registry.LFTUplinkSize, size)
	s.persistU32(registry.LFTDiscontinuityCounter, 0)
	s.persistU32(registry.LFTCount, 0)

	if s.mem != nil {
		_ = s.mem.WriteToFile(s.fileFor(transactionID), nil)
	}

	ctx.Verification.SuccessCompletion(req)
	return nil
}

// validateSequenceNumber reports a progress failure and signals the
// caller to stop without writing when the part is out of order. The
// original C++ reports the same failure but falls through and writes
// anyway (its return false is commented out); this port does not
// carry that forward, since spec.md's testable property #7 requires
// that LFT_SEQUENCE_NUM not advance on an out-of-order intermediate.
//
// SuccessAcceptance is emitted here, once the transaction-id/state
// check passes, rather than unconditionally by the caller before this
// runs — matching original_source/src/Services/LargePacketTransferService.cpp's
// validateStoredTransactionId/validateSequenceNumber, which only ever
// report success once, after every check passes, never success then
// fail for the same request.
func (s *Service) validateSequenceNumber(ctx *dispatch.Context, req dispatch.RequestID, transactionID uint16, seq uint32) bool {
	if transactionID != s.transactionID || s.state != stateReceiving {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return false
	}
	ctx.Verification.SuccessAcceptance(req)
	if seq != s.nextSeq {
		s.discontinuity++
		s.persistU32(registry.LFTDiscontinuityCounter, s.discontinuity)
		ctx.Verification.FailProgress(req, uint8(seq), ccsds.ErrInvalidArgument)
		return false
	}
	return true
}

func (s *Service) writePart(transactionID uint16, seq uint32, data []byte) {
	if s.mem == nil {
		return
	}
	if isFirmwareUplink(transactionID) {
		// Firmware uplinks pack four PART_SIZE-byte parts per flash
		// page, starting with the first data-carrying part (seq 1):
		// page p holds parts 4p+1..4p+4. Each part is written to the
		// file as it arrives; there is no separate page commit on the
		// fourth (or last) part of the quartet.
		idx := seq - 1
		pageOffset := (idx / 4) * (4 * PartSize)
		_ = s.mem.WriteToFileAtOffset(s.fileFor(transactionID), data, pageOffset+(idx%4)*PartSize)
		return
	}
	_ = s.mem.WriteToFileAtOffset(s.fileFor(transactionID), data, seq*PartSize)
}

func (s *Service) intermediate(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	transactionID, e1 := msg.ReadHalf()
	seq, e2 := msg.ReadWord()
	data, e3 := msg.ReadString(PartSize)
	if e1 != nil || e2 != nil || e3 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}

	if !s.validateSequenceNumber(ctx, req, transactionID, seq) {
		return ccsds.ErrInvalidArgument
	}

	s.writePart(transactionID, seq, data)
	s.receivedCount++
	s.nextSeq = seq + 1
	s.persistU32(registry.LFTSequenceNum, seq)
	s.persistU32(registry.LFTCount, s.receivedCount)

	ctx.Verification.SuccessProgress(req, uint8(seq))
	return nil
}

func (s *Service) last(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	transactionID, e1 := msg.ReadHalf()
	seq, e2 := msg.ReadWord()
	data, e3 := msg.ReadString(msg.RemainingLen())
	if e1 != nil || e2 != nil || e3 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}

	if !s.validateSequenceNumber(ctx, req, transactionID, seq) {
		return ccsds.ErrInvalidArgument
	}

	s.writePart(transactionID, seq, data)
	s.receivedCount++
	s.nextSeq = seq + 1
	s.persistU32(registry.LFTSequenceNum, seq)
	s.persistU32(registry.LFTCount, s.receivedCount)

	storedSize := seq * PartSize
	if storedSize != s.uplinkSize {
		// Not fatal, per spec.md §4.9: "a mismatch is not fatal but is
		// reported."
		ctx.Verification.FailCompletion(req, ccsds.ErrInvalidArgument)
	} else {
		ctx.Verification.SuccessCompletion(req)
	}

	s.state = stateIdle
	s.transactionID = 0
	s.persistU32(registry.LFTTransactionID, 0)
	return nil
}
