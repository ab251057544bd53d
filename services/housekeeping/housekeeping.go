// Package housekeeping implements ST[03] housekeeping (spec.md §4.8,
// C8), grounded on
// original_source/src/Services/HousekeepingService.cpp: fixed-slot
// persisted parameter-report structures with periodic generation
// driven by a tick.
package housekeeping

import (
	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/registry"
	"github.com/nyxsat/pusd/store"
)

const ServiceTypeNum uint8 = 3

const (
	CreateHousekeepingReportStructure uint8 = 1
	DeleteHousekeepingReportStructure uint8 = 3
	EnablePeriodicGeneration          uint8 = 5
	DisablePeriodicGeneration         uint8 = 6
	ReportHousekeepingStructures      uint8 = 9
	HousekeepingStructureReport       uint8 = 10
	GenerateOneShotReport             uint8 = 27
	HousekeepingParametersReport      uint8 = 25
	AppendParametersToHousekeepingStructure uint8 = 29
	ModifyCollectionInterval          uint8 = 31
	ReportHousekeepingPeriodicProperties uint8 = 33
	HousekeepingPeriodicPropertiesReport uint8 = 35
)

// NHKMax is N_HK_MAX: the number of fixed slots in the persisted
// structures array.
const NHKMax = 32

// NParamMax is N_PARAM: the maximum parameter ids one structure holds.
const NParamMax = 30

// FileName is the well-known MemoryStore path for the structures
// array, per spec.md §6.
const FileName = "HK_STRUCTS"

// rawStructureRecordSize is the serialised payload before block
// padding: structure_id(2) + interval(4) + is_periodic(2) +
// param_count(2) + param_ids(2*NParamMax).
const rawStructureRecordSize = 2 + 4 + 2 + 2 + 2*NParamMax

// structureRecordSize is rawStructureRecordSize rounded up to a
// multiple of store.MRAMDataBlockSize, so one slot occupies a whole
// number of MRAM blocks (spec.md line 69: "fixed-width (one MRAM
// block)").
const structureRecordSize = ((rawStructureRecordSize + store.MRAMDataBlockSize - 1) / store.MRAMDataBlockSize) * store.MRAMDataBlockSize

// Structure is one HousekeepingStructure (spec.md §3).
type Structure struct {
	ID                 uint16
	CollectionInterval uint32
	PeriodicEnabled    bool
	ParameterIDs       []uint16
}

func (s Structure) isAbsent() bool { return s.ID == 0 }

func (s Structure) marshal() []byte {
	buf := make([]byte, structureRecordSize)
	buf[0], buf[1] = byte(s.ID>>8), byte(s.ID)
	buf[2], buf[3], buf[4], buf[5] = byte(s.CollectionInterval>>24), byte(s.CollectionInterval>>16), byte(s.CollectionInterval>>8), byte(s.CollectionInterval)
	if s.PeriodicEnabled {
		buf[7] = 1
	}
	n := len(s.ParameterIDs)
	if n > NParamMax {
		n = NParamMax
	}
	buf[8], buf[9] = byte(n>>8), byte(n)
	for i := 0; i < n; i++ {
		off := 10 + 2*i
		buf[off], buf[off+1] = byte(s.ParameterIDs[i]>>8), byte(s.ParameterIDs[i])
	}
	return buf
}

func unmarshalStructure(buf []byte) Structure {
	var s Structure
	if len(buf) < structureRecordSize {
		return s
	}
	s.ID = uint16(buf[0])<<8 | uint16(buf[1])
	s.CollectionInterval = uint32(buf[2])<<24 | uint32(buf[3])<<16 | uint32(buf[4])<<8 | uint32(buf[5])
	s.PeriodicEnabled = buf[7] != 0
	n := int(uint16(buf[8])<<8 | uint16(buf[9]))
	if n > NParamMax {
		n = NParamMax
	}
	s.ParameterIDs = make([]uint16, n)
	for i := 0; i < n; i++ {
		off := 10 + 2*i
		s.ParameterIDs[i] = uint16(buf[off])<<8 | uint16(buf[off+1])
	}
	return s
}

// Service is ST[03].
type Service struct {
	slots      [NHKMax]Structure
	lastFireAt [NHKMax]uint64

	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
	mem      store.MemoryStore
	params   registry.ParameterRegistry
}

// New builds ST[03] and loads any previously-persisted slots from mem.
func New(counters *ccsds.Counters, storeTM func(*ccsds.Message), mem store.MemoryStore, params registry.ParameterRegistry) *Service {
	s := &Service{counters: counters, storeTM: storeTM, mem: mem, params: params}
	s.recover()
	return s
}

func (s *Service) recover() {
	if s.mem == nil {
		return
	}
	data, err := store.ReadAll(s.mem, FileName)
	if err != nil || len(data) == 0 {
		return
	}
	for i := 0; i < NHKMax; i++ {
		start := i * structureRecordSize
		end := start + structureRecordSize
		if end > len(data) {
			break
		}
		s.slots[i] = unmarshalStructure(data[start:end])
	}
}

func (s *Service) persist(slot int) {
	if s.mem == nil {
		return
	}
	_ = s.mem.WriteToFileAtOffset(FileName, s.slots[slot].marshal(), uint32(slot*structureRecordSize))
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

func (s *Service) slotFor(id uint16) int { return int(id % NHKMax) }

func (s *Service) findByID(id uint16) (int, bool) {
	for i, slot := range s.slots {
		if !slot.isAbsent() && slot.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Execute dispatches TC[3,{1,3,5,6,9,27,29,31,33}] per spec.md §4.8.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	switch msg.MessageType {
	case CreateHousekeepingReportStructure:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, CreateHousekeepingReportStructure) {
			return ccsds.ErrOtherMessageType
		}
		return s.create(ctx, msg, req)
	case DeleteHousekeepingReportStructure:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DeleteHousekeepingReportStructure) {
			return ccsds.ErrOtherMessageType
		}
		return s.delete(ctx, msg, req)
	case EnablePeriodicGeneration:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, EnablePeriodicGeneration) {
			return ccsds.ErrOtherMessageType
		}
		return s.setPeriodic(ctx, msg, req, true)
	case DisablePeriodicGeneration:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DisablePeriodicGeneration) {
			return ccsds.ErrOtherMessageType
		}
		return s.setPeriodic(ctx, msg, req, false)
	case ReportHousekeepingStructures:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ReportHousekeepingStructures) {
			return ccsds.ErrOtherMessageType
		}
		return s.reportStructures(ctx, msg, req)
	case GenerateOneShotReport:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, GenerateOneShotReport) {
			return ccsds.ErrOtherMessageType
		}
		return s.oneShot(ctx, msg, req)
	case AppendParametersToHousekeepingStructure:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, AppendParametersToHousekeepingStructure) {
			return ccsds.ErrOtherMessageType
		}
		return s.appendParams(ctx, msg, req)
	case ModifyCollectionInterval:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ModifyCollectionInterval) {
			return ccsds.ErrOtherMessageType
		}
		return s.modifyInterval(ctx, msg, req)
	case ReportHousekeepingPeriodicProperties:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ReportHousekeepingPeriodicProperties) {
			return ccsds.ErrOtherMessageType
		}
		return s.reportPeriodicProperties(ctx, msg, req)
	default:
		ctx.Verification.FailAcceptance(req, ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) create(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	id, e1 := msg.ReadHalf()
	interval, e2 := msg.ReadWord()
	n, e3 := msg.ReadHalf()
	if e1 != nil || e2 != nil || e3 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}
	ids := make([]uint16, 0, n)
	for i := uint16(0); i < n; i++ {
		pid, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		ids = append(ids, pid)
	}
	ctx.Verification.SuccessAcceptance(req)

	slot := s.slotFor(id)
	s.slots[slot] = Structure{ID: id, CollectionInterval: interval, PeriodicEnabled: false, ParameterIDs: ids}
	s.persist(slot)

	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) delete(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	id, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	slot, ok := s.findByID(id)
	if !ok {
		ctx.Verification.FailCompletion(req, ccsds.ErrRequestedNonExistingStructure)
		return ccsds.ErrRequestedNonExistingStructure
	}
	if s.slots[slot].PeriodicEnabled {
		ctx.Verification.FailCompletion(req, ccsds.ErrRequestedDeletionOfEnabledHK)
		return ccsds.ErrRequestedDeletionOfEnabledHK
	}
	s.slots[slot] = Structure{}
	s.persist(slot)

	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) setPeriodic(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID, value bool) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		slot, ok := s.findByID(id)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrRequestedNonExistingStructure)
			continue
		}
		s.slots[slot].PeriodicEnabled = value
		s.persist(slot)
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) reportStructures(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		slot, ok := s.findByID(id)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrRequestedNonExistingStructure)
			continue
		}
		st := s.slots[slot]
		tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, HousekeepingStructureReport, 0)
		_ = tm.AppendHalf(st.ID)
		periodic := byte(0)
		if st.PeriodicEnabled {
			periodic = 1
		}
		_ = tm.AppendByte(periodic)
		_ = tm.AppendWord(st.CollectionInterval)
		_ = tm.AppendHalf(uint16(len(st.ParameterIDs)))
		for _, pid := range st.ParameterIDs {
			_ = tm.AppendHalf(pid)
		}
		tm.Finalize(s.counters)
		if s.storeTM != nil {
			s.storeTM(tm)
		}
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) oneShot(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		id, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		slot, ok := s.findByID(id)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrRequestedNonExistingStructure)
			continue
		}
		s.emitReport(s.slots[slot])
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) emitReport(st Structure) {
	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, HousekeepingParametersReport, 0)
	_ = tm.AppendHalf(st.ID)
	for _, pid := range st.ParameterIDs {
		if s.params == nil || !s.params.Exists(pid) {
			continue
		}
		v, err := s.params.Get(pid)
		if err != nil {
			continue
		}
		_ = v.AppendTo(tm)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
}

func (s *Service) appendParams(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	id, e1 := msg.ReadHalf()
	n, e2 := msg.ReadHalf()
	if e1 != nil || e2 != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return ccsds.ErrInvalidArgument
	}
	ids := make([]uint16, 0, n)
	for i := uint16(0); i < n; i++ {
		pid, err := msg.ReadHalf()
		if err != nil {
			ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		ids = append(ids, pid)
	}
	ctx.Verification.SuccessAcceptance(req)

	slot, ok := s.findByID(id)
	if !ok {
		ctx.Verification.FailCompletion(req, ccsds.ErrRequestedNonExistingStructure)
		return ccsds.ErrRequestedNonExistingStructure
	}
	if s.slots[slot].PeriodicEnabled {
		ctx.Verification.FailCompletion(req, ccsds.ErrRequestedDeletionOfEnabledHK)
		return ccsds.ErrRequestedDeletionOfEnabledHK
	}

	// Per spec.md §4.8 / ECSS 6.3.3.8.d.4: skip duplicates and
	// non-existent params without rejecting the whole message.
	existing := make(map[uint16]bool, len(s.slots[slot].ParameterIDs))
	for _, pid := range s.slots[slot].ParameterIDs {
		existing[pid] = true
	}
	for _, pid := range ids {
		if existing[pid] {
			continue
		}
		if s.params != nil && !s.params.Exists(pid) {
			continue
		}
		s.slots[slot].ParameterIDs = append(s.slots[slot].ParameterIDs, pid)
		existing[pid] = true
	}
	s.persist(slot)

	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) modifyInterval(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		id, e1 := msg.ReadHalf()
		interval, e2 := msg.ReadWord()
		if e1 != nil || e2 != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		slot, ok := s.findByID(id)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrRequestedNonExistingStructure)
			continue
		}
		s.slots[slot].CollectionInterval = interval
		s.persist(slot)
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) reportPeriodicProperties(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	ctx.Verification.SuccessAcceptance(req)

	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, HousekeepingPeriodicPropertiesReport, 0)
	var valid []Structure
	for _, slot := range s.slots {
		if !slot.isAbsent() {
			valid = append(valid, slot)
		}
	}
	_ = tm.AppendHalf(uint16(len(valid)))
	for _, st := range valid {
		_ = tm.AppendHalf(st.ID)
		enabled := byte(0)
		if st.PeriodicEnabled {
			enabled = 1
		}
		_ = tm.AppendByte(enabled)
		_ = tm.AppendWord(st.CollectionInterval)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
	ctx.Verification.SuccessCompletion(req)
	return nil
}

// ReportPending is the periodic tick (spec.md §4.8): for each
// periodic structure with interval I, emit TM[3,25] when
// now%I==0 or (previous+delay)%I==0 (I==0 means every tick); returns
// the earliest next-fire time across all periodic structures.
func (s *Service) ReportPending(now, previous ccsds.UTCTimestamp, expectedDelaySeconds uint64) ccsds.UTCTimestamp {
	nowSec := now.ToEpochSeconds()
	prevSec := previous.ToEpochSeconds()

	next := ccsds.FarFuture()
	haveNext := false

	for _, st := range s.slots {
		if st.isAbsent() || !st.PeriodicEnabled {
			continue
		}
		interval := uint64(st.CollectionInterval)
		fire := interval == 0
		if !fire && nowSec%interval == 0 {
			fire = true
		}
		if !fire && interval != 0 && (prevSec+expectedDelaySeconds)%interval == 0 {
			fire = true
		}
		if fire {
			s.emitReport(st)
		}
		if interval == 0 {
			continue
		}
		remainder := nowSec % interval
		candidateSec := nowSec + (interval - remainder)
		if remainder == 0 {
			candidateSec = nowSec + interval
		}
		candidate, err := ccsds.UnixEpoch().Add(int64(candidateSec))
		if err != nil {
			continue
		}
		if !haveNext || candidate.Less(next) {
			next = candidate
			haveNext = true
		}
	}
	return next
}

type structureSnapshot struct {
	ID                 uint16   `json:"id"`
	CollectionInterval uint32   `json:"collectionInterval"`
	PeriodicEnabled    bool     `json:"periodicEnabled"`
	ParameterIDs       []uint16 `json:"parameterIds"`
}

// Snapshot renders the live (non-absent) structures for the debug
// server's /housekeeping route.
func (s *Service) Snapshot() interface{} {
	var out []structureSnapshot
	for _, st := range s.slots {
		if st.isAbsent() {
			continue
		}
		out = append(out, structureSnapshot{
			ID:                 st.ID,
			CollectionInterval: st.CollectionInterval,
			PeriodicEnabled:    st.PeriodicEnabled,
			ParameterIDs:       st.ParameterIDs,
		})
	}
	return out
}
