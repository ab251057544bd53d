// Package schedule implements ST[11] time-based scheduling (spec.md
// §4.10, C10), grounded on
// original_source/src/Services/TimeBasedSchedulingService.cpp: a
// persisted schedule of future TCs with release-time ordering,
// expiry, time-shift, and crash-recoverable storage.
package schedule

import (
	"sort"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/clock"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/registry"
	"github.com/nyxsat/pusd/store"
)

const ServiceTypeNum uint8 = 11

const (
	EnableScheduleExecution  uint8 = 1
	DisableScheduleExecution uint8 = 2
	ResetSchedule            uint8 = 3
	InsertActivities         uint8 = 4
	DeleteActivitiesByID     uint8 = 5
	TimeShiftActivitiesByID  uint8 = 7
	DetailReportActivitiesByID uint8 = 9
	TimeShiftAllActivities   uint8 = 15
	DetailReportAllActivities uint8 = 16
	DetailReportByIDReply    uint8 = 10
	SummaryReportActivitiesByID uint8 = 12
	SummaryReportAllActivities  uint8 = 13
)

// NSched is N_SCHED: the fixed number of schedule slots.
const NSched = 32

// RequestTCMaxSize bounds one persisted TC's byte length (CCSDS_MAX).
const RequestTCMaxSize = 1024

// FileName is the well-known MemoryStore path for the schedule.
const FileName = "SCHED_TC"

// rawEntrySize is a whole slot's persisted payload before block
// padding: 1 byte state + 7 bytes UTCTimestamp + 6 bytes RequestID +
// RequestTCMaxSize bytes of TC, matching marshal()'s actual layout.
const rawEntrySize = 1 + 7 + 6 + RequestTCMaxSize

// entrySize is rawEntrySize rounded up to a multiple of
// store.MRAMDataBlockSize, per spec.md line 206: "ENTRY_SIZE =
// CCSDS_MAX + 6 + 7 + padding chosen so a whole entry is a multiple of
// the MRAM block size."
const entrySize = ((rawEntrySize + store.MRAMDataBlockSize - 1) / store.MRAMDataBlockSize) * store.MRAMDataBlockSize

// ExecMarginSeconds is the tolerance window (EXEC_MARGIN) around a
// release time inside which a TC is considered on-time.
const ExecMarginSeconds = 1

// ActivationMarginSeconds is the minimum lead time (spec.md §4.10:
// "release_time < now + MARGIN") an insert or time-shift must respect.
const ActivationMarginSeconds = 5

type activityState uint8

const (
	invalid activityState = iota
	waiting
)

// requestID identifies a scheduled TC for delete/time-shift/report
// matching, per spec.md §4.10: "(source_id, apid, seq_count)".
type requestID struct {
	SourceID uint16
	APID     uint16
	SeqCount uint16
}

// activity is one ScheduledActivity (spec.md §3).
type activity struct {
	SlotID      uint8
	ReleaseTime ccsds.UTCTimestamp
	State       activityState
	Request     requestID
	Bytes       []byte
}

func (a activity) marshal() []byte {
	buf := make([]byte, entrySize)
	buf[0] = byte(a.State)
	// UTCTimestamp: year(2) month(1) day(1) hour(1) minute(1) second(1)
	buf[1], buf[2] = byte(a.ReleaseTime.Year>>8), byte(a.ReleaseTime.Year)
	buf[3] = a.ReleaseTime.Month
	buf[4] = a.ReleaseTime.Day
	buf[5] = a.ReleaseTime.Hour
	buf[6] = a.ReleaseTime.Minute
	buf[7] = a.ReleaseTime.Second
	buf[8], buf[9] = byte(a.Request.SourceID>>8), byte(a.Request.SourceID)
	buf[10], buf[11] = byte(a.Request.APID>>8), byte(a.Request.APID)
	buf[12], buf[13] = byte(a.Request.SeqCount>>8), byte(a.Request.SeqCount)
	n := len(a.Bytes)
	if n > RequestTCMaxSize {
		n = RequestTCMaxSize
	}
	copy(buf[14:14+n], a.Bytes[:n])
	return buf
}

func unmarshalActivity(slot int, buf []byte) activity {
	a := activity{SlotID: uint8(slot)}
	if len(buf) < 14 {
		return a
	}
	a.State = activityState(buf[0])
	a.ReleaseTime = ccsds.UTCTimestamp{
		Year:   uint16(buf[1])<<8 | uint16(buf[2]),
		Month:  buf[3],
		Day:    buf[4],
		Hour:   buf[5],
		Minute: buf[6],
		Second: buf[7],
	}
	a.Request = requestID{
		SourceID: uint16(buf[8])<<8 | uint16(buf[9]),
		APID:     uint16(buf[10])<<8 | uint16(buf[11]),
		SeqCount: uint16(buf[12])<<8 | uint16(buf[13]),
	}
	end := len(buf)
	if end > 14+RequestTCMaxSize {
		end = 14 + RequestTCMaxSize
	}
	a.Bytes = append([]byte(nil), buf[14:end]...)
	return a
}

// Service is ST[11].
type Service struct {
	slots  [NSched]activity
	active bool

	clock    clock.Clock
	counters *ccsds.Counters
	storeTM  func(*ccsds.Message)
	mem      store.MemoryStore
	params   registry.ParameterRegistry

	// notify is called whenever a new activity is inserted, standing
	// in for the original's condition-variable "poke the scheduler
	// task" primitive (spec.md §9).
	notify func()
}

// New builds ST[11], recovering any persisted schedule from mem.
func New(clk clock.Clock, counters *ccsds.Counters, storeTM func(*ccsds.Message), mem store.MemoryStore, params registry.ParameterRegistry, notify func()) *Service {
	s := &Service{clock: clk, counters: counters, storeTM: storeTM, mem: mem, params: params, notify: notify}
	for i := range s.slots {
		s.slots[i].SlotID = uint8(i)
	}
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
	for i := 0; i < NSched; i++ {
		start := i * entrySize
		end := start + entrySize
		if end > len(data) {
			break
		}
		s.slots[i] = unmarshalActivity(i, data[start:end])
	}
}

func (s *Service) persistSlot(i int) {
	if s.mem == nil {
		return
	}
	_ = s.mem.WriteToFileAtOffset(FileName, s.slots[i].marshal(), uint32(i*entrySize))
}

func (s *Service) ServiceType() uint8 { return ServiceTypeNum }

// sortIndex orders the slots waiting-first, then by release time,
// with a stable sort (sort.SliceStable), giving the same order as
// "partition (valid-first) followed by an in-place insertion-style
// ordering" (spec.md §4.10). Ties are broken by slot id.
func (s *Service) sortIndex() {
	sort.SliceStable(s.slots[:], func(i, j int) bool {
		a, b := s.slots[i], s.slots[j]
		if (a.State == waiting) != (b.State == waiting) {
			return a.State == waiting
		}
		if a.State != waiting {
			return a.SlotID < b.SlotID
		}
		if !a.ReleaseTime.Equal(b.ReleaseTime) {
			return a.ReleaseTime.Less(b.ReleaseTime)
		}
		return a.SlotID < b.SlotID
	})
}

func (s *Service) firstInvalidSlot() (int, bool) {
	for i := range s.slots {
		if s.slots[i].State == invalid {
			return i, true
		}
	}
	return -1, false
}

func (s *Service) findByRequest(req requestID) (int, bool) {
	for i := range s.slots {
		if s.slots[i].State == waiting && s.slots[i].Request == req {
			return i, true
		}
	}
	return -1, false
}

// Execute dispatches TC[11,{1,2,3,4,5,7,9,12,13,15,16}] per spec.md §4.10.
func (s *Service) Execute(ctx *dispatch.Context, msg *ccsds.Message) error {
	req := dispatch.RequestIDOf(msg)
	switch msg.MessageType {
	case EnableScheduleExecution:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, EnableScheduleExecution) {
			return ccsds.ErrOtherMessageType
		}
		s.active = true
		if s.params != nil {
			_ = s.params.Set(registry.TCScheduleActive, registry.Value{Type: registry.U8, U: 1})
		}
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	case DisableScheduleExecution:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DisableScheduleExecution) {
			return ccsds.ErrOtherMessageType
		}
		s.active = false
		if s.params != nil {
			_ = s.params.Set(registry.TCScheduleActive, registry.Value{Type: registry.U8, U: 0})
		}
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	case ResetSchedule:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, ResetSchedule) {
			return ccsds.ErrOtherMessageType
		}
		s.reset()
		ctx.Verification.SuccessAcceptance(req)
		ctx.Verification.SuccessCompletion(req)
		return nil
	case InsertActivities:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, InsertActivities) {
			return ccsds.ErrOtherMessageType
		}
		return s.insert(ctx, msg, req)
	case DeleteActivitiesByID:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DeleteActivitiesByID) {
			return ccsds.ErrOtherMessageType
		}
		return s.deleteByID(ctx, msg, req)
	case TimeShiftActivitiesByID:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, TimeShiftActivitiesByID) {
			return ccsds.ErrOtherMessageType
		}
		return s.timeShiftByID(ctx, msg, req)
	case DetailReportActivitiesByID:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DetailReportActivitiesByID) {
			return ccsds.ErrOtherMessageType
		}
		return s.detailReportByID(ctx, msg, req)
	case SummaryReportActivitiesByID:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, SummaryReportActivitiesByID) {
			return ccsds.ErrOtherMessageType
		}
		return s.summaryReportByID(ctx, msg, req)
	case TimeShiftAllActivities:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, TimeShiftAllActivities) {
			return ccsds.ErrOtherMessageType
		}
		return s.timeShiftAll(ctx, msg, req)
	case DetailReportAllActivities:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, DetailReportAllActivities) {
			return ccsds.ErrOtherMessageType
		}
		s.detailReportAll(ctx, req)
		return nil
	case SummaryReportAllActivities:
		if !dispatch.AssertTC(ctx, msg, ServiceTypeNum, SummaryReportAllActivities) {
			return ccsds.ErrOtherMessageType
		}
		s.summaryReportAll(ctx, req)
		return nil
	default:
		ctx.Verification.FailAcceptance(req, ccsds.ErrOtherMessageType)
		return ccsds.ErrOtherMessageType
	}
}

func (s *Service) reset() {
	for i := range s.slots {
		s.slots[i] = activity{SlotID: uint8(i)}
		s.persistSlot(i)
	}
	if s.params != nil {
		_ = s.params.Set(registry.ValidTCScheduleList, registry.Value{Type: registry.U8, U: 1})
	}
}

func (s *Service) readTimestamp(msg *ccsds.Message) (ccsds.UTCTimestamp, error) {
	year, e1 := msg.ReadHalf()
	month, e2 := msg.ReadByte()
	day, e3 := msg.ReadByte()
	hour, e4 := msg.ReadByte()
	minute, e5 := msg.ReadByte()
	second, e6 := msg.ReadByte()
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil {
		return ccsds.UTCTimestamp{}, ccsds.ErrMessageTooShort
	}
	return ccsds.NewUTCTimestamp(year, month, day, hour, minute, second)
}

func (s *Service) insert(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	now := s.clock.NowUTC()
	margin, _ := now.Add(ActivationMarginSeconds)
	inserted := false

	for i := uint16(0); i < n; i++ {
		release, e1 := s.readTimestamp(msg)
		tcLen, e2 := msg.ReadHalf()
		tcBytes, e3 := msg.ReadString(int(tcLen))
		if e1 != nil || e2 != nil || e3 != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		if release.Less(margin) {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}

		reqID, err := decodeRequestID(tcBytes)
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			continue
		}

		slot, ok := s.firstInvalidSlot()
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}
		s.slots[slot] = activity{SlotID: uint8(slot), ReleaseTime: release, State: waiting, Request: reqID, Bytes: append([]byte(nil), tcBytes...)}
		s.persistSlot(slot)
		inserted = true
	}

	s.sortIndex()
	for i := range s.slots {
		s.persistSlot(i)
	}
	if inserted && s.notify != nil {
		s.notify()
	}

	ctx.Verification.SuccessCompletion(req)
	return nil
}

// decodeRequestID pulls (source_id, apid, seq_count) out of a
// composed TC's own primary/secondary headers, so the schedule can
// later match delete/time-shift/report requests against it.
func decodeRequestID(tcBytes []byte) (requestID, error) {
	if len(tcBytes) < 11 {
		return requestID{}, ccsds.ErrMessageTooShort
	}
	apid := uint16(tcBytes[0]&0x7)<<8 | uint16(tcBytes[1])
	seqCount := uint16(tcBytes[2]&0x3F)<<8 | uint16(tcBytes[3])
	sourceID := uint16(tcBytes[9])<<8 | uint16(tcBytes[10])
	return requestID{SourceID: sourceID, APID: apid, SeqCount: seqCount}, nil
}

func (s *Service) deleteByID(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		rid, e1 := readRequestIDFields(msg)
		if e1 != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return e1
		}
		slot, ok := s.findByRequest(rid)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}
		s.slots[slot] = activity{SlotID: uint8(slot)}
		s.persistSlot(slot)
	}
	s.sortIndex()
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func readRequestIDFields(msg *ccsds.Message) (requestID, error) {
	sourceID, e1 := msg.ReadHalf()
	apid, e2 := msg.ReadHalf()
	seqCount, e3 := msg.ReadHalf()
	if e1 != nil || e2 != nil || e3 != nil {
		return requestID{}, ccsds.ErrMessageTooShort
	}
	return requestID{SourceID: sourceID, APID: apid, SeqCount: seqCount}, nil
}

func (s *Service) timeShiftByID(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)
	for i := uint16(0); i < n; i++ {
		rid, e1 := readRequestIDFields(msg)
		offset, e2 := msg.ReadWord()
		if e1 != nil || e2 != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return ccsds.ErrInvalidArgument
		}
		slot, ok := s.findByRequest(rid)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}
		s.slots[slot].ReleaseTime = s.slots[slot].ReleaseTime.Shift(int64(int32(offset)))
		s.persistSlot(slot)
	}
	s.sortIndex()
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) timeShiftAll(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	offset, err := msg.ReadWord()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	now := s.clock.NowUTC()
	margin, _ := now.Add(ActivationMarginSeconds)

	var earliest ccsds.UTCTimestamp
	haveEarliest := false
	for _, a := range s.slots {
		if a.State != waiting {
			continue
		}
		if !haveEarliest || a.ReleaseTime.Less(earliest) {
			earliest = a.ReleaseTime
			haveEarliest = true
		}
	}
	if haveEarliest {
		shiftedEarliest := earliest.Shift(int64(int32(offset)))
		if shiftedEarliest.Less(margin) {
			ctx.Verification.FailCompletion(req, ccsds.ErrSubServiceExecutionStartError)
			return ccsds.ErrSubServiceExecutionStartError
		}
	}

	for i := range s.slots {
		if s.slots[i].State != waiting {
			continue
		}
		s.slots[i].ReleaseTime = s.slots[i].ReleaseTime.Shift(int64(int32(offset)))
		s.persistSlot(i)
	}
	s.sortIndex()
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) detailReportByID(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	var matches []activity
	for i := uint16(0); i < n; i++ {
		rid, err := readRequestIDFields(msg)
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		slot, ok := s.findByRequest(rid)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}
		matches = append(matches, s.slots[slot])
	}
	s.emitDetailReport(matches)
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) detailReportAll(ctx *dispatch.Context, req dispatch.RequestID) {
	ctx.Verification.SuccessAcceptance(req)
	var matches []activity
	for _, a := range s.slots {
		if a.State == waiting {
			matches = append(matches, a)
		}
	}
	s.emitDetailReport(matches)
	ctx.Verification.SuccessCompletion(req)
}

func (s *Service) emitDetailReport(matches []activity) {
	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, DetailReportByIDReply, 0)
	_ = tm.AppendHalf(uint16(len(matches)))
	for _, a := range matches {
		_ = writeTimestamp(tm, a.ReleaseTime)
		_ = tm.AppendOctetString(a.Bytes)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
}

func (s *Service) summaryReportByID(ctx *dispatch.Context, msg *ccsds.Message, req dispatch.RequestID) error {
	n, err := msg.ReadHalf()
	if err != nil {
		ctx.Verification.FailAcceptance(req, ccsds.ErrInvalidArgument)
		return err
	}
	ctx.Verification.SuccessAcceptance(req)

	var matches []activity
	for i := uint16(0); i < n; i++ {
		rid, err := readRequestIDFields(msg)
		if err != nil {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInvalidArgument)
			return err
		}
		slot, ok := s.findByRequest(rid)
		if !ok {
			ctx.Verification.FailProgress(req, uint8(i), ccsds.ErrInstructionExecutionStartError)
			continue
		}
		matches = append(matches, s.slots[slot])
	}
	s.emitSummaryReport(matches)
	ctx.Verification.SuccessCompletion(req)
	return nil
}

func (s *Service) summaryReportAll(ctx *dispatch.Context, req dispatch.RequestID) {
	ctx.Verification.SuccessAcceptance(req)
	var matches []activity
	for _, a := range s.slots {
		if a.State == waiting {
			matches = append(matches, a)
		}
	}
	s.emitSummaryReport(matches)
	ctx.Verification.SuccessCompletion(req)
}

func (s *Service) emitSummaryReport(matches []activity) {
	tm := ccsds.NewMessage(ccsds.TM, ServiceTypeNum, SummaryReportAllActivities, 0)
	_ = tm.AppendHalf(uint16(len(matches)))
	for _, a := range matches {
		_ = writeTimestamp(tm, a.ReleaseTime)
		_ = tm.AppendHalf(a.Request.SourceID)
		_ = tm.AppendHalf(a.Request.APID)
		_ = tm.AppendHalf(a.Request.SeqCount)
	}
	tm.Finalize(s.counters)
	if s.storeTM != nil {
		s.storeTM(tm)
	}
}

func writeTimestamp(msg *ccsds.Message, t ccsds.UTCTimestamp) error {
	if err := msg.AppendHalf(t.Year); err != nil {
		return err
	}
	if err := msg.AppendByte(t.Month); err != nil {
		return err
	}
	if err := msg.AppendByte(t.Day); err != nil {
		return err
	}
	if err := msg.AppendByte(t.Hour); err != nil {
		return err
	}
	if err := msg.AppendByte(t.Minute); err != nil {
		return err
	}
	return msg.AppendByte(t.Second)
}

// Release is the release engine (spec.md §4.10), called from a
// scheduling tick when now is at or past the head's release time.
// released is invoked once per due activity with its persisted TC
// bytes, standing in for enqueuing into the TC-handling queue at
// priority 20 (spec.md §5).
func (s *Service) Release(now ccsds.UTCTimestamp, released func(tcBytes []byte)) ccsds.UTCTimestamp {
	s.sortIndex()

	// Drop any leading entry that has expired.
	for i := range s.slots {
		if s.slots[i].State != waiting {
			continue
		}
		if now.Sub(s.slots[i].ReleaseTime) > ExecMarginSeconds {
			s.slots[i] = activity{SlotID: uint8(i)}
			s.persistSlot(i)
			continue
		}
		break
	}
	s.sortIndex()

	for i := range s.slots {
		if s.slots[i].State != waiting {
			continue
		}
		delta := now.Sub(s.slots[i].ReleaseTime)
		if delta < -ExecMarginSeconds || delta > ExecMarginSeconds {
			break
		}
		if released != nil {
			released(append([]byte(nil), s.slots[i].Bytes...))
		}
		s.slots[i] = activity{SlotID: uint8(i)}
		s.persistSlot(i)
	}
	s.sortIndex()
	for i := range s.slots {
		s.persistSlot(i)
	}

	for _, a := range s.slots {
		if a.State == waiting {
			return a.ReleaseTime
		}
	}
	return ccsds.FarFuture()
}

// scheduleSnapshot is the JSON shape debugserver renders for /schedule.
type scheduleSnapshot struct {
	Active   bool              `json:"active"`
	Activities []activitySnapshot `json:"activities"`
}

type activitySnapshot struct {
	SlotID      uint8  `json:"slotId"`
	Waiting     bool   `json:"waiting"`
	ReleaseTime string `json:"releaseTime"`
	APID        uint16 `json:"apid"`
	SeqCount    uint16 `json:"seqCount"`
}

// Snapshot renders the schedule's waiting activities for the debug
// server, per spec.md's debugserver inspection surface.
func (s *Service) Snapshot() interface{} {
	out := scheduleSnapshot{Active: s.active}
	for _, a := range s.slots {
		if a.State != waiting {
			continue
		}
		out.Activities = append(out.Activities, activitySnapshot{
			SlotID:      a.SlotID,
			Waiting:     true,
			ReleaseTime: a.ReleaseTime.String(),
			APID:        a.Request.APID,
			SeqCount:    a.Request.SeqCount,
		})
	}
	return out
}
