package registry

// Well-known parameter ids consumed directly by the core, per
// spec.md §6.
const (
	LFTTransactionID         uint16 = 1
	LFTSequenceNum           uint16 = 2
	LFTCount                 uint16 = 3
	LFTUplinkSize            uint16 = 4
	LFTDiscontinuityCounter  uint16 = 5
	LFTSizeStored            uint16 = 6
	ValidTCScheduleList      uint16 = 7
	TCScheduleActive         uint16 = 8
	ScheduledTCExecutionMargin uint16 = 9
	MemoryHealthChecksIsSet  uint16 = 10
)
