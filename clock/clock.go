// Package clock provides the Clock external interface spec.md §6
// names but leaves undefined: NowUTC.
package clock

import (
	"time"

	"github.com/nyxsat/pusd/ccsds"
)

// Clock is implemented by anything that can report the current UTC
// time as a ccsds.UTCTimestamp.
type Clock interface {
	NowUTC() ccsds.UTCTimestamp
	EpochSeconds() uint64
}

// System is a Clock backed by the host's wall clock.
type System struct{}

func (System) NowUTC() ccsds.UTCTimestamp {
	now := time.Now().UTC()
	ts, err := ccsds.NewUTCTimestamp(uint16(now.Year()), uint8(now.Month()), uint8(now.Day()), uint8(now.Hour()), uint8(now.Minute()), uint8(now.Second()))
	if err != nil {
		return ccsds.UnixEpoch()
	}
	return ts
}

func (System) EpochSeconds() uint64 {
	return uint64(time.Now().UTC().Unix())
}

// Fixed is a Clock that always reports the same instant; used by
// tests and by the release-engine's deterministic fixtures.
type Fixed struct {
	Timestamp ccsds.UTCTimestamp
}

func (f Fixed) NowUTC() ccsds.UTCTimestamp { return f.Timestamp }
func (f Fixed) EpochSeconds() uint64       { return f.Timestamp.ToEpochSeconds() }
