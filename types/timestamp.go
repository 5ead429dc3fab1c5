package types

import "time"

// Timestamp is a point in time expressed in microseconds since the unix epoch.
type Timestamp uint64

// UnixEpoch is the sentinel stored in MobileLocation.MoveStartTimestamp for entities that are not
// extrapolating their position.
const UnixEpoch Timestamp = 0

// TimestampFromTime converts t to a Timestamp. Instants before the epoch collapse to UnixEpoch.
func TimestampFromTime(t time.Time) Timestamp {
	us := t.UnixMicro()
	if us <= 0 {
		return UnixEpoch
	}
	return Timestamp(us)
}

func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

func (ts Timestamp) IsEpoch() bool {
	return ts == UnixEpoch
}

// Since returns the time elapsed from ts until now. It is zero for the epoch sentinel or for future timestamps.
func (ts Timestamp) Since(now time.Time) time.Duration {
	if ts.IsEpoch() {
		return 0
	}
	d := now.Sub(ts.Time())
	if d < 0 {
		return 0
	}
	return d
}
