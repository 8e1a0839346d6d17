package stbox

import (
	"fmt"
	"time"
)

// pgEpoch is the zero point of TimestampTz (2000-01-01 00:00:00 UTC).
var pgEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimestampTz is a timestamp with time zone, stored as microseconds since
// 2000-01-01 00:00:00 UTC.
type TimestampTz int64

// FromTime converts t to a TimestampTz, truncating to microsecond precision.
func FromTime(t time.Time) TimestampTz {
	return TimestampTz(t.Sub(pgEpoch).Microseconds())
}

// Time returns ts as a UTC time.Time.
func (ts TimestampTz) Time() time.Time {
	return pgEpoch.Add(time.Duration(ts) * time.Microsecond)
}

// String formats ts as RFC 3339 with microseconds.
func (ts TimestampTz) String() string {
	return ts.Time().Format("2006-01-02T15:04:05.999999Z07:00")
}

// Period is a time span with per-bound inclusivity.
type Period struct {
	Lower    TimestampTz
	Upper    TimestampTz
	LowerInc bool
	UpperInc bool
}

// NewPeriod returns the closed period [lower, upper].
func NewPeriod(lower, upper time.Time) Period {
	return Period{
		Lower:    FromTime(lower),
		Upper:    FromTime(upper),
		LowerInc: true,
		UpperInc: true,
	}
}

// Valid reports whether the period is non-empty.
func (p Period) Valid() bool {
	if p.Lower < p.Upper {
		return true
	}
	return p.Lower == p.Upper && p.LowerInc && p.UpperInc
}

// Overlaps reports whether p and q share at least one instant.
func (p Period) Overlaps(q Period) bool {
	return boundsMeet(p.Lower, p.LowerInc, q.Upper, q.UpperInc) &&
		boundsMeet(q.Lower, q.LowerInc, p.Upper, p.UpperInc)
}

// Contains reports whether every instant of q is also in p.
func (p Period) Contains(q Period) bool {
	lowerOK := p.Lower < q.Lower || (p.Lower == q.Lower && (p.LowerInc || !q.LowerInc))
	upperOK := q.Upper < p.Upper || (q.Upper == p.Upper && (p.UpperInc || !q.UpperInc))
	return lowerOK && upperOK
}

// String formats the period the way spans are printed, e.g. "[a, b)".
func (p Period) String() string {
	open, closing := "(", ")"
	if p.LowerInc {
		open = "["
	}
	if p.UpperInc {
		closing = "]"
	}
	return fmt.Sprintf("%s%s, %s%s", open, p.Lower, p.Upper, closing)
}

// boundsMeet reports whether a lower bound lies before (or on, when both
// bounds are inclusive) an upper bound.
func boundsMeet(lower TimestampTz, lowerInc bool, upper TimestampTz, upperInc bool) bool {
	if lower < upper {
		return true
	}
	return lower == upper && lowerInc && upperInc
}
