package access

import "time"

// Countdown is a remaining duration split for display.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Remaining reports how long until releaseAt. ok is false when there is no
// time gate: no timestamp, a zero timestamp, or now >= releaseAt.
// It is always derived from the two instants, never decremented.
func Remaining(releaseAt *time.Time, now time.Time) (time.Duration, bool) {
	if releaseAt == nil || releaseAt.IsZero() {
		return 0, false
	}
	if !now.Before(*releaseAt) {
		return 0, false
	}
	return releaseAt.Sub(now), true
}

// FormatCountdown floor-divides d (in whole milliseconds) into days, hours,
// minutes and seconds. Negative input clamps to zero.
func FormatCountdown(d time.Duration) Countdown {
	ms := d.Milliseconds()
	if ms <= 0 {
		return Countdown{}
	}
	return Countdown{
		Days:    ms / (24 * 60 * 60 * 1000),
		Hours:   (ms / (60 * 60 * 1000)) % 24,
		Minutes: (ms / (60 * 1000)) % 60,
		Seconds: (ms / 1000) % 60,
	}
}
