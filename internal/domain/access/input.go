package access

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var releaseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04", // datetime-local inputs
	time.DateTime,
}

// ParseReleaseAt reads an admin-supplied release timestamp. Anything it
// cannot read means "no time gate": nil, never an error.
func ParseReleaseAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// NormalizePriority reads a priority from decoded JSON. Malformed values,
// including numbers outside the int range, become 0.
func NormalizePriority(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || n < math.MinInt || n >= math.MaxInt {
			return 0
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}
