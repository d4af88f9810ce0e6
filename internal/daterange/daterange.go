// Package daterange resolves query windows into day-key bounds. Day-keys are
// YYYY-MM-DD strings in the caller's timezone, compared lexicographically,
// which matches chronological order.
package daterange

import "time"

const dayKeyLayout = "2006-01-02"

// Range bounds one scan. Since/Until bound what is reported back to callers;
// ScanSince/ScanUntil bound what the scanner may touch and prune. The scan
// window opens one day earlier than the report window so usage written just
// before a midnight boundary stays accounted when the window slides.
type Range struct {
	SinceKey     string
	UntilKey     string
	ScanSinceKey string
	ScanUntilKey string
	IsAllTime    bool
}

// Resolve turns a (since, until, now, allTime) request into concrete bounds.
// Empty since or until leaves that side of the range open. since > until is a
// valid empty range, not an error. In all-time mode the scan bounds are
// unconstrained so the cache never prunes, while the report bounds still
// restrict display.
func Resolve(since, until string, now time.Time, allTime bool) Range {
	r := Range{
		SinceKey:  since,
		UntilKey:  until,
		IsAllTime: allTime,
	}
	if r.UntilKey == "" {
		r.UntilKey = DayKey(now)
	}
	if allTime {
		return r
	}
	r.ScanUntilKey = r.UntilKey
	if r.SinceKey != "" {
		r.ScanSinceKey = ShiftDay(r.SinceKey, -1)
	}
	return r
}

// IsEmpty reports whether the resolved range contains no days, which happens
// when since lands after until. An empty range is valid and reads nothing.
func (r Range) IsEmpty() bool {
	return r.SinceKey != "" && r.UntilKey != "" && r.SinceKey > r.UntilKey
}

// DayKey formats a timestamp as the calendar day in its own location.
// Callers attribute usage to local days by converting first via time.In.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// InRange reports whether key falls inside [since, until]. Empty bounds are
// open. Pure string comparison; no parsing.
func InRange(key, since, until string) bool {
	if since != "" && key < since {
		return false
	}
	if until != "" && key > until {
		return false
	}
	return true
}

// ShiftDay moves a day-key by n calendar days. Malformed keys are returned
// unchanged.
func ShiftDay(key string, n int) string {
	t, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(dayKeyLayout)
}

// ParseDayKey parses a day-key back into a UTC midnight timestamp for
// calendar-boundary math.
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(dayKeyLayout, key)
}
