package model

import (
	"strconv"
	"strings"
	"time"
)

// Contains reports whether t falls inside the working-hours window.
// A disabled window always passes. Windows where the start is later
// than the end wrap past midnight.
func (w WorkingHours) Contains(t time.Time) bool {
	if !w.Enabled {
		return true
	}

	if len(w.Days) > 0 {
		day := strings.ToLower(t.Weekday().String())
		found := false
		for _, d := range w.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if w.StartTime == "" || w.EndTime == "" {
		return true
	}
	start, ok1 := parseClock(w.StartTime)
	end, ok2 := parseClock(w.EndTime)
	if !ok1 || !ok2 {
		// Malformed window: let the message through rather than black-hole it.
		return true
	}

	cur := t.Hour()*60 + t.Minute()
	if start <= end {
		return start <= cur && cur <= end
	}
	return cur >= start || cur <= end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
