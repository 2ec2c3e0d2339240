// Package slot normalizes clinic time-of-day slot labels. Slots are
// half-open clock positions written "HH:MM" on a 24-hour clock; seconds
// and any trailing precision are discarded so "09:30:00" and "09:30"
// name the same slot.
package slot

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical wire form of a slot.
const Layout = "15:04"

// Normalize parses a slot label and returns its canonical "HH:MM" form.
// Inputs may carry seconds ("09:30:00") or be already canonical.
func Normalize(raw string) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid slot %q: must be HH:MM", raw)
	}
	t, err := time.Parse(Layout, parts[0]+":"+parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid slot %q: must be HH:MM", raw)
	}
	return t.Format(Layout), nil
}

// FromTime renders a timestamp's clock position as a slot label.
func FromTime(t time.Time) string {
	return t.Format(Layout)
}

// Hour reports the hour component of a canonical slot, or -1 when the
// label does not parse.
func Hour(label string) int {
	t, err := time.Parse(Layout, label)
	if err != nil {
		return -1
	}
	return t.Hour()
}
