package scheduling

import (
	"time"

	"github.com/clinic/clinic/pkg/slot"
)

// FreeSlots subtracts the booked times from the doctor's slot template,
// preserving template order. Both sides are normalized to "HH:MM" before
// comparison so a template entry "09:00:00" blocks a booking at 09:00.
// Template entries that fail to normalize are skipped.
func FreeSlots(template []string, booked []time.Time) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[slot.FromTime(t)] = struct{}{}
	}

	free := make([]string, 0, len(template))
	for _, raw := range template {
		norm, err := slot.Normalize(raw)
		if err != nil {
			continue
		}
		if _, ok := taken[norm]; ok {
			continue
		}
		free = append(free, norm)
	}
	return free
}
