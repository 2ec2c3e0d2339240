package scheduling

import (
	"testing"
	"time"
)

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2026-09-01 "+clock)
	if err != nil {
		t.Fatalf("parse %q: %v", clock, err)
	}
	return ts
}

func TestFreeSlots(t *testing.T) {
	template := []string{"09:00", "09:30", "10:00"}

	free := FreeSlots(template, []time.Time{at(t, "09:30")})
	want := []string{"09:00", "10:00"}
	if len(free) != len(want) {
		t.Fatalf("free = %v, want %v", free, want)
	}
	for i := range want {
		if free[i] != want[i] {
			t.Fatalf("free = %v, want %v", free, want)
		}
	}
}

func TestFreeSlotsNoBookings(t *testing.T) {
	template := []string{"09:00", "09:30"}
	free := FreeSlots(template, nil)
	if len(free) != 2 || free[0] != "09:00" || free[1] != "09:30" {
		t.Fatalf("free = %v, want full template", free)
	}
}

func TestFreeSlotsEmptyTemplate(t *testing.T) {
	if free := FreeSlots(nil, []time.Time{at(t, "09:00")}); len(free) != 0 {
		t.Fatalf("free = %v, want empty", free)
	}
}

func TestFreeSlotsGranularityMismatch(t *testing.T) {
	// Seconds on either side must not defeat the subtraction.
	template := []string{"09:00:00", "09:30:00"}
	booked := []time.Time{at(t, "09:00").Add(15 * time.Second)}
	free := FreeSlots(template, booked)
	if len(free) != 1 || free[0] != "09:30" {
		t.Fatalf("free = %v, want [09:30]", free)
	}
}

func TestFreeSlotsPreservesTemplateOrder(t *testing.T) {
	template := []string{"14:00", "09:00", "11:00"}
	free := FreeSlots(template, []time.Time{at(t, "11:00")})
	if len(free) != 2 || free[0] != "14:00" || free[1] != "09:00" {
		t.Fatalf("free = %v, want template order kept", free)
	}
}

func TestFreeSlotsSkipsMalformedTemplateEntries(t *testing.T) {
	template := []string{"09:00", "garbage", "10:00"}
	free := FreeSlots(template, nil)
	if len(free) != 2 || free[0] != "09:00" || free[1] != "10:00" {
		t.Fatalf("free = %v, want malformed entry dropped", free)
	}
}
