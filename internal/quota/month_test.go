package quota

import (
	"testing"
	"time"
)

func TestMonthOfUsesUTC(t *testing.T) {
	// 23:30 on Aug 31 in UTC+3 is already September locally, but the bucket
	// is derived from UTC.
	loc := time.FixedZone("UTC+3", 3*3600)
	local := time.Date(2026, 9, 1, 2, 30, 0, 0, loc)
	if got := MonthOf(local); got != "2026-08" {
		t.Fatalf("expected 2026-08, got %q", got)
	}
}

func TestValidMonth(t *testing.T) {
	valid := []string{"2026-01", "1999-12"}
	invalid := []string{"2026-13", "2026-1", "202601", "abcd-ef", ""}
	for _, m := range valid {
		if !ValidMonth(m) {
			t.Fatalf("expected %q valid", m)
		}
	}
	for _, m := range invalid {
		if ValidMonth(m) {
			t.Fatalf("expected %q invalid", m)
		}
	}
}

func TestLastNMonthsHandlesShortMonths(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	got := LastNMonths(now, 3)
	want := []string{"2026-03", "2026-02", "2026-01"}
	if len(got) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("month %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLastNMonthsCrossesYearBoundary(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	got := LastNMonths(now, 2)
	if got[0] != "2026-01" || got[1] != "2025-12" {
		t.Fatalf("unexpected months: %v", got)
	}
}
