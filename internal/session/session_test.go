package session

import (
	"testing"
	"time"
)

// et builds a time in US Eastern for a known Wednesday (2025-06-11).
func et(hour, min int) time.Time {
	return time.Date(2025, time.June, 11, hour, min, 0, 0, Eastern)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want Session
	}{
		{"overnight", et(3, 59), Closed},
		{"pre-market start", et(4, 0), PreMarket},
		{"pre-market end", et(9, 29), PreMarket},
		{"open bell", et(9, 30), Regular},
		{"midday", et(12, 30), Regular},
		{"last minute", et(15, 59), Regular},
		{"closing bell", et(16, 0), AfterHours},
		{"extended end", et(19, 59), AfterHours},
		{"evening", et(20, 0), Closed},
		{"saturday midday", time.Date(2025, time.June, 14, 12, 0, 0, 0, Eastern), Closed},
		{"sunday midday", time.Date(2025, time.June, 15, 12, 0, 0, 0, Eastern), Closed},
	}

	for _, tt := range tests {
		if got := Classify(tt.t); got != tt.want {
			t.Errorf("%s: Classify = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifyConvertsZones(t *testing.T) {
	// 18:00 UTC on a June weekday is 14:00 Eastern (EDT).
	utc := time.Date(2025, time.June, 11, 18, 0, 0, 0, time.UTC)
	if got := Classify(utc); got != Regular {
		t.Errorf("Classify(18:00 UTC) = %v, want Regular", got)
	}
}

func TestNextOpen(t *testing.T) {
	// Wednesday pre-open: today's open.
	got := NextOpen(et(8, 0))
	want := et(9, 30)
	if !got.Equal(want) {
		t.Errorf("NextOpen(wed 8:00) = %v, want %v", got, want)
	}

	// Friday after close: Monday's open.
	fri := time.Date(2025, time.June, 13, 17, 0, 0, 0, Eastern)
	got = NextOpen(fri)
	want = time.Date(2025, time.June, 16, 9, 30, 0, 0, Eastern)
	if !got.Equal(want) {
		t.Errorf("NextOpen(fri 17:00) = %v, want %v", got, want)
	}
}

func TestSessionString(t *testing.T) {
	if Regular.String() != "regular" || PreMarket.String() != "pre_market" {
		t.Errorf("unexpected session names: %s, %s", Regular, PreMarket)
	}
	if AfterHours.String() != "after_hours" || Closed.String() != "closed" {
		t.Errorf("unexpected session names: %s, %s", AfterHours, Closed)
	}
}
