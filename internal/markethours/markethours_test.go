package markethours

import (
	"testing"
	"time"
)

func et(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, Eastern)
}

func TestIsMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday midday", et(2026, time.March, 4, 12, 0), true},
		{"exactly at open", et(2026, time.March, 4, 9, 30), true},
		{"minute before open", et(2026, time.March, 4, 9, 29), false},
		{"exactly at close", et(2026, time.March, 4, 16, 0), false},
		{"minute before close", et(2026, time.March, 4, 15, 59), true},
		{"saturday", et(2026, time.March, 7, 12, 0), false},
		{"sunday", et(2026, time.March, 8, 12, 0), false},
		{"christmas", et(2026, time.December, 25, 12, 0), false},
		{"juneteenth", et(2026, time.June, 19, 12, 0), false},
	}
	for _, tt := range tests {
		if got := IsMarketOpen(tt.t); got != tt.want {
			t.Errorf("%s: IsMarketOpen = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsMarketOpen_ConvertsToExchangeTime(t *testing.T) {
	// 17:00 UTC on a March trading day is 12:00 or 13:00 Eastern depending
	// on DST; either way the session is open.
	utc := time.Date(2026, time.March, 4, 17, 0, 0, 0, time.UTC)
	if !IsMarketOpen(utc) {
		t.Error("UTC midday should map into the open session")
	}
}

func TestNextOpen(t *testing.T) {
	// Before today's open on a trading day: today's open.
	got := NextOpen(et(2026, time.March, 4, 8, 0))
	if !got.Equal(et(2026, time.March, 4, 9, 30)) {
		t.Errorf("same-day open: got %v", got)
	}

	// After close: next trading day.
	got = NextOpen(et(2026, time.March, 4, 17, 0))
	if !got.Equal(et(2026, time.March, 5, 9, 30)) {
		t.Errorf("next-day open: got %v", got)
	}

	// Friday after close skips the weekend.
	got = NextOpen(et(2026, time.March, 6, 17, 0))
	if !got.Equal(et(2026, time.March, 9, 9, 30)) {
		t.Errorf("weekend skip: got %v", got)
	}

	// Day before a holiday skips the holiday: Thu June 18 after close →
	// Friday June 19 is Juneteenth → Monday June 22.
	got = NextOpen(et(2026, time.June, 18, 17, 0))
	if !got.Equal(et(2026, time.June, 22, 9, 30)) {
		t.Errorf("holiday skip: got %v", got)
	}
}

func TestTimeUntilClose(t *testing.T) {
	d := TimeUntilClose(et(2026, time.March, 4, 15, 0))
	if d != time.Hour {
		t.Errorf("one hour to close: got %v", d)
	}
	if d := TimeUntilClose(et(2026, time.March, 4, 17, 0)); d != 0 {
		t.Errorf("after close: got %v, want 0", d)
	}
}

func TestStatusString(t *testing.T) {
	open := StatusString(et(2026, time.March, 4, 12, 0))
	if open == "" || open[:11] != "Market Open" {
		t.Errorf("open status: %q", open)
	}
	closed := StatusString(et(2026, time.March, 7, 12, 0))
	if closed == "" || closed[:13] != "Market Closed" {
		t.Errorf("closed status: %q", closed)
	}
}
