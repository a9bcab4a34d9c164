package timeutil

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"8h 30m", 510},
		{"0h 0m", 0},
		{"1h", 60},
		{"45m", 45},
		{"08:30:00", 510},
		{"00:59:29", 59},
		{"00:59:30", 60},
		{"10:00:00", 600},
		{"", 0},
		{"garbage", 0},
		{"  7h 5m  ", 425},
	}
	for _, c := range cases {
		got := ParseDuration(c.input)
		if got != c.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", c.input, got, c.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{510, "8h 30m"},
		{0, "0h 0m"},
		{59, "0h 59m"},
		{60, "1h 0m"},
		{-15, "0h 0m"},
	}
	for _, c := range cases {
		got := FormatDuration(c.minutes)
		if got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.minutes, got, c.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, s := range []string{"8h 30m", "08:30:00", "0h 0m", "23:59:00"} {
		minutes := ParseDuration(s)
		if got := ParseDuration(FormatDuration(minutes)); got != minutes {
			t.Errorf("round trip of %q: got %d, want %d", s, got, minutes)
		}
	}
}

func TestWorkedMinutes(t *testing.T) {
	day := func(hh, mm int) time.Time {
		return time.Date(2025, 6, 2, hh, mm, 0, 0, time.UTC)
	}

	t.Run("no breaks", func(t *testing.T) {
		out := day(17, 30)
		got := WorkedMinutes(day(9, 0), &out, out, nil)
		if got != 510 {
			t.Errorf("got %d, want 510", got)
		}
	})

	t.Run("closed break subtracted", func(t *testing.T) {
		out := day(17, 0)
		end := day(12, 30)
		breaks := []BreakInterval{{Start: day(12, 0), End: &end}}
		got := WorkedMinutes(day(9, 0), &out, out, breaks)
		if got != 450 {
			t.Errorf("got %d, want 450", got)
		}
	})

	t.Run("open break subtracted up to now", func(t *testing.T) {
		breaks := []BreakInterval{{Start: day(12, 0)}}
		got := WorkedMinutes(day(9, 0), nil, day(12, 45), breaks)
		if got != 180 {
			t.Errorf("got %d, want 180", got)
		}
	})

	t.Run("never exceeds elapsed", func(t *testing.T) {
		out := day(17, 0)
		got := WorkedMinutes(day(9, 0), &out, out, nil)
		if got > int(out.Sub(day(9, 0)).Minutes()) {
			t.Errorf("worked %d exceeds elapsed", got)
		}
	})

	t.Run("clamped at zero", func(t *testing.T) {
		out := day(9, 0)
		end := day(12, 0)
		breaks := []BreakInterval{{Start: day(8, 0), End: &end}}
		if got := WorkedMinutes(day(9, 0), &out, out, breaks); got != 0 {
			t.Errorf("got %d, want 0", got)
		}
	})
}

func TestBreakMinutes(t *testing.T) {
	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	breaks := []BreakInterval{
		{Start: start, End: &end},
		{Start: end.Add(time.Hour)}, // open, ignored
	}
	if got := BreakMinutes(breaks); got != 30 {
		t.Errorf("got %d, want 30", got)
	}
}
