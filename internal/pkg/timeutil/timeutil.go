package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// BreakInterval is one break window inside a shift. End is nil while the
// break is still open.
type BreakInterval struct {
	Start time.Time
	End   *time.Time
}

var (
	hourMinRegex = regexp.MustCompile(`^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?$`)
	clockRegex   = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
)

// ParseDuration converts a stored duration string into whole minutes.
// Two legacy formats are accepted: "8h 30m" and "08:30:00". Anything
// else, including the empty string, parses to zero.
func ParseDuration(text string) int {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return 0
	}

	if m := clockRegex.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		total := hours*60 + minutes
		if seconds >= 30 {
			total++
		}
		return total
	}

	if m := hourMinRegex.FindStringSubmatch(text); m != nil && (m[1] != "" || m[2] != "") {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		return hours*60 + minutes
	}

	return 0
}

// FormatDuration renders whole minutes as "8h 30m". Negative input is
// clamped to zero.
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// WorkedMinutes computes the net worked time of a shift: elapsed time
// between check-in and end, minus every closed break, minus the open
// break if one is still running. End is the checkout time when set,
// otherwise now (open shift). The result never goes below zero.
func WorkedMinutes(checkIn time.Time, checkOut *time.Time, now time.Time, breaks []BreakInterval) int {
	end := now
	if checkOut != nil {
		end = *checkOut
	}

	elapsed := end.Sub(checkIn)
	if elapsed < 0 {
		return 0
	}

	var breakTotal time.Duration
	for _, b := range breaks {
		if b.End != nil {
			breakTotal += b.End.Sub(b.Start)
		} else {
			breakTotal += end.Sub(b.Start)
		}
	}

	worked := int((elapsed - breakTotal).Minutes())
	if worked < 0 {
		return 0
	}
	return worked
}

// BreakMinutes sums the closed intervals only. Open breaks are excluded
// because their final length is not known yet.
func BreakMinutes(breaks []BreakInterval) int {
	var total time.Duration
	for _, b := range breaks {
		if b.End != nil {
			total += b.End.Sub(b.Start)
		}
	}
	return int(total.Minutes())
}
