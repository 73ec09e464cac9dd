// Package dateparse parses the completion-time strings accepted when
// recording an activity: exact timestamps plus a few backdating
// shorthands for sessions logged after the fact.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseCompleted parses a completion-time input using the current time
// as the reference point.
//
// Supported formats:
//   - RFC 3339 timestamps: "2026-08-30T14:00:00Z"
//   - Exact dates: "2026-08-30" (noon UTC, so the calendar day is
//     stable across timezones)
//   - Relative offsets into the past: "-2h", "-3d"
//   - Keywords: "now", "today", "yesterday"
func ParseCompleted(input string) (time.Time, error) {
	return ParseCompletedFrom(input, time.Now())
}

// ParseCompletedFrom parses a completion-time input relative to the
// given reference time. This variant enables deterministic testing with
// a fixed "now".
func ParseCompletedFrom(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty completion time")
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return validatePast(t.UTC(), now)
	}

	// Exact date: YYYY-MM-DD, anchored at noon UTC
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return validatePast(t.Add(12*time.Hour), now)
	}

	switch input {
	case "now", "today":
		return now.UTC(), nil
	case "yesterday":
		return now.UTC().AddDate(0, 0, -1), nil
	}

	// Relative offsets: -Nh, -Nd
	if strings.HasPrefix(input, "-") && len(input) >= 3 {
		suffix := input[len(input)-1]
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err == nil && n > 0 {
			switch suffix {
			case 'h':
				return now.UTC().Add(-time.Duration(n) * time.Hour), nil
			case 'd':
				return now.UTC().AddDate(0, 0, -n), nil
			default:
				return time.Time{}, fmt.Errorf("unknown relative unit %q in %q (use h or d)", string(suffix), input)
			}
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized completion time: %q", input)
}

// validatePast rejects timestamps in the future; activities are facts
// about sessions that already happened.
func validatePast(t, now time.Time) (time.Time, error) {
	if t.After(now.UTC()) {
		return time.Time{}, fmt.Errorf("completion time %s is in the future", t.Format(time.RFC3339))
	}
	return t, nil
}
