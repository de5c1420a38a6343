package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	isoDurationPart = regexp.MustCompile(`(\d+)([HMS])`)
	digitRun        = regexp.MustCompile(`[0-9]+`)
)

// ParseDuration parses ISO 8601 duration format (PT1H30M) from Taskwarrior JSON export
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Parse ISO 8601 format (PT1H, PT30M, PT1H30M)
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, match := range isoDurationPart.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}

	return total, nil
}

// EstimateMinutes pulls an estimate in minutes out of free text. The first
// run of decimal digits wins, so "between 5 and 10 min" is 5. A run too large
// for an int is skipped in favour of the next one. Missing text or text
// without digits has no estimate.
func EstimateMinutes(explanation *string) (int, bool) {
	if explanation == nil || *explanation == "" {
		return 0, false
	}
	for _, run := range digitRun.FindAllString(*explanation, -1) {
		n, err := strconv.Atoi(run)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}
