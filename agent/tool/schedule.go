package tool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/studypilot/studypilot/agent/contract"
)

// Matches "2 hours", "30 minutes", "1.5 h" and friends.
var durationPattern = regexp.MustCompile(`(\d+\.?\d*)\s*(hours?|minutes?|min|h|m)`)

// ParseDurationMinutes extracts a duration estimate in minutes from free
// text. The second return is false when no recognizable duration is present.
func ParseDurationMinutes(text string) (int, bool) {
	match := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	switch match[2] {
	case "hour", "hours", "h":
		return int(value * 60), true
	case "minute", "minutes", "min", "m":
		return int(value), true
	}
	return 0, false
}

// TotalMinutes sums the parseable step estimates of a plan.
func TotalMinutes(steps []contractx.PlanStep) int {
	total := 0
	for _, step := range steps {
		if minutes, ok := ParseDurationMinutes(step.EstimatedTime); ok {
			total += minutes
		}
	}
	return total
}

// FormatSchedule renders plan steps as a numbered schedule.
func FormatSchedule(steps []contractx.PlanStep) string {
	var b strings.Builder
	for i, step := range steps {
		description := step.Description
		if description == "" {
			description = "No description"
		}
		estimate := step.EstimatedTime
		if estimate == "" {
			estimate = "Unknown"
		}
		fmt.Fprintf(&b, "%d. %s\n   Estimated time: %s\n", i+1, description, estimate)
	}
	return strings.TrimRight(b.String(), "\n")
}
