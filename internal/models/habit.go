package models

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the check-in policy of a habit.
type Frequency string

const (
	FrequencyDaily          Frequency = "DAILY"
	FrequencyWeekdays       Frequency = "WEEKDAYS"
	FrequencyNTimesPerWeek  Frequency = "N_TIMES_PER_WEEK"
	FrequencyNTimesPerMonth Frequency = "N_TIMES_PER_MONTH"
	FrequencyCustom         Frequency = "CUSTOM"
)

// Frequencies lists every supported policy in display order.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekdays,
	FrequencyNTimesPerWeek,
	FrequencyNTimesPerMonth,
	FrequencyCustom,
}

// ParseFrequency accepts the canonical names as well as lower-case,
// dash-separated forms such as "n-times-per-week".
func ParseFrequency(s string) (Frequency, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, f := range Frequencies {
		if string(f) == norm {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// UsesTargetCount reports whether the policy counts repetitions per period.
func (f Frequency) UsesTargetCount() bool {
	return f == FrequencyNTimesPerWeek || f == FrequencyNTimesPerMonth
}

// Status is the lifecycle state of a habit.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPaused   Status = "PAUSED"
	StatusArchived Status = "ARCHIVED"
)

// CanTransition reports whether a habit may move from s to next.
// Archived is terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusPaused || next == StatusArchived
	case StatusPaused:
		return next == StatusActive || next == StatusArchived
	default:
		return false
	}
}

// Habit represents a tracked behavior
type Habit struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string    `json:"color,omitempty" yaml:"color,omitempty"`
	Icon        string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Frequency   Frequency `json:"frequency" yaml:"frequency"`
	TargetCount int       `json:"target_count,omitempty" yaml:"target_count,omitempty"`
	IsNumeric   bool      `json:"is_numeric" yaml:"is_numeric"`
	TargetValue *float64  `json:"target_value,omitempty" yaml:"target_value,omitempty"`
	Unit        string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Status      Status    `json:"status" yaml:"status"`
	GoalID      *int64    `json:"goal_id,omitempty" yaml:"goal_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

func (h Habit) IsActive() bool {
	return h.Status == StatusActive
}

// Target returns the numeric target of a numeric habit, or 0.
func (h Habit) Target() float64 {
	if !h.IsNumeric || h.TargetValue == nil {
		return 0
	}
	return *h.TargetValue
}
