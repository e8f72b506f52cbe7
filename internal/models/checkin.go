package models

import (
	"time"

	"github.com/julianstephens/tally/internal/calendar"
)

// CheckinRecord is evidence that a habit was performed on a day.
// A record only exists for completed days; absence means "not done".
type CheckinRecord struct {
	HabitID   int64        `json:"habit_id" yaml:"habit_id"`
	Day       calendar.Day `json:"day" yaml:"day"`
	Completed bool         `json:"completed" yaml:"completed"`
	Value     *float64     `json:"value,omitempty" yaml:"value,omitempty"`
	Note      string       `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" yaml:"updated_at"`
}

// DayEvidence is the result of looking up a (habit, day) pair. It is either
// Absent or Present with the stored record, never a zero-value record that
// could be mistaken for one.
type DayEvidence struct {
	present bool
	record  CheckinRecord
}

// Absent is the evidence for a day without a record.
func Absent() DayEvidence {
	return DayEvidence{}
}

// Present wraps a stored record.
func Present(rec CheckinRecord) DayEvidence {
	return DayEvidence{present: true, record: rec}
}

func (e DayEvidence) IsPresent() bool {
	return e.present
}

// Completed reports whether the day counts toward streaks and totals.
func (e DayEvidence) Completed() bool {
	return e.present && e.record.Completed
}

// Record returns the stored record and whether one exists.
func (e DayEvidence) Record() (CheckinRecord, bool) {
	return e.record, e.present
}
