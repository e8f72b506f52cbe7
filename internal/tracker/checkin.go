package tracker

import (
	"context"
	"fmt"
	"math"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
)

// Check-in actions reported to metrics.
const (
	actionInsert = "insert"
	actionDelete = "delete"
	actionRetro  = "retro"
	actionValue  = "value"
)

func (e *Engine) getRecord(habitID int64, day calendar.Day) (models.DayEvidence, error) {
	e.metrics.StoreQuery("get_checkin_record")
	ev, err := e.store.GetCheckinRecord(habitID, day)
	if err != nil {
		return models.Absent(), fmt.Errorf("failed to read check-in %d/%s: %w", habitID, day, err)
	}
	return ev, nil
}

func (e *Engine) upsert(ctx context.Context, rec models.CheckinRecord, action string) error {
	e.metrics.StoreQuery("upsert_checkin_record")
	if err := e.store.UpsertCheckinRecord(rec); err != nil {
		return fmt.Errorf("failed to save check-in %d/%s: %w", rec.HabitID, rec.Day, err)
	}
	e.metrics.Checkin(action)
	e.invalidateMonth(ctx, rec.Day)
	logger.Debug("Check-in saved", "habit", rec.HabitID, "day", rec.Day, "action", action)
	return nil
}

func (e *Engine) remove(ctx context.Context, habitID int64, day calendar.Day) error {
	e.metrics.StoreQuery("delete_checkin_record")
	if err := e.store.DeleteCheckinRecord(habitID, day); err != nil {
		return fmt.Errorf("failed to delete check-in %d/%s: %w", habitID, day, err)
	}
	e.metrics.Checkin(actionDelete)
	e.invalidateMonth(ctx, day)
	logger.Debug("Check-in removed", "habit", habitID, "day", day)
	return nil
}

// activeHabitForMutation loads the habit and requires it to be ACTIVE.
func (e *Engine) activeHabitForMutation(habitID int64) (models.Habit, error) {
	habit, err := e.getHabit(habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if !habit.IsActive() {
		return models.Habit{}, fmt.Errorf("%w: %s is %s", ErrHabitInactive, habit.Name, habit.Status)
	}
	return habit, nil
}

// Toggle flips the check-in of an active habit on day and reports whether
// the day is checked afterwards. Future days are rejected.
func (e *Engine) Toggle(ctx context.Context, habitID int64, day calendar.Day) (bool, error) {
	if day > e.today() {
		return false, fmt.Errorf("%w: cannot check in on future day %s", ErrInvalidInput, day)
	}

	mu := e.habitLock(habitID)
	mu.Lock()
	defer mu.Unlock()

	habit, err := e.activeHabitForMutation(habitID)
	if err != nil {
		return false, err
	}

	ev, err := e.getRecord(habitID, day)
	if err != nil {
		return false, err
	}
	if ev.IsPresent() {
		return false, e.remove(ctx, habitID, day)
	}

	rec := models.CheckinRecord{HabitID: habitID, Day: day, Completed: true}
	if habit.IsNumeric {
		target := habit.Target()
		rec.Value = &target
	}
	if err := e.upsert(ctx, rec, actionInsert); err != nil {
		return false, err
	}
	return true, nil
}

// RetroCheckin records a completed check-in for a past day of an active
// habit. Today and future days fail with ErrInvalidInput, paused and archived
// habits with ErrHabitInactive; both leave the store untouched. An existing
// record is kept as is and created is false.
func (e *Engine) RetroCheckin(ctx context.Context, habitID int64, day calendar.Day, note string) (created bool, err error) {
	if today := e.today(); day >= today {
		return false, fmt.Errorf("%w: retroactive check-in requires a day before %s, got %s", ErrInvalidInput, today, day)
	}

	mu := e.habitLock(habitID)
	mu.Lock()
	defer mu.Unlock()

	habit, err := e.activeHabitForMutation(habitID)
	if err != nil {
		return false, err
	}

	ev, err := e.getRecord(habitID, day)
	if err != nil {
		return false, err
	}
	if ev.IsPresent() {
		return false, nil
	}

	rec := models.CheckinRecord{HabitID: habitID, Day: day, Completed: true, Note: note}
	if habit.IsNumeric {
		target := habit.Target()
		rec.Value = &target
	}
	if err := e.upsert(ctx, rec, actionRetro); err != nil {
		return false, err
	}
	return true, nil
}

// SetValue records a measured value for a numeric habit. The day counts as
// done only when value reaches the habit's target: at or above it the record
// is created or revised in place, below it any existing record is removed.
// It reports whether a record exists afterwards.
func (e *Engine) SetValue(ctx context.Context, habitID int64, day calendar.Day, value float64, note string) (bool, error) {
	if day > e.today() {
		return false, fmt.Errorf("%w: cannot record a value on future day %s", ErrInvalidInput, day)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return false, fmt.Errorf("%w: value must be a non-negative number", ErrInvalidInput)
	}

	mu := e.habitLock(habitID)
	mu.Lock()
	defer mu.Unlock()

	habit, err := e.activeHabitForMutation(habitID)
	if err != nil {
		return false, err
	}
	if !habit.IsNumeric {
		return false, fmt.Errorf("%w: %s is not a numeric habit", ErrInvalidInput, habit.Name)
	}

	ev, err := e.getRecord(habitID, day)
	if err != nil {
		return false, err
	}

	if value < habit.Target() {
		if ev.IsPresent() {
			return false, e.remove(ctx, habitID, day)
		}
		return false, nil
	}

	rec := models.CheckinRecord{HabitID: habitID, Day: day, Completed: true, Value: &value, Note: note}
	if existing, ok := ev.Record(); ok {
		rec.CreatedAt = existing.CreatedAt
		if note == "" {
			rec.Note = existing.Note
		}
	}
	if err := e.upsert(ctx, rec, actionValue); err != nil {
		return false, err
	}
	return true, nil
}
