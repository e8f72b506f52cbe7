package tracker

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/models"
)

func evidence(t *testing.T, store *fakeStore, habitID int64, day calendar.Day) models.DayEvidence {
	t.Helper()
	ev, err := store.GetCheckinRecord(habitID, day)
	if err != nil {
		t.Fatalf("GetCheckinRecord failed: %v", err)
	}
	return ev
}

func TestToggle(t *testing.T) {
	store := newFakeStore()
	h := store.add(models.Habit{Name: "Read"})
	e := newTestEngine(t, store)
	ctx := context.Background()

	on, err := e.Toggle(ctx, h.ID, testToday)
	if err != nil || !on {
		t.Fatalf("first Toggle = %v, %v; want true", on, err)
	}
	if !evidence(t, store, h.ID, testToday).Completed() {
		t.Error("expected a completed record after toggling on")
	}

	on, err = e.Toggle(ctx, h.ID, testToday)
	if err != nil || on {
		t.Fatalf("second Toggle = %v, %v; want false", on, err)
	}
	if evidence(t, store, h.ID, testToday).IsPresent() {
		t.Error("expected no record after toggling off")
	}
}

func TestToggleRejects(t *testing.T) {
	store := newFakeStore()
	active := store.add(models.Habit{Name: "Active"})
	paused := store.add(models.Habit{Name: "Paused", Status: models.StatusPaused})
	e := newTestEngine(t, store)

	tests := []struct {
		name    string
		habitID int64
		day     calendar.Day
		wantErr error
	}{
		{"future day", active.ID, testToday.AddDays(1), ErrInvalidInput},
		{"paused habit", paused.ID, testToday, ErrHabitInactive},
		{"unknown habit", 404, testToday, ErrHabitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Toggle(context.Background(), tt.habitID, tt.day)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if evidence(t, store, tt.habitID, tt.day).IsPresent() {
				t.Error("rejected toggle left a record behind")
			}
		})
	}
}

func TestToggleNumericUsesTarget(t *testing.T) {
	store := newFakeStore()
	target := 8.0
	h := store.add(models.Habit{Name: "Water", IsNumeric: true, TargetValue: &target})

	if _, err := newTestEngine(t, store).Toggle(context.Background(), h.ID, testToday); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	rec, ok := evidence(t, store, h.ID, testToday).Record()
	if !ok || rec.Value == nil || *rec.Value != 8 {
		t.Errorf("record = %+v, want value 8", rec)
	}
}

func TestToggleSerializedPerHabit(t *testing.T) {
	store := newFakeStore()
	h := store.add(models.Habit{Name: "Read"})
	e := newTestEngine(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Toggle(context.Background(), h.ID, testToday); err != nil {
				t.Errorf("Toggle failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// An even number of serialized toggles ends where it started.
	if evidence(t, store, h.ID, testToday).IsPresent() {
		t.Error("expected no record after an even number of toggles")
	}
}

func TestRetroCheckin(t *testing.T) {
	store := newFakeStore()
	h := store.add(models.Habit{Name: "Read"})
	e := newTestEngine(t, store)
	ctx := context.Background()
	past := testToday.AddDays(-3)

	for _, day := range []calendar.Day{testToday, testToday.AddDays(1)} {
		created, err := e.RetroCheckin(ctx, h.ID, day, "")
		if !errors.Is(err, ErrInvalidInput) || created {
			t.Errorf("RetroCheckin(%s) = %v, %v; want ErrInvalidInput", day, created, err)
		}
		if evidence(t, store, h.ID, day).IsPresent() {
			t.Errorf("RetroCheckin(%s) wrote a record", day)
		}
	}

	created, err := e.RetroCheckin(ctx, h.ID, past, "forgot to log")
	if err != nil || !created {
		t.Fatalf("RetroCheckin = %v, %v; want true", created, err)
	}

	created, err = e.RetroCheckin(ctx, h.ID, past, "second try")
	if err != nil || created {
		t.Errorf("repeat RetroCheckin = %v, %v; want false, nil", created, err)
	}
	rec, _ := evidence(t, store, h.ID, past).Record()
	if rec.Note != "forgot to log" {
		t.Errorf("Note = %q, existing record was overwritten", rec.Note)
	}

	if _, err := e.RetroCheckin(ctx, 404, past, ""); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("expected ErrHabitNotFound, got %v", err)
	}

	for _, status := range []models.Status{models.StatusPaused, models.StatusArchived} {
		inactive := store.add(models.Habit{Name: string(status), Status: status})
		created, err := e.RetroCheckin(ctx, inactive.ID, past, "")
		if !errors.Is(err, ErrHabitInactive) || created {
			t.Errorf("RetroCheckin on %s habit = %v, %v; want ErrHabitInactive", status, created, err)
		}
		if evidence(t, store, inactive.ID, past).IsPresent() {
			t.Errorf("RetroCheckin on %s habit wrote a record", status)
		}
	}
}

func TestSetValue(t *testing.T) {
	target := 8.0
	tests := []struct {
		name       string
		existing   *float64
		value      float64
		wantStored bool
		wantValue  float64
	}{
		{name: "below target without record", value: 3},
		{name: "at target", value: 8, wantStored: true, wantValue: 8},
		{name: "above target", value: 12.5, wantStored: true, wantValue: 12.5},
		{name: "revise upwards", existing: &target, value: 10, wantStored: true, wantValue: 10},
		{name: "drop below target removes", existing: &target, value: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			h := store.add(models.Habit{Name: "Water", IsNumeric: true, TargetValue: &target})
			if tt.existing != nil {
				if err := store.UpsertCheckinRecord(models.CheckinRecord{HabitID: h.ID, Day: testToday, Completed: true, Value: tt.existing, Note: "morning"}); err != nil {
					t.Fatalf("seed failed: %v", err)
				}
			}

			stored, err := newTestEngine(t, store).SetValue(context.Background(), h.ID, testToday, tt.value, "")
			if err != nil {
				t.Fatalf("SetValue failed: %v", err)
			}
			if stored != tt.wantStored {
				t.Errorf("SetValue = %v, want %v", stored, tt.wantStored)
			}

			rec, ok := evidence(t, store, h.ID, testToday).Record()
			if ok != tt.wantStored {
				t.Fatalf("record present = %v, want %v", ok, tt.wantStored)
			}
			if ok && (rec.Value == nil || *rec.Value != tt.wantValue) {
				t.Errorf("Value = %v, want %v", rec.Value, tt.wantValue)
			}
			if ok && tt.existing != nil && rec.Note != "morning" {
				t.Errorf("Note = %q, want the existing note kept", rec.Note)
			}
		})
	}
}

func TestSetValueKeepsCreatedAt(t *testing.T) {
	store := newFakeStore()
	target := 1.0
	h := store.add(models.Habit{Name: "Pages", IsNumeric: true, TargetValue: &target})
	created := time.Date(2025, time.March, 12, 6, 0, 0, 0, time.UTC)
	first := 5.0
	if err := store.UpsertCheckinRecord(models.CheckinRecord{HabitID: h.ID, Day: testToday, Completed: true, Value: &first, CreatedAt: created}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := newTestEngine(t, store).SetValue(context.Background(), h.ID, testToday, 20, "long chapter"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	rec, _ := evidence(t, store, h.ID, testToday).Record()
	if !rec.CreatedAt.Equal(created) || rec.Note != "long chapter" {
		t.Errorf("record = %+v", rec)
	}
}

func TestSetValueRejects(t *testing.T) {
	store := newFakeStore()
	target := 8.0
	numeric := store.add(models.Habit{Name: "Water", IsNumeric: true, TargetValue: &target})
	plain := store.add(models.Habit{Name: "Read"})
	archived := store.add(models.Habit{Name: "Old", IsNumeric: true, TargetValue: &target, Status: models.StatusArchived})
	e := newTestEngine(t, store)

	tests := []struct {
		name    string
		habitID int64
		day     calendar.Day
		value   float64
		wantErr error
	}{
		{"negative", numeric.ID, testToday, -1, ErrInvalidInput},
		{"nan", numeric.ID, testToday, math.NaN(), ErrInvalidInput},
		{"infinite", numeric.ID, testToday, math.Inf(1), ErrInvalidInput},
		{"future day", numeric.ID, testToday.AddDays(2), 9, ErrInvalidInput},
		{"not numeric", plain.ID, testToday, 9, ErrInvalidInput},
		{"archived", archived.ID, testToday, 9, ErrHabitInactive},
		{"unknown", 404, testToday, 9, ErrHabitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := e.SetValue(context.Background(), tt.habitID, tt.day, tt.value, "")
			if !errors.Is(err, tt.wantErr) || stored {
				t.Errorf("SetValue = %v, %v; want %v", stored, err, tt.wantErr)
			}
		})
	}
}
