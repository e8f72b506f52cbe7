package checkins

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage/sqlite"
	"github.com/julianstephens/tally/internal/tracker"
)

var testToday = calendar.FromDate(2025, time.March, 12)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := cli.NewContext(store, cli.Options{Clock: func() calendar.Day { return testToday }})
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, out
}

func addHabit(t *testing.T, ctx *cli.Context, h models.Habit) models.Habit {
	t.Helper()
	if h.Frequency == "" {
		h.Frequency = models.FrequencyDaily
	}
	added, err := ctx.Store.AddHabit(h)
	if err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	return added
}

func TestCheckinCmd_Toggle(t *testing.T) {
	ctx, out := setupTestDB(t)
	addHabit(t, ctx, models.Habit{Name: "Read"})

	cmd := &CheckinCmd{Habit: "Read"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	want := "✓ Checked in \"Read\" for 2025-03-12\n  Current streak: 1\n🏆 Achievement unlocked: First check-in\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	out.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	want = "Unchecked \"Read\" for 2025-03-12\n  Current streak: 0\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCheckinCmd_Yesterday(t *testing.T) {
	ctx, out := setupTestDB(t)
	addHabit(t, ctx, models.Habit{Name: "Read"})
	ctx.Output = cli.FormatJSON

	if err := (&CheckinCmd{Habit: "Read", Date: "yesterday"}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	var res result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if res.Day != testToday.AddDays(-1) || !res.Checked || res.Streak != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCheckinCmd_Errors(t *testing.T) {
	ctx, _ := setupTestDB(t)
	paused := addHabit(t, ctx, models.Habit{Name: "Run"})
	if err := ctx.Store.SetHabitStatus(paused.ID, models.StatusPaused); err != nil {
		t.Fatalf("SetHabitStatus failed: %v", err)
	}

	if err := (&CheckinCmd{Habit: "Missing"}).Run(ctx); err == nil {
		t.Error("expected error for unknown habit")
	}

	err := (&CheckinCmd{Habit: "Run"}).Run(ctx)
	if !stderrors.Is(err, tracker.ErrHabitInactive) {
		t.Errorf("expected ErrHabitInactive, got %v", err)
	}

	err = (&CheckinCmd{Habit: "Run", Date: "03/01/2025"}).Run(ctx)
	if code := errors.ExitCode(err); code != errors.ExitInvalidInput {
		t.Errorf("exit code = %d, want %d (%v)", code, errors.ExitInvalidInput, err)
	}
}

func TestRetroCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	addHabit(t, ctx, models.Habit{Name: "Read"})

	cmd := &RetroCmd{Habit: "Read", Date: "2025-03-10", Note: "late entry"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("retro failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "✓ Recorded \"Read\" for 2025-03-10\n") {
		t.Errorf("unexpected output %q", out.String())
	}

	ev, err := ctx.Store.GetCheckinRecord(1, calendar.FromDate(2025, time.March, 10))
	if err != nil {
		t.Fatalf("GetCheckinRecord failed: %v", err)
	}
	rec, ok := ev.Record()
	if !ok || !rec.Completed || rec.Note != "late entry" {
		t.Errorf("unexpected record %+v (present=%v)", rec, ok)
	}

	// A second retro check-in on the same day changes nothing
	out.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("retro failed: %v", err)
	}
	if !strings.Contains(out.String(), "already has a check-in on 2025-03-10") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRetroCmd_RejectsTodayAndFuture(t *testing.T) {
	ctx, _ := setupTestDB(t)
	addHabit(t, ctx, models.Habit{Name: "Read"})

	for _, date := range []string{"today", "2025-03-20"} {
		err := (&RetroCmd{Habit: "Read", Date: date}).Run(ctx)
		if !stderrors.Is(err, tracker.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", date, err)
		}
		if code := errors.ExitCode(err); code != errors.ExitInvalidInput {
			t.Errorf("%s: exit code = %d, want %d", date, code, errors.ExitInvalidInput)
		}
	}
}

func TestValueCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	target := 2.0
	addHabit(t, ctx, models.Habit{Name: "Water", IsNumeric: true, TargetValue: &target, Unit: "l"})

	if err := (&ValueCmd{Habit: "Water", Value: 1.5}).Run(ctx); err != nil {
		t.Fatalf("value failed: %v", err)
	}
	want := "1.5 l is below the target of 2 l; \"Water\" is not checked on 2025-03-12\n  Current streak: 0\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	out.Reset()
	if err := (&ValueCmd{Habit: "Water", Value: 2.5, Note: "hot day"}).Run(ctx); err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "✓ 2.5 l of 2 l for \"Water\" on 2025-03-12\n  Current streak: 1\n") {
		t.Errorf("unexpected output %q", out.String())
	}

	ev, _ := ctx.Store.GetCheckinRecord(1, testToday)
	rec, ok := ev.Record()
	if !ok || rec.Value == nil || *rec.Value != 2.5 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestValueCmd_BooleanHabit(t *testing.T) {
	ctx, _ := setupTestDB(t)
	addHabit(t, ctx, models.Habit{Name: "Read"})

	err := (&ValueCmd{Habit: "Read", Value: 1}).Run(ctx)
	if !stderrors.Is(err, tracker.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
