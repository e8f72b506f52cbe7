package stats

import (
	"bytes"
	"encoding/json"
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

// Wednesday
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

// seed adds habits "Read" and "Run" and checks them in on the given day
// offsets relative to today.
func seed(t *testing.T, ctx *cli.Context, read, run []int) {
	t.Helper()
	for name, offsets := range map[string][]int{"Read": read, "Run": run} {
		h, err := ctx.Store.AddHabit(models.Habit{Name: name, Frequency: models.FrequencyDaily})
		if err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		for _, off := range offsets {
			rec := models.CheckinRecord{HabitID: h.ID, Day: testToday.AddDays(off), Completed: true}
			if err := ctx.Store.UpsertCheckinRecord(rec); err != nil {
				t.Fatalf("UpsertCheckinRecord failed: %v", err)
			}
		}
	}
}

func TestStreakCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	seed(t, ctx, []int{-10, -9, -8, -7, -2, -1, 0}, nil)

	if err := (&StreakCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("streak failed: %v", err)
	}
	if got := out.String(); got != "Read: 3 day streak (longest 4) as of 2025-03-12\n" {
		t.Errorf("got %q", got)
	}

	out.Reset()
	ctx.Output = cli.FormatJSON
	if err := (&StreakCmd{Habit: "Read", AsOf: "2025-03-05"}).Run(ctx); err != nil {
		t.Fatalf("streak failed: %v", err)
	}
	var got struct {
		Current int    `json:"current"`
		Longest int    `json:"longest"`
		AsOf    string `json:"as_of"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Current != 4 || got.Longest != 4 || got.AsOf != "2025-03-05" {
		t.Errorf("unexpected streak %+v", got)
	}
}

func TestStatsWeekCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	// Monday 10th through Wednesday 12th
	seed(t, ctx, []int{-2, -1, 0}, []int{-2})
	ctx.Output = cli.FormatJSON

	if err := (&StatsWeekCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats week failed: %v", err)
	}
	var ws tracker.WeeklyStats
	if err := json.Unmarshal(out.Bytes(), &ws); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if ws.WeekStart != calendar.FromDate(2025, time.March, 10) || ws.WeekEnd != calendar.FromDate(2025, time.March, 16) {
		t.Errorf("week = %s..%s", ws.WeekStart, ws.WeekEnd)
	}
	if ws.TotalCheckins != 4 || ws.PossibleCheckins != 6 {
		t.Errorf("checkins = %d/%d, want 4/6", ws.TotalCheckins, ws.PossibleCheckins)
	}
	if len(ws.PerDay) != 3 || !ws.PerDay[2].IsToday {
		t.Errorf("unexpected per-day breakdown %+v", ws.PerDay)
	}
}

func TestStatsWeekCmd_Text(t *testing.T) {
	ctx, out := setupTestDB(t)
	seed(t, ctx, []int{-2, -1, 0}, []int{-2})

	if err := (&StatsWeekCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats week failed: %v", err)
	}
	for _, want := range []string{"Week 2025-03-10 to 2025-03-16", "▶ Wed 2025-03-12  1/2", "Completed 4 of 6 possible check-ins", "67%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsMonthCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	seed(t, ctx, []int{-2, -1, 0}, []int{-1})

	if err := (&StatsMonthCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats month failed: %v", err)
	}
	for _, want := range []string{"March 2025", "Days counted:     12", "Perfect days:     1", "Best streak:      1", "Most consistent:  Read"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out.Reset()
	if err := (&StatsMonthCmd{Month: "2025-04"}).Run(ctx); err != nil {
		t.Fatalf("stats month failed: %v", err)
	}
	if !strings.Contains(out.String(), "This month has not started yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	err := (&StatsMonthCmd{Month: "March"}).Run(ctx)
	if code := errors.ExitCode(err); code != errors.ExitInvalidInput {
		t.Errorf("exit code = %d, want %d (%v)", code, errors.ExitInvalidInput, err)
	}
}

func TestCalendarCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	seed(t, ctx, []int{-11, -1, 0}, nil)

	if err := (&CalendarCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	for _, want := range []string{"Read", "March 2025", "Mo Tu We Th Fr Sa Su", "3 of 31 days  10%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out.Reset()
	ctx.Output = cli.FormatJSON
	if err := (&CalendarCmd{Habit: "Read", Month: "2025-02"}).Run(ctx); err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	var data tracker.CalendarData
	if err := json.Unmarshal(out.Bytes(), &data); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if data.TotalDaysInMonth != 28 || data.CompletedDays != 0 {
		t.Errorf("unexpected calendar %+v", data)
	}
}

func TestAchievementsCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	seed(t, ctx, []int{-6, -5, -4, -3, -2, -1, 0}, nil)

	if err := (&AchievementsCmd{}).Run(ctx); err != nil {
		t.Fatalf("achievements failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(models.Achievements) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(models.Achievements), out)
	}
	if !strings.HasPrefix(lines[1], "🏆 7-day streak") {
		t.Errorf("7-day streak should be unlocked: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "🔒 21-day streak") || !strings.Contains(lines[2], "33%") {
		t.Errorf("21-day streak should be locked at 33%%: %q", lines[2])
	}
}

func TestFormatAchievement(t *testing.T) {
	def, _ := models.FindAchievement("streak-30")
	got := formatAchievement(models.AchievementState{AchievementDefinition: def, Progress: 15})
	if got != "🔒 30-day streak    █████░░░░░  50%  (15/30)" {
		t.Errorf("got %q", got)
	}
}

func TestRankCmd(t *testing.T) {
	ctx, out := setupTestDB(t)
	if err := (&RankCmd{}).Run(ctx); err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if got := out.String(); got != "No active habits.\n" {
		t.Errorf("got %q", got)
	}

	seed(t, ctx, []int{0}, []int{-1, 0})
	out.Reset()
	if err := (&RankCmd{}).Run(ctx); err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1st  Run") || !strings.HasPrefix(lines[1], "2nd  Read") {
		t.Errorf("unexpected ranking:\n%s", out)
	}
}
