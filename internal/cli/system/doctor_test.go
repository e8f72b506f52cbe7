package system

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage/sqlite"
)

var testToday = calendar.FromDate(2025, time.March, 12)

func setupTestContext(t *testing.T) (*cli.Context, *sqlite.Store, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := cli.NewContext(store, cli.Options{Clock: func() calendar.Day { return testToday }})
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, store, out
}

func addHabit(t *testing.T, ctx *cli.Context, name string) models.Habit {
	t.Helper()
	h, err := ctx.Store.AddHabit(models.Habit{Name: name, Frequency: models.FrequencyDaily})
	if err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	return h
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	ctx, _, out := setupTestContext(t)
	addHabit(t, ctx, "Read")

	cmd := &DoctorCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("doctor command failed on healthy database: %v\n%s", err, out)
	}
	// Missing backups is a warning, not a failure
	if !strings.Contains(out.String(), "⚠ Backups present: WARNING") {
		t.Errorf("expected backup warning:\n%s", out)
	}
	if !strings.Contains(out.String(), "All diagnostics passed!") {
		t.Errorf("expected success summary:\n%s", out)
	}
}

func TestDoctorCmd_BrokenSchema(t *testing.T) {
	ctx, store, out := setupTestContext(t)

	db := store.GetDB()
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		t.Fatalf("failed to delete schema version: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (999)"); err != nil {
		t.Fatalf("failed to insert corrupted schema version: %v", err)
	}

	cmd := &DoctorCmd{}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("doctor should fail with a schema newer than supported")
	}
	if !strings.Contains(out.String(), "❌ Schema version: FAIL") {
		t.Errorf("expected schema failure:\n%s", out)
	}
}

func TestDoctorCmd_FutureCheckins(t *testing.T) {
	ctx, store, out := setupTestContext(t)
	h := addHabit(t, ctx, "Read")

	if err := store.UpsertCheckinRecord(models.CheckinRecord{HabitID: h.ID, Day: testToday.AddDays(10), Completed: true}); err != nil {
		t.Fatalf("failed to insert check-in: %v", err)
	}

	cmd := &DoctorCmd{}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("doctor should fail on future-dated check-ins")
	}
	if !strings.Contains(out.String(), "found 1 check-ins dated after 2025-03-13") {
		t.Errorf("expected future check-in failure:\n%s", out)
	}
}

func TestDoctorCmd_BadTimezone(t *testing.T) {
	ctx, _, out := setupTestContext(t)
	if err := ctx.Store.SaveSettings(models.Settings{Timezone: "Mars/Olympus"}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	cmd := &DoctorCmd{}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("doctor should fail on an unknown timezone")
	}
	if !strings.Contains(out.String(), "❌ Clock/timezone: FAIL") {
		t.Errorf("expected timezone failure:\n%s", out)
	}
}

func TestDoctorCmd_UnreachableDB(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "missing.db"))
	ctx := cli.NewContext(store, cli.Options{})
	out := &bytes.Buffer{}
	ctx.Out = out

	cmd := &DoctorCmd{}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("doctor should fail without a database")
	}
	if !strings.Contains(out.String(), "⊘ Schema version: SKIPPED") {
		t.Errorf("expected skipped checks:\n%s", out)
	}
}
