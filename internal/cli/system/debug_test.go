package system

import (
	"encoding/json"
	"testing"

	"github.com/julianstephens/tally/internal/models"
)

func TestDebugDBPathCmd(t *testing.T) {
	ctx, store, out := setupTestContext(t)

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Fatalf("debug db-path failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["path"] != store.GetConfigPath() {
		t.Errorf("path = %q, want %q", got["path"], store.GetConfigPath())
	}
}

func TestDebugDumpHabitCmd(t *testing.T) {
	ctx, store, out := setupTestContext(t)
	h := addHabit(t, ctx, "Read")
	if err := store.UpsertCheckinRecord(models.CheckinRecord{HabitID: h.ID, Day: testToday, Completed: true, Note: "chapter 3"}); err != nil {
		t.Fatalf("UpsertCheckinRecord failed: %v", err)
	}

	if err := (&DebugDumpHabitCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("dump-habit failed: %v", err)
	}
	var got struct {
		Habit    models.Habit           `json:"habit"`
		Checkins []models.CheckinRecord `json:"checkins"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Habit.Name != "Read" || len(got.Checkins) != 1 {
		t.Fatalf("unexpected dump: %+v", got)
	}
	if got.Checkins[0].Day != testToday || got.Checkins[0].Note != "chapter 3" {
		t.Errorf("unexpected record: %+v", got.Checkins[0])
	}
}

func TestDebugDumpHabitCmd_NotFound(t *testing.T) {
	ctx, _, _ := setupTestContext(t)
	if err := (&DebugDumpHabitCmd{Habit: "Missing"}).Run(ctx); err == nil {
		t.Error("expected error for unknown habit")
	}
}

func TestDebugDumpSettingsAndUnlocks(t *testing.T) {
	ctx, _, out := setupTestContext(t)

	if err := (&DebugDumpSettingsCmd{}).Run(ctx); err != nil {
		t.Fatalf("dump-settings failed: %v", err)
	}
	var settings models.Settings
	if err := json.Unmarshal(out.Bytes(), &settings); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if settings.Timezone != "Local" {
		t.Errorf("timezone = %q", settings.Timezone)
	}

	out.Reset()
	if err := (&DebugDumpUnlocksCmd{}).Run(ctx); err != nil {
		t.Fatalf("dump-unlocks failed: %v", err)
	}
	var unlocks []models.UnlockEvent
	if err := json.Unmarshal(out.Bytes(), &unlocks); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(unlocks) != 0 {
		t.Errorf("expected no unlocks, got %d", len(unlocks))
	}
}
