package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/storage"
)

// copy range for check-in history
var (
	historyFirst = calendar.FromDate(1970, time.January, 1)
	historyLast  = calendar.FromDate(9999, time.December, 31)
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if !cli.IsSQLitePath(dbPath) && !isJSONPath(dbPath) {
			return fmt.Errorf("--force is only supported for file-based storage")
		}
		// Don't delete if it's the source (user error protection)
		if c.Source != "" {
			if absDbPath, err := filepath.Abs(dbPath); err == nil {
				dbPath = absDbPath
			}
			if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release file locks
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(ctx.Out, "Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	// a cache shared with an earlier database at this path must not leak into the new one
	defer ctx.Engine.InvalidateAll(context.Background())
	fmt.Fprintf(ctx.Out, "Initialized tally storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(ctx.Out, "Copying data from: %s\n", c.Source)
		if err := c.copyData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(ctx.Out, "Migration completed successfully!")
	}

	return nil
}

func isJSONPath(path string) bool {
	return filepath.Ext(path) == ".json"
}

// copyData copies settings, habits, check-ins and the unlock log from the
// source store. Habit ids are reassigned by the destination.
func (c *InitCmd) copyData(ctx *cli.Context) error {
	source, err := cli.OpenStore(c.Source, false)
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	dest := ctx.Store

	fmt.Fprintln(ctx.Out, "  Migrating settings...")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := dest.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	fmt.Fprintln(ctx.Out, "  Migrating habits...")
	habits, err := source.ListHabits(true)
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	records := 0
	for _, habit := range habits {
		oldID := habit.ID
		added, err := dest.AddHabit(habit)
		if err != nil {
			return fmt.Errorf("failed to add habit %q: %w", habit.Name, err)
		}

		n, err := copyCheckins(source, dest, oldID, added.ID)
		if err != nil {
			return fmt.Errorf("failed to copy check-ins of %q: %w", habit.Name, err)
		}
		records += n
	}
	fmt.Fprintf(ctx.Out, "    Migrated %d habits\n", len(habits))
	fmt.Fprintf(ctx.Out, "    Migrated %d check-ins\n", records)

	fmt.Fprintln(ctx.Out, "  Migrating achievement unlocks...")
	unlocks, err := source.ListUnlocks()
	if err != nil {
		return fmt.Errorf("failed to get unlocks from source: %w", err)
	}
	for _, ev := range unlocks {
		if _, err := dest.RecordUnlock(ev); err != nil {
			return fmt.Errorf("failed to record unlock %s: %w", ev.AchievementID, err)
		}
	}
	fmt.Fprintf(ctx.Out, "    Migrated %d unlocks\n", len(unlocks))

	return nil
}

func copyCheckins(source, dest storage.Provider, fromID, toID int64) (int, error) {
	recs, err := source.ListCheckinRecords(fromID, historyFirst, historyLast)
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		rec.HabitID = toID
		if err := dest.UpsertCheckinRecord(rec); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}
