package system

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/validation"
)

// dbProvider is implemented by the SQL-backed stores.
type dbProvider interface {
	GetDB() *sql.DB
}

type check struct {
	name string
	run  func(ctx *cli.Context) error
	// warnOnly failures are reported but do not fail the command
	warnOnly bool
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
}

var checks = []check{
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Migrations complete", run: checkMigrationsComplete, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warnOnly: true},
	{name: "Data validation", run: checkValidation, needsDB: true},
	{name: "Clock/timezone", run: checkClockTimezone, needsDB: true},
	{name: "Check-in integrity", run: checkCheckinIntegrity, needsDB: true},
	{name: "Check-in dates", run: checkFutureCheckins, needsDB: true},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	hasError := false
	dbReachable := true

	if err := ctx.Store.Load(); err != nil {
		fmt.Fprintf(ctx.Out, "❌ Database reachable: FAIL\n")
		fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Fprintf(ctx.Out, "✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(ctx.Out, "✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Fprintf(ctx.Out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		default:
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func schemaVersions(ctx *cli.Context) (current, latest int, ok bool, err error) {
	migrator, isMigrator := ctx.Store.(storage.Migrator)
	if !isMigrator {
		// JSON store doesn't have migrations
		return 0, 0, false, nil
	}
	current, latest, err = migrator.SchemaVersion()
	return current, latest, err == nil, err
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !cli.IsSQLitePath(ctx.Store.GetConfigPath()) {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	habits, err := ctx.Store.ListHabits(true)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	return validation.New().ValidateHabits(habits).Err()
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.Timezone != "" && settings.Timezone != "Local" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return fmt.Errorf("configured timezone %q cannot be loaded: %w", settings.Timezone, err)
		}
	}
	return nil
}

func checkCheckinIntegrity(ctx *cli.Context) error {
	p, ok := ctx.Store.(dbProvider)
	if !ok {
		return nil
	}
	db := p.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Check for orphaned check-ins (referencing non-existent habits)
	var orphaned int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM checkins c
		LEFT JOIN habits h ON c.habit_id = h.id
		WHERE h.id IS NULL
	`).Scan(&orphaned)
	if err != nil {
		return fmt.Errorf("failed to check orphaned check-ins: %w", err)
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d orphaned check-ins (referencing non-existent habits)", orphaned)
	}
	return nil
}

// checkFutureCheckins flags records dated after tomorrow, which no command
// can create and usually mean a clock or timezone problem on another device.
func checkFutureCheckins(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(true)
	if err != nil {
		return err
	}
	tomorrow := ctx.Today().AddDays(1)
	future := 0
	for _, h := range habits {
		days, err := ctx.Store.ListCheckinDays(h.ID, tomorrow.AddDays(1), historyLast)
		if err != nil {
			return fmt.Errorf("failed to list check-ins of %q: %w", h.Name, err)
		}
		future += len(days)
	}
	if future > 0 {
		return fmt.Errorf("found %d check-ins dated after %s", future, tomorrow)
	}
	return nil
}
