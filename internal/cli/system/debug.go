package system

import (
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" name:"db-path" help:"Show database path."`
	DumpHabit    DebugDumpHabitCmd    `cmd:"" help:"Dump a habit and its check-in records as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
	DumpUnlocks  DebugDumpUnlocksCmd  `cmd:"" help:"Dump the achievement unlock log as JSON."`
}

func dumpJSON(ctx *cli.Context, v any) error {
	return cli.Write(ctx.Out, cli.FormatJSON, v, nil)
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return dumpJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(cmd.Habit)
	if err != nil {
		return err
	}
	records, err := ctx.Store.ListCheckinRecords(habit.ID, historyFirst, historyLast)
	if err != nil {
		return fmt.Errorf("failed to list check-ins: %w", err)
	}
	return dumpJSON(ctx, map[string]any{
		"habit":    habit,
		"checkins": records,
	})
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return dumpJSON(ctx, settings)
}

type DebugDumpUnlocksCmd struct{}

func (cmd *DebugDumpUnlocksCmd) Run(ctx *cli.Context) error {
	unlocks, err := ctx.Store.ListUnlocks()
	if err != nil {
		return fmt.Errorf("failed to list unlocks: %w", err)
	}
	return dumpJSON(ctx, unlocks)
}
