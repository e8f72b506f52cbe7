package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/notifier"
	"github.com/julianstephens/tally/internal/tracker"
)

// NotifyCmd re-evaluates achievements and announces unlocks that were not
// recorded yet, or sends a fixed message.
type NotifyCmd struct {
	Message string `arg:"" optional:"" help:"Send this text instead of checking achievements."`
	DryRun  bool   `help:"Print notifications to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if !settings.NotificationsEnabled {
		if c.DryRun {
			fmt.Fprintln(ctx.Out, "Notifications are disabled in settings.")
		}
		return nil
	}

	n := notifier.New()
	if c.DryRun {
		n = notifier.NewDryRun(ctx.Out)
	}
	goctx := context.Background()

	if c.Message != "" {
		return n.Notify(goctx, c.Message)
	}

	sent := 0
	hook := n.UnlockHook(goctx)
	engine := tracker.New(ctx.Store,
		tracker.WithLocation(ctx.Location),
		tracker.WithUnlockLog(ctx.Store),
		tracker.WithUnlockHook(func(ev models.UnlockEvent) {
			sent++
			hook(ev)
		}),
	)
	if _, err := engine.EvaluateAchievements(goctx); err != nil {
		return err
	}
	if c.DryRun && sent == 0 {
		fmt.Fprintln(ctx.Out, "No new achievements.")
	}
	return nil
}
