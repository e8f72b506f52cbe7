package settings

import (
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/tally/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone             *string `help:"IANA timezone used to decide what \"today\" is, or Local."`
	NotificationsEnabled *bool   `help:"Enable or disable achievement notifications."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		return ctx.Render(settings, func(w io.Writer) error {
			fmt.Fprintln(w, "Current Settings:")
			fmt.Fprintf(w, "  Timezone:              %s\n", settings.Timezone)
			fmt.Fprintf(w, "  Notifications Enabled: %v\n", settings.NotificationsEnabled)
			return nil
		})
	}

	updated := false
	if c.Timezone != nil {
		if *c.Timezone != "Local" {
			if _, err := time.LoadLocation(*c.Timezone); err != nil {
				return fmt.Errorf("unknown timezone %q: %w", *c.Timezone, err)
			}
		}
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintln(ctx.Out, "Settings updated successfully.")
	} else {
		fmt.Fprintln(ctx.Out, "No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
