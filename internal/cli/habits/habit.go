package habits

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/validation"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Show    HabitShowCmd    `cmd:"" help:"Show streaks and progress for a habit."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	Pause   HabitPauseCmd   `cmd:"" help:"Pause a habit."`
	Resume  HabitResumeCmd  `cmd:"" help:"Resume a paused habit."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
}

// FormatFrequency describes a habit's check-in policy.
func FormatFrequency(h models.Habit) string {
	switch h.Frequency {
	case models.FrequencyDaily:
		return "daily"
	case models.FrequencyWeekdays:
		return "weekdays"
	case models.FrequencyNTimesPerWeek:
		return fmt.Sprintf("%dx per week", h.TargetCount)
	case models.FrequencyNTimesPerMonth:
		return fmt.Sprintf("%dx per month", h.TargetCount)
	case models.FrequencyCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// saveChecked normalizes and validates h against the stored habits.
func saveChecked(ctx *cli.Context, h models.Habit) (models.Habit, error) {
	v := validation.New()
	h = v.Normalize(h)
	if err := v.ValidateHabit(h).Err(); err != nil {
		return h, err
	}

	existing, err := ctx.Store.GetHabitByName(h.Name)
	switch {
	case err == nil && existing.ID != h.ID:
		return h, fmt.Errorf("habit with name %q already exists", h.Name)
	case err != nil && !stderrors.Is(err, storage.ErrNotFound):
		return h, err
	}
	return h, nil
}

type HabitAddCmd struct {
	Name        string   `arg:"" help:"Habit name."`
	Description string   `help:"Longer description."`
	Color       string   `help:"Display color as #RRGGBB."`
	Icon        string   `help:"Display icon."`
	Frequency   string   `help:"daily, weekdays, n-times-per-week, n-times-per-month or custom." default:"daily"`
	Times       int      `help:"Target count for n-times-per-week/month habits."`
	TargetValue *float64 `help:"Makes the habit numeric with this daily target." name:"target-value"`
	Unit        string   `help:"Unit of a numeric habit's value."`
	Goal        *int64   `help:"Identifier of a goal this habit contributes to."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	freq, err := models.ParseFrequency(c.Frequency)
	if err != nil {
		return cli.Classify(fmt.Errorf("%w: %v", validation.ErrInvalidHabit, err))
	}

	habit := models.Habit{
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		Frequency:   freq,
		TargetCount: c.Times,
		IsNumeric:   c.TargetValue != nil,
		TargetValue: c.TargetValue,
		Unit:        c.Unit,
		Status:      models.StatusActive,
		GoalID:      c.Goal,
		CreatedAt:   time.Now(),
	}
	habit, err = saveChecked(ctx, habit)
	if err != nil {
		return cli.Classify(err)
	}

	added, err := ctx.Store.AddHabit(habit)
	if err != nil {
		return err
	}
	ctx.Engine.InvalidateAll(context.Background())

	return ctx.Render(added, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Added habit %d: %s (%s)\n", added.ID, added.Name, FormatFrequency(added))
		return err
	})
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(c.Archived)
	if err != nil {
		return err
	}

	return ctx.Render(habits, func(w io.Writer) error {
		if len(habits) == 0 {
			_, err := fmt.Fprintln(w, "No habits found.")
			return err
		}
		for _, h := range habits {
			status := ""
			if !h.IsActive() {
				status = fmt.Sprintf(" [%s]", h.Status)
			}
			fmt.Fprintf(w, "%4d  %-24s %s%s\n", h.ID, h.Name, FormatFrequency(h), status)
		}
		return nil
	})
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	summary, err := ctx.Engine.Summary(context.Background(), habit.ID, ctx.Today())
	if err != nil {
		return err
	}

	return ctx.Render(summary, func(w io.Writer) error {
		h := summary.Habit
		fmt.Fprintf(w, "%s (#%d)\n", h.Name, h.ID)
		if h.Description != "" {
			fmt.Fprintf(w, "  %s\n", h.Description)
		}
		fmt.Fprintf(w, "  Frequency:      %s\n", FormatFrequency(h))
		if h.IsNumeric {
			fmt.Fprintf(w, "  Target:         %s %s\n", humanize.Ftoa(h.Target()), h.Unit)
		}
		fmt.Fprintf(w, "  Status:         %s\n", h.Status)
		fmt.Fprintf(w, "  Created:        %s\n", humanize.Time(h.CreatedAt))
		fmt.Fprintf(w, "  Current streak: %d\n", summary.CurrentStreak)
		fmt.Fprintf(w, "  Longest streak: %d\n", summary.LongestStreak)
		fmt.Fprintf(w, "  Check-ins:      %s\n", humanize.Comma(int64(summary.TotalCheckins)))
		if summary.LastCheckin != nil {
			fmt.Fprintf(w, "  Last check-in:  %s\n", summary.LastCheckin)
		}
		p := summary.Progress
		fmt.Fprintf(w, "  This period:    %d/%d (%s to %s)\n", p.Done, p.Target, p.PeriodStart, p.PeriodEnd)
		return nil
	})
}

type HabitEditCmd struct {
	Habit       string   `arg:"" help:"Habit name or id."`
	Name        *string  `help:"New name."`
	Description *string  `help:"New description."`
	Color       *string  `help:"New color as #RRGGBB."`
	Icon        *string  `help:"New icon."`
	Frequency   *string  `help:"New frequency."`
	Times       *int     `help:"New target count."`
	TargetValue *float64 `help:"New numeric target; makes the habit numeric." name:"target-value"`
	Unit        *string  `help:"New unit."`
	Boolean     bool     `help:"Turn a numeric habit back into a done/not-done habit."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Name != nil {
		habit.Name = *c.Name
	}
	if c.Description != nil {
		habit.Description = *c.Description
	}
	if c.Color != nil {
		habit.Color = *c.Color
	}
	if c.Icon != nil {
		habit.Icon = *c.Icon
	}
	if c.Frequency != nil {
		freq, err := models.ParseFrequency(*c.Frequency)
		if err != nil {
			return cli.Classify(fmt.Errorf("%w: %v", validation.ErrInvalidHabit, err))
		}
		habit.Frequency = freq
	}
	if c.Times != nil {
		habit.TargetCount = *c.Times
	}
	if c.TargetValue != nil {
		habit.IsNumeric = true
		habit.TargetValue = c.TargetValue
	}
	if c.Unit != nil {
		habit.Unit = *c.Unit
	}
	if c.Boolean {
		habit.IsNumeric = false
	}

	habit, err = saveChecked(ctx, habit)
	if err != nil {
		return cli.Classify(err)
	}
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}
	ctx.Engine.InvalidateAll(context.Background())

	return ctx.Render(habit, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Updated habit %d: %s\n", habit.ID, habit.Name)
		return err
	})
}

func setStatus(ctx *cli.Context, ref string, next models.Status, verb string) error {
	habit, err := ctx.ResolveHabit(ref)
	if err != nil {
		return err
	}
	if habit.Status == next {
		fmt.Fprintf(ctx.Out, "Habit %q is already %s.\n", habit.Name, strings.ToLower(string(next)))
		return nil
	}
	if !habit.Status.CanTransition(next) {
		return cli.Classify(fmt.Errorf("%w: cannot move habit %q from %s to %s", validation.ErrInvalidHabit, habit.Name, habit.Status, next))
	}
	if err := ctx.Store.SetHabitStatus(habit.ID, next); err != nil {
		return err
	}
	ctx.Engine.InvalidateAll(context.Background())
	fmt.Fprintf(ctx.Out, "%s habit: %s\n", verb, habit.Name)
	return nil
}

type HabitPauseCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitPauseCmd) Run(ctx *cli.Context) error {
	return setStatus(ctx, c.Habit, models.StatusPaused, "Paused")
}

type HabitResumeCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitResumeCmd) Run(ctx *cli.Context) error {
	return setStatus(ctx, c.Habit, models.StatusActive, "Resumed")
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	return setStatus(ctx, c.Habit, models.StatusArchived, "Archived")
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		fmt.Fprintf(ctx.Out, "⚠️  This permanently deletes %q and all of its check-ins.\n", habit.Name)
		fmt.Fprint(ctx.Out, "Continue? [y/N]: ")
		response, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(ctx.Out, "Delete cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}
	ctx.Engine.InvalidateAll(context.Background())
	fmt.Fprintf(ctx.Out, "Deleted habit: %s\n", habit.Name)
	return nil
}
