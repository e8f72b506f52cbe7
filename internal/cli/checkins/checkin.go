package checkins

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/cli"
)

// result is the structured output of a check-in mutation.
type result struct {
	HabitID int64        `json:"habit_id" yaml:"habit_id"`
	Habit   string       `json:"habit" yaml:"habit"`
	Day     calendar.Day `json:"day" yaml:"day"`
	Checked bool         `json:"checked" yaml:"checked"`
	Changed bool         `json:"changed" yaml:"changed"`
	Streak  int          `json:"streak" yaml:"streak"`
}

func finish(ctx *cli.Context, res result, text func(w io.Writer) error) error {
	goctx := context.Background()
	streak, err := ctx.Engine.Streak(goctx, res.HabitID, ctx.Today())
	if err != nil {
		return err
	}
	res.Streak = streak

	if err := ctx.Render(res, text); err != nil {
		return err
	}
	if res.Changed {
		ctx.CheckAchievements(goctx)
	}
	return nil
}

type CheckinCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Day to toggle: YYYY-MM-DD, today or yesterday." default:""`
}

func (c *CheckinCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return cli.Classify(err)
	}

	checked, err := ctx.Engine.Toggle(context.Background(), habit.ID, day)
	if err != nil {
		return cli.Classify(err)
	}

	res := result{HabitID: habit.ID, Habit: habit.Name, Day: day, Checked: checked, Changed: true}
	return finish(ctx, res, func(w io.Writer) error {
		if checked {
			fmt.Fprintf(w, "✓ Checked in %q for %s\n", habit.Name, day)
		} else {
			fmt.Fprintf(w, "Unchecked %q for %s\n", habit.Name, day)
		}
		_, err := fmt.Fprintf(w, "  Current streak: %d\n", res.Streak)
		return err
	})
}

type RetroCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `arg:"" help:"Past day to record (YYYY-MM-DD or yesterday)."`
	Note  string `help:"Optional note for this check-in."`
}

func (c *RetroCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return cli.Classify(err)
	}

	created, err := ctx.Engine.RetroCheckin(context.Background(), habit.ID, day, c.Note)
	if err != nil {
		return cli.Classify(err)
	}

	res := result{HabitID: habit.ID, Habit: habit.Name, Day: day, Checked: true, Changed: created}
	return finish(ctx, res, func(w io.Writer) error {
		if created {
			fmt.Fprintf(w, "✓ Recorded %q for %s\n", habit.Name, day)
		} else {
			fmt.Fprintf(w, "%q already has a check-in on %s, nothing changed.\n", habit.Name, day)
		}
		_, err := fmt.Fprintf(w, "  Current streak: %d\n", res.Streak)
		return err
	})
}

type ValueCmd struct {
	Habit string  `arg:"" help:"Habit name or id."`
	Value float64 `arg:"" help:"Measured value for the day."`
	Date  string  `help:"Day to record: YYYY-MM-DD, today or yesterday." default:""`
	Note  string  `help:"Optional note."`
}

func (c *ValueCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return cli.Classify(err)
	}

	completed, err := ctx.Engine.SetValue(context.Background(), habit.ID, day, c.Value, c.Note)
	if err != nil {
		return cli.Classify(err)
	}

	res := result{HabitID: habit.ID, Habit: habit.Name, Day: day, Checked: completed, Changed: true}
	return finish(ctx, res, func(w io.Writer) error {
		target := humanize.Ftoa(habit.Target())
		value := humanize.Ftoa(c.Value)
		if completed {
			fmt.Fprintf(w, "✓ %s %s of %s %s for %q on %s\n", value, habit.Unit, target, habit.Unit, habit.Name, day)
		} else {
			fmt.Fprintf(w, "%s %s is below the target of %s %s; %q is not checked on %s\n", value, habit.Unit, target, habit.Unit, habit.Name, day)
		}
		_, err := fmt.Fprintf(w, "  Current streak: %d\n", res.Streak)
		return err
	})
}
