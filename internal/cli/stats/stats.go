package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/tui"
)

type StreakCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	AsOf  string `help:"Evaluate the streak as of this day (YYYY-MM-DD)." name:"as-of" default:""`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	asOf, err := ctx.ParseDay(c.AsOf)
	if err != nil {
		return cli.Classify(err)
	}

	goctx := context.Background()
	current, err := ctx.Engine.Streak(goctx, habit.ID, asOf)
	if err != nil {
		return err
	}
	longest, err := ctx.Engine.LongestStreak(goctx, habit.ID, asOf)
	if err != nil {
		return err
	}

	out := struct {
		HabitID int64  `json:"habit_id" yaml:"habit_id"`
		Habit   string `json:"habit" yaml:"habit"`
		AsOf    string `json:"as_of" yaml:"as_of"`
		Current int    `json:"current" yaml:"current"`
		Longest int    `json:"longest" yaml:"longest"`
	}{habit.ID, habit.Name, asOf.String(), current, longest}

	return ctx.Render(out, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s: %d day streak (longest %d) as of %s\n", habit.Name, current, longest, asOf)
		return err
	})
}

type StatsCmd struct {
	Week  StatsWeekCmd  `cmd:"" help:"Show completion for a Monday-to-Sunday week." default:"1"`
	Month StatsMonthCmd `cmd:"" help:"Show completion for a calendar month."`
}

type StatsWeekCmd struct {
	Date string `arg:"" optional:"" help:"Any day inside the week (default: today)."`
}

func (c *StatsWeekCmd) Run(ctx *cli.Context) error {
	ref, err := ctx.ParseDay(c.Date)
	if err != nil {
		return cli.Classify(err)
	}
	ws, err := ctx.Engine.WeeklyStats(context.Background(), ref)
	if err != nil {
		return err
	}

	return ctx.Render(ws, func(w io.Writer) error {
		fmt.Fprintf(w, "Week %s to %s\n\n", ws.WeekStart, ws.WeekEnd)
		for _, d := range ws.PerDay {
			marker := "  "
			if d.IsToday {
				marker = "▶ "
			}
			fmt.Fprintf(w, "%s%s %s  %d/%d\n", marker, d.Day.Weekday().String()[:3], d.Day, d.CompletedCount, d.HabitCount)
		}
		fmt.Fprintf(w, "\nCompleted %d of %d possible check-ins  %s %s\n",
			ws.TotalCheckins, ws.PossibleCheckins, cli.Bar(ws.CompletionRate, 20), cli.Percent(ws.CompletionRate))
		return nil
	})
}

type StatsMonthCmd struct {
	Month string `arg:"" optional:"" help:"Month as YYYY-MM (default: current month)."`
}

func (c *StatsMonthCmd) Run(ctx *cli.Context) error {
	ym, err := ctx.ParseMonth(c.Month)
	if err != nil {
		return cli.Classify(err)
	}
	ms, err := ctx.Engine.MonthlyStats(context.Background(), ym)
	if err != nil {
		return err
	}

	return ctx.Render(ms, func(w io.Writer) error {
		fmt.Fprintf(w, "%s\n\n", ms.Month.First().Time().Format("January 2006"))
		if ms.DaysScanned == 0 {
			_, err := fmt.Fprintln(w, "This month has not started yet.")
			return err
		}
		fmt.Fprintf(w, "  Days counted:     %d\n", ms.DaysScanned)
		fmt.Fprintf(w, "  Check-ins:        %d of %d  %s %s\n",
			ms.TotalCheckins, ms.PossibleCheckins, cli.Bar(ms.CompletionRate, 20), cli.Percent(ms.CompletionRate))
		fmt.Fprintf(w, "  Perfect days:     %d\n", ms.PerfectDays)
		fmt.Fprintf(w, "  Best streak:      %d\n", ms.BestStreakWithinMonth)
		if ms.MostFrequentHabitName != "" {
			fmt.Fprintf(w, "  Most consistent:  %s\n", ms.MostFrequentHabitName)
		}
		return nil
	})
}

type CalendarCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Month string `arg:"" optional:"" help:"Month as YYYY-MM (default: current month)."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	ym, err := ctx.ParseMonth(c.Month)
	if err != nil {
		return cli.Classify(err)
	}
	data, err := ctx.Engine.CalendarData(context.Background(), habit.ID, ym)
	if err != nil {
		return err
	}

	return ctx.Render(data, func(w io.Writer) error {
		fmt.Fprintf(w, "%s\n\n", habit.Name)
		fmt.Fprintln(w, tui.RenderHeatmap(data, habit.Color, ctx.Today()))
		_, err := fmt.Fprintf(w, "\n%d of %d days  %s\n", data.CompletedDays, data.TotalDaysInMonth, cli.Percent(data.CompletionRate))
		return err
	})
}

type AchievementsCmd struct{}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	states, err := ctx.Engine.EvaluateAchievements(context.Background())
	if err != nil {
		return err
	}

	return ctx.Render(states, func(w io.Writer) error {
		for _, s := range states {
			fmt.Fprintln(w, formatAchievement(s))
		}
		return nil
	})
}

func formatAchievement(s models.AchievementState) string {
	icon := "🔒"
	if s.IsUnlocked {
		icon = "🏆"
	}
	line := fmt.Sprintf("%s %-16s %s %3d%%  (%d/%d)", icon, s.Label, cli.Bar(float64(s.Progress)/float64(s.Threshold), 10), s.Percent(), s.Progress, s.Threshold)
	if s.FirstUnlockedAt != nil {
		line += "  first unlocked " + humanize.Time(*s.FirstUnlockedAt)
	}
	return line
}

type RankCmd struct {
	AsOf string `help:"Rank streaks as of this day (YYYY-MM-DD)." name:"as-of" default:""`
}

func (c *RankCmd) Run(ctx *cli.Context) error {
	asOf, err := ctx.ParseDay(c.AsOf)
	if err != nil {
		return cli.Classify(err)
	}
	entries, err := ctx.Engine.Rank(context.Background(), asOf)
	if err != nil {
		return err
	}

	return ctx.Render(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No active habits.")
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-24s streak %-4d total %s\n", humanize.Ordinal(e.Rank), e.Name, e.Streak, humanize.Comma(int64(e.TotalCheckins)))
		}
		return nil
	})
}
