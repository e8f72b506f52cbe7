package tracker

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

// historyStart is earlier than any day a record can carry.
const historyStart = calendar.Day(math.MinInt32)

// Streak returns the number of consecutive days ending at and including
// asOf on which the habit has a completed check-in. A habit with no record
// on asOf, or one that does not exist, has streak 0.
func (e *Engine) Streak(ctx context.Context, habitID int64, asOf calendar.Day) (int, error) {
	defer e.metrics.ObserveScan("streak", time.Now())
	n, err := e.streak(ctx, habitID, asOf)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	return n, err
}

// streak walks backwards from asOf, fetching StreakScanWindow days per query.
func (e *Engine) streak(ctx context.Context, habitID int64, asOf calendar.Day) (int, error) {
	count := 0
	expect := asOf
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		start := expect.AddDays(-(constants.StreakScanWindow - 1))
		days, err := e.listDays(habitID, start, expect)
		if err != nil {
			return 0, err
		}

		for i := len(days) - 1; i >= 0; i-- {
			if days[i] != expect {
				return count, nil
			}
			count++
			expect = expect.AddDays(-1)
		}
		// Anything short of a full window means expect has no record.
		if expect >= start {
			return count, nil
		}
	}
}

// LongestStreak returns the longest run of consecutive checked-in days on or
// before asOf, scanning the habit's whole history.
func (e *Engine) LongestStreak(ctx context.Context, habitID int64, asOf calendar.Day) (int, error) {
	defer e.metrics.ObserveScan("longest_streak", time.Now())
	days, err := e.listDays(habitID, historyStart, asOf)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return longestRun(days), nil
}

// longestRun expects ascending, distinct days.
func longestRun(days []calendar.Day) int {
	best, run := 0, 0
	for i, d := range days {
		if i > 0 && d == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// trailingRun counts the run of days ending exactly at asOf.
func trailingRun(days []calendar.Day, asOf calendar.Day) int {
	run := 0
	expect := asOf
	for i := len(days) - 1; i >= 0; i-- {
		if days[i] > expect {
			continue
		}
		if days[i] != expect {
			break
		}
		run++
		expect--
	}
	return run
}

// HabitSummary is a per-habit snapshot for detail views.
type HabitSummary struct {
	Habit         models.Habit      `json:"habit" yaml:"habit"`
	AsOf          calendar.Day      `json:"as_of" yaml:"as_of"`
	CurrentStreak int               `json:"current_streak" yaml:"current_streak"`
	LongestStreak int               `json:"longest_streak" yaml:"longest_streak"`
	TotalCheckins int               `json:"total_checkins" yaml:"total_checkins"`
	LastCheckin   *calendar.Day     `json:"last_checkin,omitempty" yaml:"last_checkin,omitempty"`
	Progress      FrequencyProgress `json:"progress" yaml:"progress"`
}

// Summary reports streaks, totals and current-period progress for one habit.
// Unlike Streak, an unknown habit is an error.
func (e *Engine) Summary(ctx context.Context, habitID int64, asOf calendar.Day) (HabitSummary, error) {
	habit, err := e.getHabit(habitID)
	if err != nil {
		return HabitSummary{}, err
	}

	days, err := e.listDays(habitID, historyStart, asOf)
	if err != nil {
		return HabitSummary{}, err
	}
	total, err := e.countCheckins(habitID)
	if err != nil {
		return HabitSummary{}, err
	}
	progress, err := e.FrequencyProgress(ctx, habit, asOf)
	if err != nil {
		return HabitSummary{}, err
	}

	summary := HabitSummary{
		Habit:         habit,
		AsOf:          asOf,
		CurrentStreak: trailingRun(days, asOf),
		LongestStreak: longestRun(days),
		TotalCheckins: total,
		Progress:      progress,
	}
	if len(days) > 0 {
		last := days[len(days)-1]
		summary.LastCheckin = &last
	}
	return summary, nil
}
