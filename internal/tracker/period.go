package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/metrics"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

// DayCount is one row of a weekly breakdown.
type DayCount struct {
	Day            calendar.Day `json:"day" yaml:"day"`
	CompletedCount int          `json:"completed_count" yaml:"completed_count"`
	HabitCount     int          `json:"habit_count" yaml:"habit_count"`
	IsToday        bool         `json:"is_today" yaml:"is_today"`
}

type WeeklyStats struct {
	WeekStart        calendar.Day `json:"week_start" yaml:"week_start"`
	WeekEnd          calendar.Day `json:"week_end" yaml:"week_end"`
	TotalCheckins    int          `json:"total_checkins" yaml:"total_checkins"`
	PossibleCheckins int          `json:"possible_checkins" yaml:"possible_checkins"`
	CompletionRate   float64      `json:"completion_rate" yaml:"completion_rate"`
	PerDay           []DayCount   `json:"per_day" yaml:"per_day"`
}

type MonthlyStats struct {
	Month                 calendar.YearMonth `json:"month" yaml:"month"`
	DaysScanned           int                `json:"days_scanned" yaml:"days_scanned"`
	TotalCheckins         int                `json:"total_checkins" yaml:"total_checkins"`
	PossibleCheckins      int                `json:"possible_checkins" yaml:"possible_checkins"`
	CompletionRate        float64            `json:"completion_rate" yaml:"completion_rate"`
	PerfectDays           int                `json:"perfect_days" yaml:"perfect_days"`
	BestStreakWithinMonth int                `json:"best_streak_within_month" yaml:"best_streak_within_month"`
	MostFrequentHabitName string             `json:"most_frequent_habit,omitempty" yaml:"most_frequent_habit,omitempty"`
}

// CalendarData is one habit's heat-map for a month. CompletionRate divides by
// the full month length, unlike the elapsed-days denominators of the weekly
// and monthly aggregates.
type CalendarData struct {
	HabitID          int64              `json:"habit_id" yaml:"habit_id"`
	Month            calendar.YearMonth `json:"month" yaml:"month"`
	CheckedDays      []calendar.Day     `json:"checked_days" yaml:"checked_days"`
	TotalDaysInMonth int                `json:"total_days_in_month" yaml:"total_days_in_month"`
	CompletedDays    int                `json:"completed_days" yaml:"completed_days"`
	CompletionRate   float64            `json:"completion_rate" yaml:"completion_rate"`
}

// Checked reports whether d is in CheckedDays.
func (c CalendarData) Checked(d calendar.Day) bool {
	for _, checked := range c.CheckedDays {
		if checked == d {
			return true
		}
		if checked > d {
			return false
		}
	}
	return false
}

// FrequencyProgress is a habit's check-ins in its current policy period.
type FrequencyProgress struct {
	Frequency   models.Frequency `json:"frequency" yaml:"frequency"`
	Done        int              `json:"done" yaml:"done"`
	Target      int              `json:"target" yaml:"target"`
	PeriodStart calendar.Day     `json:"period_start" yaml:"period_start"`
	PeriodEnd   calendar.Day     `json:"period_end" yaml:"period_end"`
}

func (p FrequencyProgress) Met() bool {
	return p.Done >= p.Target
}

func rate(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// habitDays is a habit together with its completed days in a scan range.
type habitDays struct {
	habit models.Habit
	days  []calendar.Day
}

// collect loads every active habit's days in [start, end]. Habits that vanish
// between the listing and the range query are left out.
func (e *Engine) collect(ctx context.Context, start, end calendar.Day) ([]habitDays, error) {
	habits, err := e.activeHabits()
	if err != nil {
		return nil, err
	}

	out := make([]habitDays, 0, len(habits))
	for _, h := range habits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var days []calendar.Day
		if start <= end {
			days, err = e.listDays(h.ID, start, end)
			if errors.Is(err, storage.ErrNotFound) {
				logger.Debug("Habit disappeared during scan", "habit", h.ID)
				continue
			}
			if err != nil {
				return nil, err
			}
		}
		out = append(out, habitDays{habit: h, days: days})
	}
	return out, nil
}

func countByDay(habits []habitDays) map[calendar.Day]int {
	counts := make(map[calendar.Day]int)
	for _, h := range habits {
		for _, d := range h.days {
			counts[d]++
		}
	}
	return counts
}

// WeeklyStats grades the ISO week containing ref up to today. Days after
// today are not part of the denominator.
func (e *Engine) WeeklyStats(ctx context.Context, ref calendar.Day) (WeeklyStats, error) {
	defer e.metrics.ObserveScan("weekly", time.Now())

	start, end := calendar.WeekBounds(ref)
	today := e.today()
	last := calendar.Min(end, today)

	stats := WeeklyStats{WeekStart: start, WeekEnd: end, PerDay: []DayCount{}}

	habits, err := e.collect(ctx, start, last)
	if err != nil {
		return WeeklyStats{}, err
	}
	counts := countByDay(habits)

	for d := start; d <= last; d++ {
		if err := ctx.Err(); err != nil {
			return WeeklyStats{}, err
		}
		stats.PerDay = append(stats.PerDay, DayCount{
			Day:            d,
			CompletedCount: counts[d],
			HabitCount:     len(habits),
			IsToday:        d == today,
		})
		stats.TotalCheckins += counts[d]
	}

	stats.PossibleCheckins = len(stats.PerDay) * len(habits)
	stats.CompletionRate = rate(stats.TotalCheckins, stats.PossibleCheckins)
	return stats, nil
}

// MonthlyStats scans ym from its first day to min(last day, today).
// Fully elapsed months are served from the cache when one is configured.
func (e *Engine) MonthlyStats(ctx context.Context, ym calendar.YearMonth) (MonthlyStats, error) {
	defer e.metrics.ObserveScan("monthly", time.Now())

	today := e.today()
	closed := ym.Last() < today

	var key string
	if closed && e.cache != nil {
		k, err := e.monthlyKey(ctx, ym)
		if err != nil {
			logger.Warn("Failed to read cache counters", "error", err)
		} else {
			key = k
			if stats, ok := e.cachedMonth(ctx, key); ok {
				return stats, nil
			}
		}
	}

	stats, err := e.scanMonth(ctx, ym, today)
	if err != nil {
		return MonthlyStats{}, err
	}

	if key != "" {
		if data, err := json.Marshal(stats); err != nil {
			logger.Warn("Failed to encode monthly stats", "month", ym, "error", err)
		} else if err := e.cache.Set(ctx, key, data, constants.MonthlyStatsCacheTTL); err != nil {
			logger.Warn("Failed to cache monthly stats", "month", ym, "error", err)
		}
	}
	return stats, nil
}

func (e *Engine) cachedMonth(ctx context.Context, key string) (MonthlyStats, bool) {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.metrics.CacheRequest(metrics.CacheError)
		logger.Warn("Monthly stats cache read failed", "key", key, "error", err)
		return MonthlyStats{}, false
	}
	if !ok {
		e.metrics.CacheRequest(metrics.CacheMiss)
		return MonthlyStats{}, false
	}

	var stats MonthlyStats
	if err := json.Unmarshal(data, &stats); err != nil {
		e.metrics.CacheRequest(metrics.CacheError)
		logger.Warn("Discarding undecodable cached monthly stats", "key", key, "error", err)
		return MonthlyStats{}, false
	}
	e.metrics.CacheRequest(metrics.CacheHit)
	return stats, true
}

func (e *Engine) scanMonth(ctx context.Context, ym calendar.YearMonth, today calendar.Day) (MonthlyStats, error) {
	first := ym.First()
	last := calendar.Min(ym.Last(), today)
	stats := MonthlyStats{Month: ym}

	habits, err := e.collect(ctx, first, last)
	if err != nil {
		return MonthlyStats{}, err
	}
	counts := countByDay(habits)
	n := len(habits)

	run := 0
	for d := first; d <= last; d++ {
		if err := ctx.Err(); err != nil {
			return MonthlyStats{}, err
		}
		stats.DaysScanned++
		stats.TotalCheckins += counts[d]

		if n > 0 && counts[d] == n {
			stats.PerfectDays++
			run++
			if run > stats.BestStreakWithinMonth {
				stats.BestStreakWithinMonth = run
			}
		} else {
			run = 0
		}
	}

	best := 0
	for _, h := range habits {
		// strict > keeps the earliest habit on ties
		if len(h.days) > best {
			best = len(h.days)
			stats.MostFrequentHabitName = h.habit.Name
		}
	}

	stats.PossibleCheckins = stats.DaysScanned * n
	stats.CompletionRate = rate(stats.TotalCheckins, stats.PossibleCheckins)
	return stats, nil
}

// CalendarData returns the days of ym on which the habit was checked in.
func (e *Engine) CalendarData(ctx context.Context, habitID int64, ym calendar.YearMonth) (CalendarData, error) {
	if _, err := e.getHabit(habitID); err != nil {
		return CalendarData{}, err
	}
	if err := ctx.Err(); err != nil {
		return CalendarData{}, err
	}

	days, err := e.listDays(habitID, ym.First(), ym.Last())
	if err != nil {
		return CalendarData{}, err
	}
	if days == nil {
		days = []calendar.Day{}
	}

	return CalendarData{
		HabitID:          habitID,
		Month:            ym,
		CheckedDays:      days,
		TotalDaysInMonth: ym.Days(),
		CompletedDays:    len(days),
		CompletionRate:   rate(len(days), ym.Days()),
	}, nil
}

// FrequencyProgress counts check-ins in the habit's current period up to asOf.
func (e *Engine) FrequencyProgress(ctx context.Context, habit models.Habit, asOf calendar.Day) (FrequencyProgress, error) {
	p := FrequencyProgress{Frequency: habit.Frequency}

	switch habit.Frequency {
	case models.FrequencyWeekdays:
		p.PeriodStart, p.PeriodEnd = calendar.WeekBounds(asOf)
		p.Target = 5
	case models.FrequencyNTimesPerWeek:
		p.PeriodStart, p.PeriodEnd = calendar.WeekBounds(asOf)
		p.Target = max(habit.TargetCount, 1)
	case models.FrequencyNTimesPerMonth:
		p.PeriodStart, p.PeriodEnd = calendar.MonthBounds(asOf)
		p.Target = max(habit.TargetCount, 1)
	default:
		p.PeriodStart, p.PeriodEnd = asOf, asOf
		p.Target = 1
	}

	if err := ctx.Err(); err != nil {
		return FrequencyProgress{}, err
	}
	days, err := e.listDays(habit.ID, p.PeriodStart, calendar.Min(p.PeriodEnd, asOf))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return FrequencyProgress{}, err
	}

	for _, d := range days {
		if habit.Frequency == models.FrequencyWeekdays {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}
		p.Done++
	}
	return p, nil
}
