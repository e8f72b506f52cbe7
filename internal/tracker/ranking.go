package tracker

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/storage"
)

type RankEntry struct {
	Rank          int    `json:"rank" yaml:"rank"`
	HabitID       int64  `json:"habit_id" yaml:"habit_id"`
	Name          string `json:"name" yaml:"name"`
	Streak        int    `json:"streak" yaml:"streak"`
	TotalCheckins int    `json:"total_checkins" yaml:"total_checkins"`
}

// Rank orders active habits by current streak, highest first. Equal streaks
// keep store order (creation order); ranks run 1..N without gaps or ties.
// Streaks and totals both count only days up to asOf.
func (e *Engine) Rank(ctx context.Context, asOf calendar.Day) ([]RankEntry, error) {
	defer e.metrics.ObserveScan("rank", time.Now())

	habits, err := e.activeHabits()
	if err != nil {
		return nil, err
	}

	entries := make([]RankEntry, 0, len(habits))
	for _, h := range habits {
		streak, err := e.streak(ctx, h.ID, asOf)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		days, err := e.listDays(h.ID, historyStart, asOf)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, RankEntry{
			HabitID:       h.ID,
			Name:          h.Name,
			Streak:        streak,
			TotalCheckins: len(days),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Streak > entries[j].Streak
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
