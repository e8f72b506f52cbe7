package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

// Evaluate pairs every catalog entry with its progress. Streak kinds measure
// maxStreak, count kinds measure totalCheckins. Progress is capped at the
// threshold.
func Evaluate(maxStreak, totalCheckins int) []models.AchievementState {
	states := make([]models.AchievementState, 0, len(models.Achievements))
	for _, def := range models.Achievements {
		value := totalCheckins
		if def.Kind == models.AchievementStreak {
			value = maxStreak
		}
		states = append(states, models.AchievementState{
			AchievementDefinition: def,
			Progress:              min(max(value, 0), def.Threshold),
			IsUnlocked:            value >= def.Threshold,
		})
	}
	return states
}

// AchievementInputs are the aggregates achievements are evaluated against.
type AchievementInputs struct {
	MaxStreak     int `json:"max_streak" yaml:"max_streak"`
	TotalCheckins int `json:"total_checkins" yaml:"total_checkins"`
}

// achievementInputs computes the maximum current streak as of today and the
// total check-ins across active habits.
func (e *Engine) achievementInputs(ctx context.Context) (AchievementInputs, error) {
	habits, err := e.activeHabits()
	if err != nil {
		return AchievementInputs{}, err
	}

	today := e.today()
	var in AchievementInputs
	for _, h := range habits {
		streak, err := e.streak(ctx, h.ID, today)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return AchievementInputs{}, fmt.Errorf("streak for habit %d: %w", h.ID, err)
		}
		total, err := e.countCheckins(h.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return AchievementInputs{}, fmt.Errorf("count for habit %d: %w", h.ID, err)
		}
		in.MaxStreak = max(in.MaxStreak, streak)
		in.TotalCheckins += total
	}
	return in, nil
}

// EvaluateAchievements re-evaluates the catalog from current data. The
// result can lock an achievement again after a streak breaks; the unlock
// log, when configured, only remembers when each was first reached.
func (e *Engine) EvaluateAchievements(ctx context.Context) ([]models.AchievementState, error) {
	in, err := e.achievementInputs(ctx)
	if err != nil {
		return nil, err
	}
	states := Evaluate(in.MaxStreak, in.TotalCheckins)

	if e.unlocks == nil {
		return states, nil
	}

	events, err := e.unlocks.ListUnlocks()
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	first := make(map[string]models.UnlockEvent, len(events))
	for _, ev := range events {
		first[ev.AchievementID] = ev
	}

	for i := range states {
		if !states[i].IsUnlocked {
			continue
		}
		if _, seen := first[states[i].ID]; seen {
			continue
		}
		ev := e.newUnlockEvent(states[i])
		stored, err := e.unlocks.RecordUnlock(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to record unlock of %s: %w", ev.AchievementID, err)
		}
		if !stored {
			continue
		}
		first[ev.AchievementID] = ev
		logger.Info("Achievement unlocked", "achievement", ev.AchievementID, "progress", ev.Progress)
		if e.onUnlock != nil {
			e.onUnlock(ev)
		}
	}

	for i := range states {
		if ev, ok := first[states[i].ID]; ok {
			at := ev.UnlockedAt
			states[i].FirstUnlockedAt = &at
		}
	}
	return states, nil
}
