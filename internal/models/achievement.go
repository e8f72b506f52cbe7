package models

import "time"

// AchievementKind selects which aggregate counter an achievement tracks.
type AchievementKind string

const (
	AchievementStreak AchievementKind = "streak"
	AchievementCount  AchievementKind = "count"
)

// AchievementDefinition is a static catalog entry.
type AchievementDefinition struct {
	ID        string          `json:"id" yaml:"id"`
	Kind      AchievementKind `json:"kind" yaml:"kind"`
	Label     string          `json:"label" yaml:"label"`
	Threshold int             `json:"threshold" yaml:"threshold"`
}

// Achievements is the process-wide catalog, read-only.
var Achievements = []AchievementDefinition{
	{ID: "first-checkin", Kind: AchievementCount, Label: "First check-in", Threshold: 1},
	{ID: "streak-7", Kind: AchievementStreak, Label: "7-day streak", Threshold: 7},
	{ID: "streak-21", Kind: AchievementStreak, Label: "21-day streak", Threshold: 21},
	{ID: "streak-30", Kind: AchievementStreak, Label: "30-day streak", Threshold: 30},
	{ID: "streak-100", Kind: AchievementStreak, Label: "100-day streak", Threshold: 100},
	{ID: "checkins-100", Kind: AchievementCount, Label: "100 check-ins", Threshold: 100},
}

// FindAchievement looks up a catalog entry by id.
func FindAchievement(id string) (AchievementDefinition, bool) {
	for _, def := range Achievements {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDefinition{}, false
}

// AchievementState is a definition paired with its evaluated progress.
// Progress never exceeds the threshold.
type AchievementState struct {
	AchievementDefinition
	Progress        int        `json:"progress" yaml:"progress"`
	IsUnlocked      bool       `json:"is_unlocked" yaml:"is_unlocked"`
	FirstUnlockedAt *time.Time `json:"first_unlocked_at,omitempty" yaml:"first_unlocked_at,omitempty"`
}

// Percent returns progress as a 0..100 value.
func (s AchievementState) Percent() int {
	if s.Threshold <= 0 {
		return 0
	}
	return s.Progress * 100 / s.Threshold
}

// UnlockEvent is an append-only record of the first time an achievement
// evaluated as unlocked.
type UnlockEvent struct {
	ID            string    `json:"id" yaml:"id"`
	AchievementID string    `json:"achievement_id" yaml:"achievement_id"`
	Progress      int       `json:"progress" yaml:"progress"`
	UnlockedAt    time.Time `json:"unlocked_at" yaml:"unlocked_at"`
}
