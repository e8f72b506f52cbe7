package postgres

import (
	"github.com/julianstephens/tally/internal/models"
)

func (s *Store) RecordUnlock(ev models.UnlockEvent) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO achievement_unlocks (id, achievement_id, progress, unlocked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (achievement_id) DO NOTHING`,
		ev.ID, ev.AchievementID, ev.Progress, ev.UnlockedAt.UTC())
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) ListUnlocks() ([]models.UnlockEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, achievement_id, progress, unlocked_at
		FROM achievement_unlocks ORDER BY unlocked_at, achievement_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.UnlockEvent
	for rows.Next() {
		var ev models.UnlockEvent
		if err := rows.Scan(&ev.ID, &ev.AchievementID, &ev.Progress, &ev.UnlockedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
