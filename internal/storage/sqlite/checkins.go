package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

func scanCheckin(row rowScanner) (models.CheckinRecord, error) {
	var rec models.CheckinRecord
	var value sql.NullFloat64
	var createdAt, updatedAt string

	if err := row.Scan(&rec.HabitID, &rec.Day, &rec.Completed, &value, &rec.Note, &createdAt, &updatedAt); err != nil {
		return models.CheckinRecord{}, err
	}

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.CheckinRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.CheckinRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if value.Valid {
		v := value.Float64
		rec.Value = &v
	}
	return rec, nil
}

func (s *Store) GetCheckinRecord(habitID int64, day calendar.Day) (models.DayEvidence, error) {
	row := s.db.QueryRow(`
		SELECT habit_id, day, completed, value, note, created_at, updated_at
		FROM checkins WHERE habit_id = ? AND day = ?`, habitID, int64(day))

	rec, err := scanCheckin(row)
	if err == sql.ErrNoRows {
		return models.Absent(), nil
	}
	if err != nil {
		return models.Absent(), err
	}
	return models.Present(rec), nil
}

func (s *Store) ListCheckinDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error) {
	rows, err := s.db.Query(`
		SELECT day FROM checkins
		WHERE habit_id = ? AND day BETWEEN ? AND ? AND completed = 1
		ORDER BY day`, habitID, int64(start), int64(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []calendar.Day
	for rows.Next() {
		var d calendar.Day
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *Store) ListCheckinRecords(habitID int64, start, end calendar.Day) ([]models.CheckinRecord, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, day, completed, value, note, created_at, updated_at
		FROM checkins
		WHERE habit_id = ? AND day BETWEEN ? AND ?
		ORDER BY day`, habitID, int64(start), int64(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CheckinRecord
	for rows.Next() {
		rec, err := scanCheckin(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) CountCheckins(habitID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM checkins WHERE habit_id = ? AND completed = 1`, habitID).Scan(&count)
	return count, err
}

// UpsertCheckinRecord inserts rec or updates the existing record for the same
// (habit, day), keeping its created_at.
func (s *Store) UpsertCheckinRecord(rec models.CheckinRecord) error {
	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.Exec(`
		INSERT INTO checkins (habit_id, day, completed, value, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			value = excluded.value,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		rec.HabitID, int64(rec.Day), rec.Completed, nullFloat(rec.Value), rec.Note,
		createdAt.UTC().Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil && isForeignKeyViolation(err) {
		return fmt.Errorf("habit %d: %w", rec.HabitID, storage.ErrNotFound)
	}
	return err
}

func (s *Store) DeleteCheckinRecord(habitID int64, day calendar.Day) error {
	result, err := s.db.Exec(`DELETE FROM checkins WHERE habit_id = ? AND day = ?`, habitID, int64(day))
	if err != nil {
		return err
	}
	return requireRow(result, fmt.Sprintf("check-in %d/%s", habitID, day))
}
