package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

const habitColumns = `id, name, description, color, icon, frequency, target_count,
	is_numeric, target_value, unit, status, goal_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var createdAt string
	var targetValue sql.NullFloat64
	var goalID sql.NullInt64

	err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Color, &h.Icon, &h.Frequency, &h.TargetCount,
		&h.IsNumeric, &targetValue, &h.Unit, &h.Status, &goalID, &createdAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %d: %w", h.ID, err)
	}
	if targetValue.Valid {
		v := targetValue.Float64
		h.TargetValue = &v
	}
	if goalID.Valid {
		id := goalID.Int64
		h.GoalID = &id
	}
	return h, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func (s *Store) AddHabit(habit models.Habit) (models.Habit, error) {
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}
	if habit.Status == "" {
		habit.Status = models.StatusActive
	}

	result, err := s.db.Exec(`
		INSERT INTO habits (name, description, color, icon, frequency, target_count,
			is_numeric, target_value, unit, status, goal_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.Name, habit.Description, habit.Color, habit.Icon, string(habit.Frequency), habit.TargetCount,
		habit.IsNumeric, nullFloat(habit.TargetValue), habit.Unit, string(habit.Status), nullInt(habit.GoalID),
		habit.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Habit{}, fmt.Errorf("%w: %s", storage.ErrDuplicateName, habit.Name)
		}
		return models.Habit{}, err
	}

	habit.ID, err = result.LastInsertId()
	if err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

func (s *Store) GetHabit(id int64) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, notFound(err, fmt.Sprintf("habit %d", id))
	}
	return h, nil
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE name = ?`, name)
	h, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, notFound(err, fmt.Sprintf("habit %q", name))
	}
	return h, nil
}

func (s *Store) queryHabits(where string, args ...interface{}) ([]models.Habit, error) {
	rows, err := s.db.Query(`SELECT `+habitColumns+` FROM habits `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) ListHabits(includeArchived bool) ([]models.Habit, error) {
	if includeArchived {
		return s.queryHabits("")
	}
	return s.queryHabits("WHERE status != ?", string(models.StatusArchived))
}

func (s *Store) ListActiveHabits() ([]models.Habit, error) {
	return s.queryHabits("WHERE status = ?", string(models.StatusActive))
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	result, err := s.db.Exec(`
		UPDATE habits SET
			name = ?, description = ?, color = ?, icon = ?, frequency = ?, target_count = ?,
			is_numeric = ?, target_value = ?, unit = ?, status = ?, goal_id = ?
		WHERE id = ?`,
		habit.Name, habit.Description, habit.Color, habit.Icon, string(habit.Frequency), habit.TargetCount,
		habit.IsNumeric, nullFloat(habit.TargetValue), habit.Unit, string(habit.Status), nullInt(habit.GoalID),
		habit.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateName, habit.Name)
		}
		return err
	}
	return requireRow(result, fmt.Sprintf("habit %d", habit.ID))
}

func (s *Store) SetHabitStatus(id int64, status models.Status) error {
	result, err := s.db.Exec(`UPDATE habits SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireRow(result, fmt.Sprintf("habit %d", id))
}

func (s *Store) DeleteHabit(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM checkins WHERE habit_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete check-ins for habit %d: %w", id, err)
	}
	result, err := tx.Exec(`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(result, fmt.Sprintf("habit %d", id)); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
