package storage

import (
	"errors"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
)

var (
	// ErrNotFound is returned when a habit or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a habit name is already taken.
	ErrDuplicateName = errors.New("habit name already exists")
)

// Provider is implemented by every storage backend. Check-in lookups never
// return an error for a missing record; they return models.Absent().
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits
	AddHabit(models.Habit) (models.Habit, error)
	GetHabit(id int64) (models.Habit, error)
	GetHabitByName(name string) (models.Habit, error)
	ListHabits(includeArchived bool) ([]models.Habit, error)
	// ListActiveHabits returns ACTIVE habits in creation order.
	ListActiveHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	SetHabitStatus(id int64, status models.Status) error
	// DeleteHabit removes the habit and all of its check-in records.
	DeleteHabit(id int64) error

	// Check-ins
	GetCheckinRecord(habitID int64, day calendar.Day) (models.DayEvidence, error)
	// ListCheckinDays returns the days in [start, end] with a completed
	// record, ascending.
	ListCheckinDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error)
	ListCheckinRecords(habitID int64, start, end calendar.Day) ([]models.CheckinRecord, error)
	CountCheckins(habitID int64) (int, error)
	UpsertCheckinRecord(models.CheckinRecord) error
	DeleteCheckinRecord(habitID int64, day calendar.Day) error

	// Achievement unlock log
	// RecordUnlock appends ev unless an event for the same achievement
	// exists, reporting whether it was stored.
	RecordUnlock(ev models.UnlockEvent) (bool, error)
	ListUnlocks() ([]models.UnlockEvent, error)

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by stores with a versioned SQL schema.
type Migrator interface {
	// Migrate applies pending migrations and returns how many ran.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion reports the applied and the newest known schema version.
	SchemaVersion() (current, latest int, err error)
}

// DefaultSettings returns the settings written by Init.
func DefaultSettings() models.Settings {
	return models.Settings{
		Timezone:             constants.DefaultTimezone,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
	}
}
