package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
)

type jsonData struct {
	Version     int                                              `json:"version"`
	NextHabitID int64                                            `json:"next_habit_id"`
	Settings    models.Settings                                  `json:"settings"`
	Habits      []models.Habit                                   `json:"habits"`
	Checkins    map[int64]map[calendar.Day]models.CheckinRecord `json:"checkins"`
	Unlocks     []models.UnlockEvent                             `json:"unlocks"`
}

// JSONStore keeps everything in a single JSON document that is rewritten on
// every mutation. It is meant for small installs and tests.
type JSONStore struct {
	path string

	mu   sync.RWMutex
	data *jsonData
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = &jsonData{
		Version:     1,
		NextHabitID: 1,
		Settings:    DefaultSettings(),
		Checkins:    make(map[int64]map[calendar.Day]models.CheckinRecord),
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	parsed := &jsonData{}
	if err := json.Unmarshal(data, parsed); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if parsed.Checkins == nil {
		parsed.Checkins = make(map[int64]map[calendar.Day]models.CheckinRecord)
	}
	if parsed.NextHabitID < 1 {
		parsed.NextHabitID = 1
	}

	s.mu.Lock()
	s.data = parsed
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save must be called with mu held.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.data == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Settings{}, err
	}
	return s.data.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	s.data.Settings = settings
	return s.save()
}

func (s *JSONStore) findHabit(id int64) int {
	for i, h := range s.data.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *JSONStore) nameTaken(name string, exceptID int64) bool {
	for _, h := range s.data.Habits {
		if h.ID != exceptID && strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

func (s *JSONStore) AddHabit(habit models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}
	if s.nameTaken(habit.Name, 0) {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrDuplicateName, habit.Name)
	}

	habit.ID = s.data.NextHabitID
	s.data.NextHabitID++
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}
	if habit.Status == "" {
		habit.Status = models.StatusActive
	}
	s.data.Habits = append(s.data.Habits, habit)
	if err := s.save(); err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

func (s *JSONStore) GetHabit(id int64) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}
	i := s.findHabit(id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	return s.data.Habits[i], nil
}

func (s *JSONStore) GetHabitByName(name string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}
	for _, h := range s.data.Habits {
		if strings.EqualFold(h.Name, name) {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %q: %w", name, ErrNotFound)
}

func (s *JSONStore) ListHabits(includeArchived bool) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var habits []models.Habit
	for _, h := range s.data.Habits {
		if !includeArchived && h.Status == models.StatusArchived {
			continue
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (s *JSONStore) ListActiveHabits() ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var habits []models.Habit
	for _, h := range s.data.Habits {
		if h.IsActive() {
			habits = append(habits, h)
		}
	}
	return habits, nil
}

func (s *JSONStore) UpdateHabit(habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	i := s.findHabit(habit.ID)
	if i < 0 {
		return fmt.Errorf("habit %d: %w", habit.ID, ErrNotFound)
	}
	if s.nameTaken(habit.Name, habit.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, habit.Name)
	}
	habit.CreatedAt = s.data.Habits[i].CreatedAt
	s.data.Habits[i] = habit
	return s.save()
}

func (s *JSONStore) SetHabitStatus(id int64, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	i := s.findHabit(id)
	if i < 0 {
		return fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	s.data.Habits[i].Status = status
	return s.save()
}

func (s *JSONStore) DeleteHabit(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	i := s.findHabit(id)
	if i < 0 {
		return fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	s.data.Habits = append(s.data.Habits[:i], s.data.Habits[i+1:]...)
	delete(s.data.Checkins, id)
	return s.save()
}

func (s *JSONStore) GetCheckinRecord(habitID int64, day calendar.Day) (models.DayEvidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Absent(), err
	}
	rec, ok := s.data.Checkins[habitID][day]
	if !ok {
		return models.Absent(), nil
	}
	return models.Present(rec), nil
}

func (s *JSONStore) ListCheckinDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error) {
	records, err := s.ListCheckinRecords(habitID, start, end)
	if err != nil {
		return nil, err
	}
	days := make([]calendar.Day, 0, len(records))
	for _, rec := range records {
		if rec.Completed {
			days = append(days, rec.Day)
		}
	}
	return days, nil
}

func (s *JSONStore) ListCheckinRecords(habitID int64, start, end calendar.Day) ([]models.CheckinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var records []models.CheckinRecord
	for day, rec := range s.data.Checkins[habitID] {
		if day >= start && day <= end {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Day < records[j].Day
	})
	return records, nil
}

func (s *JSONStore) CountCheckins(habitID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range s.data.Checkins[habitID] {
		if rec.Completed {
			count++
		}
	}
	return count, nil
}

func (s *JSONStore) UpsertCheckinRecord(rec models.CheckinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	if s.findHabit(rec.HabitID) < 0 {
		return fmt.Errorf("habit %d: %w", rec.HabitID, ErrNotFound)
	}

	byDay, ok := s.data.Checkins[rec.HabitID]
	if !ok {
		byDay = make(map[calendar.Day]models.CheckinRecord)
		s.data.Checkins[rec.HabitID] = byDay
	}
	now := time.Now()
	if existing, ok := byDay[rec.Day]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	byDay[rec.Day] = rec
	return s.save()
}

func (s *JSONStore) DeleteCheckinRecord(habitID int64, day calendar.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.data.Checkins[habitID][day]; !ok {
		return fmt.Errorf("check-in %d/%s: %w", habitID, day, ErrNotFound)
	}
	delete(s.data.Checkins[habitID], day)
	return s.save()
}

func (s *JSONStore) RecordUnlock(ev models.UnlockEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return false, err
	}
	for _, existing := range s.data.Unlocks {
		if existing.AchievementID == ev.AchievementID {
			return false, nil
		}
	}
	s.data.Unlocks = append(s.data.Unlocks, ev)
	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONStore) ListUnlocks() ([]models.UnlockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	unlocks := make([]models.UnlockEvent, len(s.data.Unlocks))
	copy(unlocks, s.data.Unlocks)
	return unlocks, nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// Identity names the data file, resolved to an absolute path.
func (s *JSONStore) Identity() string {
	if abs, err := filepath.Abs(s.path); err == nil {
		return "json:" + abs
	}
	return "json:" + s.path
}
