package tracker

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

// testToday is a Wednesday; its ISO week runs 2025-03-10..2025-03-16.
var testToday = calendar.FromDate(2025, time.March, 12)

// fakeStore is an in-memory Store and UnlockLog that counts range queries.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	habits   []models.Habit
	records  map[int64]map[calendar.Day]models.CheckinRecord
	vanished map[int64]bool
	unlocks  []models.UnlockEvent

	rangeQueries int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		records:  make(map[int64]map[calendar.Day]models.CheckinRecord),
		vanished: make(map[int64]bool),
	}
}

func (s *fakeStore) add(h models.Habit) models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.nextID
	s.nextID++
	if h.Status == "" {
		h.Status = models.StatusActive
	}
	if h.Frequency == "" {
		h.Frequency = models.FrequencyDaily
	}
	s.habits = append(s.habits, h)
	return h
}

// check records completed check-ins for habitID on each day.
func (s *fakeStore) check(habitID int64, days ...calendar.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range days {
		if s.records[habitID] == nil {
			s.records[habitID] = make(map[calendar.Day]models.CheckinRecord)
		}
		s.records[habitID][d] = models.CheckinRecord{HabitID: habitID, Day: d, Completed: true}
	}
}

// vanish keeps the habit in ListActiveHabits but fails every other lookup,
// as if it was deleted mid-scan.
func (s *fakeStore) vanish(habitID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vanished[habitID] = true
}

func (s *fakeStore) queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeQueries
}

func (s *fakeStore) known(id int64) bool {
	if s.vanished[id] {
		return false
	}
	for _, h := range s.habits {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (s *fakeStore) GetHabit(id int64) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vanished[id] {
		return models.Habit{}, storage.ErrNotFound
	}
	for _, h := range s.habits {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Habit{}, storage.ErrNotFound
}

func (s *fakeStore) ListActiveHabits() ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Habit
	for _, h := range s.habits {
		if h.IsActive() {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) GetCheckinRecord(habitID int64, day calendar.Day) (models.DayEvidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[habitID][day]
	if !ok {
		return models.Absent(), nil
	}
	return models.Present(rec), nil
}

func (s *fakeStore) ListCheckinDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeQueries++
	if !s.known(habitID) {
		return nil, storage.ErrNotFound
	}
	var days []calendar.Day
	for d, rec := range s.records[habitID] {
		if d >= start && d <= end && rec.Completed {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (s *fakeStore) CountCheckins(habitID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known(habitID) {
		return 0, storage.ErrNotFound
	}
	return len(s.records[habitID]), nil
}

func (s *fakeStore) UpsertCheckinRecord(rec models.CheckinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known(rec.HabitID) {
		return storage.ErrNotFound
	}
	if s.records[rec.HabitID] == nil {
		s.records[rec.HabitID] = make(map[calendar.Day]models.CheckinRecord)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	s.records[rec.HabitID][rec.Day] = rec
	return nil
}

func (s *fakeStore) DeleteCheckinRecord(habitID int64, day calendar.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[habitID][day]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records[habitID], day)
	return nil
}

func (s *fakeStore) RecordUnlock(ev models.UnlockEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.unlocks {
		if existing.AchievementID == ev.AchievementID {
			return false, nil
		}
	}
	s.unlocks = append(s.unlocks, ev)
	return true, nil
}

func (s *fakeStore) ListUnlocks() ([]models.UnlockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UnlockEvent(nil), s.unlocks...), nil
}

// fixedDay returns a clock pinned to d.
func fixedDay(d calendar.Day) func() calendar.Day {
	return func() calendar.Day { return d }
}

func newTestEngine(t *testing.T, store Store, opts ...Option) *Engine {
	t.Helper()
	return New(store, append([]Option{WithClock(fixedDay(testToday))}, opts...)...)
}

// run returns n consecutive days ending at last.
func run(last calendar.Day, n int) []calendar.Day {
	days := make([]calendar.Day, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, last.AddDays(-i))
	}
	return days
}
