// Package tracker derives streaks, period statistics, achievements and
// rankings from sparse per-day check-in records, and serializes check-in
// mutations per habit.
package tracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/cache"
	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/metrics"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrHabitInactive = errors.New("habit is not active")
)

// Store is the subset of storage.Provider the engine reads and writes.
// Lookups of a missing (habit, day) pair return models.Absent(), not an error.
type Store interface {
	GetHabit(id int64) (models.Habit, error)
	ListActiveHabits() ([]models.Habit, error)
	GetCheckinRecord(habitID int64, day calendar.Day) (models.DayEvidence, error)
	ListCheckinDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error)
	CountCheckins(habitID int64) (int, error)
	UpsertCheckinRecord(models.CheckinRecord) error
	DeleteCheckinRecord(habitID int64, day calendar.Day) error
}

// Identified is implemented by stores that can name the database behind
// them. Cache keys are scoped to that name so engines over different
// databases can share one cache.
type Identified interface {
	Identity() string
}

// UnlockLog persists the first time each achievement evaluated as unlocked.
type UnlockLog interface {
	RecordUnlock(models.UnlockEvent) (bool, error)
	ListUnlocks() ([]models.UnlockEvent, error)
}

// Engine is safe for concurrent use. Reads take no locks; mutations hold a
// per-habit mutex for their whole read-modify-write.
type Engine struct {
	store    Store
	today    func() calendar.Day
	now      func() time.Time
	cache    cache.Cache
	metrics  *metrics.Recorder
	unlocks  UnlockLog
	onUnlock func(models.UnlockEvent)
	// scope prefixes every cache key
	scope string

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

type Option func(*Engine)

// WithClock fixes how "today" is determined. Tests use it to pin the date.
func WithClock(today func() calendar.Day) Option {
	return func(e *Engine) { e.today = today }
}

// WithLocation evaluates "today" in loc.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.today = func() calendar.Day { return calendar.Today(loc) }
	}
}

// WithCache enables caching of statistics for fully elapsed months.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithUnlockLog records first unlocks during achievement evaluation.
func WithUnlockLog(log UnlockLog) Option {
	return func(e *Engine) { e.unlocks = log }
}

// WithUnlockHook is called once for every unlock event newly written to the
// unlock log.
func WithUnlockHook(fn func(models.UnlockEvent)) Option {
	return func(e *Engine) { e.onUnlock = fn }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		today: func() calendar.Day { return calendar.Today(nil) },
		now:   time.Now,
		locks: make(map[int64]*sync.Mutex),
	}
	if id, ok := store.(Identified); ok {
		sum := sha256.Sum256([]byte(id.Identity()))
		e.scope = "db:" + hex.EncodeToString(sum[:8]) + ":"
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's notion of the current day.
func (e *Engine) Today() calendar.Day {
	return e.today()
}

func (e *Engine) habitLock(habitID int64) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[habitID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[habitID] = mu
	}
	return mu
}

// getHabit maps the store's not-found error to ErrHabitNotFound.
func (e *Engine) getHabit(habitID int64) (models.Habit, error) {
	e.metrics.StoreQuery("get_habit")
	h, err := e.store.GetHabit(habitID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("%w: %d", ErrHabitNotFound, habitID)
	}
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to get habit %d: %w", habitID, err)
	}
	return h, nil
}

func (e *Engine) activeHabits() ([]models.Habit, error) {
	e.metrics.StoreQuery("list_active_habits")
	habits, err := e.store.ListActiveHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to list active habits: %w", err)
	}
	return habits, nil
}

func (e *Engine) listDays(habitID int64, start, end calendar.Day) ([]calendar.Day, error) {
	e.metrics.StoreQuery("list_checkin_days")
	return e.store.ListCheckinDays(habitID, start, end)
}

func (e *Engine) countCheckins(habitID int64) (int, error) {
	e.metrics.StoreQuery("count_checkins")
	return e.store.CountCheckins(habitID)
}

func (e *Engine) newUnlockEvent(state models.AchievementState) models.UnlockEvent {
	return models.UnlockEvent{
		ID:            uuid.NewString(),
		AchievementID: state.ID,
		Progress:      state.Progress,
		UnlockedAt:    e.now(),
	}
}

// counter reads a numeric cache entry, treating a miss as 0.
func (e *Engine) counter(ctx context.Context, key string) (uint64, error) {
	raw, ok, err := e.cache.Get(ctx, e.scope+key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cache counter %s=%q: %w", key, raw, err)
	}
	return n, nil
}

// bump advances a counter. When it cannot be read it jumps to a value that
// cannot have been used yet.
func (e *Engine) bump(ctx context.Context, key string) error {
	n, err := e.counter(ctx, key)
	if err != nil {
		logger.Warn("Failed to read cache counter", "key", key, "error", err)
		n = uint64(e.now().UnixNano())
	}
	return e.cache.Set(ctx, e.scope+key, []byte(strconv.FormatUint(n+1, 10)), 0)
}

const generationKey = "stats:generation"

func revisionKey(ym calendar.YearMonth) string {
	return "stats:revision:" + ym.String()
}

// monthlyKey embeds the generation, bumped when the habit set changes, and
// the month's revision, bumped by every write inside the month. A scan keys
// its result with the values read before it started, so a write that lands
// during the scan leaves that result unreachable.
func (e *Engine) monthlyKey(ctx context.Context, ym calendar.YearMonth) (string, error) {
	gen, err := e.counter(ctx, generationKey)
	if err != nil {
		return "", err
	}
	rev, err := e.counter(ctx, revisionKey(ym))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%smonthly:g%d:r%d:%s", e.scope, gen, rev, ym), nil
}

// InvalidateAll discards every cached aggregate of this engine's store. Call
// it whenever the set of active habits changes or the database is replaced.
func (e *Engine) InvalidateAll(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.bump(ctx, generationKey); err != nil {
		logger.Warn("Failed to bump cache generation", "error", err)
	}
}

// invalidateMonth drops the cached aggregate of the month containing day.
func (e *Engine) invalidateMonth(ctx context.Context, day calendar.Day) {
	if e.cache == nil {
		return
	}
	ym := calendar.Of(day)
	if err := e.bump(ctx, revisionKey(ym)); err != nil {
		logger.Warn("Failed to invalidate cached month", "month", ym, "error", err)
		e.InvalidateAll(ctx)
	}
}
