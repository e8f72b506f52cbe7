package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/cache"
	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/metrics"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/validation"
)

// Options configures the engine a Context builds.
type Options struct {
	Location *time.Location
	Cache    cache.Cache
	Metrics  *metrics.Recorder
	// OnUnlock receives every newly recorded achievement unlock.
	OnUnlock func(models.UnlockEvent)
	// Clock overrides "today"; tests use it to pin the date.
	Clock func() calendar.Day
	// Output is one of FormatText, FormatJSON or FormatYAML.
	Output string
}

type Context struct {
	Store    storage.Provider
	Engine   *tracker.Engine
	Metrics  *metrics.Recorder
	Location *time.Location
	Output   string

	Out io.Writer
	In  io.Reader

	onUnlock func(models.UnlockEvent)
	unlocked []models.UnlockEvent
}

// NewContext wires an engine over store. The store does not need to be
// loaded yet.
func NewContext(store storage.Provider, opts Options) *Context {
	c := &Context{
		Store:    store,
		Metrics:  opts.Metrics,
		Location: opts.Location,
		Output:   opts.Output,
		Out:      os.Stdout,
		In:       os.Stdin,
		onUnlock: opts.OnUnlock,
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Output == "" {
		c.Output = FormatText
	}

	engineOpts := []tracker.Option{
		tracker.WithLocation(c.Location),
		tracker.WithUnlockLog(store),
		tracker.WithUnlockHook(c.recordUnlock),
		tracker.WithMetrics(opts.Metrics),
	}
	if opts.Cache != nil {
		engineOpts = append(engineOpts, tracker.WithCache(opts.Cache))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, tracker.WithClock(opts.Clock))
	}
	c.Engine = tracker.New(store, engineOpts...)
	return c
}

func (c *Context) recordUnlock(ev models.UnlockEvent) {
	c.unlocked = append(c.unlocked, ev)
	if c.onUnlock != nil {
		c.onUnlock(ev)
	}
}

// CheckAchievements evaluates achievements after a mutation and announces
// any first unlocks in text mode. Failures are logged, not returned.
func (c *Context) CheckAchievements(ctx context.Context) {
	c.unlocked = c.unlocked[:0]
	if _, err := c.Engine.EvaluateAchievements(ctx); err != nil {
		logger.Warn("Failed to evaluate achievements", "error", err)
		return
	}
	if c.Output != FormatText {
		return
	}
	for _, ev := range c.unlocked {
		label := ev.AchievementID
		if def, ok := models.FindAchievement(ev.AchievementID); ok {
			label = def.Label
		}
		fmt.Fprintf(c.Out, "🏆 Achievement unlocked: %s\n", label)
	}
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !IsSQLitePath(c.Store.GetConfigPath()) {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// IsSQLitePath reports whether a store config path names a SQLite file.
func IsSQLitePath(path string) bool {
	return path != "postgresql" && !strings.HasSuffix(path, ".json")
}

// Today returns the engine's current day.
func (c *Context) Today() calendar.Day {
	return c.Engine.Today()
}

// ResolveHabit looks a habit up by numeric id or by name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		h, err := c.Store.GetHabit(id)
		if err == nil {
			return h, nil
		}
		if !stderrors.Is(err, storage.ErrNotFound) {
			return models.Habit{}, err
		}
	}

	h, err := c.Store.GetHabitByName(ref)
	if stderrors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	}
	return h, err
}

// ParseDay accepts YYYY-MM-DD, "today", "yesterday" or an empty string
// (today).
func (c *Context) ParseDay(s string) (calendar.Day, error) {
	today := c.Today()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, tracker.ErrInvalidInput)
	}
	return d, nil
}

// ParseMonth accepts YYYY-MM or an empty string (current month).
func (c *Context) ParseMonth(s string) (calendar.YearMonth, error) {
	if strings.TrimSpace(s) == "" {
		return calendar.Of(c.Today()), nil
	}
	ym, err := calendar.ParseYearMonth(s)
	if err != nil {
		return calendar.YearMonth{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, tracker.ErrInvalidInput)
	}
	return ym, nil
}

// Classify attaches the exit code for rejected input to err.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, tracker.ErrInvalidInput) || stderrors.Is(err, validation.ErrInvalidHabit) {
		return errors.WithExitCode(err, errors.ExitInvalidInput)
	}
	return err
}

// LoadLocation resolves a settings timezone, falling back to the local zone.
func LoadLocation(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("Unknown timezone in settings, using local time", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}
