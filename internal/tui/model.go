package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/tracker"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateStats
	StateAddHabit
)

// tabs lists the states reachable with tab, in order.
var tabs = []struct {
	state SessionState
	title string
}{
	{StateHabits, "Today"},
	{StateStats, "Stats"},
}

type HabitFormModel struct {
	Name        string
	Description string
	Frequency   models.Frequency
	Times       string
}

// Item is one active habit in the today list.
type Item struct {
	Habit   models.Habit
	Checked bool
	Streak  int
}

func (i Item) Title() string {
	mark := "○ "
	if i.Checked {
		mark = "✓ "
	}
	if i.Habit.Icon != "" {
		return mark + i.Habit.Icon + " " + i.Habit.Name
	}
	return mark + i.Habit.Name
}

func (i Item) Description() string {
	state := "not done today"
	if i.Checked {
		state = "done today"
	}
	if i.Streak == 1 {
		return fmt.Sprintf("%s · 1 day streak", state)
	}
	return fmt.Sprintf("%s · %d day streak", state, i.Streak)
}

func (i Item) FilterValue() string { return i.Habit.Name }

type Model struct {
	store     storage.Provider
	engine    *tracker.Engine
	state     SessionState
	keys      KeyMap
	help      help.Model
	list      list.Model
	form      *huh.Form
	habitForm *HabitFormModel
	month     calendar.YearMonth
	// unlocked holds achievement ids already announced
	unlocked map[string]bool
	status   string
	err      error
	quitting bool
	width    int
	height   int
}

// NewModel builds the dashboard for the active habits in store.
func NewModel(store storage.Provider, engine *tracker.Engine) Model {
	keys := DefaultKeyMap()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add}
	}

	m := Model{
		store:    store,
		engine:   engine,
		state:    StateHabits,
		keys:     keys,
		help:     help.New(),
		list:     l,
		month:    calendar.Of(engine.Today()),
		unlocked: make(map[string]bool),
	}
	m.refresh()
	m.unlocked = m.unlockedAchievements()
	return m
}

// refresh reloads the habit list for the current day.
func (m *Model) refresh() {
	habits, err := m.store.ListActiveHabits()
	if err != nil {
		m.err = fmt.Errorf("failed to load habits: %w", err)
		return
	}

	ctx := context.Background()
	today := m.engine.Today()
	items := make([]list.Item, 0, len(habits))
	for _, h := range habits {
		item := Item{Habit: h}
		ev, err := m.store.GetCheckinRecord(h.ID, today)
		if err != nil {
			logger.Warn("Failed to read today's check-in", "habit", h.Name, "error", err)
		}
		item.Checked = ev.Completed()
		if streak, err := m.engine.Streak(ctx, h.ID, today); err == nil {
			item.Streak = streak
		}
		items = append(items, item)
	}
	m.list.SetItems(items)
}

func (m Model) selectedHabit() (models.Habit, bool) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Habit{}, false
	}
	return item.Habit, true
}

func (m Model) unlockedAchievements() map[string]bool {
	states, err := m.engine.EvaluateAchievements(context.Background())
	if err != nil {
		logger.Warn("Failed to evaluate achievements", "error", err)
		return m.unlocked
	}
	unlocked := make(map[string]bool, len(states))
	for _, s := range states {
		if s.IsUnlocked {
			unlocked[s.ID] = true
		}
	}
	return unlocked
}

// announceUnlocks sets the status line for achievements unlocked for the
// first time in this session.
func (m *Model) announceUnlocks() {
	now := m.unlockedAchievements()
	for _, def := range models.Achievements {
		if now[def.ID] && !m.unlocked[def.ID] {
			m.status = "🏆 Achievement unlocked: " + def.Label
			m.unlocked[def.ID] = true
		}
	}
}
