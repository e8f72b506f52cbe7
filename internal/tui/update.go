package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
)

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// tabs, status line and help
		m.list.SetSize(msg.Width, max(msg.Height-4, 0))
	}

	if m.state == StateAddHabit {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		m.switchTab(1)
		return m, nil
	case key.Matches(keyMsg, m.keys.ShiftTab):
		m.switchTab(-1)
		return m, nil
	case key.Matches(keyMsg, m.keys.Refresh):
		m.err = nil
		m.refresh()
		return m, nil
	}

	switch m.state {
	case StateHabits:
		switch {
		case key.Matches(keyMsg, m.keys.Toggle):
			m.toggleSelected()
			return m, nil
		case key.Matches(keyMsg, m.keys.Add):
			m.habitForm = &HabitFormModel{Frequency: models.FrequencyDaily}
			m.form = NewHabitForm(m.habitForm)
			m.state = StateAddHabit
			return m, m.form.Init()
		}
	case StateStats:
		switch {
		case key.Matches(keyMsg, m.keys.PrevMonth):
			m.month = m.month.Prev()
			return m, nil
		case key.Matches(keyMsg, m.keys.NextMonth):
			if m.month.Next().First() <= m.engine.Today() {
				m.month = m.month.Next()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(step int) {
	idx := 0
	for i, t := range tabs {
		if t.state == m.state {
			idx = i
		}
	}
	idx = (idx + step + len(tabs)) % len(tabs)
	m.state = tabs[idx].state
	if m.state == StateStats {
		m.month = calendar.Of(m.engine.Today())
	}
}

func (m *Model) toggleSelected() {
	habit, ok := m.selectedHabit()
	if !ok {
		return
	}
	ctx := context.Background()
	checked, err := m.engine.Toggle(ctx, habit.ID, m.engine.Today())
	if err != nil {
		logger.Error("Toggle failed", "habit", habit.Name, "error", err)
		m.err = err
		return
	}
	m.err = nil
	if checked {
		m.status = fmt.Sprintf("✓ %s checked in", habit.Name)
	} else {
		m.status = fmt.Sprintf("○ %s unchecked", habit.Name)
	}
	m.refresh()
	m.announceUnlocks()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		added, err := addHabit(m.store, m.habitForm)
		if err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "Added habit " + added.Name
			m.engine.InvalidateAll(context.Background())
			m.refresh()
		}
		m.state = StateHabits
		return m, nil
	case huh.StateAborted:
		m.state = StateHabits
		return m, nil
	}
	return m, cmd
}
