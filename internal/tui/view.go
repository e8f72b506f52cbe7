package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == StateAddHabit && m.form != nil {
		return headerStyle.Render("New habit") + "\n\n" + m.form.View()
	}

	var body string
	switch m.state {
	case StateStats:
		body = m.statsView()
	default:
		body = m.habitsView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabsView(),
		body,
		m.statusView(),
		m.help.View(m.keys),
	)
}

func (m Model) tabsView() string {
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if t.state == m.state {
			rendered[i] = activeTabStyle.Render(t.title)
		} else {
			rendered[i] = inactiveTabStyle.Render(t.title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m Model) habitsView() string {
	if len(m.list.Items()) == 0 {
		return "\n  No active habits.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m Model) statsView() string {
	habit, ok := m.selectedHabit()
	if !ok {
		return "\n  Select a habit on the Today tab to see its stats."
	}

	ctx := context.Background()
	today := m.engine.Today()
	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Render(habit.Name))

	summary, err := m.engine.Summary(ctx, habit.ID, today)
	if err != nil {
		return errorStyle.Render("Failed to load stats: " + err.Error())
	}
	fmt.Fprintf(&b, "Current streak: %d   Longest: %d   Total: %d\n",
		summary.CurrentStreak, summary.LongestStreak, summary.TotalCheckins)
	if summary.Progress.Target > 0 {
		fmt.Fprintf(&b, "This period: %d/%d\n", summary.Progress.Done, summary.Progress.Target)
	}
	fmt.Fprintln(&b)

	data, err := m.engine.CalendarData(ctx, habit.ID, m.month)
	if err != nil {
		return errorStyle.Render("Failed to load calendar: " + err.Error())
	}
	fmt.Fprintln(&b, RenderHeatmap(data, habit.Color, today))
	fmt.Fprintf(&b, "\n%d of %d days  %.0f%%\n", data.CompletedDays, data.TotalDaysInMonth, data.CompletionRate*100)

	if week, err := m.engine.WeeklyStats(ctx, today); err == nil {
		fmt.Fprintln(&b, mutedStyle.Render(fmt.Sprintf("All habits this week: %d/%d check-ins", week.TotalCheckins, week.PossibleCheckins)))
	}
	return b.String()
}

func (m Model) statusView() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	return statusStyle.Render(m.status)
}
