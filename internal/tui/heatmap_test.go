package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/tracker"
)

var march = calendar.YearMonth{Year: 2025, Month: time.March}

func day(n int) calendar.Day {
	return calendar.FromDate(2025, time.March, n)
}

func TestRenderHeatmap(t *testing.T) {
	data := tracker.CalendarData{
		Month:            march,
		CheckedDays:      []calendar.Day{day(1), day(2), day(3)},
		TotalDaysInMonth: 31,
		CompletedDays:    3,
	}

	out := RenderHeatmap(data, "#ff0000", day(5))
	lines := strings.Split(out, "\n")

	// title, weekday header and six weeks (March 1st 2025 is a Saturday)
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8:\n%s", len(lines), out)
	}
	if lines[0] != "March 2025" {
		t.Errorf("title = %q, want %q", lines[0], "March 2025")
	}
	if lines[1] != weekdayHeader {
		t.Errorf("header = %q, want %q", lines[1], weekdayHeader)
	}
	if want := strings.Repeat(" ", 15) + "██ ██"; lines[2] != want {
		t.Errorf("first week = %q, want %q", lines[2], want)
	}
	if !strings.HasPrefix(lines[3], "██ ░░ ░░ ") {
		t.Errorf("second week = %q, want check-in then two misses", lines[3])
	}
	if strings.Contains(lines[4], emptyCell) || strings.Contains(lines[4], checkedCell) {
		t.Errorf("future week rendered cells: %q", lines[4])
	}
}

func TestRenderHeatmapFullMonth(t *testing.T) {
	checked := make([]calendar.Day, 0, 31)
	for d := march.First(); d <= march.Last(); d++ {
		checked = append(checked, d)
	}
	data := tracker.CalendarData{Month: march, CheckedDays: checked, TotalDaysInMonth: 31, CompletedDays: 31, CompletionRate: 1}

	out := RenderHeatmap(data, "", day(31))
	if got := strings.Count(out, checkedCell); got != 31 {
		t.Errorf("rendered %d checked cells, want 31", got)
	}
	if strings.Contains(out, emptyCell) {
		t.Error("full month rendered an empty cell")
	}
	lines := strings.Split(out, "\n")
	if last := lines[len(lines)-1]; last != checkedCell {
		t.Errorf("last week = %q, want a single cell for the 31st", last)
	}
}

func TestRenderHeatmapMondayStart(t *testing.T) {
	// September 2025 starts on a Monday
	sept := calendar.YearMonth{Year: 2025, Month: time.September}
	data := tracker.CalendarData{Month: sept, TotalDaysInMonth: 30}

	out := RenderHeatmap(data, "", sept.Last())
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[2], emptyCell) {
		t.Errorf("first week = %q, want no leading padding", lines[2])
	}
	if got := strings.Count(lines[2], emptyCell); got != 7 {
		t.Errorf("first week has %d cells, want 7", got)
	}
}

func TestMondayIndex(t *testing.T) {
	tests := []struct {
		day  calendar.Day
		want int
	}{
		{calendar.FromDate(2025, time.March, 3), 0},
		{calendar.FromDate(2025, time.March, 5), 2},
		{calendar.FromDate(2025, time.March, 9), 6},
	}
	for _, tt := range tests {
		if got := mondayIndex(tt.day); got != tt.want {
			t.Errorf("mondayIndex(%s) = %d, want %d", tt.day, got, tt.want)
		}
	}
}
