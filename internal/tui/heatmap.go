package tui

import (
	"fmt"
	"strings"

	"github.com/julianstephens/tally/internal/calendar"
	"github.com/julianstephens/tally/internal/tracker"
)

const (
	checkedCell = "██"
	emptyCell   = "░░"
	futureCell  = "  "
)

var weekdayHeader = "Mo Tu We Th Fr Sa Su"

// RenderHeatmap draws one month of check-ins as a Monday-first grid. Days
// after today are left blank. color is the habit's #RRGGBB color.
func RenderHeatmap(data tracker.CalendarData, color string, today calendar.Day) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %d", data.Month.Month, data.Month.Year)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(weekdayHeader))
	b.WriteString("\n")

	first := data.Month.First()
	col := mondayIndex(first)
	b.WriteString(strings.Repeat(futureCell+" ", col))

	checked := checkedCellStyle(color)
	for d := first; d <= data.Month.Last(); d++ {
		var cell string
		switch {
		case d > today:
			cell = futureCellStyle.Render(futureCell)
		case data.Checked(d):
			cell = checked.Render(checkedCell)
		default:
			cell = emptyCellStyle.Render(emptyCell)
		}
		if d == today {
			cell = todayCellStyle.Render(cell)
		}
		b.WriteString(cell)

		col++
		if col == 7 {
			col = 0
			if d != data.Month.Last() {
				b.WriteString("\n")
			}
		} else if d != data.Month.Last() {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// mondayIndex returns 0 for Monday through 6 for Sunday.
func mondayIndex(d calendar.Day) int {
	return (int(d.Weekday()) + 6) % 7
}
