package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlog/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	sectionStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1)
)

// sparkLevels are drawn for rates from 0 to 100 percent.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

type Model struct {
	dashboard models.Dashboard
	width     int
	height    int
}

func New(d models.Dashboard, width, height int) Model {
	return Model{dashboard: d, width: width, height: height}
}

func (m *Model) SetDashboard(d models.Dashboard) {
	m.dashboard = d
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) View() string {
	d := m.dashboard
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Progress for %s", d.Date)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Today") + valueStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", d.Today.Completed, d.Today.Total, d.Today.Rate)))
	b.WriteString("\n")

	var types strings.Builder
	for _, t := range d.ByType {
		if t.Habits == 0 {
			continue
		}
		types.WriteString(labelStyle.Render(string(t.Type)))
		types.WriteString(valueStyle.Render(fmt.Sprintf("%5.1f%%", t.Rate)))
		types.WriteString(fmt.Sprintf("  %d habit(s), %d completion(s)\n", t.Habits, t.Completed))
	}
	if types.Len() > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("By type (last %d days)\n%s", d.WindowDays, strings.TrimRight(types.String(), "\n"))))
		b.WriteString("\n")
	}

	if len(d.Trend) > 0 {
		b.WriteString(fmt.Sprintf("Trend  %s\n", barStyle.Render(Sparkline(d.Trend))))
		b.WriteString(labelStyle.Render("") + fmt.Sprintf("%s to %s", d.Trend[0].Date, d.Trend[len(d.Trend)-1].Date))
	}
	return b.String()
}

// Sparkline renders one glyph per day scaled by the completion rate.
func Sparkline(trend []models.DayProgress) string {
	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, p := range trend {
		level := int(p.Rate / 100 * float64(top))
		if level < 0 {
			level = 0
		}
		if level > top {
			level = top
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
