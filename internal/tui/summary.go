package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/todos/internal/todo"
)

// projectStats are the per-project counts shown on the summary tab.
type projectStats struct {
	Label   string
	Total   int
	Done    int
	Pending int
	Overdue int
}

func summarize(projects []todo.Project, now time.Time) []projectStats {
	stats := make([]projectStats, 0, len(projects))
	for _, p := range projects {
		s := projectStats{Label: p.Label(), Total: len(p.Todos), Done: p.CompletedCount()}
		s.Pending = s.Total - s.Done
		for _, t := range p.Todos {
			if t.Overdue(now) {
				s.Overdue++
			}
		}
		stats = append(stats, s)
	}
	return stats
}

type summaryModel struct {
	width  int
	height int

	stats   []projectStats
	savedAt time.Time
	chart   barchart.Model
}

func newSummaryModel() summaryModel {
	return summaryModel{chart: barchart.New(60, 12)}
}

func (m *summaryModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildChart()
}

func (m *summaryModel) refresh(projects []todo.Project, now time.Time) {
	m.stats = summarize(projects, now)
	m.buildChart()
}

func (m *summaryModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	done := lipgloss.NewStyle().Foreground(colorSuccess)
	pending := lipgloss.NewStyle().Foreground(colorWarning)

	var bars []barchart.BarData
	for _, s := range m.stats {
		bars = append(bars, barchart.BarData{
			Label: truncate(s.Label, 10),
			Values: []barchart.BarValue{
				{Name: "Done", Value: float64(s.Done), Style: done},
				{Name: "Pending", Value: float64(s.Pending), Style: pending},
			},
		})
	}
	if m.totals().Total == 0 {
		return
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m summaryModel) totals() projectStats {
	var t projectStats
	for _, s := range m.stats {
		t.Total += s.Total
		t.Done += s.Done
		t.Pending += s.Pending
		t.Overdue += s.Overdue
	}
	return t
}

func (m summaryModel) view() string {
	w := m.width - 4
	tot := m.totals()

	counts := fmt.Sprintf("%d todos, %d done, %d overdue", tot.Total, tot.Done, tot.Overdue)
	if !m.savedAt.IsZero() {
		counts += ", last saved " + m.savedAt.Local().Format("2006-01-02 15:04")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Summary"), "  ", subtitleStyle.Render(counts),
	)

	var chartView string
	if tot.Total == 0 {
		chartView = mutedStyle.Render("  Nothing to chart yet. Add a todo on the Projects tab.")
	} else {
		chartView = m.chart.View()
	}

	legend := "  " + successStyle.Render("■") + " done  " + warningStyle.Render("■") + " pending"

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", m.renderTable(w),
		),
	)
}

func (m summaryModel) renderTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %6s %6s %8s %8s", "Project", "Total", "Done", "Pending", "Overdue")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 56))))
	for _, s := range m.stats {
		overdue := fmt.Sprintf("%8d", s.Overdue)
		if s.Overdue > 0 {
			overdue = errorStyle.Render(overdue)
		}
		rows = append(rows, fmt.Sprintf("  %-24s %6d %6d %8d %s",
			truncate(s.Label, 24), s.Total, s.Done, s.Pending, overdue,
		))
	}
	return strings.Join(rows, "\n")
}
