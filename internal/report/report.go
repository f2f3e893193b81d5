// Package report formats result tables for people: list-file lines, a
// styled terminal table and Markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gmslr/internal/ensemble"
	"gmslr/internal/result"
)

var (
	borderColor = lipgloss.Color("#2a3850")
	headerColor = lipgloss.Color("#8BC34A")
	totalColor  = lipgloss.Color("#FFC107")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(headerColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	totalStyle  = numberStyle.Bold(true).Foreground(totalColor)
)

// ListLine formats the final-year summary of s as one list-file line,
// prefixed by the scenario name.
func ListLine(scenario string, s result.Series) string {
	e := s.Final()
	return fmt.Sprintf("%-10s ", scenario) +
		fmt.Sprintf("%15s %6.3f [%6.3f to %6.3f]", s.Quantity, e.Median, e.Low, e.High)
}

// ListLines returns the scenario header followed by one line per quantity.
func ListLines(scenario string, t *result.Table) []string {
	lines := []string{scenario}
	for _, q := range t.Quantities() {
		s, _ := t.Get(q)
		lines = append(lines, ListLine(scenario, s))
	}
	return lines
}

// Table renders the summary of every quantity at year as a bordered
// terminal table. A year of zero selects the last year.
func Table(t *result.Table, year int) (string, error) {
	i, year, err := yearIndex(t, year)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(t.Quantities()))
	totalRow := -1
	for _, q := range t.Quantities() {
		s, _ := t.Get(q)
		e := s.Likely(i)
		if q == ensemble.GMSLR {
			totalRow = len(rows)
		}
		rows = append(rows, []string{
			string(q), s.Unit,
			fmt.Sprintf("%.3f", e.Median),
			fmt.Sprintf("%.3f", e.Low),
			fmt.Sprintf("%.3f", e.High),
			statLabel(s),
		})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("quantity", "unit", "central", "low", "high", "basis").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == totalRow && col >= 2 && col <= 4:
				return totalStyle
			case col >= 2 && col <= 4:
				return numberStyle
			default:
				return cellStyle
			}
		})

	title := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%s %d  (%d members, seed %d)", t.Meta.Scenario, year, t.Meta.Members, t.Meta.Seed))
	return title + "\n" + tbl.String(), nil
}

// Markdown renders the summary at year as a Markdown document. A year of
// zero selects the last year.
func Markdown(t *result.Table, year int) (string, error) {
	i, year, err := yearIndex(t, year)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	m := t.Meta
	fmt.Fprintf(&b, "# %s, %d\n\n", m.Scenario, year)
	fmt.Fprintf(&b, "- members: %d\n- seed: %d\n- drivers: %s form\n", m.Members, m.Seed, m.Form)
	fmt.Fprintf(&b, "- glacier: %s\n- antdyn: %s", m.Glacier, m.AntDyn)
	if m.LevermannFit != "" {
		fmt.Fprintf(&b, " (%s fit)", m.LevermannFit)
	}
	b.WriteString("\n\n| quantity | unit | central | low | high | basis |\n|---|---|--:|--:|--:|---|\n")
	for _, q := range t.Quantities() {
		s, _ := t.Get(q)
		e := s.Likely(i)
		name := string(q)
		if q == ensemble.GMSLR {
			name = "**GMSLR**"
		}
		fmt.Fprintf(&b, "| %s | %s | %.3f | %.3f | %.3f | %s |\n",
			name, s.Unit, e.Median, e.Low, e.High, statLabel(s))
	}
	return b.String(), nil
}

// RenderMarkdown renders md for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func statLabel(s result.Series) string {
	if s.Uniform {
		return "mean, range"
	}
	return "p50, p5-p95"
}

func yearIndex(t *result.Table, year int) (int, int, error) {
	years := t.Years()
	if len(years) == 0 {
		return 0, 0, fmt.Errorf("table is empty")
	}
	if year == 0 {
		return len(years) - 1, years[len(years)-1], nil
	}
	i := year - years[0]
	if i < 0 || i >= len(years) {
		return 0, 0, fmt.Errorf("year %d outside %d..%d", year, years[0], years[len(years)-1])
	}
	return i, year, nil
}
