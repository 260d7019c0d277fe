package report

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Table is a column-aligned text table. The first column is left-aligned,
// the rest right-aligned.
type Table struct {
	Headers []string
	Rows    [][]string
	Footer  []string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) widths() []int {
	w := make([]int, len(t.Headers))
	grow := func(row []string) {
		for i, c := range row {
			if i >= len(w) {
				w = append(w, 0)
			}
			w[i] = max(w[i], lipgloss.Width(c))
		}
	}
	grow(t.Headers)
	for _, r := range t.Rows {
		grow(r)
	}
	grow(t.Footer)
	return w
}

func line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		c := ""
		if i < len(row) {
			c = row[i]
		}
		pad := strings.Repeat(" ", w-lipgloss.Width(c))
		if i == 0 {
			cells[i] = c + pad
		} else {
			cells[i] = pad + c
		}
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}

// Render draws the table.
func (t *Table) Render() string {
	widths := t.widths()
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	rule := Subtitle.Render(strings.Repeat("─", max(total-2, 0)))

	var b strings.Builder
	b.WriteString(Label.Render(line(t.Headers, widths)))
	b.WriteString("\n" + rule + "\n")
	for _, r := range t.Rows {
		b.WriteString(line(r, widths) + "\n")
	}
	if len(t.Footer) > 0 {
		b.WriteString(rule + "\n")
		b.WriteString(Body.Bold(true).Render(line(t.Footer, widths)) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
