package report

import (
	"strings"
	"unicode/utf8"
)

// table renders fixed-width aligned rows. Column widths come from the
// longest cell per column; marker columns are center-padded, everything
// else is left-padded.
type table struct {
	headers  []string
	rows     [][]string
	centered []bool
}

func newTable(headers ...string) *table {
	return &table{headers: headers, centered: make([]bool, len(headers))}
}

// center marks a column (by index) as center-padded, for checkmark-style
// presence markers.
func (t *table) center(cols ...int) *table {
	for _, c := range cols {
		if c < len(t.centered) {
			t.centered[c] = true
		}
	}
	return t
}

func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *table) render(sb *strings.Builder) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(pad(cell, widths[i], t.centered[i]))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(t.headers)
	sb.WriteString("|")
	for i := range t.headers {
		sb.WriteString(strings.Repeat("-", widths[i]+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")
	for _, row := range t.rows {
		writeRow(row)
	}
}

func pad(s string, width int, centered bool) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if centered {
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}
