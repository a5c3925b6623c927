package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows as borderless, left-aligned columns. Cell widths are
// measured with lipgloss so styled cells line up.
type Table struct {
	rows    [][]string
	widths  []int
	padding int
}

// NewTable creates a table with the given number of columns.
func NewTable(cols int) *Table {
	return &Table{widths: make([]int, cols), padding: 2}
}

// AddRow adds a row; missing cells are blank and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.widths))
	copy(row, cells)
	for i, cell := range row {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// String renders the table, one line per row.
func (t *Table) String() string {
	var sb strings.Builder
	gap := strings.Repeat(" ", t.padding)
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(gap)
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.widths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
