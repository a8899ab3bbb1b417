package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	columnSeparator = " │ "
	minFlexWidth    = 12
)

// Table renders rows in aligned columns that fit a box of Width.
type Table struct {
	Headers []string
	Rows    [][]string
	// Fixed holds per-column widths; zero marks a column that shares the
	// remaining space.
	Fixed []int
	Width int
}

// Render renders the table.
func (t Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.columnWidths()
	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, titleStyle.Render(t.row(t.Headers, widths)))

	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	lines = append(lines, grayStyle.Render(strings.Join(parts, "─┼─")))

	for _, r := range t.Rows {
		lines = append(lines, t.row(r, widths))
	}
	return strings.Join(lines, "\n")
}

// columnWidths honors Fixed and splits what is left over the flexible
// columns.
func (t Table) columnWidths() []int {
	n := len(t.Headers)
	widths := make([]int, n)

	// 4 for the surrounding box border and padding.
	available := t.Width - (n-1)*lipgloss.Width(columnSeparator) - 4

	flex := 0
	for i := range widths {
		if i < len(t.Fixed) && t.Fixed[i] > 0 {
			widths[i] = t.Fixed[i]
			available -= t.Fixed[i]
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}

	share := max(available/flex, minFlexWidth)
	extra := max(available-share*flex, 0)
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	// The last flexible column absorbs the remainder.
	for i := n - 1; i >= 0; i-- {
		if i >= len(t.Fixed) || t.Fixed[i] == 0 {
			widths[i] += extra
			break
		}
	}
	return widths
}

func (t Table) row(cells []string, widths []int) string {
	out := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		out[i] = fit(cell, w)
	}
	return strings.Join(out, columnSeparator)
}

// fit pads or truncates s to exactly width visible cells, keeping ANSI
// escape sequences intact.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	visible := lipgloss.Width(s)
	if visible <= width {
		return s + strings.Repeat(" ", width-visible)
	}

	var b strings.Builder
	count := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
			b.WriteRune(r)
		case inEscape:
			b.WriteRune(r)
			if r == 'm' {
				inEscape = false
			}
		case count < width-1:
			b.WriteRune(r)
			count++
		}
	}
	b.WriteString("…")
	return b.String()
}
