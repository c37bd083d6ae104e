package goldmark

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

const (
	cellSep    = " │ "
	minCellLen = 3
)

type tableCell struct {
	text  string
	align east.Alignment
}

// renderTable lays a GFM table out in aligned columns. When the natural
// column widths do not fit, every column shrinks in proportion and its
// cells wrap.
func (r *ansiRenderer) renderTable(n *east.Table, source []byte, width int, buf *bytes.Buffer) {
	var rows [][]tableCell
	header := -1
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableHeader); ok {
			header = len(rows)
		}
		rows = append(rows, r.collectRow(c, source))
	}
	if len(rows) == 0 {
		return
	}

	widths := columnWidths(rows, width)
	for i, row := range rows {
		r.writeRow(buf, row, widths, i == header)
		if i == header {
			parts := make([]string, len(widths))
			for j, w := range widths {
				parts[j] = strings.Repeat("─", w)
			}
			buf.WriteString(r.muted.Render(strings.Join(parts, "─┼─")))
			buf.WriteString("\n")
		}
	}
}

func (r *ansiRenderer) collectRow(row ast.Node, source []byte) []tableCell {
	var cells []tableCell
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			continue
		}
		cells = append(cells, tableCell{
			text:  r.collectInline(cell, source),
			align: cell.Alignment,
		})
	}
	return cells
}

func columnWidths(rows [][]tableCell, width int) []int {
	var cols int
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for j, cell := range row {
			widths[j] = max(widths[j], lipgloss.Width(cell.text), minCellLen)
		}
	}

	available := width - lipgloss.Width(cellSep)*(cols-1)
	total := 0
	for _, w := range widths {
		total += w
	}
	if total <= available || available <= 0 {
		return widths
	}
	for j, w := range widths {
		widths[j] = max(w*available/total, minCellLen)
	}
	return widths
}

func (r *ansiRenderer) writeRow(buf *bytes.Buffer, row []tableCell, widths []int, header bool) {
	cells := make([][]string, len(widths))
	height := 1
	for j, w := range widths {
		var cell tableCell
		if j < len(row) {
			cell = row[j]
		}
		s := cell.text
		if header {
			s = r.bold.Render(s)
		}
		wrapped := lipgloss.NewStyle().Width(w).Align(position(cell.align)).Render(s)
		lines := strings.Split(wrapped, "\n")
		cells[j] = lines
		height = max(height, len(lines))
	}

	sep := r.muted.Render(cellSep)
	for k := 0; k < height; k++ {
		parts := make([]string, len(cells))
		for j, lines := range cells {
			if k < len(lines) {
				parts[j] = lines[k]
			} else {
				parts[j] = strings.Repeat(" ", widths[j])
			}
		}
		buf.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		buf.WriteString("\n")
	}
}

func position(align east.Alignment) lipgloss.Position {
	switch align {
	case east.AlignRight:
		return lipgloss.Right
	case east.AlignCenter:
		return lipgloss.Center
	default:
		return lipgloss.Left
	}
}
