package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatstream"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type ansiRenderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
	math      lipgloss.Style
}

func newRenderer(theme chatstream.Theme) *ansiRenderer {
	return &ansiRenderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
		math:      lipgloss.NewStyle().Foreground(ansiColor(theme.Math)).Italic(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *ansiRenderer) render(source []byte, width int) string {
	doc := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.walkBlock(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *ansiRenderer) walkBlock(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, source, width, buf)
	}
}

// separate writes the blank line between a block and its next sibling.
func separate(n ast.Node, buf *bytes.Buffer) {
	if n.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (r *ansiRenderer) renderBlock(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		r.writeWrapped(buf, r.collectInline(n, source), width)
		separate(n, buf)

	case *ast.Heading:
		r.writeWrapped(buf, r.accent.Render(r.collectInline(n, source)), width)
		separate(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.writeCode(buf, n, source)
		separate(n, buf)

	case *ast.CodeBlock:
		r.writeCode(buf, n, source)
		separate(n, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		r.walkBlock(n, source, max(width-2, 10), &inner)
		bar := r.muted.Render("▎") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(bar + line + "\n")
		}
		separate(n, buf)

	case *ast.List:
		r.renderList(n, source, width, buf, 0)
		separate(n, buf)

	case *east.Table:
		r.renderTable(n, source, width, buf)
		separate(n, buf)

	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")
		separate(n, buf)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}

	default:
		r.walkBlock(node, source, width, buf)
	}
}

func (r *ansiRenderer) writeWrapped(buf *bytes.Buffer, s string, width int) {
	buf.WriteString(lipgloss.NewStyle().Width(width).Render(s))
	buf.WriteString("\n")
}

func (r *ansiRenderer) writeCode(buf *bytes.Buffer, n ast.Node, source []byte) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.WriteString(gutter + strings.TrimRight(string(line.Value(source)), "\n"))
		buf.WriteString("\n")
	}
}

func (r *ansiRenderer) renderList(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	ordered := node.IsOrdered()
	n := node.Start

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", depth)
		marker := "• "
		if ordered {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}

		var itemBuf bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				itemBuf.WriteString(r.collectInline(in, source))
			case *ast.List:
				if itemBuf.Len() > 0 {
					r.writeListItem(buf, indent, marker, itemBuf.String(), width)
					itemBuf.Reset()
				}
				r.renderList(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", lipgloss.Width(marker))
			default:
				r.renderBlock(ic, source, width, &itemBuf)
			}
		}
		if itemBuf.Len() > 0 {
			r.writeListItem(buf, indent, marker, itemBuf.String(), width)
		}
	}
}

// writeListItem writes a list item with continuation lines aligned under
// the first character after the marker.
func (r *ansiRenderer) writeListItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	pw := lipgloss.Width(prefix)
	wrapped := lipgloss.NewStyle().Width(max(width-pw, 10)).Render(content)
	continuation := strings.Repeat(" ", pw)
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

// collectInline recursively collects styled inline text from a node's children.
func (r *ansiRenderer) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (r *ansiRenderer) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.collectInline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.collectInline(n, source)))

	case *Math:
		if n.Display {
			buf.WriteString("\n" + r.math.Render(string(n.Value)) + "\n")
		} else {
			buf.WriteString(r.math.Render(string(n.Value)))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.collectInline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderInline(c, source, buf)
		}
	}
}
