// Package goldmark renders rich bubble content (markdown with GFM tables,
// strikethrough and $math$) to ANSI-styled terminal output, using goldmark
// for parsing and lipgloss for styling.
package goldmark

import (
	"github.com/fwojciec/chatstream"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

const defaultWidth = 80

// md is safe for concurrent use; goldmark parsers hold no per-parse state.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithParserOptions(
		parser.WithInlineParsers(util.Prioritized(mathParser{}, 150)),
	),
)

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow. Tables shrink their columns to fit.
func Render(source string, width int, theme chatstream.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
