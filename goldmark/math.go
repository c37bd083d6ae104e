package goldmark

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// KindMath is the node kind of a math span.
var KindMath = ast.NewNodeKind("Math")

// Math is an inline $...$ or display $$...$$ span. The TeX source is kept
// verbatim; terminals have no way to typeset it.
type Math struct {
	ast.BaseInline
	Value   []byte
	Display bool
}

// Kind implements ast.Node.
func (n *Math) Kind() ast.NodeKind { return KindMath }

// Dump implements ast.Node.
func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": string(n.Value)}, nil)
}

type mathParser struct{}

func (mathParser) Trigger() []byte { return []byte{'$'} }

// Parse follows the pandoc rule for single dollars: the opener must not be
// followed by a space and the closer must not be preceded by one, so prices
// like "$5 and $6" stay plain text.
func (mathParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	fence := bytes.Repeat([]byte{'$'}, delim)
	end := bytes.Index(line[delim:], fence)
	if end <= 0 {
		return nil
	}
	body := line[delim : delim+end]
	if delim == 1 && (isSpace(body[0]) || isSpace(body[len(body)-1])) {
		return nil
	}
	block.Advance(2*delim + end)
	return &Math{
		Value:   bytes.TrimSpace(append([]byte(nil), body...)),
		Display: delim == 2,
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
