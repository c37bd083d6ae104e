package bubbletea

import (
	"strings"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/goldmark"
)

// richText renders streamed markdown. Finalized paragraphs (separated by a
// double newline) are rendered once per width and cached; only the trailing
// unfinalized text is re-rendered when the bubble grows.
type richText struct {
	content string
	theme   chatstream.Theme

	// finalizedRaw is the stable prefix ending at the last double newline
	// that lies outside a fenced code block.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

func newRichText(theme chatstream.Theme) *richText {
	return &richText{
		theme:            theme,
		finalizedByWidth: make(map[int]string),
	}
}

// Set replaces the content. Updates carry the full text, so a text that
// extends the current content keeps the cache, and anything else resets it.
func (r *richText) Set(text string) {
	if !strings.HasPrefix(text, r.content) {
		r.finalizedRaw = ""
		clear(r.finalizedByWidth)
	}
	r.content = text
	r.promoteFinalized()
}

func (r *richText) View(width int) string {
	finalized := r.renderFinalized(width)
	trailing := r.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close the fence only for rendering so partial streams display safely.
		trailing += "\n```"
	}
	if trailing == "" {
		return finalized
	}
	rendered := goldmark.Render(trailing, width, r.theme)
	if strings.TrimSpace(rendered) == "" {
		return finalized
	}
	if finalized == "" {
		return rendered
	}
	// Independently rendered fragments are joined with a single blank line
	// to match full-document output.
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the finalized boundary to the last "\n\n" whose
// prefix has every fence closed. Splitting inside a fence would leave a
// fragment with an unclosed opening fence.
func (r *richText) promoteFinalized() {
	raw := r.content
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != r.finalizedRaw {
				r.finalizedRaw = candidate
				clear(r.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (r *richText) renderFinalized(width int) string {
	if width <= 0 || r.finalizedRaw == "" {
		return ""
	}
	if cached, ok := r.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(r.finalizedRaw, width, r.theme)
	r.finalizedByWidth[width] = rendered
	return rendered
}

func (r *richText) trailingRaw() string {
	if r.finalizedRaw == "" {
		return r.content
	}
	return strings.TrimPrefix(r.content, r.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" occurrences. Triple
// backticks inside inline code spans are miscounted; streamed replies rarely
// contain them.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
