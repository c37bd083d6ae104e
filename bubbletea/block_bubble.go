package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatstream"
)

const (
	cursorGlyph    = "▍"
	minBubbleWidth = 20
	// bubbleChrome is the horizontal space taken by border and padding.
	bubbleChrome = 4
)

var _ MessageBlock = (*BubbleBlock)(nil)

// BubbleBlock renders one chat bubble: avatar plus a framed body, aligned
// right for the user and left for everyone else. Rich bubbles render
// markdown; plain bubbles are word-wrapped verbatim.
type BubbleBlock struct {
	update chatstream.MessageUpdate
	styles Styles
	rich   *richText
}

// NewBubbleBlock creates a block showing u.
func NewBubbleBlock(u chatstream.MessageUpdate, theme chatstream.Theme, styles Styles) *BubbleBlock {
	b := &BubbleBlock{styles: styles, rich: newRichText(theme)}
	b.Set(u)
	return b
}

// Set replaces the displayed update in place.
func (b *BubbleBlock) Set(u chatstream.MessageUpdate) {
	b.update = u
	if u.RichContent {
		b.rich.Set(u.Text)
	}
}

// Update returns the displayed update.
func (b *BubbleBlock) Update() chatstream.MessageUpdate { return b.update }

func (b *BubbleBlock) View(width int) string {
	u := b.update
	avatar := AvatarGlyph(u.Avatar, u.Seed)

	// Bubbles take at most three quarters of the row.
	outer := max(width*3/4, minBubbleWidth)
	inner := max(outer-bubbleChrome-avatarWidth-1, 1)

	body := b.body(inner)
	if u.Partial {
		body += b.styles.Cursor.Render(cursorGlyph)
	}
	if u.Failed {
		if body != "" {
			body += "\n"
		}
		body += b.styles.Error.Render("⚠ incomplete")
	}
	framed := b.styles.Bubble(u).Render(body)

	var row string
	if u.IsUser {
		row = lipgloss.JoinHorizontal(lipgloss.Top, framed, " ", avatar)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, row)
	}
	row = lipgloss.JoinHorizontal(lipgloss.Top, avatar, " ", framed)
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, row)
}

// body renders the text at most inner cells wide with trailing padding
// removed, so short messages get narrow bubbles.
func (b *BubbleBlock) body(inner int) string {
	var rendered string
	switch {
	case b.update.Text == "":
		return ""
	case b.update.RichContent:
		rendered = b.rich.View(inner)
	default:
		rendered = lipgloss.NewStyle().Width(inner).Render(b.update.Text)
	}
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
