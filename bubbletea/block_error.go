package bubbletea

import (
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock reports a failed reply inline, framed like a failed bubble on
// the bot side of the conversation.
type ErrorBlock struct {
	key    string
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock. key names the reply bubble that was
// streaming when the error arrived and may be empty when none was shown.
func NewErrorBlock(key string, err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{key: key, err: err, styles: styles}
}

// Key returns the key of the failed reply bubble.
func (b *ErrorBlock) Key() string { return b.key }

func (b *ErrorBlock) View(width int) string {
	outer := max(width*3/4, minBubbleWidth)
	inner := max(outer-bubbleChrome, 1)

	head := "⚠ reply failed"
	if b.key != "" {
		head = "⚠ reply " + b.key + " failed"
	}
	body := lipgloss.NewStyle().Width(inner).Render(head + "\n" + b.err.Error())
	framed := b.styles.FailBubble.Render(b.styles.Error.Render(body))
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, framed)
}
