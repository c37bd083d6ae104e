package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chatstream"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	FailBubble lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	Cursor     lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t chatstream.Theme) Styles {
	bubble := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Styles{
		UserBubble: bubble.BorderForeground(ansiColor(t.User)),
		BotBubble:  bubble.BorderForeground(ansiColor(t.Bot)),
		FailBubble: bubble.BorderForeground(ansiColor(t.Error)),
		Error:      lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted:      lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Cursor:     lipgloss.NewStyle().Foreground(ansiColor(t.Cursor)).Bold(true),
	}
}

// Bubble returns the frame style for an update.
func (s Styles) Bubble(u chatstream.MessageUpdate) lipgloss.Style {
	switch {
	case u.Failed:
		return s.FailBubble
	case u.IsUser:
		return s.UserBubble
	default:
		return s.BotBubble
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
