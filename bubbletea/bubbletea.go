// Package bubbletea provides a Bubble Tea chat surface: a conversation of
// bubbles keyed by identity key, a prompt, and a scrollable viewport.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
)

// ReplyFunc produces the reply to prompt by rendering bubbles on surface.
// It blocks until the reply is complete or ctx is cancelled. Renders issued
// after cancellation (such as a terminal render) are still delivered.
type ReplyFunc func(ctx context.Context, prompt string, surface chatstream.Surface) error

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits. The final model is returned so callers can persist the
// transcript.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// UpdateMsg delivers one rendered update to the model.
type UpdateMsg struct {
	Update chatstream.MessageUpdate
}

// ReplyDoneMsg signals that the reply function has returned.
type ReplyDoneMsg struct {
	Err error
}

// Interface compliance check.
var _ chatstream.Surface = (*chanSurface)(nil)

// chanSurface hands renders from the reply goroutine to the model. Sends
// block rather than drop so that ordering and the terminal render survive.
type chanSurface struct {
	ch chan<- chatstream.MessageUpdate
}

func (s chanSurface) Render(u chatstream.MessageUpdate) error {
	s.ch <- u
	return nil
}
