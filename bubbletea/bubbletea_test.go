package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
	bt "github.com/fwojciec/chatstream/bubbletea"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, reply bt.ReplyFunc, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(reply, chatstream.DefaultTheme(), opts...)
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// nopReply is a reply that renders nothing.
func nopReply(context.Context, string, chatstream.Surface) error {
	return nil
}

func botUpdate(key, text string, partial bool) chatstream.MessageUpdate {
	return chatstream.NewUpdate(chatstream.Message{
		Text:        text,
		Key:         key,
		Partial:     partial,
		RichContent: true,
		Seed:        chatstream.DefaultSeed,
	})
}
