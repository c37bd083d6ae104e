package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/chatstream"
	bt "github.com/fwojciec/chatstream/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopReply, chatstream.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Empty(t, m.Transcript())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - 1 - 1 - 2
		assert.Contains(t, m.View(), "Enter to send")
	})

	t.Run("resize re-renders at new width", func(t *testing.T) {
		t.Parallel()

		m := bt.New(nopReply, chatstream.DefaultTheme())
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 30, Height: 20})
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("k", "word1 word2 word3 word4 word5 word6 word7 word8", false)})
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 160, Height: 20})

		var found bool
		for _, line := range strings.Split(m.Viewport.View(), "\n") {
			if strings.Contains(line, "word1") && strings.Contains(line, "word8") {
				found = true
			}
		}
		assert.True(t, found, "expected one line after widening:\n%s", m.Viewport.View())
	})

	t.Run("update with a known key replaces the bubble in place", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("k", "draft", true)})
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("other", "second", false)})
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("k", "final text", false)})

		transcript := m.Transcript()
		require.Len(t, transcript, 2)
		assert.Equal(t, "final text", transcript[0].Text)
		assert.False(t, transcript[0].Partial)
		assert.Equal(t, "second", transcript[1].Text)

		content := bt.RenderContent(m)
		assert.Contains(t, content, "final text")
		assert.NotContains(t, content, "draft")
		assert.Less(t, strings.Index(content, "final text"), strings.Index(content, "second"))
	})

	t.Run("updates without a key always append", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("", "one", false)})
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("", "one", false)})

		assert.Len(t, m.Transcript(), 2)
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("ctrl+c while running cancels the reply", func(t *testing.T) {
		t.Parallel()

		var cancelled bool
		m := bt.SetRunningWithCancel(initModel(t, nopReply), func() { cancelled = true })
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		assert.True(t, cancelled)
		assert.Nil(t, cmd)
		assert.True(t, updated.(bt.Model).Running())
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("enter shows the prompt as a user bubble and starts the reply", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply, bt.WithUserMessage(chatstream.Message{
			AvatarStyle: chatstream.StylePixelArt,
			Seed:        chatstream.StringSeed("me"),
		}))
		m.Input.SetValue("  hello there ")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := updated.(bt.Model)

		require.NotNil(t, cmd)
		assert.True(t, model.Running())
		assert.Empty(t, model.Input.Value())

		transcript := model.Transcript()
		require.Len(t, transcript, 1)
		assert.Equal(t, "hello there", transcript[0].Text)
		assert.True(t, transcript[0].IsUser)
		assert.Equal(t, "user_0", transcript[0].Key)
		assert.Equal(t, chatstream.StylePixelArt, transcript[0].AvatarStyle())
		assert.Equal(t, chatstream.StringSeed("me"), transcript[0].Seed)
	})

	t.Run("reply error is shown in the conversation and status", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		m = updateModel(t, m, bt.ReplyDoneMsg{Err: errors.New("backend down")})

		assert.False(t, m.Running())
		assert.EqualError(t, m.Err(), "backend down")
		assert.Contains(t, m.View(), "Error: backend down")
		assert.Empty(t, m.Transcript())
	})

	t.Run("reply error names the streaming bubble", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		m = updateModel(t, m, bt.UpdateMsg{Update: botUpdate("bot-7", "half", true)})
		m = updateModel(t, m, bt.ReplyDoneMsg{Err: errors.New("reset")})

		assert.Contains(t, m.View(), "reply bot-7 failed")
	})

	t.Run("cancellation is not an error", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopReply)
		m = updateModel(t, m, bt.ReplyDoneMsg{Err: context.Canceled})

		assert.NoError(t, m.Err())
	})

	t.Run("history renders before the first prompt", func(t *testing.T) {
		t.Parallel()

		history := []chatstream.MessageUpdate{
			chatstream.NewUpdate(chatstream.Message{Text: "earlier question", IsUser: true, Key: "user_0"}),
			botUpdate("bot_0", "earlier answer", false),
		}
		m := initModel(t, nopReply, bt.WithHistory(history))

		assert.Equal(t, history, m.Transcript())
		content := bt.RenderContent(m)
		assert.Contains(t, content, "earlier question")
		assert.Contains(t, content, "earlier answer")

		m.Input.SetValue("next")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		transcript := updated.(bt.Model).Transcript()
		require.Len(t, transcript, 3)
		assert.Equal(t, "user_2", transcript[2].Key)
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("streamed reply lands in one bubble", func(t *testing.T) {
		t.Parallel()

		reply := func(ctx context.Context, _ string, s chatstream.Surface) error {
			cfg := chatstream.DefaultConfig()
			cfg.Key = "bot"
			c := chatstream.NewCoalescer(chatstream.NewDispatcher(s))
			_, err := c.Run(ctx, chatstream.Graphemes("Hello!", 20*time.Millisecond), cfg)
			return err
		}
		tm := teatest.NewTestModel(t, bt.New(reply, chatstream.DefaultTheme()), teatest.WithInitialTermSize(80, 24))

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		// Wait until the status line has gone back to idle after streaming.
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			streaming := bytes.LastIndex(out, []byte("Streaming"))
			return streaming >= 0 &&
				bytes.LastIndex(out, []byte("Enter to send")) > streaming &&
				bytes.Contains(out, []byte("Hello!"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())

		transcript := final.Transcript()
		require.Len(t, transcript, 2)
		assert.Equal(t, "hi", transcript[0].Text)
		assert.Equal(t, "Hello!", transcript[1].Text)
		assert.False(t, transcript[1].Partial)
	})

	t.Run("ctrl+c during a reply finalizes the partial bubble", func(t *testing.T) {
		t.Parallel()

		reply := func(ctx context.Context, _ string, s chatstream.Surface) error {
			ch := make(chan string, 1)
			ch <- "thinking so far"
			cfg := chatstream.DefaultConfig()
			cfg.Key = "bot"
			c := chatstream.NewCoalescer(chatstream.NewDispatcher(s))
			_, err := c.Run(ctx, chatstream.FromChannel(ctx, ch), cfg)
			return err
		}
		tm := teatest.NewTestModel(t, bt.New(reply, chatstream.DefaultTheme()), teatest.WithInitialTermSize(80, 24))

		tm.Type("go")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("thinking so far"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))
		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		final := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second)).(bt.Model)
		assert.NoError(t, final.Err())
		transcript := final.Transcript()
		require.Len(t, transcript, 2)
		assert.Equal(t, "thinking so far", transcript[1].Text)
		assert.False(t, transcript[1].Partial)
	})
}
