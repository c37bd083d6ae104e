package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chatstream"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat surface. Bubbles are keyed by
// identity key: an update whose key is already shown replaces that bubble
// in place, and any other update appends a new one.
type Model struct {
	// Input is the prompt. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation. Exported for test access.
	Viewport viewport.Model

	reply  ReplyFunc
	theme  chatstream.Theme
	styles Styles
	user   chatstream.Message

	blocks []MessageBlock
	byKey  map[string]*BubbleBlock
	turns  int

	// replyKey is the key of the latest bot bubble of the running reply.
	replyKey string

	running  bool
	cancel   context.CancelFunc
	updateCh chan chatstream.MessageUpdate
	doneCh   chan error
	err      error
	ready    bool
}

// Option configures a Model.
type Option func(*Model)

// WithHistory shows updates before the first prompt, in order.
func WithHistory(updates []chatstream.MessageUpdate) Option {
	return func(m *Model) {
		for _, u := range updates {
			*m = m.apply(u)
		}
		m.turns = len(updates)
	}
}

// WithUserMessage sets the avatar and seed of the user's bubbles. Text,
// role, key and partial state are filled in per prompt.
func WithUserMessage(tmpl chatstream.Message) Option {
	return func(m *Model) { m.user = tmpl }
}

// New creates a chat model that answers prompts with reply.
func New(reply ReplyFunc, theme chatstream.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "› "
	ti.Focus()
	ti.CharLimit = 0

	m := Model{
		Input:  ti,
		reply:  reply,
		theme:  theme,
		styles: NewStyles(theme),
		user:   chatstream.Message{Seed: chatstream.DefaultSeed},
		byKey:  make(map[string]*BubbleBlock),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Running returns whether a reply is currently streaming.
func (m Model) Running() bool { return m.running }

// Err returns the last reply error, if any.
func (m Model) Err() error { return m.err }

// Transcript returns the latest update of every bubble, in display order.
func (m Model) Transcript() []chatstream.MessageUpdate {
	var out []chatstream.MessageUpdate
	for _, b := range m.blocks {
		if bb, ok := b.(*BubbleBlock); ok {
			out = append(out, bb.Update())
		}
	}
	return out
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		m = m.apply(msg.Update)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.updateCh != nil {
			return m, listenForUpdate(m.updateCh, m.doneCh)
		}
		return m, nil

	case ReplyDoneMsg:
		m.running = false
		m.cancel = nil
		m.updateCh = nil
		m.doneCh = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
			m.blocks = append(m.blocks, NewErrorBlock(m.replyKey, msg.Err, m.styles))
			m.Viewport.SetContent(m.renderContent())
			m.Viewport.GotoBottom()
		}
		cmd := m.Input.Focus()
		return m, cmd
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// When idle, pass keys to both input (for typing) and viewport (for
	// scrolling). Only non-character keys reach the viewport so 'j'/'k'
	// stay text.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	msg := m.user
	msg.Text = text
	msg.IsUser = true
	msg.Key = fmt.Sprintf("user_%d", m.turns)
	msg.Partial = false
	m.turns++
	m.replyKey = ""
	m = m.apply(chatstream.NewUpdate(msg))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updateCh = make(chan chatstream.MessageUpdate, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startReply(m.reply, ctx, text, m.updateCh, m.doneCh),
		listenForUpdate(m.updateCh, m.doneCh),
	)
}

// apply shows u, replacing the bubble with the same key if there is one.
func (m Model) apply(u chatstream.MessageUpdate) Model {
	if !u.IsUser && u.Key != "" {
		m.replyKey = u.Key
	}
	if u.Key != "" {
		if b, ok := m.byKey[u.Key]; ok {
			b.Set(u)
			return m
		}
	}
	b := NewBubbleBlock(u, m.theme, m.styles)
	m.blocks = append(m.blocks, b)
	if u.Key != "" {
		m.byKey[u.Key] = b
	}
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.running {
		return m.styles.Muted.Render("Streaming... Ctrl+C to stop")
	}
	return m.styles.Muted.Render("Enter to send, Ctrl+C to quit")
}

// startReply runs the reply in a goroutine and signals completion.
func startReply(reply ReplyFunc, ctx context.Context, prompt string, updateCh chan<- chatstream.MessageUpdate, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := reply(ctx, prompt, chanSurface{ch: updateCh})
		close(updateCh)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next update from the channel. When the
// channel closes it reads the error from doneCh and returns ReplyDoneMsg.
func listenForUpdate(ch <-chan chatstream.MessageUpdate, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return ReplyDoneMsg{Err: <-doneCh}
		}
		return UpdateMsg{Update: u}
	}
}
