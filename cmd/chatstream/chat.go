package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/chatstream"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// chat answers prompts: it records the prompt in the store, asks the
// provider for a reply with the stored conversation as context, and
// streams the reply into one bubble.
type chat struct {
	provider chatstream.Provider // nil = offline demo
	store    chatstream.Store
	logger   *zap.Logger
	user     chatstream.Message
	reply    chatstream.Config
	system   string
	model    string
	delay    time.Duration // demo only

	// echo renders the user's prompt on the surface. The TUI shows the
	// prompt itself and leaves it off.
	echo bool

	newKey func() string
}

func (c *chat) key(prefix string) string {
	if c.newKey != nil {
		return prefix + "-" + c.newKey()
	}
	return prefix + "-" + uuid.NewString()
}

// Reply streams the reply to prompt onto surface and returns its text.
func (c *chat) Reply(ctx context.Context, prompt string, surface chatstream.Surface) (string, error) {
	d := chatstream.NewDispatcher(surface, chatstream.WithStore(c.store))

	msg := c.user
	msg.Text = prompt
	msg.IsUser = true
	msg.Key = c.key("user")
	if c.echo {
		if err := d.Render(msg); err != nil {
			return "", fmt.Errorf("render prompt: %w", err)
		}
	} else if err := c.store.Put(chatstream.NewUpdate(msg)); err != nil {
		return "", fmt.Errorf("store prompt: %w", err)
	}

	src, err := c.source(ctx, prompt)
	if err != nil {
		// Route the failure through the coalescer so the reply bubble is
		// still shown, and finalized as failed when so configured.
		src = failed(err)
	}

	cfg := c.reply
	cfg.Key = c.key("bot")
	coalescer := chatstream.NewCoalescer(d, chatstream.WithLogger(c.logger))
	text, err := coalescer.Run(ctx, src, cfg)
	if err != nil {
		c.logger.Warn("reply ended early", zap.String("key", cfg.Key), zap.Error(err))
		return text, err
	}
	c.logger.Info("reply complete", zap.String("key", cfg.Key), zap.Int("len", len(text)))
	return text, nil
}

func (c *chat) source(ctx context.Context, prompt string) (chatstream.Source, error) {
	if c.provider == nil {
		return chatstream.Graphemes(demoReply(prompt), c.delay), nil
	}
	history, err := c.store.List()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return c.provider.Stream(ctx, chatstream.Request{
		Model:        c.model,
		SystemPrompt: c.system,
		Messages:     history,
	})
}

// failed is a source whose first pull returns err.
func failed(err error) chatstream.Source {
	return chatstream.FromSeq2[string](func(yield func(string, error) bool) {
		yield("", err)
	})
}

// demoReply is the offline reply: it echoes the prompt with a little of
// every rich-content feature.
func demoReply(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	var b strings.Builder
	fmt.Fprintf(&b, "You said: **%s**\n\n", prompt)
	b.WriteString("| measure | value |\n|:--|--:|\n")
	fmt.Fprintf(&b, "| characters | %d |\n", utf8.RuneCountInString(prompt))
	fmt.Fprintf(&b, "| words | %d |\n\n", len(strings.Fields(prompt)))
	b.WriteString("Streaming one grapheme at a time, e.g. $e^{i\\pi} + 1 = 0$.\n")
	return b.String()
}
