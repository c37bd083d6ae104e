// Command chatstream streams chat replies into bubbles, one grapheme or
// one provider delta at a time.
//
// Usage:
//
//	chatstream [flags]                       # terminal chat, offline demo
//	ANTHROPIC_API_KEY=sk-... chatstream      # terminal chat with Claude
//	chatstream -surface ws -addr :8080       # browser surface over websocket
//	echo hi | chatstream -surface ndjson     # one reply as NDJSON on stdout
//
// Settings are read from flags, CHATSTREAM_* environment variables, an
// optional config file (-config) and a .env file in the working directory.
// Run with -h for the full flag list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/chatstream"
	bt "github.com/fwojciec/chatstream/bubbletea"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/fwojciec/chatstream/memory"
	"github.com/fwojciec/chatstream/metrics"
	csredis "github.com/fwojciec/chatstream/redis"
	cswebsocket "github.com/fwojciec/chatstream/websocket"
	goredis "github.com/go-redis/redis"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatstream: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	registerFlags(flag.CommandLine)
	flag.Parse()

	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	settings, err := loadSettings(viper.New(), flag.CommandLine)
	if err != nil {
		return err
	}

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zap.NewNop()
	if settings.Surface != "tui" || settings.LogFile != "" {
		logger, err = buildLogger(settings.Debug, settings.LogFile)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
	}
	defer func() { _ = logger.Sync() }()

	// Resolve provider. Env vars are read here and passed as values.
	provider, err := resolveProvider(ctx, settings.Provider, settings.APIKey, settings.Model, envKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Gemini:    os.Getenv("GEMINI_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(settings)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := loadTranscript(settings.Transcript, store); err != nil {
		return err
	}

	c := &chat{
		provider: provider,
		store:    store,
		logger:   logger,
		user:     settings.UserMessage(),
		reply:    settings.ReplyConfig(),
		system:   settings.SystemPrompt,
		model:    settings.Model,
		delay:    settings.Stream.DemoDelay,
		echo:     settings.Surface != "tui",
	}

	switch settings.Surface {
	case "tui":
		err = runTUI(ctx, c, store)
	case "ws":
		err = runServer(ctx, settings.Addr, c, store, logger)
	case "ndjson":
		err = runNDJSON(ctx, settings.Prompt, c, os.Stdin, os.Stdout)
	}
	if err != nil {
		return err
	}

	return saveTranscript(settings.Transcript, store)
}

// openStore connects to Redis when an address is configured and falls
// back to an in-memory store.
func openStore(s Settings) (chatstream.Store, func(), error) {
	if s.RedisAddr == "" {
		return memory.NewStore(), func() {}, nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: s.RedisAddr})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return csredis.NewStore(client, s.Namespace), func() { _ = client.Close() }, nil
}

// loadTranscript seeds store from path. A missing file is not an error.
func loadTranscript(path string, store chatstream.Store) error {
	if path == "" {
		return nil
	}
	updates, err := csjson.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	for _, u := range updates {
		if err := store.Put(u); err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
	}
	return nil
}

func saveTranscript(path string, store chatstream.Store) error {
	if path == "" {
		return nil
	}
	updates, err := store.List()
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if err := csjson.Save(path, updates); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func runTUI(ctx context.Context, c *chat, store chatstream.Store) error {
	history, err := store.List()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	reply := func(ctx context.Context, prompt string, surface chatstream.Surface) error {
		_, err := c.Reply(ctx, prompt, surface)
		return err
	}
	m := bt.New(reply, chatstream.DefaultTheme(),
		bt.WithHistory(history),
		bt.WithUserMessage(c.user),
	)
	if _, err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, addr string, c *chat, store chatstream.Store, logger *zap.Logger) error {
	hub := cswebsocket.NewHub(cswebsocket.WithStore(store), cswebsocket.WithLogger(logger))
	reg := newRegistry()
	m := metrics.NewMetrics(reg, "chatstream")

	srv := &server{
		chat:    c,
		hub:     hub,
		surface: metrics.NewSurface(hub, m),
		store:   store,
		metrics: metrics.Handler(reg),
		logger:  logger,
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(); err != nil {
		logger.Warn("close websocket clients", zap.Error(err))
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runNDJSON answers one prompt, read from stdin when not given, and writes
// every render to out.
func runNDJSON(ctx context.Context, prompt string, c *chat, in io.Reader, out io.Writer) error {
	if prompt == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("empty prompt: %w", chatstream.ErrValidation)
	}
	_, err := c.Reply(ctx, prompt, csjson.NewSurface(out))
	return err
}
