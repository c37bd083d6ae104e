package chatstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Renderer forwards normalized updates to a surface. *Dispatcher
// implements it.
type Renderer interface {
	RenderUpdate(u MessageUpdate) error
}

// Coalescer streams one message at a time into a single chat bubble. It
// decides, delta by delta, whether to push a partial render and always
// finishes with exactly one terminal render on success.
type Coalescer struct {
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
	hook     func(from, to RunState)
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coalescer) { c.logger = l }
}

// WithClock replaces time.Now as the source of emit timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coalescer) { c.now = now }
}

// WithTransitionHook registers a callback invoked on every lifecycle
// transition of a run.
func WithTransitionHook(h func(from, to RunState)) Option {
	return func(c *Coalescer) { c.hook = h }
}

// NewCoalescer creates a Coalescer rendering through r.
func NewCoalescer(r Renderer, opts ...Option) *Coalescer {
	c := &Coalescer{
		renderer: r,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run drains src into one bubble described by cfg and returns the
// accumulated text.
//
// A placeholder render with cfg.InitialText is issued before the first pull.
// Each accepted delta may trigger a partial render when both the count gate
// (FlushEvery) and the time gate (Throttle) pass. When src is exhausted a
// terminal render with Partial=false is issued unconditionally.
//
// ctx is checked once per iteration. Once it is done, or src returns the
// context's error, the loop stops early, the terminal render is still
// issued, and Run returns the accumulated text with ctx.Err().
//
// Source and surface failures are returned without a terminal render, so the
// surface keeps showing the last partial state. With cfg.FinalizeOnError a
// source failure first issues a terminal render marked Failed.
//
// src is closed before Run returns.
func (c *Coalescer) Run(ctx context.Context, src Source, cfg Config) (string, error) {
	defer func() {
		if err := src.Close(); err != nil {
			c.logger.Warn("close source", zap.String("key", cfg.Key), zap.Error(err))
		}
	}()

	log := c.logger.With(zap.String("key", cfg.Key))
	if cfg.FlushEvery <= 0 {
		log.Warn("count-based flushing disabled; only placeholder and terminal renders will occur",
			zap.Int("flush_every", cfg.FlushEvery))
	}

	s := newSession(cfg.InitialText, c.hook)

	// Placeholder so the bubble appears before the first delta arrives.
	if err := c.renderer.RenderUpdate(cfg.update(s.String(), true)); err != nil {
		return s.String(), c.fail(s, err)
	}
	if err := s.fire(eventBegin); err != nil {
		return s.String(), err
	}

	var cancelErr error
	for {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		v, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				cancelErr = ctxErr
				break
			}
			return s.String(), c.abort(s, cfg, fmt.Errorf("pull delta: %w", err))
		}

		delta, ok := DeltaText(v)
		if !ok || delta == "" {
			continue
		}
		s.append(delta)

		if !s.countReady(cfg.FlushEvery) {
			continue
		}
		now := c.now()
		if !s.timeReady(cfg.Throttle, now) {
			log.Debug("flush suppressed by throttle", zap.Int("accepted", s.accepted))
			continue
		}
		if err := c.renderer.RenderUpdate(cfg.update(s.String(), true)); err != nil {
			return s.String(), c.fail(s, err)
		}
		s.emitted(now)
		log.Debug("partial render", zap.Int("accepted", s.accepted), zap.Int("len", s.text.Len()))
	}

	if err := c.renderer.RenderUpdate(cfg.update(s.String(), false)); err != nil {
		return s.String(), c.fail(s, err)
	}
	if err := c.finish(s, eventFinalize); err != nil {
		return s.String(), err
	}
	if cancelErr != nil {
		log.Info("stream cancelled; finalized early", zap.Int("accepted", s.accepted), zap.Error(cancelErr))
		return s.String(), cancelErr
	}
	log.Debug("stream finalized", zap.Int("accepted", s.accepted), zap.Int("len", s.text.Len()))
	return s.String(), nil
}

// abort handles a source failure.
func (c *Coalescer) abort(s *session, cfg Config, err error) error {
	if !cfg.FinalizeOnError {
		return c.fail(s, err)
	}
	u := cfg.update(s.String(), false)
	u.Failed = true
	if rerr := c.renderer.RenderUpdate(u); rerr != nil {
		return c.fail(s, errors.Join(err, rerr))
	}
	return c.fail(s, err)
}

func (c *Coalescer) fail(s *session, err error) error {
	if ferr := c.finish(s, eventFail); ferr != nil {
		return errors.Join(err, ferr)
	}
	return err
}

func (c *Coalescer) finish(s *session, event string) error {
	if err := s.fire(event); err != nil {
		return err
	}
	return s.fire(eventClose)
}
