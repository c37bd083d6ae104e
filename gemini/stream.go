package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

// stream implements [chatstream.Source] by wrapping the genai SDK's
// streaming iterator.
type stream struct {
	ctx   context.Context
	pull  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	state chatstream.StreamState
	err   error
}

// Interface compliance check.
var _ chatstream.Source = (*stream)(nil)

func newStream(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: chatstream.StreamStateNew,
	}
}

// Next returns the visible text of the next response chunk. Chunks made
// only of thoughts or function calls come through as nil.
func (s *stream) Next() (any, error) {
	switch s.state {
	case chatstream.StreamStateComplete:
		return nil, io.EOF
	case chatstream.StreamStateError:
		return nil, s.err
	case chatstream.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", chatstream.ErrSourceClosed)
	}

	if err := s.ctx.Err(); err != nil {
		return nil, s.terminate(err)
	}
	resp, err, ok := s.pull()
	if !ok {
		s.state = chatstream.StreamStateComplete
		return nil, io.EOF
	}
	if err != nil {
		return nil, s.terminate(err)
	}
	s.state = chatstream.StreamStateStreaming

	if err := blocked(resp); err != nil {
		return nil, s.terminate(err)
	}
	if text := visibleText(resp); text != "" {
		return text, nil
	}
	return nil, nil
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	if s.state != chatstream.StreamStateComplete && s.state != chatstream.StreamStateError {
		s.state = chatstream.StreamStateClosed
	}
	s.stop()
	return nil
}

func (s *stream) terminate(err error) error {
	s.state = chatstream.StreamStateError
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("gemini: %w", ctxErr)
	} else {
		s.err = fmt.Errorf("gemini: %w", err)
	}
	s.stop()
	return s.err
}

// visibleText concatenates the non-thought text parts of the first
// candidate.
func visibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// blocked reports a prompt or candidate that the API refused to complete.
func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	switch r := resp.Candidates[0].FinishReason; r {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return fmt.Errorf("response blocked: %s", r)
	}
	return nil
}
