package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/chatstream"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
)

// stream implements [chatstream.Source] over the SDK's chunk stream.
type stream struct {
	ctx   context.Context
	sse   *ssestream.Stream[openai.ChatCompletionChunk]
	state chatstream.StreamState
	err   error
}

// Interface compliance check.
var _ chatstream.Source = (*stream)(nil)

func newStream(ctx context.Context, sse *ssestream.Stream[openai.ChatCompletionChunk]) *stream {
	return &stream{ctx: ctx, sse: sse, state: chatstream.StreamStateNew}
}

// Next returns the content delta of the next chunk. Chunks without
// content (role announcements, tool call fragments, usage) come through
// as nil.
func (s *stream) Next() (any, error) {
	switch s.state {
	case chatstream.StreamStateComplete:
		return nil, io.EOF
	case chatstream.StreamStateError:
		return nil, s.err
	case chatstream.StreamStateClosed:
		return nil, fmt.Errorf("openai: %w", chatstream.ErrSourceClosed)
	}

	if !s.sse.Next() {
		if err := s.sse.Err(); err != nil {
			return nil, s.terminate(err)
		}
		if err := s.ctx.Err(); err != nil {
			return nil, s.terminate(err)
		}
		s.state = chatstream.StreamStateComplete
		return nil, io.EOF
	}
	s.state = chatstream.StreamStateStreaming

	chunk := s.sse.Current()
	if len(chunk.Choices) == 0 {
		return nil, nil
	}
	choice := chunk.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, s.terminate(fmt.Errorf("response blocked: content_filter"))
	}
	if choice.Delta.Content == "" {
		return nil, nil
	}
	return choice.Delta.Content, nil
}

// Close closes the underlying SSE stream.
func (s *stream) Close() error {
	if s.state != chatstream.StreamStateComplete && s.state != chatstream.StreamStateError {
		s.state = chatstream.StreamStateClosed
	}
	return s.sse.Close()
}

func (s *stream) terminate(err error) error {
	s.state = chatstream.StreamStateError
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("openai: %w", ctxErr)
	} else {
		s.err = fmt.Errorf("openai: %w", err)
	}
	return s.err
}
