package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/chatstream"
)

// stream implements [chatstream.Source] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   chatstream.StreamState
	blocks  map[int]string // content block index to block type
	err     error          // terminal error, if any
}

// Interface compliance check.
var _ chatstream.Source = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		state:   chatstream.StreamStateNew,
		blocks:  make(map[int]string),
	}
}

// Next reads SSE events until one is meaningful to the reply. Text deltas
// are returned as strings; thinking, tool input and block boundaries are
// returned as nil. Transport-only events (ping, message_start) are skipped.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (any, error) {
	switch s.state {
	case chatstream.StreamStateComplete:
		return nil, io.EOF
	case chatstream.StreamStateError:
		return nil, s.err
	case chatstream.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", chatstream.ErrSourceClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = chatstream.StreamStateStreaming

		v, emit, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		// processEvent may set a terminal state (e.g. message_stop).
		if s.state == chatstream.StreamStateComplete {
			return nil, io.EOF
		}
		if emit {
			return v, nil
		}
	}
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != chatstream.StreamStateComplete && s.state != chatstream.StreamStateError {
		s.state = chatstream.StreamStateClosed
	}
	return s.body.Close()
}

// terminate records a terminal error. Read failures after cancellation
// are reported as the context's error so callers can tell the two apart.
func (s *stream) terminate(err error) {
	s.state = chatstream.StreamStateError
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.err = fmt.Errorf("anthropic: %w", ctxErr)
		return
	}
	if err == io.EOF {
		// Normal completion goes through message_stop; a bare EOF means the
		// connection dropped mid-reply.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
		return
	}
	s.err = err
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Comments (lines starting with ':') and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a source element. emit is false for
// events the caller should not see at all.
func (s *stream) processEvent(eventType, data string) (v any, emit bool, err error) {
	switch eventType {
	case "content_block_start":
		return nil, true, s.handleContentBlockStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "content_block_stop":
		return nil, true, nil
	case "message_stop":
		s.state = chatstream.StreamStateComplete
		return nil, false, nil
	case "error":
		return nil, false, s.handleError(data)
	default:
		// message_start, message_delta, ping and unknown event types.
		return nil, false, nil
	}
}

func (s *stream) handleContentBlockStart(data string) error {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse content_block_start: %w", err)
	}
	s.blocks[evt.Index] = evt.ContentBlock.Type
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (any, bool, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, false, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
	}
	if _, ok := s.blocks[evt.Index]; !ok {
		return nil, false, fmt.Errorf("anthropic: delta for unknown block index %d", evt.Index)
	}
	if evt.Delta.Type == "text_delta" {
		return evt.Delta.Text, true, nil
	}
	// thinking_delta, input_json_delta, signature_delta.
	return nil, true, nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}
