package anthropic_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/anthropic"
	"github.com/fwojciec/chatstream/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseResponse is a helper to build SSE responses for tests.
type sseResponse struct {
	events []sseEvent
}

type sseEvent struct {
	event string
	data  string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, evt := range s.events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.event, evt.data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

const messageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`

// textStreamResponse returns a simple text streaming SSE response.
func textStreamResponse() sseResponse {
	return sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"ping", `{"type":"ping"}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}
}

func prompt(text string) chatstream.Request {
	return chatstream.Request{Messages: []chatstream.MessageUpdate{
		chatstream.NewUpdate(chatstream.Message{Text: text, IsUser: true}),
	}}
}

func streamFromSSE(t *testing.T, resp sseResponse) chatstream.Source {
	t.Helper()
	srv := httptest.NewServer(resp.handler())
	t.Cleanup(srv.Close)
	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	stream, err := client.Stream(context.Background(), prompt("Hi"))
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func collect(t *testing.T, s chatstream.Source) []any {
	t.Helper()
	var items []any
	for {
		v, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		items = append(items, v)
	}
	return items
}

func TestStream_TextResponse(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())

	items := collect(t, s)

	// Block start and stop come through as nil steps.
	assert.Equal(t, []any{nil, "Hello", " world", nil}, items)

	_, err := s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStream_ThinkingAndToolInputAreNilSteps(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"Let me think..."}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig123"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"The answer is 42."}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":1}`},
		{"content_block_start", `{"type":"content_block_start","index":2,"content_block":{"type":"tool_use","id":"toolu_1","name":"read","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{\"path\":\"a\"}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":2}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":20}}`},
		{"message_stop", `{"type":"message_stop"}`},
	}}

	items := collect(t, streamFromSSE(t, resp))

	require.Len(t, items, 10)
	var text []any
	for _, v := range items {
		if v != nil {
			text = append(text, v)
		}
	}
	assert.Equal(t, []any{"The answer is 42."}, text)
}

func TestStream_ErrorEvent(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`},
	}}
	s := streamFromSSE(t, resp)

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded_error")
	assert.Contains(t, err.Error(), "Overloaded")

	// The terminal error is sticky.
	_, again := s.Next()
	assert.Equal(t, err, again)
}

func TestStream_UnexpectedEOF(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"message_start", messageStart},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`},
	}}
	s := streamFromSSE(t, resp)

	v, err := s.Next()
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "Hel", v)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of stream")
	assert.NotErrorIs(t, err, io.EOF)
}

func TestStream_MalformedJSON(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"content_block_start", `{not json`},
	}}
	_, err := streamFromSSE(t, resp).Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content_block_start")
}

func TestStream_DeltaForUnknownBlock(t *testing.T) {
	t.Parallel()
	resp := sseResponse{events: []sseEvent{
		{"content_block_delta", `{"type":"content_block_delta","index":3,"delta":{"type":"text_delta","text":"x"}}`},
	}}
	_, err := streamFromSSE(t, resp).Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block index 3")
}

func TestStream_NextAfterClose(t *testing.T) {
	t.Parallel()
	s := streamFromSSE(t, textStreamResponse())
	require.NoError(t, s.Close())

	_, err := s.Next()
	assert.ErrorIs(t, err, chatstream.ErrSourceClosed)
}

func TestStream_Cancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: content_block_start\ndata: %s\n\n", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		fmt.Fprintf(w, "event: content_block_delta\ndata: %s\n\n", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial"}}`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := anthropic.New("k", anthropic.WithBaseURL(srv.URL)).Stream(ctx, prompt("hi"))
	require.NoError(t, err)

	// The coalescer sees the context error as cancellation and still
	// finalizes with what arrived.
	rec := &mock.Recorder{}
	c := chatstream.NewCoalescer(chatstream.NewDispatcher(rec))
	src := &mock.Source{
		NextFn: func() (any, error) {
			v, err := s.Next()
			if v == "partial" {
				cancel()
			}
			return v, err
		},
		CloseFn: s.Close,
	}

	text, err := c.Run(ctx, src, chatstream.DefaultConfig())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "partial", text)
	updates := rec.Updates()
	require.NotEmpty(t, updates)
	assert.False(t, updates[len(updates)-1].Partial)
	assert.Equal(t, "partial", updates[len(updates)-1].Text)
}

func TestStream_DrivesCoalescer(t *testing.T) {
	t.Parallel()

	rec := &mock.Recorder{}
	c := chatstream.NewCoalescer(chatstream.NewDispatcher(rec))
	cfg := chatstream.DefaultConfig()
	cfg.Key = "reply"

	text, err := c.Run(context.Background(), streamFromSSE(t, textStreamResponse()), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, []string{"", "Hello", "Hello world", "Hello world"}, rec.Texts())
}
