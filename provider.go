package chatstream

import "context"

// StreamState indicates the lifecycle position of a provider-backed Source.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before a terminal state.
)

// Provider is a strategy pattern interface for LLM backends. The returned
// Source yields the assistant's reply as text deltas; events that carry no
// visible text (thinking, tool input, block boundaries) come through as nil
// elements so the coalescer sees every step without rendering it.
//
// Cancellation flows through ctx. A cancelled stream returns an error that
// wraps ctx.Err().
type Provider interface {
	Stream(ctx context.Context, req Request) (Source, error)
}
