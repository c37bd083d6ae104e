package gemini

import (
	"context"
	"iter"

	"github.com/fwojciec/chatstream"
	"google.golang.org/genai"
)

// NewStreamFromIter exposes newStream for black-box tests.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) chatstream.Source {
	return newStream(ctx, seq)
}
