package chatstream

import (
	"context"
	"fmt"
	"io"
	"iter"
	"reflect"
	"time"

	"github.com/rivo/uniseg"
)

// Source is a pull-based sequence of text deltas.
//
// Next returns the next element, or io.EOF once the source is exhausted;
// exhaustion is the only termination signal. A nil element means "no
// content this step" and is skipped by consumers. Non-string elements are
// coerced with DeltaText. Any other error is a source failure.
//
// Close releases the source. Next after Close returns ErrSourceClosed.
type Source interface {
	Next() (any, error)
	Close() error
}

// DeltaText coerces a pulled element to text. It returns false for the nil
// sentinel, including typed nil pointers of any type.
func DeltaText(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", false
	}
	switch d := v.(type) {
	case string:
		return d, true
	case *string:
		return *d, true
	case []byte:
		return string(d), true
	case fmt.Stringer:
		return d.String(), true
	default:
		return fmt.Sprint(d), true
	}
}

// FromSlice returns a source yielding elems in order.
func FromSlice(elems ...any) Source {
	return &sliceSource{elems: elems}
}

type sliceSource struct {
	elems  []any
	pos    int
	closed bool
}

func (s *sliceSource) Next() (any, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.pos >= len(s.elems) {
		return nil, io.EOF
	}
	v := s.elems[s.pos]
	s.pos++
	return v, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// FromSeq adapts a push iterator to a Source using iter.Pull.
func FromSeq[T any](seq iter.Seq[T]) Source {
	next, stop := iter.Pull(seq)
	return &seqSource{
		pull: func() (any, error, bool) {
			v, ok := next()
			return v, nil, ok
		},
		stop: stop,
	}
}

// FromSeq2 adapts an error-carrying iterator, such as the ones returned by
// streaming SDK clients, to a Source. A non-nil error fails the source.
func FromSeq2[T any](seq iter.Seq2[T, error]) Source {
	next, stop := iter.Pull2(seq)
	return &seqSource{
		pull: func() (any, error, bool) {
			v, err, ok := next()
			return v, err, ok
		},
		stop: stop,
	}
}

type seqSource struct {
	pull   func() (any, error, bool)
	stop   func()
	closed bool
}

func (s *seqSource) Next() (any, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	v, err, ok := s.pull()
	if !ok {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *seqSource) Close() error {
	if !s.closed {
		s.closed = true
		s.stop()
	}
	return nil
}

// FromChannel returns a source reading deltas from ch until it is closed.
// Next returns ctx.Err() once ctx is done.
func FromChannel(ctx context.Context, ch <-chan string) Source {
	return &chanSource{ctx: ctx, ch: ch}
}

type chanSource struct {
	ctx    context.Context
	ch     <-chan string
	closed bool
}

func (s *chanSource) Next() (any, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	select {
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	case d, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return d, nil
	}
}

func (s *chanSource) Close() error {
	s.closed = true
	return nil
}

// Graphemes returns a source yielding text one grapheme cluster at a time,
// pausing delay after each cluster. It simulates a token stream for demos.
func Graphemes(text string, delay time.Duration) Source {
	return FromSeq(func(yield func(string) bool) {
		g := uniseg.NewGraphemes(text)
		for g.Next() {
			if !yield(g.Str()) {
				return
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
	})
}

// Interface compliance checks.
var (
	_ Source = (*sliceSource)(nil)
	_ Source = (*seqSource)(nil)
	_ Source = (*chanSource)(nil)
)
