package mock_test

import (
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/chatstream/mock"
	"github.com/stretchr/testify/assert"
)

func TestSource(t *testing.T) {
	t.Parallel()

	t.Run("delegates to NextFn", func(t *testing.T) {
		t.Parallel()
		s := &mock.Source{NextFn: func() (any, error) { return nil, io.EOF }}
		_, err := s.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("panics when NextFn not set", func(t *testing.T) {
		t.Parallel()
		s := &mock.Source{}
		assert.Panics(t, func() { _, _ = s.Next() })
	})

	t.Run("close is nil-safe", func(t *testing.T) {
		t.Parallel()
		s := &mock.Source{}
		assert.NoError(t, s.Close())
	})

	t.Run("close delegates to CloseFn", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("close error")
		s := &mock.Source{CloseFn: func() error { return wantErr }}
		assert.ErrorIs(t, s.Close(), wantErr)
	})
}
