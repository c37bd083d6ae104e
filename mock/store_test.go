package mock_test

import (
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	saved := map[string]chatstream.MessageUpdate{}
	s := &mock.Store{
		PutFn: func(u chatstream.MessageUpdate) error {
			saved[u.Key] = u
			return nil
		},
		GetFn: func(key string) (chatstream.MessageUpdate, error) {
			u, ok := saved[key]
			if !ok {
				return chatstream.MessageUpdate{}, chatstream.ErrNotFound
			}
			return u, nil
		},
		ListFn: func() ([]chatstream.MessageUpdate, error) {
			return []chatstream.MessageUpdate{saved["k"]}, nil
		},
	}

	require.NoError(t, s.Put(chatstream.MessageUpdate{Key: "k", Text: "hi"}))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Text)
	_, err = s.Get("missing")
	assert.ErrorIs(t, err, chatstream.ErrNotFound)
	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
