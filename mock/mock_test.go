package mock_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/fwojciec/chatstream/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurface_Render(t *testing.T) {
	t.Parallel()

	var got chatstream.MessageUpdate
	s := &mock.Surface{RenderFn: func(u chatstream.MessageUpdate) error {
		got = u
		return nil
	}}
	require.NoError(t, s.Render(chatstream.MessageUpdate{Text: "hi"}))
	assert.Equal(t, "hi", got.Text)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	t.Run("records updates in order", func(t *testing.T) {
		t.Parallel()
		r := &mock.Recorder{}
		require.NoError(t, r.Render(chatstream.MessageUpdate{Text: "a"}))
		require.NoError(t, r.Render(chatstream.MessageUpdate{Text: "ab"}))
		assert.Equal(t, []string{"a", "ab"}, r.Texts())
	})

	t.Run("returns configured error after recording", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("surface down")
		r := &mock.Recorder{Err: wantErr}
		assert.ErrorIs(t, r.Render(chatstream.MessageUpdate{Text: "a"}), wantErr)
		assert.Len(t, r.Updates(), 1)
	})
}
