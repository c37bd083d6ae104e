package json

import (
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/chatstream"
)

// Interface compliance check.
var _ chatstream.Surface = (*Surface)(nil)

// Surface writes every update as one line of JSON (NDJSON) to w.
// It is safe for concurrent use; lines are never interleaved.
type Surface struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSurface creates a Surface writing to w.
func NewSurface(w io.Writer) *Surface {
	return &Surface{w: w}
}

// Render writes u followed by a newline.
func (s *Surface) Render(u chatstream.MessageUpdate) error {
	data, err := MarshalUpdate(u)
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	data = append(data, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("json: write: %w", err)
	}
	return nil
}
