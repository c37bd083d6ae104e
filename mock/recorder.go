package mock

import (
	"sync"

	"github.com/fwojciec/chatstream"
)

var _ chatstream.Surface = (*Recorder)(nil)

// Recorder is a Surface that keeps every update it receives, in order.
// Err, when set, is returned from every Render after recording.
type Recorder struct {
	Err error

	mu      sync.Mutex
	updates []chatstream.MessageUpdate
}

// Render records u.
func (r *Recorder) Render(u chatstream.MessageUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return r.Err
}

// Updates returns a copy of the recorded updates.
func (r *Recorder) Updates() []chatstream.MessageUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chatstream.MessageUpdate(nil), r.updates...)
}

// Texts returns the Text of every recorded update.
func (r *Recorder) Texts() []string {
	updates := r.Updates()
	texts := make([]string, len(updates))
	for i, u := range updates {
		texts[i] = u.Text
	}
	return texts
}
