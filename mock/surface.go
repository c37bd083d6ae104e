package mock

import "github.com/fwojciec/chatstream"

// Surface is a test double for chatstream.Surface.
// Set RenderFn before calling Render.
type Surface struct {
	RenderFn func(u chatstream.MessageUpdate) error
}

// Render delegates to RenderFn.
func (s *Surface) Render(u chatstream.MessageUpdate) error {
	return s.RenderFn(u)
}

// Renderer is a test double for chatstream.Renderer.
type Renderer struct {
	RenderUpdateFn func(u chatstream.MessageUpdate) error
}

// RenderUpdate delegates to RenderUpdateFn.
func (r *Renderer) RenderUpdate(u chatstream.MessageUpdate) error {
	return r.RenderUpdateFn(u)
}
