package chatstream

// Surface is the rendering surface that displays chat bubbles.
//
// Render is invoked once per MessageUpdate and must observe calls in the
// order they are issued. Updates sharing a non-empty Key describe the same
// logical bubble; an update with an empty Key is an independent render.
// The returned error is propagated to the caller untouched; the core never
// retries.
type Surface interface {
	Render(u MessageUpdate) error
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(u MessageUpdate) error

// Render calls f(u).
func (f SurfaceFunc) Render(u MessageUpdate) error { return f(u) }

// Store makes the surface's key-addressed state explicit: it maps an
// identity key to the last update rendered under it.
//
// Get returns ErrNotFound for unknown keys. List returns the latest update
// of every key in the order keys were first seen.
type Store interface {
	Put(u MessageUpdate) error
	Get(key string) (MessageUpdate, error)
	List() ([]MessageUpdate, error)
}

// Interface compliance check.
var _ Surface = SurfaceFunc(nil)
