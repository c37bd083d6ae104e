package chatstream

import "fmt"

// Dispatcher turns Message parameters into MessageUpdates and forwards each
// one to a Surface. It holds no per-message state.
type Dispatcher struct {
	surface Surface
	store   Store
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithStore makes the dispatcher write every keyed update through store
// before it reaches the surface. Updates without a key are not stored.
func WithStore(store Store) DispatcherOption {
	return func(d *Dispatcher) { d.store = store }
}

// NewDispatcher creates a Dispatcher rendering to surface.
func NewDispatcher(surface Surface, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{surface: surface}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Render builds the update for msg and makes exactly one call to the
// surface. There is no batching, deduplication or validation.
func (d *Dispatcher) Render(msg Message) error {
	return d.RenderUpdate(NewUpdate(msg))
}

// RenderUpdate forwards an already normalized update.
func (d *Dispatcher) RenderUpdate(u MessageUpdate) error {
	if d.store != nil && u.Key != "" {
		if err := d.store.Put(u); err != nil {
			return fmt.Errorf("store %q: %w", u.Key, err)
		}
	}
	if err := d.surface.Render(u); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
