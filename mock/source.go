package mock

// Source is a test double for chatstream.Source.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because Run always closes its source.
type Source struct {
	NextFn  func() (any, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Source) Next() (any, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Source) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
