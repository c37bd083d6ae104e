package mock

import "github.com/fwojciec/chatstream"

// Store is a test double for chatstream.Store.
type Store struct {
	PutFn  func(u chatstream.MessageUpdate) error
	GetFn  func(key string) (chatstream.MessageUpdate, error)
	ListFn func() ([]chatstream.MessageUpdate, error)
}

// Put delegates to PutFn.
func (s *Store) Put(u chatstream.MessageUpdate) error {
	return s.PutFn(u)
}

// Get delegates to GetFn.
func (s *Store) Get(key string) (chatstream.MessageUpdate, error) {
	return s.GetFn(key)
}

// List delegates to ListFn.
func (s *Store) List() ([]chatstream.MessageUpdate, error) {
	return s.ListFn()
}
