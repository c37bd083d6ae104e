// Package redis implements chatstream.Store on top of Redis so several
// processes can share the key-addressed state of a conversation.
//
// Updates live in one hash (key -> wire JSON) and first-seen order in one
// list, both under a caller-chosen namespace.
package redis

import (
	"errors"
	"fmt"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/go-redis/redis"
)

// Interface compliance check.
var _ chatstream.Store = (*Store)(nil)

// Store is a Redis-backed chatstream.Store.
type Store struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// NewStore creates a Store keeping its data under namespace.
func NewStore(client *redis.Client, namespace string) *Store {
	return &Store{
		client:   client,
		hashKey:  namespace + ":updates",
		orderKey: namespace + ":order",
	}
}

// Put records u under its key.
func (s *Store) Put(u chatstream.MessageUpdate) error {
	if u.Key == "" {
		return fmt.Errorf("redis: update has no identity key: %w", chatstream.ErrValidation)
	}
	data, err := csjson.MarshalUpdate(u)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	// HSet reports true only when the field is new.
	created, err := s.client.HSet(s.hashKey, u.Key, data).Result()
	if err != nil {
		return fmt.Errorf("redis: hset %q: %w", u.Key, err)
	}
	if created {
		if err := s.client.RPush(s.orderKey, u.Key).Err(); err != nil {
			return fmt.Errorf("redis: rpush %q: %w", u.Key, err)
		}
	}
	return nil
}

// Get returns the last update stored under key.
func (s *Store) Get(key string) (chatstream.MessageUpdate, error) {
	data, err := s.client.HGet(s.hashKey, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return chatstream.MessageUpdate{}, fmt.Errorf("redis: %q: %w", key, chatstream.ErrNotFound)
	}
	if err != nil {
		return chatstream.MessageUpdate{}, fmt.Errorf("redis: hget %q: %w", key, err)
	}
	u, err := csjson.UnmarshalUpdate(data)
	if err != nil {
		return chatstream.MessageUpdate{}, fmt.Errorf("redis: %q: %w", key, err)
	}
	return u, nil
}

// List returns the latest update of every key in first-seen order.
func (s *Store) List() ([]chatstream.MessageUpdate, error) {
	keys, err := s.client.LRange(s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lrange: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.client.HMGet(s.hashKey, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: hmget: %w", err)
	}
	out := make([]chatstream.MessageUpdate, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Order list and hash drifted apart; skip the orphaned key.
			continue
		}
		u, err := csjson.UnmarshalUpdate([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("redis: %q: %w", keys[i], err)
		}
		out = append(out, u)
	}
	return out, nil
}
