package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type stateStore interface {
	redis.KV
	CartKey(userID string) string
}

// Store persists one cart state per customer as JSON in Redis.
type Store struct {
	kv  stateStore
	ttl time.Duration
}

// NewStore builds a Store; ttl 0 keeps carts until cleared.
func NewStore(kv stateStore, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// Load returns the empty state when nothing is stored.
func (s *Store) Load(ctx context.Context, userID string) (State, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return State{Items: []Item{}}, nil
		}
		return State{}, fmt.Errorf("load cart: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("decode cart: %w", err)
	}
	if state.Items == nil {
		state.Items = []Item{}
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, userID string, state State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(userID), string(encoded), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(userID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
