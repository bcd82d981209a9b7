// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile persists the user's library and knowledge profile as
// named, typed slots. The store loads every slot once when opened and
// writes through to its backend on every mutation.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/pkg/types"
)

// Slot keys.
const (
	KeyLibrary        = "homePapers"
	KeyUnderstanding  = "userUnderstanding"
	KeyAbilityLevel   = "userAbilityLevel"
	KeyKnowledgeAreas = "userKnowledgeAreas"
)

// Backend persists raw slot values.
type Backend interface {
	Load(ctx context.Context) (map[string][]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store is the single serialization boundary for profile state. It is
// safe for concurrent use; the last write to a slot wins.
type Store struct {
	mu      sync.Mutex
	backend Backend
	values  map[string][]byte
	subs    map[string]map[int]func([]byte)
	nextSub int
	logger  *zap.Logger
}

// Open loads every slot from b.
func Open(ctx context.Context, b Backend, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	values, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	logger.Debug("profile loaded", zap.Int("slots", len(values)))
	return &Store{
		backend: b,
		values:  values,
		subs:    make(map[string]map[int]func([]byte)),
		logger:  logger,
	}, nil
}

// OpenMemory returns a store backed by process memory.
func OpenMemory() *Store {
	s, _ := Open(context.Background(), NewMemoryBackend(), nil)
	return s
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Keys returns the stored slot keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// update runs fn on the current value of key and persists the result.
// Subscribers are notified after the lock is released.
func (s *Store) update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	s.mu.Lock()
	old, ok := s.values[key]
	next, err := fn(old, ok)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.backend.Save(ctx, key, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	s.values[key] = next
	subs := make([]func([]byte), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("profile slot written", zap.String("key", key), zap.Int("bytes", len(next)))
	for _, fn := range subs {
		fn(next)
	}
	return nil
}

// Reset deletes a slot so that its default applies again.
func (s *Store) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	if err := s.backend.Delete(ctx, key); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.values, key)
	subs := make([]func([]byte), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

func (s *Store) subscribe(key string, fn func([]byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func([]byte))
	}
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// Slot is a typed handle on one named value. Values are JSON encoded, so
// every Get returns an independent copy.
type Slot[T any] struct {
	store *Store
	key   string
	def   func() T
}

// NewSlot binds key in s to type T. def supplies the value returned when
// the slot is unset or unreadable.
func NewSlot[T any](s *Store, key string, def func() T) Slot[T] {
	return Slot[T]{store: s, key: key, def: def}
}

// Key returns the slot name.
func (sl Slot[T]) Key() string { return sl.key }

func (sl Slot[T]) decode(data []byte, ok bool) T {
	if !ok || len(data) == 0 || string(data) == "null" {
		return sl.def()
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		sl.store.logger.Warn("discarding unreadable profile slot", zap.String("key", sl.key), zap.Error(err))
		return sl.def()
	}
	return v
}

// Get returns the current value, or the default when unset.
func (sl Slot[T]) Get() T {
	data, ok := sl.store.raw(sl.key)
	return sl.decode(data, ok)
}

// Set replaces the value and flushes it to the backend.
func (sl Slot[T]) Set(ctx context.Context, v T) error {
	return sl.store.update(ctx, sl.key, func([]byte, bool) ([]byte, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", sl.key, err)
		}
		return data, nil
	})
}

// Update applies fn to the current value atomically and flushes the result.
func (sl Slot[T]) Update(ctx context.Context, fn func(T) T) error {
	return sl.store.update(ctx, sl.key, func(old []byte, ok bool) ([]byte, error) {
		data, err := json.Marshal(fn(sl.decode(old, ok)))
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", sl.key, err)
		}
		return data, nil
	})
}

// Subscribe calls fn with every new value of the slot. The returned
// function removes the subscription.
func (sl Slot[T]) Subscribe(fn func(T)) func() {
	return sl.store.subscribe(sl.key, func(data []byte) {
		fn(sl.decode(data, data != nil))
	})
}

// Profile groups the slots the application uses.
type Profile struct {
	Store          *Store
	Library        Slot[[]types.Paper]
	Understanding  Slot[types.UnderstandingRecord]
	AbilityLevel   Slot[int]
	KnowledgeAreas Slot[types.KnowledgeAreas]
}

// NewProfile binds the application slots on s.
func NewProfile(s *Store) *Profile {
	return &Profile{
		Store:          s,
		Library:        NewSlot(s, KeyLibrary, func() []types.Paper { return []types.Paper{} }),
		Understanding:  NewSlot(s, KeyUnderstanding, func() types.UnderstandingRecord { return types.UnderstandingRecord{} }),
		AbilityLevel:   NewSlot(s, KeyAbilityLevel, func() int { return types.DefaultAbilityLevel }),
		KnowledgeAreas: NewSlot(s, KeyKnowledgeAreas, func() types.KnowledgeAreas { return types.KnowledgeAreas{} }),
	}
}
