// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"context"
	"sync"
)

// MemoryBackend keeps slots in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[string][]byte)}
}

// Load returns a copy of every slot.
func (b *MemoryBackend) Load(context.Context) (map[string][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]byte, len(b.slots))
	for k, v := range b.slots {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// Save stores a copy of value.
func (b *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes one slot.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.slots, key)
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }
