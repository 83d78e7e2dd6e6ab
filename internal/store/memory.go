package store

import (
	"context"
	"sync"

	"github.com/YeyeJames/jiale15/pkg/types"
)

// MemoryPersistence keeps slots in process memory. Nothing survives a restart.
type MemoryPersistence struct {
	mu    sync.Mutex
	slots map[types.Slot][]byte
}

// NewMemoryPersistence creates an empty in-memory backend
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{slots: make(map[types.Slot][]byte)}
}

// Load returns a copy of the stored payload
func (m *MemoryPersistence) Load(ctx context.Context, slot types.Slot) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload, ok := m.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

// SaveAll replaces every given slot
func (m *MemoryPersistence) SaveAll(ctx context.Context, payloads map[types.Slot][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for slot, payload := range payloads {
		m.slots[slot] = append([]byte(nil), payload...)
	}
	return nil
}

// Close is a no-op
func (m *MemoryPersistence) Close() error {
	return nil
}
