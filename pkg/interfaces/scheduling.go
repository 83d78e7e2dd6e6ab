package interfaces

import (
	"context"

	"github.com/YeyeJames/jiale15/pkg/types"
)

// Persistence stores each entity collection as one opaque JSON payload per slot
type Persistence interface {
	// Load returns the payload of a slot. ok is false when the slot has
	// never been written.
	Load(ctx context.Context, slot types.Slot) (payload []byte, ok bool, err error)

	// SaveAll writes every given slot or none of them
	SaveAll(ctx context.Context, payloads map[types.Slot][]byte) error

	Close() error
}

// HealthReporter is implemented by persistence backends that can be probed
type HealthReporter interface {
	Health() error
}
