package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/trace"

	"github.com/YeyeJames/jiale15/pkg/interfaces"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// Snapshot is the complete clinic state: four ordered collections
type Snapshot struct {
	Therapists   []types.Therapist
	Treatments   []types.Treatment
	Appointments []types.Appointment
	Accounts     []types.Account
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() Snapshot {
	var out Snapshot
	if err := copier.CopyWithOption(&out, s, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which a Snapshot cannot have
		panic(fmt.Sprintf("store: clone snapshot: %v", err))
	}
	return out
}

// Store holds the in-memory snapshot and is the single writer of all
// collections. Every mutation runs on a copy, is persisted, and only then
// becomes visible.
type Store struct {
	mu          sync.RWMutex
	snap        Snapshot
	persistence interfaces.Persistence
	logger      *logger.Logger
	metrics     *monitoring.MetricsCollector
	tracing     *monitoring.TracingManager
}

// Option configures a Store
type Option func(*Store)

// WithMetrics records persistence latency on m
func WithMetrics(m *monitoring.MetricsCollector) Option {
	return func(s *Store) { s.metrics = m }
}

// WithTracing wraps persistence calls in spans
func WithTracing(t *monitoring.TracingManager) Option {
	return func(s *Store) { s.tracing = t }
}

// Open loads every slot from p. A slot that was never written, or whose
// payload is empty, starts from the matching seed collection.
func Open(ctx context.Context, p interfaces.Persistence, seed Snapshot, log *logger.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		persistence: p,
		logger:      log,
	}
	for _, opt := range opts {
		opt(s)
	}

	seed = seed.Clone()
	for _, slot := range types.AllSlots {
		payload, ok, err := p.Load(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("failed to load slot %s: %w", slot, err)
		}
		if !ok || isEmptyPayload(payload) {
			log.WithField("slot", slot).Info("Slot empty, using seed data")
			copySlot(&s.snap, &seed, slot)
			continue
		}
		if err := decodeSlot(&s.snap, slot, payload); err != nil {
			return nil, fmt.Errorf("failed to decode slot %s: %w", slot, err)
		}
	}

	for i := range s.snap.Treatments {
		types.NormalizeTreatment(&s.snap.Treatments[i])
	}

	log.WithFields(map[string]interface{}{
		"therapists":   len(s.snap.Therapists),
		"treatments":   len(s.snap.Treatments),
		"appointments": len(s.snap.Appointments),
		"accounts":     len(s.snap.Accounts),
	}).Info("Store loaded")

	return s, nil
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Therapists returns a copy of the therapist collection
func (s *Store) Therapists() []types.Therapist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Therapist(nil), s.snap.Therapists...)
}

// Treatments returns a copy of the treatment collection
func (s *Store) Treatments() []types.Treatment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Treatment(nil), s.snap.Treatments...)
}

// Appointments returns a copy of the appointment collection
func (s *Store) Appointments() []types.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Appointment(nil), s.snap.Appointments...)
}

// Accounts returns a copy of the account collection
func (s *Store) Accounts() []types.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Account(nil), s.snap.Accounts...)
}

// Counts reports the number of records per slot
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		string(types.SlotTherapists):   len(s.snap.Therapists),
		string(types.SlotTreatments):   len(s.snap.Treatments),
		string(types.SlotAppointments): len(s.snap.Appointments),
		string(types.SlotAccounts):     len(s.snap.Accounts),
	}
}

// Update runs fn against a copy of the state. When fn succeeds the listed
// slots are persisted together and swapped in; on any error the current
// state is left as it was. Changes fn makes to unlisted slots are discarded.
func (s *Store) Update(ctx context.Context, slots []types.Slot, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	payloads := make(map[types.Slot][]byte, len(slots))
	for _, slot := range slots {
		payload, err := encodeSlot(&next, slot)
		if err != nil {
			return types.NewInternalError(types.ErrCodePersistenceFailed, "failed to encode "+string(slot), err)
		}
		payloads[slot] = payload
	}

	if err := s.persist(ctx, payloads); err != nil {
		return types.NewInternalError(types.ErrCodePersistenceFailed, "failed to persist changes", err)
	}

	for _, slot := range slots {
		copySlot(&s.snap, &next, slot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, payloads map[types.Slot][]byte) error {
	names := make([]string, 0, len(payloads))
	for slot := range payloads {
		names = append(names, string(slot))
	}

	if s.tracing != nil {
		var span trace.Span
		ctx, span = s.tracing.StartPersistenceSpan(ctx, "save_all", names)
		defer span.End()
	}

	start := time.Now()
	err := s.persistence.SaveAll(ctx, payloads)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordPersist(duration, err == nil)
	}
	s.logger.DatabaseOperation(ctx, "save_all", "collections", duration.Milliseconds(), int64(len(payloads)), err == nil,
		map[string]interface{}{"slots": names})

	return err
}

// Health probes the persistence backend when it supports probing
func (s *Store) Health() error {
	if hr, ok := s.persistence.(interfaces.HealthReporter); ok {
		return hr.Health()
	}
	return nil
}

// Close releases the persistence backend
func (s *Store) Close() error {
	return s.persistence.Close()
}

func isEmptyPayload(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func copySlot(dst, src *Snapshot, slot types.Slot) {
	switch slot {
	case types.SlotTherapists:
		dst.Therapists = src.Therapists
	case types.SlotTreatments:
		dst.Treatments = src.Treatments
	case types.SlotAppointments:
		dst.Appointments = src.Appointments
	case types.SlotAccounts:
		dst.Accounts = src.Accounts
	}
}

func encodeSlot(snap *Snapshot, slot types.Slot) ([]byte, error) {
	var v interface{}
	switch slot {
	case types.SlotTherapists:
		v = nonNil(snap.Therapists)
	case types.SlotTreatments:
		v = nonNil(snap.Treatments)
	case types.SlotAppointments:
		v = nonNil(snap.Appointments)
	case types.SlotAccounts:
		v = nonNil(snap.Accounts)
	default:
		return nil, fmt.Errorf("unknown slot %q", slot)
	}
	return json.Marshal(v)
}

func decodeSlot(snap *Snapshot, slot types.Slot, payload []byte) error {
	switch slot {
	case types.SlotTherapists:
		return json.Unmarshal(payload, &snap.Therapists)
	case types.SlotTreatments:
		return json.Unmarshal(payload, &snap.Treatments)
	case types.SlotAppointments:
		return json.Unmarshal(payload, &snap.Appointments)
	case types.SlotAccounts:
		return json.Unmarshal(payload, &snap.Accounts)
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
}

// nonNil makes empty collections encode as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
