package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// MockPersistence is a mock implementation of interfaces.Persistence
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Load(ctx context.Context, slot types.Slot) ([]byte, bool, error) {
	args := m.Called(ctx, slot)
	var payload []byte
	if args.Get(0) != nil {
		payload = args.Get(0).([]byte)
	}
	return payload, args.Bool(1), args.Error(2)
}

func (m *MockPersistence) SaveAll(ctx context.Context, payloads map[types.Slot][]byte) error {
	args := m.Called(ctx, payloads)
	return args.Error(0)
}

func (m *MockPersistence) Close() error {
	args := m.Called()
	return args.Error(0)
}

func openMemory(t *testing.T) (*Store, *MemoryPersistence) {
	t.Helper()
	p := NewMemoryPersistence()
	s, err := Open(context.Background(), p, DefaultSeed(), logger.Discard())
	require.NoError(t, err)
	return s, p
}

func TestOpen_FallsBackToSeed(t *testing.T) {
	s, _ := openMemory(t)

	assert.Len(t, s.Therapists(), 4)
	assert.Len(t, s.Treatments(), 10)
	assert.Empty(t, s.Appointments())
	assert.Len(t, s.Accounts(), 2)
}

func TestOpen_UsesStoredSlotsAndNormalizesLegacyData(t *testing.T) {
	p := NewMemoryPersistence()
	legacy := `[{"id":"x1","name":"其他","category":"心理","patientPrice":0,"therapistFee":0,"durationMinutes":30}]`
	require.NoError(t, p.SaveAll(context.Background(), map[types.Slot][]byte{
		types.SlotTreatments: []byte(legacy),
		types.SlotTherapists: []byte("  "),
	}))

	s, err := Open(context.Background(), p, DefaultSeed(), logger.Discard())
	require.NoError(t, err)

	treatments := s.Treatments()
	require.Len(t, treatments, 1)
	assert.True(t, treatments[0].Custom)
	assert.Equal(t, types.CategoryPsychology, treatments[0].Category)
	assert.Len(t, s.Therapists(), 4, "blank slot falls back to seed")
}

func TestOpen_LoadError(t *testing.T) {
	p := new(MockPersistence)
	p.On("Load", mock.Anything, types.SlotTherapists).Return(nil, false, errors.New("disk gone"))

	_, err := Open(context.Background(), p, DefaultSeed(), logger.Discard())
	assert.Error(t, err)
	p.AssertExpectations(t)
}

func TestOpen_CorruptSlot(t *testing.T) {
	p := NewMemoryPersistence()
	require.NoError(t, p.SaveAll(context.Background(), map[types.Slot][]byte{
		types.SlotAppointments: []byte("{nope"),
	}))

	_, err := Open(context.Background(), p, DefaultSeed(), logger.Discard())
	assert.Error(t, err)
}

func TestUpdate_PersistsListedSlots(t *testing.T) {
	s, p := openMemory(t)

	err := s.Update(context.Background(), []types.Slot{types.SlotTherapists}, func(snap *Snapshot) error {
		snap.Therapists = append(snap.Therapists, types.Therapist{ID: "t9", Name: "New", Category: types.CategoryRTMS})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, s.Therapists(), 5)

	payload, ok, err := p.Load(context.Background(), types.SlotTherapists)
	require.NoError(t, err)
	require.True(t, ok)
	var stored []types.Therapist
	require.NoError(t, json.Unmarshal(payload, &stored))
	assert.Len(t, stored, 5)

	_, ok, _ = p.Load(context.Background(), types.SlotAppointments)
	assert.False(t, ok, "unlisted slot is not written")
}

func TestUpdate_FnErrorLeavesStateUntouched(t *testing.T) {
	s, _ := openMemory(t)
	before := s.Snapshot()

	err := s.Update(context.Background(), []types.Slot{types.SlotTherapists}, func(snap *Snapshot) error {
		snap.Therapists = nil
		return types.NewValidationError(types.ErrCodeInvalidInput, "nope", nil)
	})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.Equal(t, before, s.Snapshot())
}

func TestUpdate_PersistFailureLeavesStateUntouched(t *testing.T) {
	p := new(MockPersistence)
	p.On("Load", mock.Anything, mock.Anything).Return(nil, false, nil)
	p.On("SaveAll", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	metrics := monitoring.NewMetricsCollector("test")
	s, err := Open(context.Background(), p, DefaultSeed(), logger.Discard(), WithMetrics(metrics))
	require.NoError(t, err)
	before := s.Snapshot()

	err = s.Update(context.Background(), []types.Slot{types.SlotAppointments}, func(snap *Snapshot) error {
		snap.Appointments = append(snap.Appointments, types.Appointment{ID: "apt_1"})
		return nil
	})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeInternal))
	assert.Equal(t, before, s.Snapshot())
	p.AssertExpectations(t)
}

func TestUpdate_DiscardsUnlistedChanges(t *testing.T) {
	s, _ := openMemory(t)

	err := s.Update(context.Background(), []types.Slot{types.SlotAppointments}, func(snap *Snapshot) error {
		snap.Therapists = nil
		snap.Appointments = append(snap.Appointments, types.Appointment{ID: "apt_1"})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, s.Therapists(), 4)
	assert.Len(t, s.Appointments(), 1)
}

func TestSnapshot_ReturnsIndependentCopy(t *testing.T) {
	s, _ := openMemory(t)

	snap := s.Snapshot()
	snap.Therapists[0].Name = "changed"
	snap.Accounts = nil

	therapists := s.Therapists()
	therapists[1].Name = "changed too"

	fresh := s.Snapshot()
	assert.Equal(t, "Chen (Psychologist)", fresh.Therapists[0].Name)
	assert.Equal(t, "Lin (Physiotherapist)", fresh.Therapists[1].Name)
	assert.Len(t, fresh.Accounts, 2)
}

func TestCounts(t *testing.T) {
	s, _ := openMemory(t)
	counts := s.Counts()
	assert.Equal(t, 4, counts["therapists"])
	assert.Equal(t, 10, counts["treatments"])
	assert.Equal(t, 0, counts["appointments"])
	assert.Equal(t, 2, counts["users"])
}

func TestEncodeSlot_EmptyIsArray(t *testing.T) {
	payload, err := encodeSlot(&Snapshot{}, types.SlotAppointments)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestHealth_WithoutProbe(t *testing.T) {
	s, _ := openMemory(t)
	assert.NoError(t, s.Health())
}
