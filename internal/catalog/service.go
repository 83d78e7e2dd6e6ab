package catalog

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// Service manages therapists and treatments. Removing either never touches
// appointments that reference it.
type Service struct {
	store  *store.Store
	logger *logger.Logger
}

// New creates a catalog service
func New(st *store.Store, log *logger.Logger) *Service {
	return &Service{store: st, logger: log}
}

// ListTherapists returns all therapists in catalog order
func (s *Service) ListTherapists() []types.Therapist {
	return s.store.Therapists()
}

// GetTherapist looks up a therapist by id
func (s *Service) GetTherapist(id string) (*types.Therapist, error) {
	for _, t := range s.store.Therapists() {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "therapist not found: "+id)
}

// TherapistName returns the therapist's name, or "unknown" for a dangling id
func (s *Service) TherapistName(id string) string {
	t, err := s.GetTherapist(id)
	if err != nil {
		return types.UnknownName
	}
	return t.Name
}

// AddTherapist appends a therapist to the catalog
func (s *Service) AddTherapist(ctx context.Context, name string, category types.Category) (*types.Therapist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "therapist name is required", nil)
	}
	category, err := types.ParseCategory(string(category))
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "category"})
	}

	therapist := types.Therapist{
		ID:       "t_" + uuid.New().String(),
		Name:     name,
		Category: category,
	}

	err = s.store.Update(ctx, []types.Slot{types.SlotTherapists}, func(snap *store.Snapshot) error {
		snap.Therapists = append(snap.Therapists, therapist)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(api.ActorID(ctx), "add_therapist", "therapist:"+therapist.ID, true, map[string]interface{}{
		"name":     therapist.Name,
		"category": therapist.Category,
	})
	return &therapist, nil
}

// RemoveTherapist deletes a therapist. Appointments keep the dangling id.
func (s *Service) RemoveTherapist(ctx context.Context, id string) error {
	err := s.store.Update(ctx, []types.Slot{types.SlotTherapists}, func(snap *store.Snapshot) error {
		for i, t := range snap.Therapists {
			if t.ID == id {
				snap.Therapists = append(snap.Therapists[:i], snap.Therapists[i+1:]...)
				return nil
			}
		}
		return types.NewNotFoundError(types.ErrCodeNotFound, "therapist not found: "+id)
	})
	if err != nil {
		return err
	}

	s.logger.Audit(api.ActorID(ctx), "remove_therapist", "therapist:"+id, true, nil)
	return nil
}

// ListTreatments returns the treatments, optionally limited to one category
func (s *Service) ListTreatments(category types.Category) []types.Treatment {
	all := s.store.Treatments()
	if category == "" {
		return all
	}
	filtered := make([]types.Treatment, 0, len(all))
	for _, t := range all {
		if t.Category == category {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// TreatmentsForTherapist returns the treatments a therapist may perform
func (s *Service) TreatmentsForTherapist(therapistID string) ([]types.Treatment, error) {
	therapist, err := s.GetTherapist(therapistID)
	if err != nil {
		return nil, err
	}
	return s.ListTreatments(therapist.Category), nil
}

// GetTreatment looks up a treatment by id
func (s *Service) GetTreatment(id string) (*types.Treatment, error) {
	for _, t := range s.store.Treatments() {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "treatment not found: "+id)
}

// AddTreatment appends a treatment to the catalog
func (s *Service) AddTreatment(ctx context.Context, input *types.TreatmentInput) (*types.Treatment, error) {
	if err := validateTreatmentInput(input); err != nil {
		return nil, err
	}
	category, _ := types.ParseCategory(string(input.Category))

	treatment := types.Treatment{
		ID:              "tr_" + uuid.New().String(),
		Name:            strings.TrimSpace(input.Name),
		Category:        category,
		PatientPrice:    input.PatientPrice,
		TherapistFee:    input.TherapistFee,
		DurationMinutes: input.DurationMinutes,
		Custom:          input.Custom,
	}
	types.NormalizeTreatment(&treatment)

	err := s.store.Update(ctx, []types.Slot{types.SlotTreatments}, func(snap *store.Snapshot) error {
		snap.Treatments = append(snap.Treatments, treatment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(api.ActorID(ctx), "add_treatment", "treatment:"+treatment.ID, true, map[string]interface{}{
		"name":          treatment.Name,
		"category":      treatment.Category,
		"patient_price": treatment.PatientPrice,
		"therapist_fee": treatment.TherapistFee,
		"custom":        treatment.Custom,
	})
	return &treatment, nil
}

// UpdateTreatment changes a treatment's name, pricing or duration. Existing
// appointments keep the amounts captured when they were booked.
func (s *Service) UpdateTreatment(ctx context.Context, id string, updates *types.TreatmentUpdates) (*types.Treatment, error) {
	if err := validateTreatmentUpdates(updates); err != nil {
		return nil, err
	}

	var updated types.Treatment
	err := s.store.Update(ctx, []types.Slot{types.SlotTreatments}, func(snap *store.Snapshot) error {
		for i := range snap.Treatments {
			t := &snap.Treatments[i]
			if t.ID != id {
				continue
			}
			if updates.Name != nil {
				t.Name = strings.TrimSpace(*updates.Name)
			}
			if updates.PatientPrice != nil {
				t.PatientPrice = *updates.PatientPrice
			}
			if updates.TherapistFee != nil {
				t.TherapistFee = *updates.TherapistFee
			}
			if updates.DurationMinutes != nil {
				t.DurationMinutes = *updates.DurationMinutes
			}
			types.NormalizeTreatment(t)
			updated = *t
			return nil
		}
		return types.NewNotFoundError(types.ErrCodeNotFound, "treatment not found: "+id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(api.ActorID(ctx), "update_treatment", "treatment:"+id, true, map[string]interface{}{
		"patient_price": updated.PatientPrice,
		"therapist_fee": updated.TherapistFee,
	})
	return &updated, nil
}

// RemoveTreatment deletes a treatment. Appointments keep the dangling id.
func (s *Service) RemoveTreatment(ctx context.Context, id string) error {
	err := s.store.Update(ctx, []types.Slot{types.SlotTreatments}, func(snap *store.Snapshot) error {
		for i, t := range snap.Treatments {
			if t.ID == id {
				snap.Treatments = append(snap.Treatments[:i], snap.Treatments[i+1:]...)
				return nil
			}
		}
		return types.NewNotFoundError(types.ErrCodeNotFound, "treatment not found: "+id)
	})
	if err != nil {
		return err
	}

	s.logger.Audit(api.ActorID(ctx), "remove_treatment", "treatment:"+id, true, nil)
	return nil
}

func validateTreatmentInput(input *types.TreatmentInput) error {
	if input == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "treatment is required", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "treatment name is required", map[string]interface{}{"field": "name"})
	}
	if _, err := types.ParseCategory(string(input.Category)); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "category"})
	}
	if err := validateAmount("patientPrice", input.PatientPrice); err != nil {
		return err
	}
	if err := validateAmount("therapistFee", input.TherapistFee); err != nil {
		return err
	}
	if input.DurationMinutes <= 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "duration must be positive", map[string]interface{}{"field": "durationMinutes"})
	}
	return nil
}

func validateTreatmentUpdates(updates *types.TreatmentUpdates) error {
	if updates == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "updates are required", nil)
	}
	if updates.Name != nil && strings.TrimSpace(*updates.Name) == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "treatment name cannot be empty", map[string]interface{}{"field": "name"})
	}
	if updates.PatientPrice != nil {
		if err := validateAmount("patientPrice", *updates.PatientPrice); err != nil {
			return err
		}
	}
	if updates.TherapistFee != nil {
		if err := validateAmount("therapistFee", *updates.TherapistFee); err != nil {
			return err
		}
	}
	if updates.DurationMinutes != nil && *updates.DurationMinutes <= 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "duration must be positive", map[string]interface{}{"field": "durationMinutes"})
	}
	return nil
}

func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, field+" must be a finite, non-negative amount", map[string]interface{}{"field": field})
	}
	return nil
}
