package scheduling

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// transitions lists, per current status, the actions allowed and the status
// they lead to. Delete is accepted from every status and handled separately.
var transitions = map[types.AppointmentStatus]map[types.Action]types.AppointmentStatus{
	types.StatusScheduled: {
		types.ActionCheckIn: types.StatusCompleted,
		types.ActionCancel:  types.StatusCancelled,
	},
	types.StatusCompleted: {
		types.ActionReset: types.StatusScheduled,
	},
	types.StatusCancelled: {
		types.ActionReset: types.StatusScheduled,
	},
}

// ScheduleEntry is an appointment with its therapist and treatment names resolved
type ScheduleEntry struct {
	types.Appointment
	TherapistName string `json:"therapistName"`
	TreatmentName string `json:"treatmentName"`
}

// Service is the appointment lifecycle engine
type Service struct {
	store   *store.Store
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	now     func() time.Time
}

// New creates a scheduling service. metrics may be nil.
func New(st *store.Store, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		store:   st,
		logger:  log,
		metrics: metrics,
		now:     time.Now,
	}
}

// CreateAppointment books an appointment, capturing its price and fee
func (s *Service) CreateAppointment(ctx context.Context, draft *types.AppointmentDraft) (*types.Appointment, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	var apt types.Appointment
	err := s.store.Update(ctx, []types.Slot{types.SlotAppointments}, func(snap *store.Snapshot) error {
		therapist := findTherapist(snap.Therapists, draft.TherapistID)
		if therapist == nil {
			return types.NewValidationError(types.ErrCodeValidationFailed, "therapist does not exist", map[string]interface{}{"therapistId": draft.TherapistID})
		}
		treatment := findTreatment(snap.Treatments, draft.TreatmentID)
		if treatment == nil {
			return types.NewValidationError(types.ErrCodeValidationFailed, "treatment does not exist", map[string]interface{}{"treatmentId": draft.TreatmentID})
		}
		if treatment.Category != therapist.Category {
			return types.NewValidationError(types.ErrCodeValidationFailed, "treatment category does not match therapist", map[string]interface{}{
				"therapistCategory": therapist.Category,
				"treatmentCategory": treatment.Category,
			})
		}

		price, fee, err := resolvePricing(treatment, draft)
		if err != nil {
			return err
		}

		apt = types.Appointment{
			ID:           "apt_" + uuid.New().String(),
			PatientName:  strings.TrimSpace(draft.PatientName),
			PatientPhone: strings.TrimSpace(draft.PatientPhone),
			Date:         draft.Date,
			Time:         draft.Time,
			TherapistID:  therapist.ID,
			TreatmentID:  treatment.ID,
			Status:       types.StatusScheduled,
			PatientPrice: price,
			TherapistFee: fee,
			PaidAmount:   0,
			IsPaid:       false,
			Notes:        strings.TrimSpace(draft.Notes),
			CreatedAt:    s.now().UnixMilli(),
		}
		snap.Appointments = append(snap.Appointments, apt)
		return nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Debug("Appointment rejected")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAppointmentCreated(string(pricingKind(draft)))
	}
	s.logger.Audit(api.ActorID(ctx), "create_appointment", "appointment:"+apt.ID, true, map[string]interface{}{
		"date":          apt.Date,
		"time":          apt.Time,
		"therapist_id":  apt.TherapistID,
		"treatment_id":  apt.TreatmentID,
		"patient_price": apt.PatientPrice,
		"therapist_fee": apt.TherapistFee,
	})
	return &apt, nil
}

// GetAppointment returns one appointment
func (s *Service) GetAppointment(id string) (*types.Appointment, error) {
	for _, apt := range s.store.Appointments() {
		if apt.ID == id {
			apt := apt
			return &apt, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
}

// Transition applies a lifecycle action. A non-nil notes replaces the
// appointment's notes. The returned appointment is nil after a delete.
func (s *Service) Transition(ctx context.Context, id string, action types.Action, notes *string) (*types.Appointment, error) {
	switch action {
	case types.ActionCheckIn, types.ActionCancel, types.ActionReset, types.ActionDelete:
	default:
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown action", map[string]interface{}{"action": action})
	}

	var (
		result *types.Appointment
		from   types.AppointmentStatus
	)
	err := s.store.Update(ctx, []types.Slot{types.SlotAppointments}, func(snap *store.Snapshot) error {
		idx := -1
		for i := range snap.Appointments {
			if snap.Appointments[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
		}

		apt := &snap.Appointments[idx]
		from = apt.Status

		if action == types.ActionDelete {
			snap.Appointments = append(snap.Appointments[:idx], snap.Appointments[idx+1:]...)
			return nil
		}

		next, ok := transitions[apt.Status][action]
		if !ok {
			return types.NewConflictError(types.ErrCodeInvalidTransition, "action not allowed from current status", map[string]interface{}{
				"status": apt.Status,
				"action": action,
			})
		}

		apt.Status = next
		switch action {
		case types.ActionCheckIn:
			apt.IsPaid = true
			apt.PaidAmount = apt.PatientPrice
		case types.ActionReset:
			apt.IsPaid = false
			apt.PaidAmount = 0
		}
		if notes != nil {
			apt.Notes = *notes
		}

		updated := *apt
		result = &updated
		return nil
	})

	if s.metrics != nil {
		s.metrics.RecordTransition(string(action), err == nil)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Audit(api.ActorID(ctx), string(action), "appointment:"+id, true, map[string]interface{}{
		"from": from,
	})
	return result, nil
}

// DeleteAppointment permanently removes an appointment
func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.Transition(ctx, id, types.ActionDelete, nil)
	return err
}

// DaySchedule returns the appointments on date ordered by time. The unpaid
// filter keeps appointments not yet paid that are not cancelled.
func (s *Service) DaySchedule(date string, filter types.ScheduleFilter) ([]ScheduleEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	switch filter {
	case "", types.FilterAll, types.FilterUnpaid:
	default:
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown filter", map[string]interface{}{"filter": filter})
	}

	snap := s.store.Snapshot()
	entries := make([]ScheduleEntry, 0)
	for _, apt := range snap.Appointments {
		if apt.Date != date {
			continue
		}
		if filter == types.FilterUnpaid && (apt.IsPaid || apt.Status == types.StatusCancelled) {
			continue
		}
		entries = append(entries, ScheduleEntry{
			Appointment:   apt,
			TherapistName: therapistName(snap.Therapists, apt.TherapistID),
			TreatmentName: treatmentName(snap.Treatments, apt.TreatmentID),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time != entries[j].Time {
			return entries[i].Time < entries[j].Time
		}
		return entries[i].CreatedAt < entries[j].CreatedAt
	})
	return entries, nil
}

// DailySummary totals one day's schedule
func (s *Service) DailySummary(date string) (*types.DailyStats, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	stats := &types.DailyStats{Date: date}
	for _, apt := range s.store.Appointments() {
		if apt.Date != date {
			continue
		}
		stats.TotalAppointments++
		if apt.IsPaid {
			stats.TotalRevenue += apt.PaidAmount
		}
		if apt.Status == types.StatusCompleted {
			stats.Completed++
			stats.EstimatedCommission += apt.TherapistFee
		}
	}
	return stats, nil
}

func validateDraft(draft *types.AppointmentDraft) error {
	if draft == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "appointment is required", nil)
	}
	if strings.TrimSpace(draft.PatientName) == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "patient name is required", map[string]interface{}{"field": "patientName"})
	}
	if err := validateDate(draft.Date); err != nil {
		return err
	}
	if len(draft.Time) != len(timeLayout) {
		return types.NewValidationError(types.ErrCodeInvalidInput, "time must be HH:MM", map[string]interface{}{"field": "time"})
	}
	if _, err := time.Parse(timeLayout, draft.Time); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "time must be HH:MM", map[string]interface{}{"field": "time"})
	}
	if draft.TherapistID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "therapist is required", map[string]interface{}{"field": "therapistId"})
	}
	if draft.TreatmentID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "treatment is required", map[string]interface{}{"field": "treatmentId"})
	}
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "date must be a calendar date in YYYY-MM-DD form", map[string]interface{}{"field": "date", "value": date})
	}
	return nil
}

func pricingKind(draft *types.AppointmentDraft) types.PricingKind {
	if draft.Pricing.Kind == "" {
		return types.PricingCatalog
	}
	return draft.Pricing.Kind
}

// resolvePricing returns the price and fee to capture on the appointment
func resolvePricing(treatment *types.Treatment, draft *types.AppointmentDraft) (float64, float64, error) {
	switch pricingKind(draft) {
	case types.PricingCatalog:
		if treatment.Custom {
			return 0, 0, types.NewValidationError(types.ErrCodeValidationFailed, "custom treatment requires custom pricing", map[string]interface{}{"treatmentId": treatment.ID})
		}
		return treatment.PatientPrice, treatment.TherapistFee, nil

	case types.PricingCustom:
		if !treatment.Custom {
			return 0, 0, types.NewValidationError(types.ErrCodeValidationFailed, "custom pricing is only allowed for custom treatments", map[string]interface{}{"treatmentId": treatment.ID})
		}
		p := draft.Pricing
		if !validAmount(p.PatientPrice) || !validAmount(p.TherapistFee) {
			return 0, 0, types.NewValidationError(types.ErrCodeValidationFailed, "custom pricing requires a finite, non-negative price and fee", nil)
		}
		if strings.TrimSpace(draft.Notes) == "" {
			return 0, 0, types.NewValidationError(types.ErrCodeValidationFailed, "custom pricing requires notes", map[string]interface{}{"field": "notes"})
		}
		return *p.PatientPrice, *p.TherapistFee, nil

	default:
		return 0, 0, types.NewValidationError(types.ErrCodeInvalidInput, "unknown pricing kind", map[string]interface{}{"kind": draft.Pricing.Kind})
	}
}

func validAmount(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

func findTherapist(therapists []types.Therapist, id string) *types.Therapist {
	for i := range therapists {
		if therapists[i].ID == id {
			return &therapists[i]
		}
	}
	return nil
}

func findTreatment(treatments []types.Treatment, id string) *types.Treatment {
	for i := range treatments {
		if treatments[i].ID == id {
			return &treatments[i]
		}
	}
	return nil
}

func therapistName(therapists []types.Therapist, id string) string {
	if t := findTherapist(therapists, id); t != nil {
		return t.Name
	}
	return types.UnknownName
}

func treatmentName(treatments []types.Treatment, id string) string {
	if t := findTreatment(treatments, id); t != nil {
		return t.Name
	}
	return types.UnknownName
}
