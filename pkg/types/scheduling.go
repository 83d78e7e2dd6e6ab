package types

// Appointment represents a booked session. PatientPrice and TherapistFee are
// captured when the appointment is created and are never recomputed from the
// catalog afterwards.
type Appointment struct {
	ID           string            `json:"id"`
	PatientName  string            `json:"patientName"`
	PatientPhone string            `json:"patientPhone"`
	Date         string            `json:"date"` // YYYY-MM-DD
	Time         string            `json:"time"` // HH:MM
	TherapistID  string            `json:"therapistId"`
	TreatmentID  string            `json:"treatmentId"`
	Status       AppointmentStatus `json:"status"`
	PatientPrice float64           `json:"patientPrice"`
	TherapistFee float64           `json:"therapistFee"`
	PaidAmount   float64           `json:"paidAmount"`
	IsPaid       bool              `json:"isPaid"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    int64             `json:"createdAt"` // unix milliseconds
}

// AppointmentStatus represents appointment status values
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	// StatusCheckedIn and StatusNoShow are kept for stored data; no
	// transition produces them.
	StatusCheckedIn AppointmentStatus = "checked-in"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "noshow"
)

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Action names a lifecycle transition
type Action string

const (
	ActionCheckIn Action = "check-in"
	ActionCancel  Action = "cancel"
	ActionReset   Action = "reset"
	ActionDelete  Action = "delete"
)

// PricingKind selects where an appointment's price and fee come from
type PricingKind string

const (
	PricingCatalog PricingKind = "catalog"
	PricingCustom  PricingKind = "custom"
)

// Pricing is the pricing variant of an appointment draft. Amounts are only
// read for the custom kind.
type Pricing struct {
	Kind         PricingKind `json:"kind"`
	PatientPrice *float64    `json:"patientPrice,omitempty"`
	TherapistFee *float64    `json:"therapistFee,omitempty"`
}

// AppointmentDraft is the caller input for booking an appointment
type AppointmentDraft struct {
	PatientName  string  `json:"patientName"`
	PatientPhone string  `json:"patientPhone"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	TherapistID  string  `json:"therapistId"`
	TreatmentID  string  `json:"treatmentId"`
	Notes        string  `json:"notes"`
	Pricing      Pricing `json:"pricing"`
}

// TransitionRequest is the body of a transition call
type TransitionRequest struct {
	Action Action  `json:"action"`
	Notes  *string `json:"notes,omitempty"`
}

// ScheduleFilter narrows a day schedule
type ScheduleFilter string

const (
	FilterAll    ScheduleFilter = "all"
	FilterUnpaid ScheduleFilter = "unpaid"
)

// DailyStats summarises one day of the schedule
type DailyStats struct {
	Date                string  `json:"date"`
	TotalAppointments   int     `json:"totalAppointments"`
	Completed           int     `json:"completed"`
	TotalRevenue        float64 `json:"totalRevenue"`
	EstimatedCommission float64 `json:"estimatedCommission"`
}
