package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category groups therapists and the treatments they may perform
type Category string

const (
	CategoryPsychology   Category = "psychology"
	CategoryOccupational Category = "occupational-therapy"
	CategoryRTMS         Category = "rTMS"
)

// Categories lists every category in display order
var Categories = []Category{CategoryPsychology, CategoryOccupational, CategoryRTMS}

// legacy labels written by earlier versions of the clinic front end
var categoryAliases = map[string]Category{
	"心理": CategoryPsychology,
	"職能": CategoryOccupational,
}

// ParseCategory resolves a category name or one of its legacy labels
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	if c, ok := categoryAliases[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// UnmarshalJSON accepts canonical names and legacy labels
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Therapist is a member of staff who performs treatments
type Therapist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// Treatment is a billable catalog item. PatientPrice and TherapistFee are
// independent amounts, not a split of one another.
type Treatment struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	PatientPrice    float64  `json:"patientPrice"`
	TherapistFee    float64  `json:"therapistFee"`
	DurationMinutes int      `json:"durationMinutes"`
	// Custom treatments carry no usable default pricing; every appointment
	// booked against one supplies its own price, fee and explanatory note.
	Custom bool `json:"custom,omitempty"`
}

// legacy sentinel names that marked a custom treatment before the flag existed
var customTreatmentNames = map[string]bool{
	"Other": true,
	"其他":    true,
}

// NormalizeTreatment upgrades a legacy sentinel-named treatment to the custom flag
func NormalizeTreatment(t *Treatment) {
	if !t.Custom && customTreatmentNames[t.Name] {
		t.Custom = true
	}
}

// TreatmentInput carries the fields needed to add a treatment to the catalog
type TreatmentInput struct {
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	PatientPrice    float64  `json:"patientPrice"`
	TherapistFee    float64  `json:"therapistFee"`
	DurationMinutes int      `json:"durationMinutes"`
	Custom          bool     `json:"custom"`
}

// TreatmentUpdates represents updates to a catalog treatment
type TreatmentUpdates struct {
	Name            *string  `json:"name,omitempty"`
	PatientPrice    *float64 `json:"patientPrice,omitempty"`
	TherapistFee    *float64 `json:"therapistFee,omitempty"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
}

// UnknownName is shown wherever a referenced therapist or treatment no longer exists
const UnknownName = "unknown"

// Slot names one persisted entity collection
type Slot string

const (
	SlotTherapists   Slot = "therapists"
	SlotTreatments   Slot = "treatments"
	SlotAppointments Slot = "appointments"
	SlotAccounts     Slot = "users"
)

// AllSlots lists every persisted collection
var AllSlots = []Slot{SlotTherapists, SlotTreatments, SlotAppointments, SlotAccounts}
