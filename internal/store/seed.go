package store

import "github.com/YeyeJames/jiale15/pkg/types"

// DefaultSeed is the catalog and account set a new clinic starts with. Each
// category carries one custom treatment for ad hoc pricing. The seeded
// passwords are plain text and are rehashed on first login.
func DefaultSeed() Snapshot {
	return Snapshot{
		Therapists: []types.Therapist{
			{ID: "t1", Name: "Chen (Psychologist)", Category: types.CategoryPsychology},
			{ID: "t2", Name: "Lin (Physiotherapist)", Category: types.CategoryOccupational},
			{ID: "t3", Name: "Wang (Occupational Therapist)", Category: types.CategoryOccupational},
			{ID: "t_rtms", Name: "Attending Physician", Category: types.CategoryRTMS},
		},
		Treatments: []types.Treatment{
			{ID: "tr1", Name: "Psychological Assessment", Category: types.CategoryPsychology, PatientPrice: 2000, TherapistFee: 1000, DurationMinutes: 60},
			{ID: "tr2", Name: "Individual Therapy", Category: types.CategoryPsychology, PatientPrice: 1600, TherapistFee: 800, DurationMinutes: 50},
			{ID: "tr_other_psy", Name: "Other", Category: types.CategoryPsychology, DurationMinutes: 30, Custom: true},
			{ID: "tr3", Name: "Developmental Assessment", Category: types.CategoryOccupational, PatientPrice: 1200, TherapistFee: 600, DurationMinutes: 40},
			{ID: "tr4", Name: "Fine Motor Training", Category: types.CategoryOccupational, PatientPrice: 800, TherapistFee: 400, DurationMinutes: 30},
			{ID: "tr_other_ot", Name: "Other", Category: types.CategoryOccupational, DurationMinutes: 30, Custom: true},
			{ID: "tr_rtms", Name: "rTMS", Category: types.CategoryRTMS, PatientPrice: 3500, DurationMinutes: 30},
			{ID: "tr_rtms_free", Name: "rTMS (complimentary)", Category: types.CategoryRTMS, DurationMinutes: 30},
			{ID: "tr_rtms_short", Name: "rTMS (short course)", Category: types.CategoryRTMS, PatientPrice: 2500, DurationMinutes: 30},
			{ID: "tr_other_rtms", Name: "Other", Category: types.CategoryRTMS, DurationMinutes: 30, Custom: true},
		},
		Appointments: []types.Appointment{},
		Accounts: []types.Account{
			{ID: "u1", Username: "jiale", Password: "jiale", Name: "Administrator", Role: types.RoleAdmin},
			{ID: "u2", Username: "staff", Password: "staff", Name: "Front Desk", Role: types.RoleStaff},
		},
	}
}
