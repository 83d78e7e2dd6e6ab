package reporting

import (
	"sort"

	"github.com/YeyeJames/jiale15/pkg/types"
)

// LineItem is one completed session on a therapist's statement
type LineItem struct {
	AppointmentID   string  `json:"appointmentId"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	PatientName     string  `json:"patientName"`
	TreatmentName   string  `json:"treatmentName"`
	AmountCollected float64 `json:"amountCollected"`
	FeeEarned       float64 `json:"feeEarned"`
	Notes           string  `json:"notes"`
}

// TherapistStat aggregates one therapist's completed sessions
type TherapistStat struct {
	TherapistID  string         `json:"therapistId"`
	Name         string         `json:"name"`
	Category     types.Category `json:"category,omitempty"`
	Count        int            `json:"count"`
	Revenue      float64        `json:"revenue"`
	Commission   float64        `json:"commission"`
	RevenueShare float64        `json:"revenueShare"`
	Details      []LineItem     `json:"details"`
}

// TreatmentStat aggregates completed sessions of one treatment
type TreatmentStat struct {
	TreatmentID  string         `json:"treatmentId"`
	Name         string         `json:"name"`
	Category     types.Category `json:"category,omitempty"`
	Count        int            `json:"count"`
	Revenue      float64        `json:"revenue"`
	RevenueShare float64        `json:"revenueShare"`
	CountShare   float64        `json:"countShare"`
}

// Anomalies counts completed appointments whose payment fields break the
// check-in rule. They are reported, never corrected.
type Anomalies struct {
	// UnpaidCompleted are completed but not marked paid; they add nothing to revenue
	UnpaidCompleted int `json:"unpaidCompleted"`
	// Overpaid collected more than the captured patient price
	Overpaid int `json:"overpaid"`
}

// MonthlyReport is the settlement of one calendar month
type MonthlyReport struct {
	Month             string          `json:"month"`
	PeriodStart       string          `json:"periodStart"`
	PeriodEnd         string          `json:"periodEnd"`
	TotalAppointments int             `json:"totalAppointments"`
	CompletedCount    int             `json:"completedCount"`
	CancelledCount    int             `json:"cancelledCount"`
	TotalRevenue      float64         `json:"totalRevenue"`
	TotalCommission   float64         `json:"totalCommission"`
	Therapists        []TherapistStat `json:"therapists"`
	Treatments        []TreatmentStat `json:"treatments"`
	Anomalies         Anomalies       `json:"anomalies"`
}

// HasData reports whether any session was completed in the month
func (r *MonthlyReport) HasData() bool {
	return r.CompletedCount > 0
}

// Share returns part as a percentage of total, or 0 when total is 0
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// collected is what a completed appointment contributes to revenue
func collected(apt *types.Appointment) float64 {
	if apt.IsPaid {
		return apt.PaidAmount
	}
	return 0
}

// ComputeMonthlyReport derives the settlement for ym. It never modifies its
// inputs and may be called concurrently. Appointments referring to a
// therapist or treatment no longer in the catalog are grouped per id under
// the name "unknown".
func ComputeMonthlyReport(appointments []types.Appointment, therapists []types.Therapist, treatments []types.Treatment, ym YearMonth) *MonthlyReport {
	report := &MonthlyReport{
		Month:       ym.String(),
		PeriodStart: ym.First().Format(dateLayout),
		PeriodEnd:   ym.Last().Format(dateLayout),
		Therapists:  []TherapistStat{},
		Treatments:  []TreatmentStat{},
	}

	completed := make([]types.Appointment, 0)
	for _, apt := range appointments {
		if !ym.Contains(apt.Date) {
			continue
		}
		report.TotalAppointments++
		switch apt.Status {
		case types.StatusCompleted:
			completed = append(completed, apt)
		case types.StatusCancelled:
			report.CancelledCount++
		}
	}
	report.CompletedCount = len(completed)

	sort.SliceStable(completed, func(i, j int) bool {
		if completed[i].Date != completed[j].Date {
			return completed[i].Date < completed[j].Date
		}
		return completed[i].Time < completed[j].Time
	})

	treatmentNames := make(map[string]string, len(treatments))
	for _, tr := range treatments {
		treatmentNames[tr.ID] = tr.Name
	}

	for i := range completed {
		apt := &completed[i]
		report.TotalRevenue += collected(apt)
		if !apt.IsPaid {
			report.Anomalies.UnpaidCompleted++
		}
		if apt.IsPaid && apt.PaidAmount > apt.PatientPrice {
			report.Anomalies.Overpaid++
		}
	}

	report.Therapists = therapistStats(completed, therapists, treatmentNames, report.TotalRevenue)
	for _, t := range report.Therapists {
		report.TotalCommission += t.Commission
	}
	report.Treatments = treatmentStats(completed, treatments, report.TotalRevenue, report.CompletedCount)

	return report
}

func therapistStats(completed []types.Appointment, therapists []types.Therapist, treatmentNames map[string]string, totalRevenue float64) []TherapistStat {
	index := make(map[string]int)
	stats := make([]TherapistStat, 0, len(therapists))
	for _, t := range therapists {
		index[t.ID] = len(stats)
		stats = append(stats, TherapistStat{TherapistID: t.ID, Name: t.Name, Category: t.Category, Details: []LineItem{}})
	}

	for i := range completed {
		apt := &completed[i]
		idx, ok := index[apt.TherapistID]
		if !ok {
			idx = len(stats)
			index[apt.TherapistID] = idx
			stats = append(stats, TherapistStat{TherapistID: apt.TherapistID, Name: types.UnknownName, Details: []LineItem{}})
		}

		name, ok := treatmentNames[apt.TreatmentID]
		if !ok {
			name = types.UnknownName
		}

		s := &stats[idx]
		s.Count++
		s.Revenue += collected(apt)
		s.Commission += apt.TherapistFee
		s.Details = append(s.Details, LineItem{
			AppointmentID:   apt.ID,
			Date:            apt.Date,
			Time:            apt.Time,
			PatientName:     apt.PatientName,
			TreatmentName:   name,
			AmountCollected: collected(apt),
			FeeEarned:       apt.TherapistFee,
			Notes:           apt.Notes,
		})
	}

	out := make([]TherapistStat, 0, len(stats))
	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		s.RevenueShare = Share(s.Revenue, totalRevenue)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}

func treatmentStats(completed []types.Appointment, treatments []types.Treatment, totalRevenue float64, completedCount int) []TreatmentStat {
	index := make(map[string]int)
	stats := make([]TreatmentStat, 0, len(treatments))
	for _, tr := range treatments {
		index[tr.ID] = len(stats)
		stats = append(stats, TreatmentStat{TreatmentID: tr.ID, Name: tr.Name, Category: tr.Category})
	}

	for i := range completed {
		apt := &completed[i]
		idx, ok := index[apt.TreatmentID]
		if !ok {
			idx = len(stats)
			index[apt.TreatmentID] = idx
			stats = append(stats, TreatmentStat{TreatmentID: apt.TreatmentID, Name: types.UnknownName})
		}
		stats[idx].Count++
		stats[idx].Revenue += collected(apt)
	}

	out := make([]TreatmentStat, 0, len(stats))
	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		s.RevenueShare = Share(s.Revenue, totalRevenue)
		s.CountShare = Share(float64(s.Count), float64(completedCount))
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}
