package reporting

import "github.com/YeyeJames/jiale15/pkg/types"

// PayrollStatement is the printable settlement for one therapist
type PayrollStatement struct {
	TherapistID    string         `json:"therapistId"`
	TherapistName  string         `json:"therapistName"`
	Category       types.Category `json:"category,omitempty"`
	Period         string         `json:"period"`
	PeriodStart    string         `json:"periodStart"`
	PeriodEnd      string         `json:"periodEnd"`
	Items          []LineItem     `json:"items"`
	SessionCount   int            `json:"sessionCount"`
	TotalCollected float64        `json:"totalCollected"`
	// TotalCommission is taken from the report, not summed again here
	TotalCommission float64 `json:"totalCommission"`
}

// PayrollStatements lays out one statement per therapist in the report, in
// the report's order
func PayrollStatements(report *MonthlyReport) []PayrollStatement {
	statements := make([]PayrollStatement, 0, len(report.Therapists))
	for _, t := range report.Therapists {
		statements = append(statements, PayrollStatement{
			TherapistID:     t.TherapistID,
			TherapistName:   t.Name,
			Category:        t.Category,
			Period:          report.Month,
			PeriodStart:     report.PeriodStart,
			PeriodEnd:       report.PeriodEnd,
			Items:           t.Details,
			SessionCount:    t.Count,
			TotalCollected:  t.Revenue,
			TotalCommission: t.Commission,
		})
	}
	return statements
}
