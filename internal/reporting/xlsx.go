package reporting

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
)

// Sheet names of the report workbook
const (
	SheetSummary    = "Summary"
	SheetTherapists = "Therapists"
	SheetTreatments = "Treatments"
	SheetPayroll    = "Payroll"
)

// WriteReportXLSX writes the monthly report as a workbook with summary,
// therapist, treatment and payroll sheets
func WriteReportXLSX(w io.Writer, report *MonthlyReport) error {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", SheetSummary)
	file.NewSheet(SheetTherapists)
	file.NewSheet(SheetTreatments)
	file.NewSheet(SheetPayroll)

	writeSummarySheet(file, report)
	writeTherapistSheet(file, report)
	writeTreatmentSheet(file, report)
	writePayrollSheet(file, report)

	file.SetActiveSheet(1)
	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}

func cell(col int, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row)
}

func writeRow(file *excelize.File, sheet string, row int, values ...interface{}) {
	for col, v := range values {
		file.SetCellValue(sheet, cell(col, row), v)
	}
}

func writeSummarySheet(file *excelize.File, report *MonthlyReport) {
	rows := [][]interface{}{
		{"Month", report.Month},
		{"Period start", report.PeriodStart},
		{"Period end", report.PeriodEnd},
		{"Total appointments", report.TotalAppointments},
		{"Completed", report.CompletedCount},
		{"Cancelled", report.CancelledCount},
		{"Total revenue", report.TotalRevenue},
		{"Total commission", report.TotalCommission},
		{"Completed but unpaid", report.Anomalies.UnpaidCompleted},
		{"Overpaid", report.Anomalies.Overpaid},
	}
	for i, r := range rows {
		writeRow(file, SheetSummary, i+1, r...)
	}
}

func writeTherapistSheet(file *excelize.File, report *MonthlyReport) {
	writeRow(file, SheetTherapists, 1, "Therapist", "Category", "Sessions", "Revenue", "Revenue share %", "Commission")
	for i, t := range report.Therapists {
		writeRow(file, SheetTherapists, i+2, t.Name, string(t.Category), t.Count, t.Revenue, t.RevenueShare, t.Commission)
	}
}

func writeTreatmentSheet(file *excelize.File, report *MonthlyReport) {
	writeRow(file, SheetTreatments, 1, "Treatment", "Category", "Sessions", "Session share %", "Revenue", "Revenue share %")
	for i, t := range report.Treatments {
		writeRow(file, SheetTreatments, i+2, t.Name, string(t.Category), t.Count, t.CountShare, t.Revenue, t.RevenueShare)
	}
}

func writePayrollSheet(file *excelize.File, report *MonthlyReport) {
	writeRow(file, SheetPayroll, 1, "Therapist", "Date", "Time", "Patient", "Treatment", "Collected", "Fee", "Notes")
	row := 2
	for _, st := range PayrollStatements(report) {
		for _, item := range st.Items {
			writeRow(file, SheetPayroll, row, st.TherapistName, item.Date, item.Time, item.PatientName,
				item.TreatmentName, item.AmountCollected, item.FeeEarned, item.Notes)
			row++
		}
		writeRow(file, SheetPayroll, row, st.TherapistName+" total", "", "", "", "", st.TotalCollected, st.TotalCommission, "")
		row += 2
	}
}
