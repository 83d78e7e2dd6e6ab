package reporting

import (
	"bytes"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/pkg/types"
)

func sampleReport(t *testing.T) *MonthlyReport {
	appointments := []types.Appointment{
		completedApt("a", "2024-05-01", "t1", "tr2", 1600, 800),
		completedApt("b", "2024-05-02", "t2", "tr4", 800, 400),
	}
	return ComputeMonthlyReport(appointments, testTherapists, testTreatments, mustMonth(t, "2024-05"))
}

func TestWritePayrollPDF(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	err := WritePayrollPDF(&buf, report.Month, PayrollStatements(report), PDFOptions{ClinicName: "Jiale Clinic"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWritePayrollPDF_EmptyMonth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePayrollPDF(&buf, "2024-06", nil, PDFOptions{ClinicName: "Jiale Clinic"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWritePayrollPDF_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WritePayrollPDF(&buf, "2024-06", nil, PDFOptions{FontPath: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}

func TestWriteReportXLSX(t *testing.T) {
	report := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteReportXLSX(&buf, report))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "2024-05", file.GetCellValue(SheetSummary, "B1"))
	assert.Equal(t, "2400", file.GetCellValue(SheetSummary, "B7"))
	assert.Equal(t, "Chen", file.GetCellValue(SheetTherapists, "A2"))
	assert.Equal(t, "Lin", file.GetCellValue(SheetTherapists, "A3"))
	assert.Equal(t, "Individual Therapy", file.GetCellValue(SheetTreatments, "A2"))
	assert.Equal(t, "Chen", file.GetCellValue(SheetPayroll, "A2"))
	assert.Equal(t, "Chen total", file.GetCellValue(SheetPayroll, "A3"))
}
