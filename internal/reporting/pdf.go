package reporting

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const utf8FontFamily = "clinic"

// PDFOptions controls the printed payroll
type PDFOptions struct {
	ClinicName string
	// FontPath is a TTF font able to render the names in the data. When
	// empty a core font is used and text outside Latin-1 is not rendered.
	FontPath string
}

var payrollColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 22, "L"},
	{"Time", 13, "L"},
	{"Patient", 32, "L"},
	{"Treatment", 40, "L"},
	{"Collected", 22, "R"},
	{"Fee", 20, "R"},
	{"Notes", 41, "L"},
}

// WritePayrollPDF renders one page per statement. A month without
// statements produces a single page saying so.
func WritePayrollPDF(w io.Writer, month string, statements []PayrollStatement, opts PDFOptions) error {
	fontDir := ""
	if opts.FontPath != "" {
		fontDir = filepath.Dir(opts.FontPath)
	}
	pdf := gofpdf.New("P", "mm", "A4", fontDir)
	pdf.SetAutoPageBreak(true, 20)

	family := "Arial"
	text := func(s string) string { return s }
	if opts.FontPath != "" {
		fontFile := filepath.Base(opts.FontPath)
		pdf.AddUTF8Font(utf8FontFamily, "", fontFile)
		pdf.AddUTF8Font(utf8FontFamily, "B", fontFile)
		family = utf8FontFamily
	} else {
		text = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to load PDF font: %w", err)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s payroll %s  page %d", text(opts.ClinicName), month, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if len(statements) == 0 {
		pdf.AddPage()
		pdf.SetFont(family, "B", 16)
		pdf.CellFormat(0, 10, text(opts.ClinicName), "", 1, "C", false, 0, "")
		pdf.SetFont(family, "", 12)
		pdf.CellFormat(0, 10, fmt.Sprintf("No completed appointments in %s", month), "", 1, "C", false, 0, "")
	}

	for _, st := range statements {
		writeStatementPage(pdf, family, text, st, opts)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render payroll PDF: %w", err)
	}
	return nil
}

func writeStatementPage(pdf *gofpdf.Fpdf, family string, text func(string) string, st PayrollStatement, opts PDFOptions) {
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 9, text(opts.ClinicName), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "B", 13)
	pdf.CellFormat(0, 8, "Payroll Statement", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont(family, "", 11)
	pdf.CellFormat(95, 7, text("Therapist: "+st.TherapistName), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, text("Category: "+string(st.Category)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Period: %s to %s", st.PeriodStart, st.PeriodEnd), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(family, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range payrollColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, item := range st.Items {
		values := []string{
			item.Date,
			item.Time,
			text(clip(item.PatientName, 18)),
			text(clip(item.TreatmentName, 24)),
			formatAmount(item.AmountCollected),
			formatAmount(item.FeeEarned),
			text(clip(item.Notes, 24)),
		}
		for i, col := range payrollColumns {
			pdf.CellFormat(col.width, 6, values[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Sessions: %d", st.SessionCount), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, "Collected: "+formatAmount(st.TotalCollected), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, "Total commission: "+formatAmount(st.TotalCommission), "", 1, "R", false, 0, "")

	pdf.Ln(15)
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(95, 7, "Therapist signature: ____________", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Approved by: ____________", "", 1, "R", false, 0, "")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
