package reporting

import (
	"io"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
)

// Service computes reports from the current store contents
type Service struct {
	store   *store.Store
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	config  config.ReportConfig
}

// New creates a reporting service. metrics may be nil.
func New(st *store.Store, cfg config.ReportConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		store:   st,
		logger:  log,
		metrics: metrics,
		config:  cfg,
	}
}

// MonthlyReport computes the settlement for a YYYY-MM month
func (s *Service) MonthlyReport(month string) (*MonthlyReport, error) {
	ym, err := ParseYearMonth(month)
	if err != nil {
		return nil, err
	}

	snap := s.store.Snapshot()
	report := ComputeMonthlyReport(snap.Appointments, snap.Therapists, snap.Treatments, ym)

	if report.Anomalies.UnpaidCompleted > 0 || report.Anomalies.Overpaid > 0 {
		s.logger.WithComponent("reporting").WithFields(map[string]interface{}{
			"month":            report.Month,
			"unpaid_completed": report.Anomalies.UnpaidCompleted,
			"overpaid":         report.Anomalies.Overpaid,
		}).Warn("Completed appointments with inconsistent payment")
		if s.metrics != nil {
			s.metrics.RecordReportAnomalies("unpaid_completed", report.Anomalies.UnpaidCompleted)
			s.metrics.RecordReportAnomalies("overpaid", report.Anomalies.Overpaid)
		}
	}

	return report, nil
}

// Payroll returns the statements for a month
func (s *Service) Payroll(month string) ([]PayrollStatement, error) {
	report, err := s.MonthlyReport(month)
	if err != nil {
		return nil, err
	}
	return PayrollStatements(report), nil
}

// WritePayrollPDF renders a month's payroll to w
func (s *Service) WritePayrollPDF(w io.Writer, month string) error {
	report, err := s.MonthlyReport(month)
	if err != nil {
		return err
	}
	return WritePayrollPDF(w, report.Month, PayrollStatements(report), PDFOptions{
		ClinicName: s.config.ClinicName,
		FontPath:   s.config.PDFFontPath,
	})
}

// WriteReportXLSX renders a month's report workbook to w
func (s *Service) WriteReportXLSX(w io.Writer, month string) error {
	report, err := s.MonthlyReport(month)
	if err != nil {
		return err
	}
	return WriteReportXLSX(w, report)
}
