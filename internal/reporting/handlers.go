package reporting

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegisterRoutes mounts the report endpoints, all admin only
func (s *Service) RegisterRoutes(router *mux.Router, adminOnly mux.MiddlewareFunc) {
	reports := router.PathPrefix("/reports").Subrouter()
	reports.Use(adminOnly)

	reports.HandleFunc("/{month}", s.monthlyReportHandler).Methods("GET")
	reports.HandleFunc("/{month}/payroll", s.payrollHandler).Methods("GET")
	reports.HandleFunc("/{month}/payroll.pdf", s.payrollPDFHandler).Methods("GET")
	reports.HandleFunc("/{month}/report.xlsx", s.reportXLSXHandler).Methods("GET")

	s.logger.Info("Reporting routes configured")
}

func (s *Service) monthlyReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.MonthlyReport(mux.Vars(r)["month"])
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusOK, report)
}

func (s *Service) payrollHandler(w http.ResponseWriter, r *http.Request) {
	statements, err := s.Payroll(mux.Vars(r)["month"])
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}
	api.WriteJSON(w, s.logger, http.StatusOK, statements)
}

func (s *Service) payrollPDFHandler(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]

	// render fully before writing so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := s.WritePayrollPDF(&buf, month); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll_%s.pdf", month))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to send payroll PDF")
	}
}

func (s *Service) reportXLSXHandler(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]

	var buf bytes.Buffer
	if err := s.WriteReportXLSX(&buf, month); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.xlsx", month))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to send report workbook")
	}
}
