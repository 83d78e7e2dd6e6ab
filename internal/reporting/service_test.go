package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/internal/scheduling"
	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

func setupTestService(t *testing.T) (*Service, *scheduling.Service) {
	t.Helper()
	log := logger.Discard()
	st, err := store.Open(context.Background(), store.NewMemoryPersistence(), store.DefaultSeed(), log)
	require.NoError(t, err)

	metrics := monitoring.NewMetricsCollector("test")
	return New(st, config.ReportConfig{ClinicName: "Jiale Clinic"}, log, metrics), scheduling.New(st, log, metrics)
}

func TestMonthlyReport_EndToEnd(t *testing.T) {
	service, appointments := setupTestService(t)
	ctx := context.Background()

	apt, err := appointments.CreateAppointment(ctx, &types.AppointmentDraft{
		PatientName: "Mr. Wu",
		Date:        "2024-05-10",
		Time:        "14:00",
		TherapistID: "t1",
		TreatmentID: "tr2",
	})
	require.NoError(t, err)
	_, err = appointments.Transition(ctx, apt.ID, types.ActionCheckIn, nil)
	require.NoError(t, err)

	report, err := service.MonthlyReport("2024-05")
	require.NoError(t, err)

	assert.Equal(t, 1600.0, report.TotalRevenue)
	assert.Equal(t, 800.0, report.TotalCommission)
	require.Len(t, report.Therapists, 1)
	assert.Equal(t, "t1", report.Therapists[0].TherapistID)
	assert.Equal(t, 100.0, report.Therapists[0].RevenueShare)

	statements, err := service.Payroll("2024-05")
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Equal(t, 800.0, statements[0].TotalCommission)

	june, err := service.MonthlyReport("2024-06")
	require.NoError(t, err)
	assert.False(t, june.HasData())
}

func TestMonthlyReport_InvalidMonth(t *testing.T) {
	service, _ := setupTestService(t)

	_, err := service.MonthlyReport("2024/05")
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestHandlers_Reports(t *testing.T) {
	service, appointments := setupTestService(t)
	ctx := context.Background()
	apt, err := appointments.CreateAppointment(ctx, &types.AppointmentDraft{
		PatientName: "Ms. Hsu", Date: "2024-05-03", Time: "09:00", TherapistID: "t2", TreatmentID: "tr4",
	})
	require.NoError(t, err)
	_, err = appointments.Transition(ctx, apt.ID, types.ActionCheckIn, nil)
	require.NoError(t, err)

	router := mux.NewRouter()
	service.RegisterRoutes(router, func(next http.Handler) http.Handler { return next })

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/reports/2024-05")
	require.Equal(t, http.StatusOK, rec.Code)
	var report MonthlyReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 800.0, report.TotalRevenue)

	rec = get("/reports/2024-05/payroll")
	require.Equal(t, http.StatusOK, rec.Code)
	var statements []PayrollStatement
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&statements))
	require.Len(t, statements, 1)
	assert.Equal(t, 400.0, statements[0].TotalCommission)

	rec = get("/reports/2024-05/payroll.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = get("/reports/2024-05/report.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report_2024-05.xlsx")

	rec = get("/reports/May")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, types.ErrCodeInvalidInput, body.Code)
}

func TestHandlers_AdminOnly(t *testing.T) {
	service, _ := setupTestService(t)

	router := mux.NewRouter()
	service.RegisterRoutes(router, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/2024-05", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
