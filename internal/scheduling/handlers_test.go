package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/types"
)

func newTestRouter(t *testing.T) (*mux.Router, *Service) {
	service, _ := setupTestService(t)
	router := mux.NewRouter()
	service.RegisterRoutes(router, func(next http.Handler) http.Handler { return next })
	return router, service
}

func do(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	router.ServeHTTP(rec, req)
	return rec
}

const draftJSON = `{"patientName":"Mr. Wu","patientPhone":"0912","date":"2024-05-10","time":"14:00","therapistId":"t1","treatmentId":"tr2"}`

func TestHandlers_AppointmentLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/appointments", draftJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var apt types.Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apt))

	rec = do(router, http.MethodPost, "/appointments/"+apt.ID+"/transitions", `{"action":"check-in","notes":"paid cash"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apt))
	assert.Equal(t, types.StatusCompleted, apt.Status)
	assert.Equal(t, 1600.0, apt.PaidAmount)
	assert.Equal(t, "paid cash", apt.Notes)

	rec = do(router, http.MethodPost, "/appointments/"+apt.ID+"/transitions", `{"action":"cancel"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, types.ErrCodeInvalidTransition, body.Code)

	rec = do(router, http.MethodGet, "/schedule/2024-05-10/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats types.DailyStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1600.0, stats.TotalRevenue)

	rec = do(router, http.MethodDelete, "/appointments/"+apt.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodGet, "/appointments/"+apt.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/appointments", `{"patientName":"","date":"2024-05-10","time":"14:00","therapistId":"t1","treatmentId":"tr2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/appointments", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_DayScheduleDefaultsToToday(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/appointments", draftJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(router, http.MethodGet, "/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []ScheduleEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 1)

	rec = do(router, http.MethodGet, "/appointments?date=2024-05-10&filter=unpaid", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/appointments?date=2024-05-10&filter=overdue", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
