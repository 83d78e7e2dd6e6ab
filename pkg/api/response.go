package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatusFor maps an error to its HTTP status code
func StatusFor(err error) int {
	switch types.ErrorTypeOf(err) {
	case types.ErrorTypeValidation, types.ErrorTypeFormat:
		return http.StatusBadRequest
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeConflict:
		return http.StatusConflict
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeAuthorization:
		return http.StatusForbidden
	case types.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, log *logger.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

// WriteError writes err as an ErrorResponse. Internal errors are logged
// and their cause is not sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := StatusFor(err)
	response := ErrorResponse{
		Error:  err.Error(),
		Code:   types.ErrCodeInternalError,
		Status: status,
	}

	var ce *types.ClinicError
	if errors.As(err, &ce) {
		response.Error = ce.Message
		response.Code = ce.Code
		response.Details = ce.Details
	}

	entry := log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		response.Error = "internal server error"
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	WriteJSON(w, log, status, response)
}

// DecodeJSON reads the request body into v, reporting malformed input as a
// validation error
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return nil
}
