package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"eco-kart/internal/middleware"
	"eco-kart/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusByCode maps domain error codes to HTTP statuses. Unknown codes are 500.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:           http.StatusBadRequest,
	model.ErrCodeMissingField:          http.StatusBadRequest,
	model.ErrCodeInvalidParameter:      http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:       http.StatusBadRequest,
	model.ErrCodeInvalidVariant:        http.StatusBadRequest,
	model.ErrCodeInvalidRewardRequest:  http.StatusBadRequest,
	model.ErrCodeInvalidDeliveryOption: http.StatusBadRequest,
	model.ErrCodeInvalidAmount:         http.StatusBadRequest,
	model.ErrCodeUnauthorised:          http.StatusUnauthorized,
	model.ErrCodeProductNotFound:       http.StatusNotFound,
	model.ErrCodeOrderNotFound:         http.StatusNotFound,
	model.ErrCodeRewardNotFound:        http.StatusNotFound,
	model.ErrCodeRewardConflict:        http.StatusConflict,
	model.ErrCodeAlreadyUsed:           http.StatusConflict,
	model.ErrCodeNotRefundable:         http.StatusConflict,
	model.ErrCodeNotCancellable:        http.StatusConflict,
	model.ErrCodeInvalidTransition:     http.StatusConflict,
	model.ErrCodeEmptyCart:             http.StatusUnprocessableEntity,
	model.ErrCodeInsufficientPoints:    http.StatusUnprocessableEntity,
	model.ErrCodeRewardExpired:         http.StatusUnprocessableEntity,
	model.ErrCodePersistenceFailure:    http.StatusServiceUnavailable,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error response with the given status, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := chimw.GetReqID(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("request_id", requestID).
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// writeDomainError maps err to its HTTP status and stable message.
// Errors that are not domain errors never leak their text to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("unexpected error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status, known := statusByCode[de.Code]
	if !known {
		status = http.StatusInternalServerError
	}
	if de.Err != nil {
		logger.Error().Err(de.Err).Str("code", de.Code).Msg("domain error cause")
	}
	writeError(w, r, status, de.Code, de.Message, logger)
}

// requestUser returns the authenticated user or writes a 401.
func requestUser(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "unauthorised: missing user ID", logger)
		return uuid.Nil, false
	}
	return userID, true
}

// decodeJSON decodes the request body into dst or writes a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
