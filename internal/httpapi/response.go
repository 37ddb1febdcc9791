package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/airmon/air-monitor-service/internal/backend"
	"github.com/airmon/air-monitor-service/internal/history"
	"github.com/airmon/air-monitor-service/internal/snapshot"
	"go.uber.org/zap"
)

// ErrorCode is a string type for consistent error codes.
type ErrorCode string

const (
	ErrorCodeBadRequest      ErrorCode = "bad_request"
	ErrorCodeMissingParam    ErrorCode = "missing_parameter"
	ErrorCodeInvalidRange    ErrorCode = "invalid_range"
	ErrorCodeEmptyMessageSet ErrorCode = "empty_message_set"
	ErrorCodeQueryFailed     ErrorCode = "query_failed"
	ErrorCodePersistence     ErrorCode = "persistence_failed"
	ErrorCodeInternal        ErrorCode = "internal_server_error"
)

// APIError is the error body returned to clients.
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
}

func (e APIError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondWithAPIError(w http.ResponseWriter, apiErr APIError) {
	s.respondWithJSON(w, apiErr.StatusCode, apiErr)
}

// respondWithError maps service errors onto the API error taxonomy.
// Local validation failures are the caller's fault; backend failures
// surface as bad gateway with the backend's detail preserved.
func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	var rangeErr *history.InvalidRangeError
	var emptyErr *snapshot.EmptyMessageSetError
	var queryErr *backend.QueryFailedError
	var persistErr *backend.PersistenceError

	switch {
	case errors.As(err, &rangeErr):
		s.respondWithAPIError(w, APIError{Code: ErrorCodeInvalidRange, Message: err.Error(), StatusCode: http.StatusBadRequest})
	case errors.As(err, &emptyErr):
		s.respondWithAPIError(w, APIError{Code: ErrorCodeEmptyMessageSet, Message: err.Error(), StatusCode: http.StatusBadRequest})
	case errors.As(err, &queryErr):
		s.respondWithAPIError(w, APIError{Code: ErrorCodeQueryFailed, Message: err.Error(), StatusCode: http.StatusBadGateway})
	case errors.As(err, &persistErr):
		s.respondWithAPIError(w, APIError{Code: ErrorCodePersistence, Message: err.Error(), StatusCode: http.StatusBadGateway})
	default:
		s.logger.Error("unhandled error in http api", zap.Error(err))
		s.respondWithAPIError(w, APIError{Code: ErrorCodeInternal, Message: "internal server error", StatusCode: http.StatusInternalServerError})
	}
}
