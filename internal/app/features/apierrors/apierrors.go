// internal/app/features/apierrors/apierrors.go
package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumenlms/admission/internal/app/workflow/admission"
	"go.uber.org/zap"
)

// errorBody is the JSON envelope for every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON emits the envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: msg})
}

// Write maps a workflow error to an HTTP status and JSON body.
// Forbidden responses carry a generic message so callers cannot probe
// which resources exist.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admission.ErrValidation):
		writeJSON(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, admission.ErrForbidden):
		writeJSON(w, http.StatusForbidden, "forbidden", "You don't have permission to perform this action.")
	case errors.Is(err, admission.ErrInvalidInviteCode):
		writeJSON(w, http.StatusForbidden, "invalid_invite_code", "The invite code is not valid for this institution.")
	case errors.Is(err, admission.ErrNotFound):
		writeJSON(w, http.StatusNotFound, "not_found", "The requested resource was not found.")
	case errors.Is(err, admission.ErrTransferTargetInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, "transfer_target_invalid", "The transfer target institution does not exist or is not active.")
	case errors.Is(err, admission.ErrInstitutionInactive):
		writeJSON(w, http.StatusConflict, "institution_inactive", "The institution is not accepting requests.")
	case errors.Is(err, admission.ErrInvalidState):
		writeJSON(w, http.StatusConflict, "invalid_state", "The request is not in a state that allows this action.")
	case errors.Is(err, admission.ErrConflict):
		writeJSON(w, http.StatusConflict, "conflict", "The action conflicts with the current state.")
	case errors.Is(err, admission.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, "store_unavailable", "The directory store is unavailable. Try again shortly.")
	default:
		writeJSON(w, http.StatusInternalServerError, "internal", "An internal error occurred.")
	}
}

// WriteBadRequest reports a malformed payload (decode or validation failure).
func WriteBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, "invalid_request", msg)
}

// WriteUnauthorized reports a missing or expired session. The message is
// intentionally generic.
func WriteUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, "unauthorized", "Please sign in to continue.")
}

// WriteForbidden reports an authorization failure with a generic message.
func WriteForbidden(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, "forbidden", "You don't have permission to perform this action.")
}

// WriteNotFound reports a missing resource.
func WriteNotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, "not_found", msg)
}

// ErrorLogger pairs error responses with structured server-side logging.
// Handlers keep one in their dependency container alongside the store and
// the zap logger.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger around the shared zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs the internal error with request context and sends a
// generic 500 so internals never leak to the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeJSON(w, http.StatusInternalServerError, "internal", "An internal error occurred.")
}

// LogBadRequest logs a malformed request at warn level and sends a 400 with
// the public message.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, public string) {
	e.Log.Warn(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeJSON(w, http.StatusBadRequest, "invalid_request", public)
}

// LogWorkflowError routes a workflow error through Write and logs anything
// that maps to a 5xx.
func (e *ErrorLogger) LogWorkflowError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, admission.ErrStoreUnavailable) {
		e.Log.Error(msg,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	}
	Write(w, err)
}
