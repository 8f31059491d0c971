package apierrors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumenlms/admission/internal/app/features/apierrors"
	"github.com/lumenlms/admission/internal/app/workflow/admission"
)

func TestWriteStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{admission.ErrValidation, http.StatusBadRequest, "invalid_request"},
		{admission.ErrForbidden, http.StatusForbidden, "forbidden"},
		{admission.ErrInvalidInviteCode, http.StatusForbidden, "invalid_invite_code"},
		{admission.ErrNotFound, http.StatusNotFound, "not_found"},
		{admission.ErrTransferTargetInvalid, http.StatusUnprocessableEntity, "transfer_target_invalid"},
		{admission.ErrInstitutionInactive, http.StatusConflict, "institution_inactive"},
		{admission.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{admission.ErrConflict, http.StatusConflict, "conflict"},
		{admission.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("database exploded"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		apierrors.Write(rec, tt.err)
		if rec.Code != tt.status {
			t.Errorf("Write(%v): status %d, want %d", tt.err, rec.Code, tt.status)
		}
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("Write(%v): bad JSON: %v", tt.err, err)
		}
		if body.Error != tt.code {
			t.Errorf("Write(%v): code %q, want %q", tt.err, body.Error, tt.code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Write(%v): Content-Type %q", tt.err, ct)
		}
	}
}

func TestWriteWrappedErrors(t *testing.T) {
	err := fmt.Errorf("deciding membership: %w", admission.ErrInvalidState)
	rec := httptest.NewRecorder()
	apierrors.Write(rec, err)
	if rec.Code != http.StatusConflict {
		t.Errorf("wrapped error: status %d, want 409", rec.Code)
	}
}

func TestWriteForbiddenIsGeneric(t *testing.T) {
	// Forbidden bodies must not echo the error, or callers could probe
	// which resources exist.
	rec := httptest.NewRecorder()
	apierrors.Write(rec, fmt.Errorf("membership for user ghost-42: %w", admission.ErrForbidden))
	if strings.Contains(rec.Body.String(), "ghost-42") {
		t.Errorf("forbidden body leaks details: %s", rec.Body.String())
	}
}
