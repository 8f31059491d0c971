// internal/app/workflow/admission/errors.go
package admission

import (
	"errors"
	"fmt"

	"github.com/lumenlms/admission/internal/app/store/directory"
)

// Failure taxonomy for the admission workflow. All are terminal,
// caller-visible failures matched with errors.Is; only ErrStoreUnavailable
// is safe to retry blindly.
var (
	// ErrForbidden: authenticated but insufficient role/scope. Kept
	// generic on the wire so it never leaks whether the target exists.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: referenced institution/user/membership absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation not valid for the entity's current
	// lifecycle state (e.g. reviewing an already-decided membership).
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrConflict: would violate a uniqueness/idempotency invariant.
	ErrConflict = errors.New("conflict")
	// ErrValidation: malformed input shape.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidInviteCode: supplied invite code does not match.
	ErrInvalidInviteCode = errors.New("invalid invite code")
	// ErrInstitutionInactive: target institution is deactivated.
	ErrInstitutionInactive = errors.New("institution is inactive")
	// ErrTransferTargetInvalid: transfer target absent or inactive.
	ErrTransferTargetInvalid = errors.New("transfer target invalid")
	// ErrStoreUnavailable: transient directory-store failure; retryable.
	ErrStoreUnavailable = errors.New("directory store unavailable")
)

// storeErr classifies a directory error: absences become ErrNotFound,
// transient infrastructure failures become ErrStoreUnavailable, anything
// else passes through.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, directory.ErrNotFound) {
		return ErrNotFound
	}
	if directory.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
