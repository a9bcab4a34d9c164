package response

import (
	"errors"
	"net/http"

	"github.com/opsdesk/attendance-backend-go/internal/domain/organization"
	"github.com/opsdesk/attendance-backend-go/internal/domain/schedule"
	"github.com/opsdesk/attendance-backend-go/internal/domain/shift"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Shift lifecycle
// rejections are business outcomes, not transport failures, so they go
// out in the failure envelope.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Shift lifecycle rejections
	case errors.Is(err, shift.ErrShiftAlreadyOpen):
		Failure(w, "An open shift already exists")
	case errors.Is(err, shift.ErrNoOpenShift):
		Failure(w, "No open shift to operate on")
	case errors.Is(err, shift.ErrAlreadyOnBreak):
		Failure(w, "A break is already in progress")
	case errors.Is(err, shift.ErrNoOpenBreak):
		Failure(w, "No break is in progress")
	case errors.Is(err, shift.ErrInvalidTransition):
		Failure(w, "Operation not allowed in the current shift state")

	// Missing reference data
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, organization.ErrOrganizationNotFound):
		NotFound(w, "Organization not found")
	case errors.Is(err, organization.ErrBranchNotFound):
		NotFound(w, "Branch not found")
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "No working schedule configured")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
