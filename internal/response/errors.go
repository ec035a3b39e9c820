package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Session ───────────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrUnknownCourse  ErrCode = "UNKNOWN_COURSE"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrNoActiveAttempt ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptActive   ErrCode = "ATTEMPT_ALREADY_ACTIVE"
	ErrNoResult        ErrCode = "NO_RESULT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Backend ───────────────────────────────────────────────────────
	ErrBackendUnavailable ErrCode = "BACKEND_UNAVAILABLE"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Session ───────────────────────────────────────────────────────
	case ErrTokenRequired:
		return "A session token is required. Sign in first."
	case ErrTokenExpired:
		return "Your session has expired. Please sign in again."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrUnknownCourse:
		return "Unknown course."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrNoActiveAttempt:
		return "No exam attempt is in progress."
	case ErrAttemptActive:
		return "An exam attempt is already in progress."
	case ErrNoResult:
		return "No submitted result is available."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Backend ───────────────────────────────────────────────────────
	case ErrBackendUnavailable:
		return "The exam service is unreachable. Try again once you are back online."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred."
	default:
		return "An unexpected error occurred."
	}
}
