package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrRefreshInvalid     ErrCode = "REFRESH_TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrNotResourceOwner   ErrCode = "NOT_RESOURCE_OWNER"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorOnly     ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrEmailTaken       ErrCode = "EMAIL_TAKEN"
	ErrAlreadyEnrolled  ErrCode = "ALREADY_ENROLLED"
	ErrNotEnrolled      ErrCode = "NOT_ENROLLED"
	ErrAlreadySubmitted ErrCode = "QUIZ_ALREADY_SUBMITTED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrPaymentRequired  ErrCode = "PAYMENT_REQUIRED"
	ErrPayoutExceeds    ErrCode = "PAYOUT_EXCEEDS_BALANCE"
	ErrInvalidStatus    ErrCode = "INVALID_STATUS_TRANSITION"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Internal error details are never echoed to callers.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrRefreshInvalid:
		return "The refresh token is missing, unknown, or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotResourceOwner:
		return "Only the owner of this resource may modify it."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrInstructorOnly:
		return "This resource is restricted to instructors."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrAlreadyEnrolled:
		return "You are already enrolled in this course."
	case ErrNotEnrolled:
		return "You are not enrolled in this course."
	case ErrAlreadySubmitted:
		return "This quiz has already been submitted. The first attempt is final."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrPaymentRequired:
		return "A completed payment is required before enrolling in this course."
	case ErrPayoutExceeds:
		return "The requested payout exceeds your available balance."
	case ErrInvalidStatus:
		return "This status transition is not allowed."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
