package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrLoginRequired      ErrCode = "LOGIN_REQUIRED"
	ErrWeakPassword       ErrCode = "WEAK_PASSWORD"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// Authorization
	ErrAccessLevelTooLow ErrCode = "ACCESS_LEVEL_TOO_LOW"
	ErrForbidden         ErrCode = "FORBIDDEN"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidStep    ErrCode = "INVALID_STEP"

	// Resources
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "CONFLICT"
	ErrCodeNotFound ErrCode = "CODE_NOT_FOUND"

	// Enrollment and checkout
	ErrCourseFull   ErrCode = "COURSE_FULL"
	ErrEventFull    ErrCode = "EVENT_FULL"
	ErrCardDeclined ErrCode = "CARD_DECLINED"

	// Rate limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Incorrect email or password.",
	ErrLoginRequired:      "Please sign in to continue.",
	ErrWeakPassword:       "Password must be at least 6 characters.",
	ErrEmailTaken:         "That email is already used by another account.",
	ErrAccessLevelTooLow:  "Your account does not include this area.",
	ErrForbidden:          "You do not have permission to do that.",
	ErrValidation:         "Please check the highlighted fields.",
	ErrInvalidPayload:     "The request body is not valid.",
	ErrInvalidStep:        "Unknown wizard step.",
	ErrNotFound:           "Not found.",
	ErrConflict:           "That record already exists.",
	ErrCodeNotFound:       "Code not found.",
	ErrCourseFull:         "This course is full.",
	ErrEventFull:          "Not enough seats left for this event.",
	ErrCardDeclined:       "Your card was declined.",
	ErrRateLimitExceeded:  "Too many attempts. Please wait a moment.",
	ErrInternal:           "Something went wrong. Please try again.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "An error occurred."
}
