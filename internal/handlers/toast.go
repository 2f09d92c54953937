package handlers

import (
	"fmt"

	"github.com/myrobot/academy/internal/response"
)

var okText = map[string]string{
	"registered":      "Welcome aboard! Your account is ready.",
	"logged_in":       "Signed in.",
	"logged_out":      "Signed out.",
	"saved":           "Saved.",
	"deleted":         "Deleted.",
	"child_saved":     "Child saved.",
	"child_deleted":   "Child deleted.",
	"account_created": "Student account created.",
	"enrolled":        "Enrollment confirmed. Your registration code is %s.",
	"tickets_booked":  "Tickets booked. Your code is %s.",
	"canceled":        "Enrollment canceled.",
	"language_saved":  "Language updated.",
	"marked_read":     "Notification marked as read.",
}

// okToast builds the success toast for key. Unknown keys are shown as-is.
func okToast(key string, args ...any) *response.Toast {
	text, ok := okText[key]
	if !ok {
		text = key
	}
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	return &response.Toast{Kind: "ok", Text: text}
}
