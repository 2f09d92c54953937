package access

import (
	"net/http"

	"github.com/myrobot/academy/internal/response"
)

// Prompt is the call-to-action rendered in place of gated content.
type Prompt struct {
	Action   string `json:"action"` // register | upgrade
	Message  string `json:"message"`
	Link     string `json:"link"`
	Required Level  `json:"required"`
	Current  Level  `json:"current"`
}

// PromptFor builds the fallback shown to current when required is not met.
func PromptFor(required, current Level) Prompt {
	if current == Anonymous {
		return Prompt{
			Action:   "register",
			Message:  "Create a free account to see this content.",
			Link:     "/register",
			Required: required,
			Current:  current,
		}
	}
	return Prompt{
		Action:   "upgrade",
		Message:  "Your account does not include this area yet.",
		Link:     "/upgrade",
		Required: required,
		Current:  current,
	}
}

// DefaultFallback writes the prompt as JSON: 401 for anonymous callers,
// 403 for signed-in callers below the required level.
func DefaultFallback(required Level) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := FromContext(r.Context())
		p := PromptFor(required, current)

		status, code := http.StatusForbidden, response.ErrAccessLevelTooLow
		if current == Anonymous {
			status, code = http.StatusUnauthorized, response.ErrLoginRequired
		}
		response.Write(w, r, status, response.Response{
			Error:  &response.ErrorBody{Code: code, Message: p.Message},
			Prompt: p,
		})
	})
}

// Require is middleware serving next only when the request level reaches
// required; otherwise it serves DefaultFallback.
func Require(required Level) func(http.Handler) http.Handler {
	return RequireOr(required, DefaultFallback(required))
}

// RequireOr is Require with a caller-supplied fallback.
func RequireOr(required Level, fallback http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Gate(required, FromContext(r.Context()), next, fallback).ServeHTTP(w, r)
		})
	}
}
