package handlers

import (
	"net/http"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/response"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionView struct {
	Session *auth.Session `json:"session"`
	Level   access.Level  `json:"level"`
	Token   string        `json:"token,omitempty"`
}

// POST /api/auth/register
func Register(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := bind(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := svc.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sess := auth.SessionFor(u)
		token, err := svc.IssueToken(sess)
		if err != nil {
			writeError(w, r, err)
			return
		}
		setSessionCookie(w, r, token, svc.TTL())
		response.SuccessWithToast(w, r, http.StatusCreated,
			sessionView{Session: sess, Level: sess.Level(), Token: token}, okToast("registered"))
	}
}

// POST /api/auth/login
func Login(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := bind(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		token, err := svc.IssueToken(sess)
		if err != nil {
			writeError(w, r, err)
			return
		}
		setSessionCookie(w, r, token, svc.TTL())
		response.SuccessWithToast(w, r, http.StatusOK,
			sessionView{Session: sess, Level: sess.Level(), Token: token}, okToast("logged_in"))
	}
}

// POST /api/auth/logout
func Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	response.SuccessWithToast(w, r, http.StatusOK, nil, okToast("logged_out"))
}

// GET /api/auth/me
func Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	response.Success(w, r, http.StatusOK, sessionView{Session: sess, Level: access.FromContext(r.Context())})
}
