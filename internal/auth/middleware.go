package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/store"
)

const CookieName = "myrobot_session"

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, s)
	return access.WithLevel(ctx, s.Level())
}

// FromContext returns the request session or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Middleware resolves the session from the cookie or a Bearer header and
// refreshes it from the store. An invalid or expired token, or one whose
// account is gone, makes the request anonymous rather than failing it.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := tokenFrom(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := svc.ParseToken(tok)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, err = svc.Refresh(r.Context(), sess)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					zerolog.Ctx(r.Context()).Warn().Err(err).Msg("session refresh failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
