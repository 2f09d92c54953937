package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
)

// GET /qr/{code}.png renders a scannable link to the code check page.
func QR(st *store.Store, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		// ensure code exists
		if _, err := services.LookupCode(r.Context(), st, code); err != nil {
			if errors.Is(err, services.ErrCodeNotFound) {
				http.NotFound(w, r)
				return
			}
			writeError(w, r, err)
			return
		}

		base := baseURL
		if base == "" {
			base = "http://" + r.Host
		}
		url := base + "/api/codes/" + code

		png, err := qrcode.Encode(url, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to generate qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

// GET /api/codes/{code} tells door staff who a code belongs to.
func LookupCode(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := services.LookupCode(r.Context(), st, strings.ToUpper(chi.URLParam(r, "code")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Success(w, r, http.StatusOK, owner)
	}
}
