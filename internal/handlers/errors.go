package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
	"github.com/myrobot/academy/internal/wizard"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// decodeJSON reads a single JSON value from the body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// bind decodes and validates a request body.
func bind(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return validator.Default().Struct(dst)
}

// writeError maps domain errors onto envelope codes. Anything unknown is
// logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *validator.FieldErrors
	switch {
	case errors.As(err, &fe):
		response.FailWithFields(w, r, http.StatusUnprocessableEntity, response.ErrValidation, fe.Fields)
	case errors.Is(err, errBadBody), errors.Is(err, store.ErrInvalidPatch):
		response.FailWithMessage(w, r, http.StatusBadRequest, response.ErrInvalidPayload, err.Error())

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrEventNotFound):
		response.Fail(w, r, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, services.ErrCodeNotFound):
		response.Fail(w, r, http.StatusNotFound, response.ErrCodeNotFound)

	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Fail(w, r, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, auth.ErrWeakPassword):
		response.FailWithFields(w, r, http.StatusUnprocessableEntity, response.ErrWeakPassword,
			map[string]string{"password": err.Error()})
	case errors.Is(err, store.ErrEmailTaken):
		response.FailWithFields(w, r, http.StatusConflict, response.ErrEmailTaken,
			map[string]string{"email": err.Error()})
	case errors.Is(err, store.ErrChildAccountExists):
		response.FailWithMessage(w, r, http.StatusConflict, response.ErrConflict, "This child already has an account.")
	case errors.Is(err, store.ErrUnsupportedLanguage):
		response.FailWithFields(w, r, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{"language": err.Error()})
	case errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrChildIDRequired),
		errors.Is(err, models.ErrCourseIDsNotAllow):
		response.FailWithMessage(w, r, http.StatusUnprocessableEntity, response.ErrValidation, err.Error())

	case errors.Is(err, services.ErrCourseFull):
		response.Fail(w, r, http.StatusConflict, response.ErrCourseFull)
	case errors.Is(err, services.ErrEventFull):
		response.Fail(w, r, http.StatusConflict, response.ErrEventFull)
	case errors.Is(err, services.ErrCardDeclined):
		response.Fail(w, r, http.StatusPaymentRequired, response.ErrCardDeclined)
	case errors.Is(err, services.ErrIdempotencyReused):
		response.FailWithMessage(w, r, http.StatusConflict, response.ErrConflict, "This request key was already used for a different payment.")
	case errors.Is(err, wizard.ErrUnknownStep):
		response.Fail(w, r, http.StatusBadRequest, response.ErrInvalidStep)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Fail(w, r, http.StatusServiceUnavailable, response.ErrInternal)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.Fail(w, r, http.StatusInternalServerError, response.ErrInternal)
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, r, http.StatusForbidden, response.ErrForbidden)
}
