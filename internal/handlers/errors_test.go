package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestBind(t *testing.T) {
	var s signup
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","name":"Al"}`))
	require.NoError(t, bind(httptest.NewRecorder(), req, &s))
	assert.Equal(t, "Al", s.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	assert.ErrorIs(t, bind(httptest.NewRecorder(), req, &s), errBadBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, bind(httptest.NewRecorder(), req, &s), errBadBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	err := bind(httptest.NewRecorder(), req, &s)
	var fe *validator.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Fields, "email")
	assert.Contains(t, fe.Fields, "name")
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: empty body", errBadBody), http.StatusBadRequest, "INVALID_PAYLOAD"},
		{store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{services.ErrCodeNotFound, http.StatusNotFound, "CODE_NOT_FOUND"},
		{services.ErrCourseFull, http.StatusConflict, "COURSE_FULL"},
		{services.ErrCardDeclined, http.StatusPaymentRequired, "CARD_DECLINED"},
		{services.ErrIdempotencyReused, http.StatusConflict, "CONFLICT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), c.err)
		assert.Equal(t, c.status, rec.Code, c.err.Error())

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, c.code, body.Error.Code, c.err.Error())
	}
}
