package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/validator"
	"github.com/myrobot/academy/internal/wizard"
)

type stepRequest[T any] struct {
	Step int `json:"step"`
	Data T   `json:"data"`
}

type stepsView struct {
	Flow  string       `json:"flow"`
	Steps []string     `json:"steps"`
	State wizard.State `json:"state"`
}

// FlowSource picks the flow serving a request.
type FlowSource[T any] func(r *http.Request) (*wizard.Flow[T], error)

// Fixed serves the same flow to every request.
func Fixed[T any](flow *wizard.Flow[T]) FlowSource[T] {
	return func(*http.Request) (*wizard.Flow[T], error) { return flow, nil }
}

// CheckoutFlow serves the free or paid checkout for the event in the URL.
func CheckoutFlow(chk *services.Checkout) FlowSource[services.CheckoutForm] {
	return func(r *http.Request) (*wizard.Flow[services.CheckoutForm], error) {
		return chk.FlowFor(r.Context(), chi.URLParam(r, "id"))
	}
}

// WizardSteps describes the flow and its first step.
func WizardSteps[T any](src FlowSource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := src(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		names := make([]string, 0, len(flow.Steps))
		for _, s := range flow.Steps {
			names = append(names, s.Name)
		}
		response.Success(w, r, http.StatusOK, stepsView{Flow: flow.Name, Steps: names, State: flow.State(0)})
	}
}

// WizardNext validates the posted step and returns the state to show next.
// A failed step answers 422 with the unchanged state and the field errors.
func WizardNext[T any](src FlowSource[T], prepare func(*http.Request, *T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := src(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req stepRequest[T]
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if prepare != nil {
			prepare(r, &req.Data)
		}
		next, err := flow.Next(req.Step, &req.Data)
		var fe *validator.FieldErrors
		if errors.As(err, &fe) {
			response.Write(w, r, http.StatusUnprocessableEntity, response.Response{
				Data: flow.State(next),
				Error: &response.ErrorBody{
					Code:    response.ErrValidation,
					Message: response.GetMessage(response.ErrValidation),
					Fields:  fe.Fields,
				},
			})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Success(w, r, http.StatusOK, flow.State(next))
	}
}

// WizardPrev steps back without validating.
func WizardPrev[T any](src FlowSource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow, err := src(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req struct {
			Step int `json:"step"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		response.Success(w, r, http.StatusOK, flow.State(flow.Prev(req.Step)))
	}
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

// PrepareEnrollment normalizes contact fields before validation.
func PrepareEnrollment(dialCode string) func(*http.Request, *services.EnrollmentForm) {
	return func(_ *http.Request, f *services.EnrollmentForm) { f.Normalize(dialCode) }
}

// POST /api/enrollment
func SubmitEnrollment(enr *services.Enrollments, dialCode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form services.EnrollmentForm
		if err := decodeJSON(w, r, &form); err != nil {
			writeError(w, r, err)
			return
		}
		form.Normalize(dialCode)

		parentID := ""
		if sess := auth.FromContext(r.Context()); sess != nil && sess.Role == models.RoleParent {
			parentID = sess.UserID
		}
		res, err := enr.Submit(r.Context(), form, parentID, idempotencyKey(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusCreated, res, okToast("enrolled", res.Code))
	}
}

// PrepareCheckout takes the event id from the URL.
func PrepareCheckout(r *http.Request, f *services.CheckoutForm) {
	f.EventID = chi.URLParam(r, "id")
	f.Normalize()
}

// POST /api/events/{id}/checkout
func SubmitCheckout(chk *services.Checkout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form services.CheckoutForm
		if err := decodeJSON(w, r, &form); err != nil {
			writeError(w, r, err)
			return
		}
		PrepareCheckout(r, &form)
		res, err := chk.Submit(r.Context(), form, idempotencyKey(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusCreated, res, okToast("tickets_booked", res.Ticket.Code))
	}
}
