package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
)

// ownsChild: admins manage every child, everyone else only their own.
func ownsChild(sess *auth.Session, c models.Child) bool {
	if sess == nil {
		return false
	}
	return sess.Level() >= access.Admin || c.ParentID == sess.UserID
}

// loadOwnedChild writes the error response itself and reports ok=false.
func loadOwnedChild(w http.ResponseWriter, r *http.Request, st *store.Store) (models.Child, bool) {
	c, err := st.Children.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return c, false
	}
	if !ownsChild(auth.FromContext(r.Context()), c) {
		// Hide other families' children.
		response.Fail(w, r, http.StatusNotFound, response.ErrNotFound)
		return c, false
	}
	return c, true
}

// GET /api/parent/children
func ListChildren(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		list, err := st.Children.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]models.Child, 0, len(list))
		for _, c := range list {
			if ownsChild(sess, c) {
				out = append(out, c)
			}
		}
		response.Success(w, r, http.StatusOK, out)
	}
}

// GET /api/parent/children/{id}
func GetChild(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, ok := loadOwnedChild(w, r, st); ok {
			response.Success(w, r, http.StatusOK, c)
		}
	}
}

// POST /api/parent/children
func CreateChild(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Child
		if err := bind(w, r, &c); err != nil {
			writeError(w, r, err)
			return
		}
		c.Name = strings.TrimSpace(c.Name)
		c.ParentID = auth.FromContext(r.Context()).UserID
		c.Enrollments = nil // only the enrollment wizard adds these
		saved, err := st.Children.Add(r.Context(), c)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusCreated, saved, okToast("child_saved"))
	}
}

// PUT /api/parent/children/{id}
func UpdateChild(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := loadOwnedChild(w, r, st); !ok {
			return
		}
		var patch map[string]any
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		delete(patch, "parentId")
		delete(patch, "enrollments")

		saved, ok, err := st.Children.UpdateFunc(r.Context(), chi.URLParam(r, "id"), func(cur *models.Child) error {
			merged, err := store.MergePatch(*cur, patch)
			if err != nil {
				return err
			}
			if err := validator.Default().Struct(&merged); err != nil {
				return err
			}
			*cur = merged
			return nil
		})
		if err == nil && !ok {
			err = store.ErrNotFound
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusOK, saved, okToast("child_saved"))
	}
}

// DELETE /api/parent/children/{id} frees the child's seats and removes its
// student account.
func DeleteChild(st *store.Store, enr *services.Enrollments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadOwnedChild(w, r, st)
		if !ok {
			return
		}
		ctx := r.Context()
		for _, e := range c.Enrollments {
			if err := enr.Cancel(ctx, e.Code, ""); err != nil {
				writeError(w, r, err)
				return
			}
		}

		users, err := st.Users.List(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, u := range users {
			if u.Role == models.RoleChild && u.ChildID == c.ID {
				if _, err := st.Users.Delete(ctx, u.ID); err != nil {
					writeError(w, r, err)
					return
				}
			}
		}

		if _, err := st.Children.Delete(ctx, c.ID); err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusOK, nil, okToast("child_deleted"))
	}
}

type childAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// POST /api/parent/children/{id}/account gives a child a student login.
func CreateChildAccount(st *store.Store, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadOwnedChild(w, r, st)
		if !ok {
			return
		}
		var req childAccountRequest
		if err := bind(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := svc.CreateUser(r.Context(), models.User{
			Name:     c.Name,
			Email:    req.Email,
			Role:     models.RoleChild,
			ChildID:  c.ID,
			ParentID: c.ParentID,
		}, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusCreated, u.Public(), okToast("account_created"))
	}
}

// POST /api/parent/enrollments/{code}/cancel
func CancelEnrollment(enr *services.Enrollments) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		parentID := sess.UserID
		if sess.Level() >= access.Admin {
			parentID = ""
		}
		if err := enr.Cancel(r.Context(), strings.ToUpper(chi.URLParam(r, "code")), parentID); err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusOK, nil, okToast("canceled"))
	}
}
