package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/store"
)

func AdminCourses(st *store.Store) Resource[models.Course] {
	return Resource[models.Course]{Coll: st.Courses}
}

// AdminEvents includes attendee lists.
func AdminEvents(st *store.Store) Resource[models.Event] {
	return Resource[models.Event]{Coll: st.Events}
}

func AdminNotifications(st *store.Store) Resource[models.Notification] {
	return Resource[models.Notification]{
		Coll: st.Notifications,
		Prepare: func(n *models.Notification) {
			n.Timestamp = st.Now().UTC()
			n.Read = false
			if n.Type == "" {
				n.Type = "system"
			}
		},
	}
}

// AdminUsers never exposes password hashes and keeps email and password
// out of generic patches.
func AdminUsers(st *store.Store) Resource[models.User] {
	return Resource[models.User]{
		Coll:      st.Users,
		View:      models.User.Public,
		Check:     func(u *models.User) error { return u.Validate() },
		Protected: []string{"passwordHash", "email", "createdAt"},
	}
}

type createUserRequest struct {
	Name      string      `json:"name" validate:"required,min=2,max=80"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=6,max=72"`
	Role      models.Role `json:"role" validate:"required,oneof=admin coordinator parent child"`
	ParentID  string      `json:"parentId"`
	ChildID   string      `json:"childId"`
	CourseIDs []string    `json:"courseIds"`
}

// POST /api/admin/users
func CreateUser(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := bind(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := svc.CreateUser(r.Context(), models.User{
			Name:      strings.TrimSpace(req.Name),
			Email:     req.Email,
			Role:      req.Role,
			ParentID:  req.ParentID,
			ChildID:   req.ChildID,
			CourseIDs: req.CourseIDs,
		}, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusCreated, u.Public(), okToast("saved"))
	}
}

// GET /api/admin/notifications/unread
func UnreadNotifications(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := st.UnreadCount(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Success(w, r, http.StatusOK, map[string]int{"unread": n})
	}
}

// POST /api/admin/notifications/{id}/read
func MarkNotificationRead(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok, err := st.Notifications.UpdateFunc(r.Context(), chi.URLParam(r, "id"), func(n *models.Notification) error {
			n.Read = true
			return nil
		})
		if err == nil && !ok {
			err = store.ErrNotFound
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.SuccessWithToast(w, r, http.StatusOK, n, okToast("marked_read"))
	}
}
