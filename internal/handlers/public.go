package handlers

import (
	"net/http"

	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/store"
)

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound is the JSON catch-all.
func NotFound(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, r, http.StatusNotFound, response.ErrNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.FailWithMessage(w, r, http.StatusMethodNotAllowed, response.ErrNotFound, "Method not allowed.")
}

// Read-only views of the public catalogue.

func Courses(st *store.Store) Resource[models.Course] {
	return Resource[models.Course]{Coll: st.Courses}
}

func Events(st *store.Store) Resource[models.Event] {
	return Resource[models.Event]{Coll: st.Events, View: models.Event.Public}
}

func Gallery(st *store.Store) Resource[models.GalleryItem] {
	return Resource[models.GalleryItem]{Coll: st.Gallery}
}

func Achievements(st *store.Store) Resource[models.Achievement] {
	return Resource[models.Achievement]{Coll: st.Achievements}
}

type languageRequest struct {
	Language string `json:"language" validate:"required"`
}

// GET /api/language
func GetLanguage(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, err := st.Language(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Success(w, r, http.StatusOK, languageRequest{Language: lang})
	}
}

// PUT /api/language
func SetLanguage(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req languageRequest
		if err := bind(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := st.SetLanguage(r.Context(), req.Language); err != nil {
			writeError(w, r, err)
			return
		}
		lang, _ := st.Language(r.Context())
		response.SuccessWithToast(w, r, http.StatusOK, languageRequest{Language: lang}, okToast("language_saved"))
	}
}
