package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
)

// Resource serves list/get/create/update/delete over one collection.
type Resource[T any] struct {
	Coll *store.Collection[T]

	// View shapes each record on the way out. Optional.
	View func(T) T
	// Check validates a record before it is stored. Defaults to the struct
	// validator.
	Check func(*T) error
	// Prepare runs on new records before Check.
	Prepare func(*T)
	// Protected patch keys are rejected on update.
	Protected []string
}

func (res Resource[T]) check(rec *T) error {
	if res.Check != nil {
		return res.Check(rec)
	}
	return validator.Default().Struct(rec)
}

func (res Resource[T]) view(rec T) T {
	if res.View != nil {
		return res.View(rec)
	}
	return rec
}

// Routes mounts the handlers on r relative to its prefix.
func (res Resource[T]) Routes(r chi.Router) {
	r.Get("/", res.List)
	r.Post("/", res.Create)
	r.Get("/{id}", res.Get)
	r.Put("/{id}", res.Update)
	r.Patch("/{id}", res.Update)
	r.Delete("/{id}", res.Delete)
}

func (res Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	list, err := res.Coll.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]T, 0, len(list))
	for _, rec := range list {
		out = append(out, res.view(rec))
	}
	response.Success(w, r, http.StatusOK, out)
}

func (res Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := res.Coll.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, r, http.StatusOK, res.view(rec))
}

func (res Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var rec T
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	if res.Prepare != nil {
		res.Prepare(&rec)
	}
	if err := res.check(&rec); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := res.Coll.Add(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessWithToast(w, r, http.StatusCreated, res.view(saved), okToast("saved"))
}

// Update merges a JSON object over the stored record.
func (res Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	for _, k := range res.Protected {
		if _, ok := patch[k]; ok {
			response.FailWithFields(w, r, http.StatusUnprocessableEntity, response.ErrValidation,
				map[string]string{k: k + " cannot be changed here"})
			return
		}
	}

	saved, ok, err := res.Coll.UpdateFunc(r.Context(), chi.URLParam(r, "id"), func(cur *T) error {
		merged, err := store.MergePatch(*cur, patch)
		if err != nil {
			return err
		}
		if err := res.check(&merged); err != nil {
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
	response.SuccessWithToast(w, r, http.StatusOK, res.view(saved), okToast("saved"))
}

func (res Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := res.Coll.Delete(r.Context(), chi.URLParam(r, "id"))
	if err == nil && !ok {
		err = store.ErrNotFound
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessWithToast(w, r, http.StatusOK, nil, okToast("deleted"))
}
