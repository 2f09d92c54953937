package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidPatch = errors.New("invalid patch")
)

// Collection is one record kind persisted as a JSON array under a fixed key.
// Writes go through a per-collection mutex so read-modify-write cycles from
// concurrent requests never interleave.
type Collection[T any] struct {
	key      string
	backend  Backend
	defaults func() []T
	idOf     func(*T) *string
	ids      *idGen

	mu sync.Mutex
}

func newCollection[T any](key string, b Backend, ids *idGen, idOf func(*T) *string, defaults func() []T) *Collection[T] {
	return &Collection[T]{key: key, backend: b, ids: ids, idOf: idOf, defaults: defaults}
}

// Key is the storage key the collection lives under.
func (c *Collection[T]) Key() string { return c.key }

// List returns the stored array, or the default list when the key is absent.
// Defaults are not written back.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	return c.load(ctx)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	list, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	if i := c.indexOf(list, id); i >= 0 {
		return list[i], nil
	}
	return zero, ErrNotFound
}

// Save overwrites the key with list.
func (c *Collection[T]) Save(ctx context.Context, list []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store(ctx, list)
}

// Add assigns a fresh timestamp id to rec, appends it and returns it.
func (c *Collection[T]) Add(ctx context.Context, rec T) (T, error) {
	return c.AddIf(ctx, rec, nil)
}

// AddIf is Add with a precondition evaluated against the current list under
// the collection lock. A non-nil error from check aborts the insert.
func (c *Collection[T]) AddIf(ctx context.Context, rec T, check func(existing []T) error) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	if check != nil {
		if err := check(list); err != nil {
			return zero, err
		}
	}

	id := c.ids.next()
	for c.indexOf(list, id) >= 0 {
		id = c.ids.next()
	}
	*c.idOf(&rec) = id

	if err := c.store(ctx, append(list, rec)); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update merges patch over the record with the given id. Keys absent from
// patch keep their value and "id" is never overwritten. ok is false when no
// record matches, in which case nothing is written.
func (c *Collection[T]) Update(ctx context.Context, id string, patch map[string]any) (rec T, ok bool, err error) {
	return c.UpdateFunc(ctx, id, func(cur *T) error {
		merged, err := MergePatch(*cur, patch)
		if err != nil {
			return err
		}
		*cur = merged
		return nil
	})
}

// UpdateFunc applies fn to the record with the given id and saves the list.
// An error from fn aborts without writing.
func (c *Collection[T]) UpdateFunc(ctx context.Context, id string, fn func(*T) error) (rec T, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return rec, false, err
	}
	i := c.indexOf(list, id)
	if i < 0 {
		return rec, false, nil
	}
	if err := fn(&list[i]); err != nil {
		return rec, true, err
	}
	*c.idOf(&list[i]) = id
	if err := c.store(ctx, list); err != nil {
		return rec, true, err
	}
	return list[i], true, nil
}

// Delete removes the first record with the given id and keeps the order of
// the rest. ok is false when no record matches.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	i := c.indexOf(list, id)
	if i < 0 {
		return false, nil
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	return true, c.store(ctx, out)
}

func (c *Collection[T]) indexOf(list []T, id string) int {
	for i := range list {
		if *c.idOf(&list[i]) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.backend.Load(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		if c.defaults != nil {
			return c.defaults(), nil
		}
		return []T{}, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func (c *Collection[T]) store(ctx context.Context, list []T) error {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.backend.Save(ctx, c.key, b)
}

// MergePatch overlays patch on cur through their JSON forms. "id" is never
// patched.
func MergePatch[T any](cur T, patch map[string]any) (T, error) {
	var zero T
	b, err := json.Marshal(cur)
	if err != nil {
		return zero, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return zero, err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	if b, err = json.Marshal(fields); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}

// idGen hands out decimal Unix-millisecond ids, strictly increasing within
// the process.
type idGen struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (g *idGen) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
