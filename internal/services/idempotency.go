package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// submissions remembers successful submits by idempotency key. Concurrent
// submits with the same key share one run; a failed run is forgotten so the
// client can retry.
type submissions[R any] struct {
	group singleflight.Group

	mu   sync.Mutex
	done map[string]R
}

func newSubmissions[R any]() *submissions[R] {
	return &submissions[R]{done: map[string]R{}}
}

func (s *submissions[R]) lookup(key string) (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.done[key]
	return r, ok
}

// do runs fn once per key. Waiting callers give up when their ctx ends.
func (s *submissions[R]) do(ctx context.Context, key string, fn func() (R, error)) (R, error) {
	if r, ok := s.lookup(key); ok {
		return r, nil
	}
	ch := s.group.DoChan(key, func() (any, error) {
		if r, ok := s.lookup(key); ok {
			return r, nil
		}
		r, err := fn()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.done[key] = r
		s.mu.Unlock()
		return r, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			var zero R
			return zero, res.Err
		}
		return res.Val.(R), nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
