// Package access maps sessions to numeric access levels and gates content
// against a required level.
package access

import (
	"context"

	"github.com/myrobot/academy/internal/models"
)

type Level int

const (
	Anonymous   Level = 1
	Member      Level = 2 // logged in, no recognised role
	Student     Level = 3
	Parent      Level = 4
	Coordinator Level = 5
	Admin       Level = 6
)

func (l Level) Valid() bool { return l >= Anonymous && l <= Admin }

func (l Level) String() string {
	switch l {
	case Anonymous:
		return "anonymous"
	case Member:
		return "member"
	case Student:
		return "student"
	case Parent:
		return "parent"
	case Coordinator:
		return "coordinator"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// For derives the level of a session.
func For(authenticated bool, role models.Role) Level {
	if !authenticated {
		return Anonymous
	}
	switch role {
	case models.RoleAdmin:
		return Admin
	case models.RoleCoordinator:
		return Coordinator
	case models.RoleParent:
		return Parent
	case models.RoleChild:
		return Student
	}
	return Member
}

// Allowed reports whether current may see content requiring required.
func Allowed(required, current Level) bool {
	return current >= required
}

// Gate returns content when current reaches required, fallback otherwise.
func Gate[T any](required, current Level, content, fallback T) T {
	if Allowed(required, current) {
		return content
	}
	return fallback
}

type ctxKey struct{}

func WithLevel(ctx context.Context, l Level) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request level; Anonymous when unset.
func FromContext(ctx context.Context) Level {
	if l, ok := ctx.Value(ctxKey{}).(Level); ok && l.Valid() {
		return l
	}
	return Anonymous
}
