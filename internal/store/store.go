package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/myrobot/academy/internal/models"
)

// Storage keys. Users deliberately use a dash; the client has always read
// them from "myrobot-users".
const (
	KeyChildren      = "myrobot_children"
	KeyCourses       = "myrobot_courses"
	KeyEvents        = "myrobot_events"
	KeyNotifications = "myrobot_notifications"
	KeyGallery       = "myrobot_gallery"
	KeyAchievements  = "myrobot_achievements"
	KeyUsers         = "myrobot-users"
	KeyLanguage      = "language"
)

const DefaultLanguage = "en"

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrChildAccountExists  = errors.New("child already has an account")
)

var supportedLanguages = map[string]bool{"en": true, "ar": true}

// Store groups the seven record collections and the language preference.
type Store struct {
	backend Backend
	ids     *idGen

	Children      *Collection[models.Child]
	Courses       *Collection[models.Course]
	Events        *Collection[models.Event]
	Notifications *Collection[models.Notification]
	Gallery       *Collection[models.GalleryItem]
	Achievements  *Collection[models.Achievement]
	Users         *Collection[models.User]
}

type Option func(*Store)

// WithClock replaces time.Now for id generation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.ids.now = now }
}

func New(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, ids: &idGen{now: time.Now}}
	for _, o := range opts {
		o(s)
	}

	s.Children = newCollection(KeyChildren, b, s.ids, func(c *models.Child) *string { return &c.ID }, nil)
	s.Courses = newCollection(KeyCourses, b, s.ids, func(c *models.Course) *string { return &c.ID }, defaultCourses)
	s.Events = newCollection(KeyEvents, b, s.ids, func(e *models.Event) *string { return &e.ID }, defaultEvents)
	s.Notifications = newCollection(KeyNotifications, b, s.ids, func(n *models.Notification) *string { return &n.ID }, nil)
	s.Gallery = newCollection(KeyGallery, b, s.ids, func(g *models.GalleryItem) *string { return &g.ID }, defaultGallery)
	s.Achievements = newCollection(KeyAchievements, b, s.ids, func(a *models.Achievement) *string { return &a.ID }, defaultAchievements)
	s.Users = newCollection(KeyUsers, b, s.ids, func(u *models.User) *string { return &u.ID }, nil)
	return s
}

// Now is the store clock.
func (s *Store) Now() time.Time { return s.ids.now() }

// AddUser validates the account shape and inserts it unless another user
// already holds the same email. The lookup and insert share one lock.
func (s *Store) AddUser(ctx context.Context, u models.User) (models.User, error) {
	u.Email = normEmail(u.Email)
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.Now().UTC()
	}
	return s.Users.AddIf(ctx, u, func(existing []models.User) error {
		for _, e := range existing {
			if normEmail(e.Email) == u.Email {
				return ErrEmailTaken
			}
		}
		if u.Role == models.RoleChild {
			for _, e := range existing {
				if e.Role == models.RoleChild && e.ChildID == u.ChildID {
					return ErrChildAccountExists
				}
			}
		}
		return nil
	})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return models.User{}, err
	}
	email = normEmail(email)
	for _, u := range users {
		if normEmail(u.Email) == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// HasChildAccount reports whether a child-role user points at childID.
func (s *Store) HasChildAccount(ctx context.Context, childID string) (bool, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Role == models.RoleChild && u.ChildID == childID {
			return true, nil
		}
	}
	return false, nil
}

// Notify appends an unread notification stamped with the store clock.
func (s *Store) Notify(ctx context.Context, typ, message string) (models.Notification, error) {
	return s.Notifications.Add(ctx, models.Notification{
		Message:   message,
		Type:      typ,
		Timestamp: s.Now().UTC(),
	})
}

// UnreadCount backs the admin notification badge.
func (s *Store) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.Notifications.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) Language(ctx context.Context) (string, error) {
	v, ok, err := s.backend.Load(ctx, KeyLanguage)
	if err != nil {
		return "", err
	}
	lang := strings.TrimSpace(string(v))
	if !ok || !supportedLanguages[lang] {
		return DefaultLanguage, nil
	}
	return lang, nil
}

func (s *Store) SetLanguage(ctx context.Context, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !supportedLanguages[lang] {
		return ErrUnsupportedLanguage
	}
	return s.backend.Save(ctx, KeyLanguage, []byte(lang))
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
