package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid session token")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// AdminID identifies the configured administrator, who has no stored record.
const AdminID = "admin"

// Session is the request-scoped identity carried by a token.
type Session struct {
	UserID   string      `json:"userId"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	ChildID  string      `json:"childId,omitempty"`
	ParentID string      `json:"parentId,omitempty"`
}

func (s *Session) Level() access.Level {
	if s == nil {
		return access.Anonymous
	}
	return access.For(true, s.Role)
}

type Claims struct {
	jwt.RegisteredClaims
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	ChildID  string      `json:"child_id,omitempty"`
	ParentID string      `json:"parent_id,omitempty"`
}

type Config struct {
	Secret        string
	TTL           time.Duration
	BcryptCost    int
	AdminEmail    string
	AdminPassword string
}

// Service handles registration, login and session tokens.
type Service struct {
	cfg   Config
	store *store.Store
	now   func() time.Time
}

func NewService(cfg Config, st *store.Store) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Service{cfg: cfg, store: st, now: time.Now}
}

func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CreateUser hashes password and stores u.
func (s *Service) CreateUser(ctx context.Context, u models.User, password string) (models.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	return s.store.AddUser(ctx, u)
}

// Register creates a parent account, the only role open to self sign-up.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, error) {
	return s.CreateUser(ctx, models.User{
		Name:  strings.TrimSpace(name),
		Email: email,
		Role:  models.RoleParent,
	}, password)
}

// Login checks the configured admin credentials first, then stored users.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.cfg.AdminEmail != "" && email == s.cfg.AdminEmail &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1 {
		return &Session{UserID: AdminID, Name: "Administrator", Email: email, Role: models.RoleAdmin}, nil
	}

	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return SessionFor(u), nil
}

// Refresh rereads the stored account behind sess so deleted users lose
// access and role changes apply before the token expires. The configured
// admin has no record and passes through.
func (s *Service) Refresh(ctx context.Context, sess *Session) (*Session, error) {
	if sess.UserID == AdminID && sess.Role == models.RoleAdmin {
		return sess, nil
	}
	u, err := s.store.Users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return SessionFor(u), nil
}

func SessionFor(u models.User) *Session {
	return &Session{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		ChildID:  u.ChildID,
		ParentID: u.ParentID,
	}
}

func (s *Service) IssueToken(sess *Session) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Name:     sess.Name,
		Email:    sess.Email,
		Role:     sess.Role,
		ChildID:  sess.ChildID,
		ParentID: sess.ParentID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ParseToken(tokenStr string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return &Session{
		UserID:   claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Role:     claims.Role,
		ChildID:  claims.ChildID,
		ParentID: claims.ParentID,
	}, nil
}

func (s *Service) TTL() time.Duration { return s.cfg.TTL }
