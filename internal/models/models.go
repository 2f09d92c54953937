package models

import (
	"errors"
	"strings"
	"time"
)

// Child is a learner owned by a parent account.
type Child struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"required,max=80"`
	Age         string       `json:"age" validate:"omitempty,number"`
	Grade       string       `json:"grade" validate:"max=20"`
	Interests   []string     `json:"interests,omitempty"`
	ParentID    string       `json:"parentId,omitempty"`
	Enrollments []Enrollment `json:"enrollments,omitempty"`
}

// Enrollment records a course seat taken through the enrollment wizard.
type Enrollment struct {
	CourseID   string    `json:"courseId"`
	Code       string    `json:"code"` // e.g. REG-1A2B3C4D
	EnrolledAt time.Time `json:"enrolledAt"`
}

type Course struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required,max=120"`
	Level       string  `json:"level"`
	AgeRange    string  `json:"ageRange"`
	Capacity    int     `json:"capacity" validate:"min=0"`
	Enrolled    int     `json:"enrolled" validate:"min=0"`
	Schedule    string  `json:"schedule"`
	Coordinator string  `json:"coordinator"` // free text, not a user id
	Price       float64 `json:"price" validate:"min=0"`
	Description string  `json:"description,omitempty"`
}

func (c Course) SeatsLeft() int {
	if left := c.Capacity - c.Enrolled; left > 0 {
		return left
	}
	return 0
}

func (c Course) IsFull() bool { return c.SeatsLeft() == 0 }

// LocalizedText carries the English and Arabic renditions of a string.
type LocalizedText struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

// In returns the text for lang, falling back to English.
func (t LocalizedText) In(lang string) string {
	if lang == "ar" && t.Ar != "" {
		return t.Ar
	}
	return t.En
}

type Event struct {
	ID          string        `json:"id"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
	Location    LocalizedText `json:"location"`
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string        `json:"time" validate:"omitempty,datetime=15:04"`
	Capacity    int           `json:"capacity" validate:"min=0"`
	Enrolled    int           `json:"enrolled" validate:"min=0"`
	Price       float64       `json:"price" validate:"min=0"`
	Category    string        `json:"category"`
	Image       string        `json:"image"`
	Attendees   []Attendee    `json:"attendees,omitempty"`
}

type Attendee struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Tickets int    `json:"tickets"`
	Code    string `json:"code"`
}

// StartsAt combines Date and Time in loc. A missing time means midnight.
func (e Event) StartsAt(loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(e.Time) == "" {
		return time.ParseInLocation("2006-01-02", e.Date, loc)
	}
	return time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Time, loc)
}

func (e Event) SeatsLeft() int {
	if left := e.Capacity - e.Enrolled; left > 0 {
		return left
	}
	return 0
}

// Public hides attendee contact details.
func (e Event) Public() Event {
	e.Attendees = nil
	return e
}

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleParent      Role = "parent"
	RoleChild       Role = "child"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleParent, RoleChild:
		return true
	}
	return false
}

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrChildIDRequired   = errors.New("child account requires childId")
	ErrCourseIDsNotAllow = errors.New("only coordinators are assigned courses")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         Role      `json:"role"`
	ParentID     string    `json:"parentId,omitempty"`
	ChildID      string    `json:"childId,omitempty"`
	CourseIDs    []string  `json:"courseIds,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate enforces the per-role shape of an account.
func (u User) Validate() error {
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	if u.Role == RoleChild && strings.TrimSpace(u.ChildID) == "" {
		return ErrChildIDRequired
	}
	if u.Role != RoleCoordinator && len(u.CourseIDs) > 0 {
		return ErrCourseIDsNotAllow
	}
	return nil
}

// Public strips the password hash before a user leaves the server.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // enrollment | event | reminder | system
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

type GalleryItem struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StudentName string `json:"studentName"`
	ImageURL    string `json:"imageUrl"`
	Date        string `json:"date"`
}
