package models

import (
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	cases := []struct {
		name string
		u    User
		want error
	}{
		{"parent", User{Role: RoleParent}, nil},
		{"child with id", User{Role: RoleChild, ChildID: "17"}, nil},
		{"child without id", User{Role: RoleChild}, ErrChildIDRequired},
		{"coordinator with courses", User{Role: RoleCoordinator, CourseIDs: []string{"1"}}, nil},
		{"parent with courses", User{Role: RoleParent, CourseIDs: []string{"1"}}, ErrCourseIDsNotAllow},
		{"unknown role", User{Role: "teacher"}, ErrInvalidRole},
	}
	for _, c := range cases {
		if got := c.u.Validate(); got != c.want {
			t.Errorf("%s: Validate() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCourseSeats(t *testing.T) {
	c := Course{Capacity: 10, Enrolled: 12}
	if c.SeatsLeft() != 0 || !c.IsFull() {
		t.Errorf("overbooked course: SeatsLeft=%d IsFull=%v", c.SeatsLeft(), c.IsFull())
	}
	c.Enrolled = 7
	if c.SeatsLeft() != 3 || c.IsFull() {
		t.Errorf("SeatsLeft=%d IsFull=%v, want 3/false", c.SeatsLeft(), c.IsFull())
	}
}

func TestEventStartsAt(t *testing.T) {
	e := Event{Date: "2026-03-14", Time: "15:30"}
	got, err := e.StartsAt(time.UTC)
	if err != nil {
		t.Fatalf("StartsAt: %v", err)
	}
	want := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartsAt = %v, want %v", got, want)
	}

	e.Time = ""
	got, err = e.StartsAt(time.UTC)
	if err != nil || got.Hour() != 0 {
		t.Errorf("date-only StartsAt = %v, %v", got, err)
	}
}

func TestPublicCopies(t *testing.T) {
	u := User{PasswordHash: "secret"}.Public()
	if u.PasswordHash != "" {
		t.Error("User.Public kept the hash")
	}
	e := Event{Attendees: []Attendee{{Name: "A"}}}.Public()
	if e.Attendees != nil {
		t.Error("Event.Public kept attendees")
	}
	if (LocalizedText{En: "Hi"}).In("ar") != "Hi" {
		t.Error("LocalizedText.In should fall back to English")
	}
}
