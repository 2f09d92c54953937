package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/myrobot/academy/internal/store"
)

var reRegCode = regexp.MustCompile(`^REG-[0-9A-F]{8}$`)

// NewRegCode returns a REG-XXXXXXXX code with 32 random bits.
func NewRegCode() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return "REG-" + strings.ToUpper(hex.EncodeToString(b[:]))
}

func ValidRegCode(code string) bool { return reRegCode.MatchString(code) }

var ErrCodeNotFound = errors.New("code not found")

// CodeOwner describes what a registration code was issued for.
type CodeOwner struct {
	Code   string `json:"code"`
	Kind   string `json:"kind"` // course | event
	Holder string `json:"holder"`
	Target string `json:"target"`
}

// LookupCode finds the course enrollment or event ticket behind code.
func LookupCode(ctx context.Context, st *store.Store, code string) (CodeOwner, error) {
	if !ValidRegCode(code) {
		return CodeOwner{}, ErrCodeNotFound
	}

	children, err := st.Children.List(ctx)
	if err != nil {
		return CodeOwner{}, err
	}
	for _, c := range children {
		for _, e := range c.Enrollments {
			if e.Code != code {
				continue
			}
			target := e.CourseID
			if course, err := st.Courses.Get(ctx, e.CourseID); err == nil {
				target = course.Name
			}
			return CodeOwner{Code: code, Kind: "course", Holder: c.Name, Target: target}, nil
		}
	}

	events, err := st.Events.List(ctx)
	if err != nil {
		return CodeOwner{}, err
	}
	for _, ev := range events {
		for _, a := range ev.Attendees {
			if a.Code == code {
				return CodeOwner{Code: code, Kind: "event", Holder: a.Name, Target: ev.Title.En}, nil
			}
		}
	}
	return CodeOwner{}, ErrCodeNotFound
}
