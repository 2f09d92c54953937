package handlers

import (
	"net/http"
	"strings"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/store"
)

type enrolledCourse struct {
	Course     models.Course `json:"course"`
	Code       string        `json:"code"`
	EnrolledAt string        `json:"enrolledAt"`
}

type dashboard struct {
	Child          models.Child         `json:"child"`
	Courses        []enrolledCourse     `json:"courses"`
	UpcomingEvents []models.Event       `json:"upcomingEvents"`
	Achievements   []models.Achievement `json:"achievements"`
}

// GET /api/student/dashboard
func StudentDashboard(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := auth.FromContext(ctx)
		if sess.ChildID == "" {
			response.FailWithMessage(w, r, http.StatusNotFound, response.ErrNotFound, "No student profile on this account.")
			return
		}
		child, err := st.Children.Get(ctx, sess.ChildID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		d := dashboard{Child: child, Courses: []enrolledCourse{}, UpcomingEvents: []models.Event{}, Achievements: []models.Achievement{}}
		for _, e := range child.Enrollments {
			c, err := st.Courses.Get(ctx, e.CourseID)
			if err != nil {
				continue // course removed since
			}
			d.Courses = append(d.Courses, enrolledCourse{Course: c, Code: e.Code, EnrolledAt: e.EnrolledAt.Format("2006-01-02")})
		}

		today := st.Now().Format("2006-01-02")
		events, err := st.Events.List(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, ev := range events {
			if ev.Date >= today {
				d.UpcomingEvents = append(d.UpcomingEvents, ev.Public())
			}
		}

		achievements, err := st.Achievements.List(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, a := range achievements {
			if strings.EqualFold(strings.TrimSpace(a.StudentName), strings.TrimSpace(child.Name)) {
				d.Achievements = append(d.Achievements, a)
			}
		}
		response.Success(w, r, http.StatusOK, d)
	}
}
