package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/response"
	"github.com/myrobot/academy/internal/store"
)

// coordinates reports whether the session runs course c. A coordinator
// runs the courses assigned by id or listing their name.
func coordinates(sess *auth.Session, u models.User, c models.Course) bool {
	if sess.Level() >= access.Admin {
		return true
	}
	return slices.Contains(u.CourseIDs, c.ID) ||
		strings.EqualFold(strings.TrimSpace(c.Coordinator), strings.TrimSpace(sess.Name))
}

func sessionUser(r *http.Request, st *store.Store) (*auth.Session, models.User, error) {
	sess := auth.FromContext(r.Context())
	if sess.UserID == auth.AdminID {
		return sess, models.User{ID: auth.AdminID, Role: models.RoleAdmin}, nil
	}
	u, err := st.Users.Get(r.Context(), sess.UserID)
	return sess, u, err
}

// GET /api/coordinator/courses
func CoordinatorCourses(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, u, err := sessionUser(r, st)
		if err != nil {
			writeError(w, r, err)
			return
		}
		courses, err := st.Courses.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]models.Course, 0, len(courses))
		for _, c := range courses {
			if coordinates(sess, u, c) {
				out = append(out, c)
			}
		}
		response.Success(w, r, http.StatusOK, out)
	}
}

type rosterRow struct {
	ChildID     string `json:"childId"`
	ChildName   string `json:"childName"`
	Age         string `json:"age"`
	Grade       string `json:"grade"`
	Code        string `json:"code"`
	EnrolledAt  string `json:"enrolledAt"`
	ParentName  string `json:"parentName,omitempty"`
	ParentEmail string `json:"parentEmail,omitempty"`

	enrolledAt time.Time
}

type roster struct {
	Course models.Course `json:"course"`
	Rows   []rosterRow   `json:"rows"`
}

var rosterHeader = []string{"Enrolled", "Child", "Age", "Grade", "Code", "Parent", "Parent Email"}

func (row rosterRow) cells() []string {
	return []string{row.EnrolledAt, row.ChildName, row.Age, row.Grade, row.Code, row.ParentName, row.ParentEmail}
}

func buildRoster(r *http.Request, st *store.Store, course models.Course) ([]rosterRow, error) {
	ctx := r.Context()
	children, err := st.Children.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := st.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	parents := make(map[string]models.User, len(users))
	for _, u := range users {
		parents[u.ID] = u
	}

	rows := []rosterRow{}
	for _, c := range children {
		for _, e := range c.Enrollments {
			if e.CourseID != course.ID {
				continue
			}
			p := parents[c.ParentID]
			rows = append(rows, rosterRow{
				ChildID:     c.ID,
				ChildName:   c.Name,
				Age:         c.Age,
				Grade:       c.Grade,
				Code:        e.Code,
				EnrolledAt:  e.EnrolledAt.Format("2006-01-02 15:04"),
				ParentName:  p.Name,
				ParentEmail: p.Email,
				enrolledAt:  e.EnrolledAt,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].enrolledAt.Before(rows[j].enrolledAt) })
	return rows, nil
}

// GET /api/coordinator/courses/{id}/roster[?format=csv|xlsx]
func CourseRoster(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, u, err := sessionUser(r, st)
		if err != nil {
			writeError(w, r, err)
			return
		}
		course, err := st.Courses.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !coordinates(sess, u, course) {
			forbidden(w, r)
			return
		}
		rows, err := buildRoster(r, st, course)
		if err != nil {
			writeError(w, r, err)
			return
		}

		filename := fmt.Sprintf("roster-%s-%s", course.ID, st.Now().Format("2006-01-02"))
		switch r.URL.Query().Get("format") {
		case "csv":
			writeRosterCSV(w, filename+".csv", rows)
		case "xlsx":
			if err := writeRosterXLSX(w, filename+".xlsx", course, rows); err != nil {
				writeError(w, r, err)
			}
		default:
			response.Success(w, r, http.StatusOK, roster{Course: course, Rows: rows})
		}
	}
}

func writeRosterCSV(w http.ResponseWriter, filename string, rows []rosterRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	defer cw.Flush()
	_ = cw.Write(rosterHeader)
	for _, row := range rows {
		_ = cw.Write(row.cells())
	}
}

func writeRosterXLSX(w http.ResponseWriter, filename string, course models.Course, rows []rosterRow) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Roster"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, h := range rosterHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		for j, v := range row.cells() {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	summary, _ := excelize.CoordinatesToCellName(1, len(rows)+3)
	_ = f.SetCellValue(sheet, summary, fmt.Sprintf("%s: %d/%d seats", course.Name, course.Enrolled, course.Capacity))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	return f.Write(w)
}
