package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
)

const (
	adminEmail = "admin@myrobot.academy"
	adminPass  = "admin123"
)

type testServer struct {
	h     http.Handler
	store *store.Store
	auth  *auth.Service
}

func newTestServer(t *testing.T, opts ...func(*Deps)) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.New(store.NewMemoryBackend())
	authSvc := auth.NewService(auth.Config{
		Secret:        "test-secret",
		TTL:           time.Hour,
		BcryptCost:    4,
		AdminEmail:    adminEmail,
		AdminPassword: adminPass,
	}, st)
	v := validator.New()
	pay := services.NewPaymentSimulator(0)
	mail := services.NewConsoleMailer(zerolog.Nop(), "MyRobot")

	deps := Deps{
		Store:           st,
		Auth:            authSvc,
		Enrollments:     services.NewEnrollments(st, v, pay, mail, zerolog.Nop()),
		Checkout:        services.NewCheckout(st, v, pay, mail, zerolog.Nop()),
		Log:             zerolog.Nop(),
		PublicBaseURL:   "https://myrobot.example",
		DefaultDialCode: "1",
	}
	for _, o := range opts {
		o(&deps)
	}
	h := Router(ctx, deps)
	return testServer{h: h, store: st, auth: authSvc}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Toast *struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	} `json:"toast"`
	Metadata struct {
		RequestID string `json:"requestId"`
	} `json:"metadata"`
}

func (s testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return s.doWithHeaders(t, method, path, token, nil, body)
}

func (s testServer) doWithHeaders(t *testing.T, method, path, token string, headers map[string]string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s testServer) token(t *testing.T, u models.User, password string) string {
	t.Helper()
	created, err := s.auth.CreateUser(context.Background(), u, password)
	require.NoError(t, err)
	tok, err := s.auth.IssueToken(auth.SessionFor(created))
	require.NoError(t, err)
	return tok
}

func (s testServer) adminToken(t *testing.T) string {
	t.Helper()
	sess, err := s.auth.Login(context.Background(), adminEmail, adminPass)
	require.NoError(t, err)
	tok, err := s.auth.IssueToken(sess)
	require.NoError(t, err)
	return tok
}

func TestRouterHealthz(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	assert.NotEmpty(t, env.Metadata.RequestID)
}

func TestRouterNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouterAccessLevels(t *testing.T) {
	s := newTestServer(t)
	parent := s.token(t, models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleParent}, "secret1")
	child, err := s.store.Children.Add(context.Background(), models.Child{Name: "Sam"})
	require.NoError(t, err)
	student := s.token(t, models.User{Name: "Sam", Email: "sam@example.com", Role: models.RoleChild, ChildID: child.ID}, "secret1")
	admin := s.adminToken(t)

	cases := []struct {
		path, token string
		status      int
		code        string
	}{
		{"/api/courses", "", 200, ""},
		{"/api/courses/1", "", 401, "LOGIN_REQUIRED"},
		{"/api/courses/1", student, 200, ""},
		{"/api/student/dashboard", student, 200, ""},
		{"/api/parent/children", "", 401, "LOGIN_REQUIRED"},
		{"/api/parent/children", student, 403, "ACCESS_LEVEL_TOO_LOW"},
		{"/api/parent/children", parent, 200, ""},
		{"/api/coordinator/courses", parent, 403, "ACCESS_LEVEL_TOO_LOW"},
		{"/api/admin/users", parent, 403, "ACCESS_LEVEL_TOO_LOW"},
		{"/api/admin/users", admin, 200, ""},
		{"/api/coordinator/courses", admin, 200, ""},
	}
	for _, c := range cases {
		rec, env := s.do(t, http.MethodGet, c.path, c.token, nil)
		assert.Equal(t, c.status, rec.Code, c.path)
		if c.code != "" && assert.NotNil(t, env.Error, c.path) {
			assert.Equal(t, c.code, env.Error.Code, c.path)
		}
	}
}

func TestRouterRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dana", "email": "Dana@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ok", env.Toast.Kind)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, auth.CookieName, rec.Result().Cookies()[0].Name)

	rec, env = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dana", "email": "dana@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
		Level int    `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, 4, login.Level)

	rec, env = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Session auth.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "dana@example.com", me.Session.Email)
	assert.Equal(t, models.RoleParent, me.Session.Role)
}

func validEnrollment() map[string]any {
	return map[string]any{
		"parentName": "Dana Parent", "parentEmail": "dana@example.com", "parentPhone": "+1 555 123 4567",
		"childName": "Sam", "childAge": "9", "grade": "4", "courseId": "1",
		"payment": map[string]string{"cardName": "Dana Parent", "cardNumber": "4242424242424242", "expiry": "12/30", "cvc": "123"},
	}
}

func TestRouterEnrollmentWizard(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/enrollment/next", "", map[string]any{
		"step": 0, "data": map[string]string{"parentName": "Dana"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "parentEmail")
	assert.NotContains(t, env.Error.Fields, "childName")

	rec, env = s.do(t, http.MethodPost, "/api/enrollment/next", "", map[string]any{"step": 0, "data": validEnrollment()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state struct {
		Step int    `json:"step"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, "child", state.Name)

	parent := s.token(t, models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleParent}, "secret1")
	rec, env = s.do(t, http.MethodPost, "/api/enrollment", parent, validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, env.Toast)
	var res services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Contains(t, env.Toast.Text, res.Code)

	rec, env = s.do(t, http.MethodGet, "/api/parent/children", parent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var kids []models.Child
	require.NoError(t, json.Unmarshal(env.Data, &kids))
	require.Len(t, kids, 1)
	assert.Equal(t, res.Code, kids[0].Enrollments[0].Code)

	admin := s.adminToken(t)
	_, env = s.do(t, http.MethodGet, "/api/admin/notifications/unread", admin, nil)
	assert.JSONEq(t, `{"unread":1}`, string(env.Data))

	req := httptest.NewRequest(http.MethodGet, "/qr/"+res.Code+".png", nil)
	qr := httptest.NewRecorder()
	s.h.ServeHTTP(qr, req)
	assert.Equal(t, http.StatusOK, qr.Code)
	assert.Equal(t, "image/png", qr.Header().Get("Content-Type"))

	qr = httptest.NewRecorder()
	s.h.ServeHTTP(qr, httptest.NewRequest(http.MethodGet, "/qr/REG-00000000.png", nil))
	assert.Equal(t, http.StatusNotFound, qr.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/coordinator/courses/1/roster?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.Code)
}

func TestRouterCheckoutDeclined(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, http.MethodPost, "/api/events/1/checkout", "", map[string]any{
		"name": "Dana", "email": "dana@example.com", "tickets": 2,
		"payment": map[string]string{"cardName": "Dana", "cardNumber": "4000000000000002", "expiry": "12/30", "cvc": "123"},
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "CARD_DECLINED", env.Error.Code)
	assert.Equal(t, "error", env.Toast.Kind)
}

func TestRouterAdminCourseCRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec, env := s.do(t, http.MethodPost, "/api/admin/courses", admin, map[string]any{"name": "Drones", "capacity": 8, "price": 90})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Course
	require.NoError(t, json.Unmarshal(env.Data, &c))
	require.NotEmpty(t, c.ID)

	rec, env = s.do(t, http.MethodPut, "/api/admin/courses/"+c.ID, admin, map[string]any{"capacity": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "capacity")

	rec, env = s.do(t, http.MethodPut, "/api/admin/courses/"+c.ID, admin, map[string]any{"capacity": 12, "id": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Equal(t, 12, c.Capacity)
	assert.Equal(t, "Drones", c.Name)

	rec, _ = s.do(t, http.MethodDelete, "/api/admin/courses/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/admin/courses/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/api/admin/users/whatever", admin, map[string]any{"passwordHash": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "passwordHash")
}

func TestRouterBrotli(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 20; i++ {
		_, err := s.store.Courses.Add(context.Background(), models.Course{Name: "Robotics course with a long name", Capacity: 10})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	plain, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(plain, &env))
	var list []models.Course
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 23)

	req = httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Accept-Encoding", "br;q=0, gzip")
	rec = httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"), "q=0 refuses brotli")
}

func TestRouterLanguage(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, http.MethodPut, "/api/language", "", map[string]string{"language": "ar"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"language":"ar"}`, string(env.Data))

	rec, env = s.do(t, http.MethodPut, "/api/language", "", map[string]string{"language": "fr"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Error.Fields, "language")
}

func TestRouterParentChildrenAndStudentLogin(t *testing.T) {
	s := newTestServer(t)
	dana := s.token(t, models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleParent}, "secret1")
	omar := s.token(t, models.User{Name: "Omar", Email: "omar@example.com", Role: models.RoleParent}, "secret1")

	rec, env := s.do(t, http.MethodPost, "/api/parent/children", dana, map[string]any{
		"name": "Sam", "age": "9", "grade": "4", "parentId": "someone-else",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var child models.Child
	require.NoError(t, json.Unmarshal(env.Data, &child))
	assert.NotEqual(t, "someone-else", child.ParentID)

	rec, _ = s.do(t, http.MethodGet, "/api/parent/children/"+child.ID, omar, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other families' children stay hidden")
	rec, _ = s.do(t, http.MethodPatch, "/api/parent/children/"+child.ID, omar, map[string]any{"grade": "5"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodPatch, "/api/parent/children/"+child.ID, dana, map[string]any{"grade": "5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &child))
	assert.Equal(t, "5", child.Grade)

	account := map[string]string{"email": "sam@example.com", "password": "robots1"}
	rec, _ = s.do(t, http.MethodPost, "/api/parent/children/"+child.ID+"/account", dana, account)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, env = s.do(t, http.MethodPost, "/api/parent/children/"+child.ID+"/account", dana,
		map[string]string{"email": "sam2@example.com", "password": "robots1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", account)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Level int    `json:"level"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, 3, login.Level)

	rec, env = s.do(t, http.MethodGet, "/api/student/dashboard", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dash struct {
		Child models.Child `json:"child"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, child.ID, dash.Child.ID)

	rec, _ = s.do(t, http.MethodDelete, "/api/parent/children/"+child.ID, dana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	has, err := s.store.HasChildAccount(context.Background(), child.ID)
	require.NoError(t, err)
	assert.False(t, has, "deleting a child removes its student account")
}

func TestRouterCoordinatorRosterXLSX(t *testing.T) {
	s := newTestServer(t)
	sara := s.token(t, models.User{Name: "Sara Ahmed", Email: "sara@myrobot.academy", Role: models.RoleCoordinator}, "secret1")

	rec, env := s.do(t, http.MethodGet, "/api/coordinator/courses", sara, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var courses []models.Course
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "1", courses[0].ID)

	rec, _ = s.do(t, http.MethodGet, "/api/coordinator/courses/2/roster", sara, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/enrollment", "", validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/coordinator/courses/1/roster?format=xlsx", sara, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	head, err := f.GetCellValue("Roster", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Child", head)
	name, err := f.GetCellValue("Roster", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Sam", name)
}

func TestRouterLoginRateLimit(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.LoginRate = 2 })
	creds := map[string]string{"email": "nobody@example.com", "password": "wrong1"}

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, env := s.do(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "only auth endpoints are limited")
}

func TestRouterEnrollmentIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	key := map[string]string{"Idempotency-Key": "order-42"}

	rec, env := s.doWithHeaders(t, http.MethodPost, "/api/enrollment", "", key, validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &first))

	rec, env = s.doWithHeaders(t, http.MethodPost, "/api/enrollment", "", key, validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var again services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, first.Code, again.Code)
	assert.Equal(t, first.Receipt.ID, again.Receipt.ID)

	course, err := s.store.Courses.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 9, course.Enrolled)
	children, _ := s.store.Children.List(ctx)
	assert.Len(t, children, 1)

	rec, _ = s.do(t, http.MethodPost, "/api/enrollment", "", validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code)
	children, _ = s.store.Children.List(ctx)
	assert.Len(t, children, 2, "no key means a new enrollment")
}

func TestRouterCancelEnrollment(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dana := s.token(t, models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleParent}, "secret1")
	omar := s.token(t, models.User{Name: "Omar", Email: "omar@example.com", Role: models.RoleParent}, "secret1")

	rec, env := s.do(t, http.MethodPost, "/api/enrollment", dana, validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))

	rec, env = s.do(t, http.MethodPost, "/api/parent/enrollments/"+res.Code+"/cancel", omar, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CODE_NOT_FOUND", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/parent/enrollments/"+strings.ToLower(res.Code)+"/cancel", dana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	course, _ := s.store.Courses.Get(ctx, "1")
	assert.Equal(t, 8, course.Enrolled)

	rec, _ = s.do(t, http.MethodPost, "/api/parent/enrollments/"+res.Code+"/cancel", dana, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterDeleteChildFreesSeatAndAccount(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	dana := s.token(t, models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleParent}, "secret1")

	rec, env := s.do(t, http.MethodPost, "/api/enrollment", dana, validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	course, _ := s.store.Courses.Get(ctx, "1")
	require.Equal(t, 9, course.Enrolled)

	account := map[string]string{"email": "sam@example.com", "password": "robots1"}
	rec, _ = s.do(t, http.MethodPost, "/api/parent/children/"+res.Child.ID+"/account", dana, account)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", account)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	rec, _ = s.do(t, http.MethodDelete, "/api/parent/children/"+res.Child.ID, dana, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	course, _ = s.store.Courses.Get(ctx, "1")
	assert.Equal(t, 8, course.Enrolled)
	_, err := s.store.Children.Get(ctx, res.Child.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec, _ = s.do(t, http.MethodGet, "/api/student/dashboard", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the removed student account is signed out")
}

func TestRouterRosterCSVAndQR(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec, env := s.do(t, http.MethodPost, "/api/enrollment", "", validEnrollment())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res services.EnrollmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))

	rec, _ = s.do(t, http.MethodGet, "/api/coordinator/courses/1/roster?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Enrolled", "Child", "Age", "Grade", "Code", "Parent", "Parent Email"}, rows[0])
	assert.Equal(t, "Sam", rows[1][1])
	assert.Equal(t, res.Code, rows[1][4])

	qr := httptest.NewRecorder()
	s.h.ServeHTTP(qr, httptest.NewRequest(http.MethodGet, "/qr/"+res.Code+".png", nil))
	require.Equal(t, http.StatusOK, qr.Code)
	assert.Equal(t, "public, max-age=86400", qr.Header().Get("Cache-Control"))
	img, err := png.Decode(qr.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestRouterFreeCheckoutWizard(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/events/2/checkout/steps", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var steps struct {
		Steps []string `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &steps))
	assert.Equal(t, []string{"attendee"}, steps.Steps)

	rec, env = s.do(t, http.MethodPost, "/api/events/2/checkout/next", "", map[string]any{
		"step": 0, "data": map[string]any{"name": "Dana", "email": "dana@example.com", "tickets": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var state struct {
		Step int    `json:"step"`
		Name string `json:"name"`
		Last bool   `json:"last"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, 0, state.Step)
	assert.True(t, state.Last, "a free event finishes on the attendee page")

	_, env = s.do(t, http.MethodGet, "/api/events/1/checkout/steps", "", nil)
	require.NoError(t, json.Unmarshal(env.Data, &steps))
	assert.Equal(t, []string{"attendee", "payment"}, steps.Steps)

	rec, _ = s.do(t, http.MethodGet, "/api/events/404/checkout/steps", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
