package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/db"
	"github.com/balkashynov/attendr/internal/faceapi"
	"github.com/balkashynov/attendr/internal/faceapi/faceapitest"
	"github.com/balkashynov/attendr/internal/geo"
	"github.com/balkashynov/attendr/internal/leave"
	"github.com/balkashynov/attendr/internal/logging"
	"github.com/balkashynov/attendr/internal/models"
)

var office = geo.Fence{Center: geo.Point{Lat: 28.5450, Lon: 77.1926}, RadiusMeters: 70}

type envelope struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	app    *fiber.App
	stores *db.Stores
	auth   *auth.Service
	face   *faceapitest.Server
	clock  *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logging.Discard()

	conn, err := db.Open(db.Options{DSN: filepath.Join(t.TempDir(), "attendr.db"), Logger: logger})
	if err != nil {
		t.Fatalf("db.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.CloseDB(conn) })
	stores := db.NewStores(conn, logger)

	face := faceapitest.NewServer("Asha")
	t.Cleanup(face.Close)

	clock := &testClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	validate := validator.New()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	authSvc := auth.NewService(stores.Users, issuer)
	client := faceapi.NewClient(face.URL, logger)

	app := New(Deps{
		Auth:      authSvc,
		Issuer:    issuer,
		Machine:   attendance.NewMachine(stores.Clock, time.UTC, logger),
		Dashboard: attendance.NewDashboard(stores.Clock, time.UTC, logger),
		Leaves:    leave.NewService(stores.Leaves, validate, logger),
		Face:      client,
		Verifier:  faceapi.NewVerifier(office, faceapi.NewScanner(client, 5*time.Millisecond, logger), time.Second),
		Fence:     office,
		Validate:  validate,
		Logger:    logger,
		AccessLog: io.Discard,
		Now:       clock.Now,
	})
	return &testEnv{app: app, stores: stores, auth: authSvc, face: face, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

// signup registers an account with the given role and returns its token
func (e *testEnv) signup(t *testing.T, email, name string, role models.Role) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.auth.Register(ctx, auth.RegisterInput{Email: email, Password: "password123", FullName: name, Role: role}); err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	token, _, _, err := e.auth.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Login(%s) failed: %v", email, err)
	}
	return token
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "asha@example.com", "password": "password123", "full_name": "Asha",
	})
	if code != fiber.StatusCreated {
		t.Fatalf("register status = %d (%s)", code, env.Message)
	}

	code, _ = e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "asha@example.com", "password": "password123", "full_name": "Asha",
	})
	if code != fiber.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", code)
	}

	code, env = e.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "not-an-email", "password": "short", "full_name": "X",
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("invalid register status = %d, want 422", code)
	}
	if env.Errors["Email"] != "email" || env.Errors["Password"] != "min" {
		t.Fatalf("unexpected validation errors %v", env.Errors)
	}

	code, _ = e.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "asha@example.com", "password": "wrong-password"})
	if code != fiber.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", code)
	}

	code, env = e.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ASHA@example.com", "password": "password123"})
	if code != fiber.StatusOK {
		t.Fatalf("login status = %d (%s)", code, env.Message)
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, env, &login)

	code, env = e.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("me status = %d", code)
	}
	var me models.User
	decode(t, env, &me)
	if me.Email != "asha@example.com" || me.Role != models.RoleEmployee {
		t.Fatalf("unexpected user %+v", me)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/attendance/today", "/api/leaves/mine", "/api/admin/leaves"} {
		if code, _ := e.do(t, http.MethodGet, path, "", nil); code != fiber.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, code)
		}
	}
	if code, _ := e.do(t, http.MethodGet, "/api/attendance/today", "garbage", nil); code != fiber.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", code)
	}
}

func TestClockInOutFlow(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "asha@example.com", "Asha", "")

	code, env := e.do(t, http.MethodGet, "/api/attendance/today", token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("today status = %d", code)
	}
	var today todayResponse
	decode(t, env, &today)
	if today.State != attendance.StateNotStarted {
		t.Fatalf("state = %s, want not_started", today.State)
	}

	if code, env = e.do(t, http.MethodPost, "/api/attendance/clock-in", token, nil); code != fiber.StatusCreated {
		t.Fatalf("clock-in status = %d (%s)", code, env.Message)
	}
	if code, _ = e.do(t, http.MethodPost, "/api/attendance/clock-in", token, nil); code != fiber.StatusConflict {
		t.Fatalf("second clock-in status = %d, want 409", code)
	}

	e.clock.Advance(45 * time.Minute)
	_, env = e.do(t, http.MethodGet, "/api/attendance/today", token, nil)
	decode(t, env, &today)
	if today.State != attendance.StateWorking || today.Clock != "00:45:00" {
		t.Fatalf("unexpected live snapshot %+v", today)
	}

	e.clock.Advance(45 * time.Minute)
	code, env = e.do(t, http.MethodPost, "/api/attendance/clock-out", token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("clock-out status = %d (%s)", code, env.Message)
	}
	var out struct {
		Worked string `json:"worked"`
	}
	decode(t, env, &out)
	if out.Worked != "1h 30m" {
		t.Fatalf("worked = %q, want 1h 30m", out.Worked)
	}
	if code, _ = e.do(t, http.MethodPost, "/api/attendance/clock-out", token, nil); code != fiber.StatusConflict {
		t.Fatalf("second clock-out status = %d, want 409", code)
	}

	_, env = e.do(t, http.MethodGet, "/api/attendance/dashboard", token, nil)
	var stats attendance.MonthStats
	decode(t, env, &stats)
	if stats.MonthlyAttendanceCount != 1 || stats.ElapsedCalendarDays != 14 || stats.TodayHours != 1.5 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	code, env = e.do(t, http.MethodGet, "/api/attendance/records?month=2026-10", token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("records status = %d (%s)", code, env.Message)
	}
	var records struct {
		Month        string `json:"month"`
		TotalSeconds int64  `json:"total_seconds"`
	}
	decode(t, env, &records)
	if records.Month != "2026-10" || records.TotalSeconds != 5400 {
		t.Fatalf("unexpected records %+v", records)
	}

	if code, _ = e.do(t, http.MethodGet, "/api/attendance/records?month=octember", token, nil); code != fiber.StatusBadRequest {
		t.Fatalf("bad month status = %d, want 400", code)
	}
}

func TestLeaveWorkflow(t *testing.T) {
	e := newTestEnv(t)
	employee := e.signup(t, "asha@example.com", "Asha", "")
	admin := e.signup(t, "boss@example.com", "Boss", models.RoleAdmin)

	code, env := e.do(t, http.MethodPost, "/api/leaves/", employee, fiber.Map{
		"leave_type": "Sick", "team_name": "Platform", "reason": "flu",
		"start_date": "2026-10-20", "days": 2,
	})
	if code != fiber.StatusCreated {
		t.Fatalf("apply status = %d (%s)", code, env.Message)
	}
	var req models.LeaveRequest
	decode(t, env, &req)
	if req.Status != models.LeaveStatusPending || req.Days() != 2 {
		t.Fatalf("unexpected leave %+v", req)
	}

	code, _ = e.do(t, http.MethodPost, "/api/leaves/", employee, fiber.Map{
		"leave_type": "Sick", "team_name": "Platform", "reason": "flu",
		"start_date": "2026-10-20", "end_date": "2026-10-19",
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("inverted range status = %d, want 422", code)
	}

	if code, _ = e.do(t, http.MethodGet, "/api/admin/leaves", employee, nil); code != fiber.StatusForbidden {
		t.Fatalf("employee admin list status = %d, want 403", code)
	}

	_, env = e.do(t, http.MethodGet, "/api/admin/leaves?status=Pending", admin, nil)
	var pending []models.LeaveRequest
	decode(t, env, &pending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	path := "/api/admin/leaves/" + jsonNumber(req.ID)
	if code, env = e.do(t, http.MethodPatch, path, admin, fiber.Map{"status": "Approved"}); code != fiber.StatusOK {
		t.Fatalf("approve status = %d (%s)", code, env.Message)
	}
	if code, _ = e.do(t, http.MethodPatch, path, admin, fiber.Map{"status": "Rejected"}); code != fiber.StatusConflict {
		t.Fatalf("second decision status = %d, want 409", code)
	}
	if code, _ = e.do(t, http.MethodPatch, "/api/admin/leaves/999", admin, fiber.Map{"status": "Approved"}); code != fiber.StatusNotFound {
		t.Fatalf("missing leave status = %d, want 404", code)
	}
	if code, _ = e.do(t, http.MethodPatch, path, admin, fiber.Map{"status": "Maybe"}); code != fiber.StatusUnprocessableEntity {
		t.Fatalf("bad decision status = %d, want 422", code)
	}

	_, env = e.do(t, http.MethodGet, "/api/leaves/counts", employee, nil)
	var counts leave.Counts
	decode(t, env, &counts)
	if counts.Approved != 1 || counts.Pending != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestCheckLocation(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "asha@example.com", "Asha", "")

	_, env := e.do(t, http.MethodPost, "/api/face/check-location", token, fiber.Map{"latitude": 28.5450, "longitude": 77.1926})
	var res struct {
		Inside bool    `json:"inside"`
		Radius float64 `json:"radius_meters"`
	}
	decode(t, env, &res)
	if !res.Inside || res.Radius != 70 {
		t.Fatalf("unexpected result %+v", res)
	}

	_, env = e.do(t, http.MethodPost, "/api/face/check-location", token, fiber.Map{"latitude": 28.60, "longitude": 77.20})
	decode(t, env, &res)
	if res.Inside {
		t.Fatalf("point 6km away reported inside")
	}
}

func TestVerifyFaceClocksIn(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "asha@example.com", "Asha", "")

	code, _ := e.do(t, http.MethodPost, "/api/face/verify", token, fiber.Map{
		"latitude": 28.60, "longitude": 77.20, "action": "clock_in",
	})
	if code != fiber.StatusForbidden {
		t.Fatalf("outside fence status = %d, want 403", code)
	}

	e.face.Identify("Asha", faceapi.StatusMarked, time.Now().Add(time.Hour), 1)
	code, env := e.do(t, http.MethodPost, "/api/face/verify", token, fiber.Map{
		"latitude": 28.5450, "longitude": 77.1926, "action": "clock_in",
	})
	if code != fiber.StatusOK {
		t.Fatalf("verify status = %d (%s)", code, env.Message)
	}
	var res struct {
		Identity string              `json:"identity"`
		Record   *models.ClockRecord `json:"record"`
	}
	decode(t, env, &res)
	if res.Identity != "Asha" || res.Record == nil || !res.Record.Open() {
		t.Fatalf("unexpected verify result %+v", res)
	}
	if e.face.Active() {
		t.Fatalf("scanner left running after verification")
	}
}

func TestRegisterFaceUpload(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "ravi@example.com", "Ravi", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "ravi.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile() failed: %v", err)
	}
	part.Write([]byte("\xff\xd8\xff fake jpeg"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/face/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	code, env := e.send(t, req)
	if code != fiber.StatusCreated {
		t.Fatalf("register face status = %d (%s)", code, env.Message)
	}
	if len(e.face.Uploads) != 1 || !strings.EqualFold(e.face.Uploads[0].Name, "Ravi") {
		t.Fatalf("uploads = %v, want [Ravi]", e.face.Uploads)
	}
}

func TestFaceServiceDown(t *testing.T) {
	e := newTestEnv(t)
	e.face.Close()

	if code, _ := e.do(t, http.MethodGet, "/api/face/health", "", nil); code != fiber.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want 503", code)
	}
}

func jsonNumber(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
