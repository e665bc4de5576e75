package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/config"
	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/metrics"
	"github.com/iliyamo/complaints-admin-portal/internal/middleware"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
	"github.com/iliyamo/complaints-admin-portal/internal/service"
)

// backend is an in-process stand-in for the REST backend.
type backend struct {
	mu         sync.Mutex
	user       model.User
	identifier string
	statuses   map[uint64]model.ComplaintStatus
	employees  []model.Employee
	updating   chan struct{} // receives when an update for id 9 starts
	release    chan struct{} // closes to let the id 9 update finish
}

func newBackend(user model.User) *backend {
	return &backend{
		user:     user,
		statuses: map[uint64]model.ComplaintStatus{7: model.StatusNew, 9: model.StatusNew},
		updating: make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
}

func (b *backend) Login(_ context.Context, req gateway.LoginRequest) (gateway.LoginResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identifier = req.Identifier
	if req.Password != "12345678" {
		return gateway.LoginResult{}, &gateway.BusinessError{Op: "login", Message: "Invalid credentials", StatusCode: http.StatusOK}
	}
	return gateway.LoginResult{Token: "T1", User: b.user}, nil
}

func (b *backend) ListComplaints(context.Context) ([]model.Complaint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return []model.Complaint{
		{ID: 7, Identifier: "CMP-7", Status: b.statuses[7], User: model.ComplaintUser{ID: 40, Name: "citizen"}},
		{ID: 9, Identifier: "CMP-9", Status: b.statuses[9]},
	}, nil
}

func (b *backend) UpdateComplaintStatus(_ context.Context, id uint64, status model.ComplaintStatus) error {
	if id == 9 {
		b.updating <- struct{}{}
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[id] = status
	return nil
}

func (b *backend) ListEmployees(context.Context) ([]model.Employee, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Employee(nil), b.employees...), nil
}

func (b *backend) CreateEmployee(_ context.Context, req gateway.CreateEmployeeRequest) (model.Employee, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	emp := model.Employee{ID: uint64(len(b.employees) + 1), Name: req.Name, Identifier: req.Identifier, DestinationID: uint64(req.DestinationID)}
	b.employees = append(b.employees, emp)
	return emp, nil
}

type harness struct {
	srv    *httptest.Server
	client *http.Client
	portal *service.Portal
}

func newHarness(t *testing.T, b *backend) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	portal := service.NewPortal(service.Options{
		Store:      repository.NewMemorySessionStore(),
		Backend:    func(gateway.TokenSource) service.Backend { return b },
		Normalizer: service.NewIdentifierNormalizer(service.DefaultAdminIdentifier),
		Metrics:    metrics.New(reg),
	})

	e := echo.New()
	e.Use(middleware.SessionCookie(config.SessionConfig{CookieName: "portal_session", Secret: "test-secret", TTL: time.Hour}, zap.NewNop()))
	Register(e, Deps{Portal: portal, Gatherer: reg, StoreKind: "memory", Log: zap.NewNop()})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		portal.Wait()
	})
	jar, _ := cookiejar.New(nil)
	return &harness{
		srv:    srv,
		portal: portal,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do sends a JSON request and decodes a JSON answer into a map.
func (h *harness) do(t *testing.T, method, path, body string) (int, map[string]any, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode, out, resp.Header
}

func (h *harness) login(t *testing.T, identifier string) map[string]any {
	t.Helper()
	code, body, _ := h.do(t, http.MethodPost, "/login", `{"identifier":"`+identifier+`","password":"12345678"}`)
	if code != http.StatusOK {
		t.Fatalf("login status = %d body=%v", code, body)
	}
	return body
}

var (
	employee = model.User{ID: 2, Name: "clerk", Identifier: "+963911111111", Role: model.RoleEmployee}
	admin    = model.User{ID: 1, Name: "admin", Identifier: "+963980453436", Role: model.RoleAdmin}
)

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, newBackend(employee))

	code, body, _ := h.do(t, http.MethodGet, "/healthz", "")
	if code != http.StatusOK || body["session_store"] != "memory" {
		t.Fatalf("healthz = %d %v", code, body)
	}

	resp, err := h.client.Get(h.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}

func TestGuardRedirectsSignedOutSessions(t *testing.T) {
	h := newHarness(t, newBackend(employee))

	code, body, _ := h.do(t, http.MethodGet, "/", "")
	if code != http.StatusUnauthorized || body["redirect"] != middleware.LoginPath {
		t.Fatalf("json caller: %d %v", code, body)
	}

	resp, err := h.client.Get(h.srv.URL + "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != middleware.LoginPath {
		t.Fatalf("browser: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAdminLoginNormalizesIdentifier(t *testing.T) {
	b := newBackend(admin)
	h := newHarness(t, b)

	body := h.login(t, "963980453436")
	if b.identifier != "+963980453436" {
		t.Fatalf("backend got identifier %q", b.identifier)
	}
	if body["redirect"] != "/dashboard" {
		t.Fatalf("redirect = %v", body["redirect"])
	}

	// signed-in sessions skip the login view
	resp, err := h.client.Get(h.srv.URL + "/login")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
		t.Fatalf("login view: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t, newBackend(employee))

	code, body, _ := h.do(t, http.MethodPost, "/login", `{"identifier":"","password":""}`)
	if code != http.StatusBadRequest || body["error"] != service.MsgFillAllFields {
		t.Fatalf("empty fields: %d %v", code, body)
	}

	code, body, _ = h.do(t, http.MethodPost, "/login", `{"identifier":"+963911111111","password":"wrong"}`)
	if code != http.StatusBadRequest || body["error"] != "Invalid credentials" {
		t.Fatalf("rejected: %d %v", code, body)
	}

	code, _, _ = h.do(t, http.MethodGet, "/", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("still signed out expected, got %d", code)
	}
}

func TestEmployeeUpdatesComplaintStatus(t *testing.T) {
	b := newBackend(employee)
	h := newHarness(t, b)
	h.login(t, "+963911111111")

	code, body, _ := h.do(t, http.MethodGet, "/", "")
	if code != http.StatusOK || body["view"] != "complaints" || body["editable"] != true {
		t.Fatalf("home: %d %v", code, body)
	}
	if opts, _ := body["statuses"].([]any); len(opts) != 4 {
		t.Fatalf("statuses = %v", body["statuses"])
	}

	code, body, _ = h.do(t, http.MethodPut, "/complaints/7/status", `{"status":"completed"}`)
	if code != http.StatusOK {
		t.Fatalf("update: %d %v", code, body)
	}
	cpl, _ := body["complaint"].(map[string]any)
	if cpl["status"] != "completed" {
		t.Fatalf("patched complaint = %v", cpl)
	}

	code, _, _ = h.do(t, http.MethodPut, "/complaints/abc/status", `{"status":"completed"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}
	code, _, _ = h.do(t, http.MethodPut, "/complaints/7/status", `{"status":"archived"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d", code)
	}

	code, _, _ = h.do(t, http.MethodGet, "/dashboard", "")
	if code != http.StatusForbidden {
		t.Fatalf("employee on dashboard: %d", code)
	}
}

func TestConcurrentUpdateOfSameComplaintConflicts(t *testing.T) {
	b := newBackend(employee)
	h := newHarness(t, b)
	h.login(t, "+963911111111")
	if code, _, _ := h.do(t, http.MethodGet, "/complaints", ""); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}

	first := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPut, h.srv.URL+"/complaints/9/status", strings.NewReader(`{"status":"in_progress"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		resp, err := h.client.Do(req)
		if err != nil {
			first <- 0
			return
		}
		resp.Body.Close()
		first <- resp.StatusCode
	}()
	<-b.updating

	code, _, _ := h.do(t, http.MethodPut, "/complaints/9/status", `{"status":"rejected"}`)
	close(b.release)
	if code != http.StatusConflict {
		t.Fatalf("second update: %d", code)
	}
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first update: %d", code)
	}
}

func TestAdminDashboard(t *testing.T) {
	h := newHarness(t, newBackend(admin))
	h.login(t, "+963980453436")

	code, body, _ := h.do(t, http.MethodGet, "/dashboard", "")
	if code != http.StatusOK || body["view"] != "dashboard" {
		t.Fatalf("dashboard: %d %v", code, body)
	}

	code, body, _ = h.do(t, http.MethodPost, "/dashboard/employees", `{"name":"","identifier":"0999"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid create: %d %v", code, body)
	}
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["identifier"]; !ok {
		t.Fatalf("fields = %v", fields)
	}

	code, body, _ = h.do(t, http.MethodPost, "/dashboard/employees",
		`{"name":"Sara","national_id":"0101","identifier":"+963922222222","password":"secret1","destination_id":2}`)
	if code != http.StatusCreated || body["message"] != service.MsgEmployeeCreated {
		t.Fatalf("create: %d %v", code, body)
	}
	state, _ := body["state"].(map[string]any)
	if list, _ := state["employees"].([]any); len(list) != 1 {
		t.Fatalf("refetched list = %v", state)
	}

	// admins see complaints read-only
	code, body, _ = h.do(t, http.MethodGet, "/", "")
	if code != http.StatusOK || body["editable"] != false || body["statuses"] != nil {
		t.Fatalf("admin home: %d %v", code, body)
	}
	code, _, _ = h.do(t, http.MethodPut, "/complaints/7/status", `{"status":"completed"}`)
	if code != http.StatusForbidden {
		t.Fatalf("admin status update: %d", code)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t, newBackend(employee))
	h.login(t, "+963911111111")

	code, body, _ := h.do(t, http.MethodPost, "/logout", "")
	if code != http.StatusOK || body["redirect"] != middleware.LoginPath {
		t.Fatalf("logout: %d %v", code, body)
	}
	if code, _, _ := h.do(t, http.MethodGet, "/complaints", ""); code != http.StatusUnauthorized {
		t.Fatalf("after logout: %d", code)
	}
}
