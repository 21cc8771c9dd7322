package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
)

// fakePortal is a minimal in-memory result service.
type fakePortal struct {
	mu       sync.Mutex
	requests []string
	results  []api.NewResult
}

func (f *fakePortal) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakePortal) received() []api.NewResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.NewResult(nil), f.results...)
}

func (f *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	users := map[string]api.User{
		"tok-S100":  student,
		"tok-ADMIN": admin,
	}
	write := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	reject := func() {
		write(http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
	}
	caller, authed := users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]

	switch {
	case r.URL.Path == "/api/auth/login":
		var creds api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		switch {
		case creds.StudentID == "S100" && creds.Password == "pw":
			write(http.StatusOK, api.LoginResponse{AccessToken: "tok-S100", TokenType: "bearer", User: student})
		case creds.StudentID == "ADMIN001" && creds.Password == "admin123":
			write(http.StatusOK, api.LoginResponse{AccessToken: "tok-ADMIN", TokenType: "bearer", User: admin})
		default:
			reject()
		}
	case r.URL.Path == "/api/auth/me":
		if !authed {
			write(http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
			return
		}
		write(http.StatusOK, caller)
	case r.URL.Path == "/api/subjects" && r.Method == http.MethodGet:
		write(http.StatusOK, map[string]any{"subjects": []api.Subject{{ID: "m1", Name: "Mathematics", Code: "MATH101", Credits: 3}}})
	case r.URL.Path == "/api/students":
		if !authed || !caller.IsAdmin() {
			write(http.StatusForbidden, map[string]string{"detail": "Admin access required"})
			return
		}
		write(http.StatusOK, map[string]any{"students": []api.Student{{ID: "u1", StudentID: "S100", Name: "Ada"}}})
	case r.URL.Path == "/api/results/summary":
		write(http.StatusOK, api.Stats{TotalStudents: 1, TotalSubjects: 1, TotalResults: len(f.received())})
	case strings.HasPrefix(r.URL.Path, "/api/results/student/"):
		if !authed {
			reject()
			return
		}
		write(http.StatusOK, api.ResultsSummary{
			OverallGPA:    3.6,
			TotalSubjects: 1,
			ResultsBySemester: map[string][]api.ResultEntry{
				"2024-Fall": {{SubjectName: "Mathematics", Marks: 85, MaxMarks: 100, Grade: "A"}},
			},
			SemesterGPAs: map[string]float64{"2024-Fall": 3.6},
		})
	case r.URL.Path == "/api/results" && r.Method == http.MethodPost:
		var res api.NewResult
		_ = json.NewDecoder(r.Body).Decode(&res)
		f.mu.Lock()
		f.results = append(f.results, res)
		f.mu.Unlock()
		write(http.StatusOK, api.ResultResponse{Message: "Result added successfully"})
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	portal  *fakePortal
	tokens  *store.MemoryStore
	orch    *Orchestrator
	expired []NoticeExpired
}

func newHarness(t *testing.T, token string) *harness {
	t.Helper()
	portal := &fakePortal{}
	srv := httptest.NewServer(portal)
	t.Cleanup(srv.Close)

	h := &harness{portal: portal, tokens: store.NewMemoryStore(token)}
	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	h.orch = New(client, h.tokens,
		WithTimer(func(_ time.Duration, msg tea.Msg) tea.Cmd {
			return func() tea.Msg { return msg }
		}),
		WithClock(func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }),
	)
	t.Cleanup(h.orch.Close)
	return h
}

// drain runs cmd and everything it leads to. Notice expiries are recorded
// rather than applied so notices stay observable.
func (h *harness) drain(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.drain(c)
		}
	case NoticeExpired:
		h.expired = append(h.expired, msg)
	case Event:
		h.drain(h.orch.Dispatch(msg))
	}
}

func (h *harness) send(ev Event) {
	h.drain(h.orch.Dispatch(ev))
}

func TestOrchestratorStudentLogin(t *testing.T) {
	h := newHarness(t, "")
	h.drain(h.orch.Init())

	h.send(EditLogin{Form: api.Credentials{StudentID: "S100", Password: "pw"}})
	h.send(SubmitLogin{})

	s := h.orch.State()
	if s.Phase != Authenticated || s.User == nil || s.User.StudentID != "S100" {
		t.Fatalf("state = %+v, want authenticated S100", s)
	}
	if s.Notice.Kind == NoticeError {
		t.Fatalf("Notice = %+v, want no error", s.Notice)
	}
	if s.Results == nil || s.Results.OverallGPA != 3.6 {
		t.Fatalf("Results = %+v", s.Results)
	}
	if len(s.Subjects) != 1 {
		t.Fatalf("Subjects = %+v", s.Subjects)
	}
	if tok, err := h.tokens.Load(); err != nil || tok != "tok-S100" {
		t.Fatalf("stored token = %q, %v", tok, err)
	}
	if len(h.expired) == 0 {
		t.Fatalf("login notice was never scheduled to expire")
	}
}

func TestOrchestratorInvalidLogin(t *testing.T) {
	h := newHarness(t, "")
	h.send(EditLogin{Form: api.Credentials{StudentID: "S100", Password: "nope"}})
	h.send(SubmitLogin{})

	s := h.orch.State()
	if s.Phase != Unauthenticated || s.User != nil {
		t.Fatalf("state = %+v, want unauthenticated", s)
	}
	if s.Notice.Kind != NoticeError || s.Notice.Text != "Invalid credentials" {
		t.Fatalf("Notice = %+v", s.Notice)
	}
	if s.Tab != TabLogin {
		t.Fatalf("Tab = %v", s.Tab)
	}
	if _, err := h.tokens.Load(); err != store.ErrNoToken {
		t.Fatalf("token stored after failed login: %v", err)
	}
}

func TestOrchestratorLogoutMakesNoRequest(t *testing.T) {
	h := newHarness(t, "")
	h.send(EditLogin{Form: api.Credentials{StudentID: "S100", Password: "pw"}})
	h.send(SubmitLogin{})
	before := len(h.portal.calls())

	h.send(Logout{})

	s := h.orch.State()
	if s.Phase != Unauthenticated || s.Token != "" || s.User != nil || s.Results != nil || s.Subjects != nil {
		t.Fatalf("state after logout = %+v", s)
	}
	if after := len(h.portal.calls()); after != before {
		t.Fatalf("logout made %d requests", after-before)
	}
	if _, err := h.tokens.Load(); err != store.ErrNoToken {
		t.Fatalf("token survived logout: %v", err)
	}
}

func TestOrchestratorRestore(t *testing.T) {
	t.Run("valid_token", func(t *testing.T) {
		h := newHarness(t, "tok-S100")
		h.drain(h.orch.Init())
		s := h.orch.State()
		if s.Phase != Authenticated || s.User == nil || s.User.StudentID != "S100" {
			t.Fatalf("state = %+v", s)
		}
		if s.Results == nil {
			t.Fatalf("dashboard not loaded after restore")
		}
	})

	t.Run("invalid_token", func(t *testing.T) {
		h := newHarness(t, "garbage")
		h.drain(h.orch.Init())
		s := h.orch.State()
		if s.Phase != Unauthenticated || s.User != nil {
			t.Fatalf("state = %+v", s)
		}
		if s.Notice.Kind != NoticeNone {
			t.Fatalf("Notice = %+v, want none", s.Notice)
		}
		if _, err := h.tokens.Load(); err != store.ErrNoToken {
			t.Fatalf("rejected token kept: %v", err)
		}
	})

	t.Run("no_token", func(t *testing.T) {
		h := newHarness(t, "")
		if cmd := h.orch.Init(); cmd != nil {
			t.Fatalf("Init without token returned a command")
		}
		if len(h.portal.calls()) != 0 {
			t.Fatalf("requests = %v", h.portal.calls())
		}
	})
}

func TestOrchestratorAdminAddResult(t *testing.T) {
	h := newHarness(t, "")
	h.send(EditLogin{Form: api.Credentials{StudentID: "ADMIN001", Password: "admin123"}})
	h.send(SubmitLogin{})
	if s := h.orch.State(); !s.IsAdmin() || len(s.Students) != 1 || s.Stats == nil {
		t.Fatalf("admin dashboard = %+v", s)
	}

	h.send(EditResult{Draft: api.ResultDraft{StudentID: "S100", SubjectID: "MATH101", Marks: "85", Semester: "Fall", Year: "2024"}})
	h.send(SubmitResult{})

	if got := h.portal.received(); len(got) != 1 || got[0].Marks != 85.0 || got[0].SubjectID != "m1" {
		t.Fatalf("server received %+v, want marks 85 for subject m1", got)
	}
	s := h.orch.State()
	if s.ResultDraft != (api.ResultDraft{}) {
		t.Fatalf("ResultDraft = %+v, want empty", s.ResultDraft)
	}
	if s.Notice.Text != MsgResultAdded {
		t.Fatalf("Notice = %q", s.Notice.Text)
	}
	if s.Inspected.StudentID != "S100" || s.Inspected.Summary == nil {
		t.Fatalf("Inspected = %+v, want refreshed S100 results", s.Inspected)
	}

	var refetched bool
	for _, c := range h.portal.calls() {
		if c == "GET /api/results/student/S100" {
			refetched = true
		}
	}
	if !refetched {
		t.Fatalf("S100 results not re-fetched: %v", h.portal.calls())
	}
}

func TestOrchestratorDropsResponsesAfterLogout(t *testing.T) {
	h := newHarness(t, "")
	h.send(EditLogin{Form: api.Credentials{StudentID: "S100", Password: "pw"}})
	h.send(SubmitLogin{})

	// Issue a refresh but sign out before its responses are delivered.
	pending := h.orch.Dispatch(Refresh{})
	h.send(Logout{})
	h.drain(pending)

	s := h.orch.State()
	if s.Phase != Unauthenticated || s.Results != nil || s.Subjects != nil {
		t.Fatalf("stale responses applied: %+v", s)
	}
}
