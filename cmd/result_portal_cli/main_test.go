package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) (*app, *bytes.Buffer, *store.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	tokens := store.NewMemoryStore("")
	return &app{
		client: api.NewClient(srv.URL, 5*time.Second, zerolog.Nop()),
		tokens: tokens,
		in:     strings.NewReader(""),
		out:    out,
		errOut: &bytes.Buffer{},
		log:    zerolog.Nop(),
	}, out, tokens
}

func portal(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		authed := r.Header.Get("Authorization") == "Bearer tok"

		switch r.URL.Path {
		case "/api/auth/login":
			var creds api.Credentials
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decode login: %v", err)
			}
			if creds.Password != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","user":{"id":"u1","student_id":"S100","name":"Ada","email":"ada@example.com","role":"student"}}`))
		case "/api/auth/me":
			if !authed {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","student_id":"S100","name":"Ada","email":"ada@example.com","role":"student"}`))
		case "/api/results/student/S100":
			_, _ = w.Write([]byte(`{"overall_gpa":3.5,"total_subjects":4,"results_by_semester":{"2024-Fall":[{"id":"r1","subject_name":"Mathematics","marks":85,"max_marks":100,"grade":"A"}]},"semester_gpas":{"2024-Fall":3.6}}`))
		case "/api/subjects":
			_, _ = w.Write([]byte(`{"subjects":[{"id":"6f1c-uuid","name":"Mathematics","code":"MATH101","credits":3}]}`))
		case "/api/students":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
		case "/api/results":
			var res api.NewResult
			if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
				t.Errorf("decode result: %v", err)
			}
			if res.Marks != 92 {
				t.Errorf("marks = %v, want 92", res.Marks)
			}
			if res.SubjectID != "6f1c-uuid" {
				t.Errorf("subject_id = %q, want 6f1c-uuid", res.SubjectID)
			}
			_, _ = w.Write([]byte(`{"message":"Result updated successfully","result":{"marks":92,"grade":"A+"}}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func TestLoginWhoamiResultsLogout(t *testing.T) {
	a, out, tokens := newTestApp(t, portal(t))
	ctx := context.Background()

	if err := a.dispatch(ctx, []string{"login", "-id", "S100", "-password", "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, _ := tokens.Load(); tok != "tok" {
		t.Fatalf("stored token = %q, want tok", tok)
	}
	if !strings.Contains(out.String(), session.MsgLoginSuccess) {
		t.Fatalf("login output = %q", out.String())
	}

	out.Reset()
	if err := a.dispatch(ctx, []string{"whoami"}); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "Ada (S100)") {
		t.Fatalf("whoami output = %q", out.String())
	}

	out.Reset()
	if err := a.dispatch(ctx, []string{"results"}); err != nil {
		t.Fatalf("results: %v", err)
	}
	for _, want := range []string{"Overall GPA: 3.5", "2024 - Fall  GPA: 3.6", "Mathematics", "85/100"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("results output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := a.dispatch(ctx, []string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := tokens.Load(); err != store.ErrNoToken {
		t.Fatalf("token survived logout: %v", err)
	}
	if err := a.dispatch(ctx, []string{"whoami"}); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("whoami after logout = %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	a, _, tokens := newTestApp(t, portal(t))

	err := a.dispatch(context.Background(), []string{"login", "-id", "S100", "-password", "wrong"})
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("err = %v, want Invalid credentials", err)
	}
	if _, err := tokens.Load(); err != store.ErrNoToken {
		t.Fatalf("token stored after failed login: %v", err)
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	a, _, tokens := newTestApp(t, portal(t))
	a.in = strings.NewReader("pw\n")

	if err := a.dispatch(context.Background(), []string{"login", "-id", "S100"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, _ := tokens.Load(); tok != "tok" {
		t.Fatalf("stored token = %q", tok)
	}
}

func TestLoginReadsPasswordFromPipe(t *testing.T) {
	a, _, tokens := newTestApp(t, portal(t))

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	if _, err := w.WriteString("pw\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()
	a.in = r

	if err := a.dispatch(context.Background(), []string{"login", "-id", "S100"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok, _ := tokens.Load(); tok != "tok" {
		t.Fatalf("stored token = %q", tok)
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	a, _, tokens := newTestApp(t, portal(t))
	_ = tokens.Save("tok")

	err := a.dispatch(context.Background(), []string{"students"})
	if err == nil || err.Error() != session.MsgSessionExpired {
		t.Fatalf("err = %v, want session expired", err)
	}
	if _, err := tokens.Load(); err != store.ErrNoToken {
		t.Fatalf("rejected token kept: %v", err)
	}
}

func TestAddResult(t *testing.T) {
	t.Run("coerces_marks", func(t *testing.T) {
		a, out, tokens := newTestApp(t, portal(t))
		_ = tokens.Save("tok")

		args := []string{"add-result", "-student", "S100", "-subject", "MATH101", "-marks", "92", "-semester", "Fall", "-year", "2024"}
		if err := a.dispatch(context.Background(), args); err != nil {
			t.Fatalf("add-result: %v", err)
		}
		if !strings.Contains(out.String(), session.MsgResultUpdated) {
			t.Fatalf("output = %q", out.String())
		}
	})

	t.Run("resolves_subject_code", func(t *testing.T) {
		a, out, tokens := newTestApp(t, portal(t))
		_ = tokens.Save("tok")

		args := []string{"add-result", "-student", "S100", "-subject", "math101", "-marks", "92", "-semester", "Fall", "-year", "2024"}
		if err := a.dispatch(context.Background(), args); err != nil {
			t.Fatalf("add-result: %v", err)
		}
		if !strings.Contains(out.String(), "S100 MATH101: 92 marks, grade A+") {
			t.Fatalf("output = %q", out.String())
		}
	})

	t.Run("rejects_unknown_subject", func(t *testing.T) {
		a, _, tokens := newTestApp(t, portal(t))
		_ = tokens.Save("tok")

		args := []string{"add-result", "-student", "S100", "-subject", "NOPE999", "-marks", "92", "-semester", "Fall", "-year", "2024"}
		err := a.dispatch(context.Background(), args)
		if err == nil || err.Error() != `unknown subject "NOPE999"` {
			t.Fatalf("err = %v, want unknown subject", err)
		}
	})

	t.Run("rejects_non_numeric_marks", func(t *testing.T) {
		a, _, tokens := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		})
		_ = tokens.Save("tok")

		args := []string{"add-result", "-student", "S100", "-subject", "MATH101", "-marks", "abc", "-semester", "Fall", "-year", "2024"}
		err := a.dispatch(context.Background(), args)
		if err == nil || err.Error() != "marks must be a number" {
			t.Fatalf("err = %v, want marks must be a number", err)
		}
	})
}

func TestNetworkError(t *testing.T) {
	a, _, _ := newTestApp(t, portal(t))
	a.client = api.NewClient("http://127.0.0.1:1", time.Second, zerolog.Nop())

	err := a.dispatch(context.Background(), []string{"ping"})
	if err == nil || err.Error() != session.MsgNetworkError {
		t.Fatalf("err = %v, want %q", err, session.MsgNetworkError)
	}
}

func TestUnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t, portal(t))
	if err := a.dispatch(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatalf("unknown command accepted")
	}
}
