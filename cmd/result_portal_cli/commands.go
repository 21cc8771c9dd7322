package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
)

var errNotLoggedIn = errors.New("not logged in, run `result_portal_cli login` first")

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// token returns the stored session token, or errNotLoggedIn.
func (a *app) token() (string, error) {
	token, err := a.tokens.Load()
	if errors.Is(err, store.ErrNoToken) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	if api.TokenExpired(token, time.Now()) {
		a.clearToken()
		return "", errors.New(session.MsgSessionExpired)
	}
	return token, nil
}

// authed maps a rejected token to the session-expired message and forgets it.
func (a *app) authed(err error) error {
	if api.IsUnauthorized(err) {
		a.clearToken()
		return errors.New(session.MsgSessionExpired)
	}
	return err
}

func (a *app) clearToken() {
	if err := a.tokens.Clear(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to clear token")
	}
}

// readPassword reads a line from stdin, without echo when stdin is a terminal.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		password, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#0043a8"))).
		Headers(headers...)
}

func runPing(ctx context.Context, a *app, args []string) error {
	health, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", a.client.BaseURL(), health.Status)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	id := fs.String("id", "", "student ID")
	password := fs.String("password", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		p, err := a.readPassword("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	resp, err := a.client.Login(ctx, api.Credentials{StudentID: strings.TrimSpace(*id), Password: *password})
	if err != nil {
		if api.Detail(err) == "" && !api.IsTransport(err) {
			return errors.New(session.MsgLoginFailed)
		}
		return err
	}
	if err := a.tokens.Save(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	a.log.Debug().Str("student_id", resp.User.StudentID).Msg("Logged in")
	fmt.Fprintf(a.out, "%s Welcome, %s (%s)\n", session.MsgLoginSuccess, resp.User.Name, resp.User.Role)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	id := fs.String("id", "", "student ID")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (read from stdin when empty)")
	role := fs.String("role", string(api.RoleStudent), "student or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		p, err := a.readPassword("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	_, err := a.client.Register(ctx, api.RegisterRequest{
		StudentID: strings.TrimSpace(*id),
		Name:      strings.TrimSpace(*name),
		Email:     strings.TrimSpace(*email),
		Password:  *password,
		Role:      api.Role(*role),
	})
	if err != nil {
		if api.Detail(err) == "" && !api.IsTransport(err) {
			return errors.New(session.MsgRegisterFailed)
		}
		return err
	}

	fmt.Fprintln(a.out, session.MsgRegisterSuccess)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	fmt.Fprintln(a.out, session.MsgLogoutSuccess)
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	user, err := a.client.Me(ctx, token)
	if err != nil {
		return a.authed(err)
	}

	fmt.Fprintf(a.out, "%s (%s)\n", user.Name, user.StudentID)
	fmt.Fprintf(a.out, "Email: %s\n", user.Email)
	fmt.Fprintf(a.out, "Role:  %s\n", user.Role)
	if exp, ok := api.TokenExpiry(token); ok {
		fmt.Fprintf(a.out, "Session valid until %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func runSubjects(ctx context.Context, a *app, args []string) error {
	subjects, err := a.client.Subjects(ctx)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		fmt.Fprintln(a.out, "No subjects found.")
		return nil
	}

	t := newTable("Code", "Name", "Credits")
	for _, s := range subjects {
		t.Row(s.Code, s.Name, strconv.Itoa(s.Credits))
	}
	fmt.Fprintln(a.out, t.Render())
	return nil
}

func runStudents(ctx context.Context, a *app, args []string) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	students, err := a.client.Students(ctx, token)
	if err != nil {
		return a.authed(err)
	}
	if len(students) == 0 {
		fmt.Fprintln(a.out, "No students found.")
		return nil
	}

	t := newTable("Student ID", "Name", "Email")
	for _, s := range students {
		t.Row(s.StudentID, s.Name, s.Email)
	}
	fmt.Fprintln(a.out, t.Render())
	return nil
}

func runResults(ctx context.Context, a *app, args []string) error {
	fs := a.flags("results")
	id := fs.String("id", "", "student ID (defaults to the logged-in student)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := a.token()
	if err != nil {
		return err
	}

	studentID := strings.TrimSpace(*id)
	if studentID == "" {
		user, err := a.client.Me(ctx, token)
		if err != nil {
			return a.authed(err)
		}
		studentID = user.StudentID
	}

	summary, err := a.client.StudentResults(ctx, token, studentID)
	if err != nil {
		return a.authed(err)
	}

	writeSummary(a.out, studentID, summary)
	return nil
}

func writeSummary(w io.Writer, studentID string, summary api.ResultsSummary) {
	name := studentID
	if summary.Student != nil && summary.Student.Name != "" {
		name = fmt.Sprintf("%s (%s)", summary.Student.Name, studentID)
	}
	fmt.Fprintf(w, "%s | Overall GPA: %s | Subjects: %d\n",
		name, strconv.FormatFloat(summary.OverallGPA, 'f', -1, 64), summary.TotalSubjects)

	keys := summary.Semesters()
	if len(keys) == 0 {
		fmt.Fprintln(w, "No results recorded yet.")
		return
	}

	for _, key := range keys {
		fmt.Fprintln(w)
		title := key.Label()
		if gpa, ok := summary.SemesterGPAs[key.Key]; ok {
			title += "  GPA: " + strconv.FormatFloat(gpa, 'f', -1, 64)
		}
		fmt.Fprintln(w, title)

		t := newTable("Subject", "Marks", "Grade")
		for _, e := range summary.ResultsBySemester[key.Key] {
			marks := strconv.FormatFloat(e.Marks, 'f', -1, 64)
			if e.MaxMarks > 0 {
				marks += "/" + strconv.FormatFloat(e.MaxMarks, 'f', -1, 64)
			}
			t.Row(e.SubjectName, marks, e.Grade)
		}
		fmt.Fprintln(w, t.Render())
	}
}

func runAddResult(ctx context.Context, a *app, args []string) error {
	fs := a.flags("add-result")
	var draft api.ResultDraft
	fs.StringVar(&draft.StudentID, "student", "", "student ID")
	fs.StringVar(&draft.SubjectID, "subject", "", "subject ID or code")
	fs.StringVar(&draft.Marks, "marks", "", "marks obtained")
	fs.StringVar(&draft.Semester, "semester", "", "semester term, e.g. Fall")
	fs.StringVar(&draft.Year, "year", "", "academic year, e.g. 2024")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := draft.Payload()
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	subjects, err := a.client.Subjects(ctx)
	if err != nil {
		return err
	}
	subject, err := api.ResolveSubject(subjects, payload.SubjectID)
	if err != nil {
		return err
	}
	payload.SubjectID = subject.ID

	resp, err := a.client.AddResult(ctx, token, payload)
	if err != nil {
		if api.IsUnauthorized(err) {
			return a.authed(err)
		}
		if api.Detail(err) == "" && !api.IsTransport(err) {
			return errors.New(session.MsgResultFailed)
		}
		return err
	}

	msg := session.MsgResultAdded
	if strings.Contains(strings.ToLower(resp.Message), "updated") {
		msg = session.MsgResultUpdated
	}
	fmt.Fprintln(a.out, msg)
	if resp.Result.Grade != "" {
		fmt.Fprintf(a.out, "%s %s: %s marks, grade %s\n", payload.StudentID, subject.Code,
			strconv.FormatFloat(resp.Result.Marks, 'f', -1, 64), resp.Result.Grade)
	}
	return nil
}

func runAddSubject(ctx context.Context, a *app, args []string) error {
	fs := a.flags("add-subject")
	var draft api.SubjectDraft
	fs.StringVar(&draft.Name, "name", "", "subject name")
	fs.StringVar(&draft.Code, "code", "", "subject code")
	fs.StringVar(&draft.Credits, "credits", "", "credit hours (default 3)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := draft.Payload()
	if err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	if _, err := a.client.CreateSubject(ctx, token, payload); err != nil {
		return a.authed(err)
	}
	fmt.Fprintln(a.out, session.MsgSubjectAdded)
	return nil
}

func runSummary(ctx context.Context, a *app, args []string) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	stats, err := a.client.Stats(ctx, token)
	if err != nil {
		return a.authed(err)
	}

	t := newTable("Students", "Subjects", "Results")
	t.Row(strconv.Itoa(stats.TotalStudents), strconv.Itoa(stats.TotalSubjects), strconv.Itoa(stats.TotalResults))
	fmt.Fprintln(a.out, t.Render())
	return nil
}
