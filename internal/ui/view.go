package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
)

func (m Model) View() string {
	var content string

	switch m.currentView() {
	case AuthView:
		content = m.renderAuth()
	case LoadingView:
		content = m.renderLoading()
	case StudentView:
		content = m.renderStudent()
	case AdminView:
		content = m.renderAdmin()
	default:
		content = "Unknown view"
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func renderNotice(n session.Notice) string {
	switch n.Kind {
	case session.NoticeError:
		return lipgloss.NewStyle().Foreground(RED).Bold(true).Render("❌ " + n.Text)
	case session.NoticeSuccess:
		return lipgloss.NewStyle().Foreground(GREEN).Bold(true).Render("✅ " + n.Text)
	default:
		return ""
	}
}

func (m Model) renderAuth() string {
	s := m.orch.State()

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LIGHT_BLUE).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE)

	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE).
		Background(BLUE).
		Padding(0, 2)

	tabStyle := lipgloss.NewStyle().
		Foreground(SILVER).
		Padding(0, 2)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	loginTab, registerTab := activeTabStyle.Render("Login"), tabStyle.Render("Register")
	if s.Tab == session.TabRegister {
		loginTab, registerTab = tabStyle.Render("Login"), activeTabStyle.Render("Register")
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, loginTab, registerTab)

	field := func(label string, input textinput.Model, focused bool) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(label),
			inputBox(focused).Render(input.View()),
		)
	}

	var fields []string
	var submit string

	if s.Tab == session.TabLogin {
		fields = append(fields,
			field("Student ID:", m.loginInputs[loginStudentID], m.authFocus == loginStudentID),
			field("Password:", m.loginInputs[loginPassword], m.authFocus == loginPassword),
		)
		label := "Login"
		if s.Busy(session.ActionLogin) {
			label = "Logging in..."
		}
		submit = button(label, m.authFocus == loginButton)
	} else {
		fields = append(fields,
			field("Student ID:", m.registerInputs[registerStudentID], m.authFocus == registerStudentID),
			field("Name:", m.registerInputs[registerName], m.authFocus == registerName),
			field("Email:", m.registerInputs[registerEmail], m.authFocus == registerEmail),
			field("Password:", m.registerInputs[registerPassword], m.authFocus == registerPassword),
		)

		roleStyle := labelStyle
		if m.authFocus == registerRole {
			roleStyle = roleStyle.Foreground(BLUE)
		}
		student, admin := "●", "○"
		if s.RegisterForm.Role == api.RoleAdmin {
			student, admin = "○", "●"
		}
		fields = append(fields, roleStyle.Render(fmt.Sprintf("Role: %s Student  %s Admin", student, admin)))

		label := "Register"
		if s.Busy(session.ActionRegister) {
			label = "Registering..."
		}
		submit = button(label, m.authFocus == registerButton)
	}

	help := "• ↑/↓: Navigate • Ctrl+T: Switch tab • Esc: Show password • Enter: Submit • Ctrl+C: Quit"
	if s.Tab == session.TabRegister {
		help = "• ↑/↓: Navigate • Space: Toggle role • Ctrl+T: Switch tab • Enter: Submit • Ctrl+C: Quit"
	}

	parts := []string{titleStyle.Render("📚 Student Result Portal"), tabs, ""}
	parts = append(parts, fields...)
	parts = append(parts, submit)
	if notice := renderNotice(s.Notice); notice != "" {
		parts = append(parts, notice)
	}
	parts = append(parts, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m Model) renderLoading() string {
	s := m.orch.State()

	reasonStyle := lipgloss.NewStyle().
		Foreground(WHITE).
		Bold(true).
		MarginBottom(1)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	reason := "🔐 Restoring your session, please wait"
	help := "Checking your saved session with the result server"
	if s.Busy(session.ActionLogin) {
		reason = "🔐 Logging in, please wait"
		help = "Authenticating your credentials with the result server"
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		reasonStyle.Render(reason),
		m.spinner.View(),
		helpStyle.Render(help),
		helpStyle.Render("• Q: Cancel and quit"),
	)
}

func renderHeader(s session.State) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)
	turquoiseStyle := lipgloss.NewStyle().Foreground(TURQUOISE).Bold(true)
	lavenderStyle := lipgloss.NewStyle().Foreground(LAVENDER).Bold(true)
	greyStyle := lipgloss.NewStyle().Foreground(GREY)

	if s.User == nil {
		return ""
	}

	header := fmt.Sprintf("%s, %s | %s | %s",
		headerStyle.Render("Welcome"),
		turquoiseStyle.Render(s.User.Name),
		lavenderStyle.Render(string(s.User.Role)),
		headerStyle.Render(s.User.StudentID),
	)
	if exp, ok := api.TokenExpiry(s.Token); ok {
		header += greyStyle.Render(" | session until " + exp.Local().Format(time.Kitchen))
	}
	return header
}

func (m Model) renderStudent() string {
	s := m.orch.State()

	statsStyle := lipgloss.NewStyle().Foreground(WHITE).MarginTop(1)
	lightGreenStyle := lipgloss.NewStyle().Foreground(LIGHT_GREEN).Bold(true)
	turquoiseStyle := lipgloss.NewStyle().Foreground(TURQUOISE)
	helpStyle := lipgloss.NewStyle().Foreground(GREY).MarginTop(1)

	parts := []string{renderHeader(s)}
	if notice := renderNotice(s.Notice); notice != "" {
		parts = append(parts, notice)
	}

	if s.Results == nil {
		parts = append(parts, statsStyle.Render(m.spinner.View()+" Loading your results..."))
	} else {
		parts = append(parts,
			statsStyle.Render(fmt.Sprintf("%s %s | %s %s | %s %s",
				"Overall GPA:", lightGreenStyle.Render(formatNumber(s.Results.OverallGPA)),
				"Subjects:", turquoiseStyle.Render(strconv.Itoa(s.Results.TotalSubjects)),
				"Offered:", turquoiseStyle.Render(strconv.Itoa(len(s.Subjects))),
			)),
			renderSummary(*s.Results),
		)
	}

	parts = append(parts, helpStyle.Render("• R: Refresh • L: Log out • Q: Quit"))
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

// renderSummary draws one card per semester, oldest first.
func renderSummary(sum api.ResultsSummary) string {
	keys := sum.Semesters()
	if len(keys) == 0 {
		return lipgloss.NewStyle().Foreground(YELLOW).MarginTop(1).Render("No results recorded yet.")
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BLUE).
		Padding(0, 2).
		MarginTop(1)

	semesterStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)
	gpaStyle := lipgloss.NewStyle().Bold(true).Foreground(LAVENDER)
	marksStyle := lipgloss.NewStyle().Foreground(SILVER)

	cards := make([]string, 0, len(keys))
	for _, key := range keys {
		entries := sum.ResultsBySemester[key.Key]

		nameWidth := 0
		for _, e := range entries {
			nameWidth = max(nameWidth, lipgloss.Width(e.SubjectName))
		}

		title := semesterStyle.Render(key.Label())
		if gpa, ok := sum.SemesterGPAs[key.Key]; ok {
			title += "   " + gpaStyle.Render("GPA: "+formatNumber(gpa))
		}

		rows := []string{title, ""}
		for _, e := range entries {
			name := e.SubjectName + strings.Repeat(" ", nameWidth-lipgloss.Width(e.SubjectName))
			marks := formatNumber(e.Marks)
			if e.MaxMarks > 0 {
				marks += "/" + formatNumber(e.MaxMarks)
			}
			rows = append(rows, fmt.Sprintf("%s  %s  %s",
				name,
				marksStyle.Render(marks+" marks"),
				lipgloss.NewStyle().Bold(true).Foreground(GradeColor(e.Grade)).Render(e.Grade),
			))
		}

		cards = append(cards, cardStyle.Render(strings.Join(rows, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (m Model) renderAdmin() string {
	s := m.orch.State()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)
	statsStyle := lipgloss.NewStyle().Foreground(WHITE).MarginTop(1).MarginBottom(1)
	turquoiseStyle := lipgloss.NewStyle().Foreground(TURQUOISE).Bold(true)
	silverStyle := lipgloss.NewStyle().Foreground(SILVER)
	helpStyle := lipgloss.NewStyle().Foreground(GREY).MarginTop(1)

	parts := []string{renderHeader(s)}
	if notice := renderNotice(s.Notice); notice != "" {
		parts = append(parts, notice)
	}

	stats := silverStyle.Render("Loading summary...")
	if s.Stats != nil {
		stats = fmt.Sprintf("Students: %s | Subjects: %s | Results: %s",
			turquoiseStyle.Render(strconv.Itoa(s.Stats.TotalStudents)),
			turquoiseStyle.Render(strconv.Itoa(s.Stats.TotalSubjects)),
			turquoiseStyle.Render(strconv.Itoa(s.Stats.TotalResults)),
		)
	}
	parts = append(parts, statsStyle.Render(stats))

	roster := pane(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Students (%d)", len(s.Students))),
		m.roster.View(),
	), m.adminFocus == adminRoster)

	left := lipgloss.JoinVertical(lipgloss.Left, roster, pane(m.renderInspected(), false))
	right := lipgloss.JoinVertical(lipgloss.Left,
		pane(m.renderResultForm(), m.adminFocus >= adminResultStudent && m.adminFocus < adminSubjectName),
		pane(m.renderSubjectForm(), m.adminFocus >= adminSubjectName),
	)
	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))

	parts = append(parts, helpStyle.Render("• Tab: Next panel/field • Esc: Back to roster • Enter: Inspect/Submit • R: Refresh • L: Log out • Q: Quit"))
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m Model) renderInspected() string {
	s := m.orch.State()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)
	greyStyle := lipgloss.NewStyle().Foreground(GREY)

	switch {
	case s.Inspected.StudentID == "":
		return greyStyle.Render("Select a student and press Enter to view results")
	case s.Inspected.Summary == nil && s.Inspected.Loading:
		return fmt.Sprintf("%s Loading results for %s...", m.spinner.View(), s.Inspected.StudentID)
	case s.Inspected.Summary == nil:
		return greyStyle.Render("No results loaded for " + s.Inspected.StudentID)
	}

	sum := *s.Inspected.Summary
	title := titleStyle.Render(fmt.Sprintf("Results for %s | Overall GPA: %s | Subjects: %d",
		s.Inspected.StudentID, formatNumber(sum.OverallGPA), sum.TotalSubjects))
	return lipgloss.JoinVertical(lipgloss.Left, title, renderSummary(sum))
}

func formLine(label string, input textinput.Model, focused bool) string {
	marker := "  "
	labelStyle := lipgloss.NewStyle().Foreground(SILVER)
	if focused {
		marker = "→ "
		labelStyle = labelStyle.Foreground(WHITE).Bold(true)
	}
	return fmt.Sprintf("%s%s %s", marker, labelStyle.Render(fmt.Sprintf("%-10s", label)), input.View())
}

func (m Model) renderResultForm() string {
	s := m.orch.State()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)

	labels := []string{"Student", "Subject", "Marks", "Semester", "Year"}
	lines := []string{titleStyle.Render("Add Result")}
	for i, label := range labels {
		lines = append(lines, formLine(label, m.resultInputs[i], m.adminFocus == adminResultStudent+i))
	}

	label := "Add Result"
	if s.Busy(session.ActionAddResult) {
		label = "Saving..."
	}
	lines = append(lines, button(label, false))
	return strings.Join(lines, "\n")
}

func (m Model) renderSubjectForm() string {
	s := m.orch.State()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(LIGHT_BLUE)
	greyStyle := lipgloss.NewStyle().Foreground(GREY)

	labels := []string{"Name", "Code", "Credits"}
	lines := []string{titleStyle.Render("Add Subject")}
	for i, label := range labels {
		lines = append(lines, formLine(label, m.subjectInputs[i], m.adminFocus == adminSubjectName+i))
	}

	label := "Add Subject"
	if s.Busy(session.ActionAddSubject) {
		label = "Saving..."
	}
	lines = append(lines, button(label, false))

	codes := make([]string, 0, len(s.Subjects))
	for _, sub := range s.Subjects {
		codes = append(codes, sub.Code)
	}
	if len(codes) > 0 {
		lines = append(lines, greyStyle.Width(44).Render("Subjects: "+strings.Join(codes, ", ")))
	}
	return strings.Join(lines, "\n")
}
