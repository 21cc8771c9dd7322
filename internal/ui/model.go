package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
)

type ViewType int

const (
	AuthView ViewType = iota
	LoadingView
	StudentView
	AdminView
)

const (
	loginStudentID = iota
	loginPassword
	loginButton
)

const (
	registerStudentID = iota
	registerName
	registerEmail
	registerPassword
	registerRole
	registerButton
)

const (
	adminRoster = iota
	adminResultStudent
	adminResultSubject
	adminResultMarks
	adminResultSemester
	adminResultYear
	adminSubjectName
	adminSubjectCode
	adminSubjectCredits
	adminFocusCount
)

// Model hosts the session orchestrator. All session state lives in the
// orchestrator; the text inputs mirror its form drafts.
type Model struct {
	width        int
	height       int
	orch         *session.Orchestrator
	spinner      spinner.Model
	showPassword bool
	lastView     ViewType

	authFocus      int
	loginInputs    [2]textinput.Model
	registerInputs [4]textinput.Model

	adminFocus    int
	roster        table.Model
	resultInputs  [5]textinput.Model
	subjectInputs [3]textinput.Model
}

func NewModel(orch *session.Orchestrator) Model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(BLUE)
	s.Spinner = spinner.Points

	m := Model{
		orch:    orch,
		spinner: s,
		roster:  newRosterTable(),
	}

	m.loginInputs[0] = newInput("Enter your student ID", 32)
	m.loginInputs[1] = newInput("Enter your password", 128)
	m.loginInputs[1].EchoMode = textinput.EchoPassword

	m.registerInputs[0] = newInput("Student ID", 32)
	m.registerInputs[1] = newInput("Full name", 64)
	m.registerInputs[2] = newInput("Email address", 128)
	m.registerInputs[3] = newInput("Password", 128)
	m.registerInputs[3].EchoMode = textinput.EchoPassword

	m.resultInputs[0] = newInput("S100", 32)
	m.resultInputs[1] = newInput("MATH101", 64)
	m.resultInputs[2] = newInput("0-100", 8)
	m.resultInputs[3] = newInput("Fall", 16)
	m.resultInputs[4] = newInput("2024", 4)

	m.subjectInputs[0] = newInput("Mathematics", 64)
	m.subjectInputs[1] = newInput("MATH101", 16)
	m.subjectInputs[2] = newInput("3", 2)

	m.syncFromState()
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 26
	ti.EchoCharacter = '*'
	return ti
}

func newRosterTable() table.Model {
	columns := []table.Column{
		{Title: "Student ID", Width: 12},
		{Title: "Name", Width: 22},
		{Title: "Email", Width: 26},
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithHeight(8),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BLUE).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(WHITE).
		Background(BLUE).
		Bold(true)
	tbl.SetStyles(s)

	return tbl
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.orch.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.orch.Update(msg); ok {
		m.syncFromState()
		return m, cmd
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	cmd = m.updateInputs(msg)
	return m, cmd
}

func (m Model) currentView() ViewType {
	s := m.orch.State()
	switch {
	case s.Phase == session.Authenticating:
		return LoadingView
	case s.Phase == session.Authenticated && s.IsAdmin():
		return AdminView
	case s.Phase == session.Authenticated:
		return StudentView
	default:
		return AuthView
	}
}

func (m *Model) dispatch(ev session.Event) tea.Cmd {
	cmd := m.orch.Dispatch(ev)
	m.syncFromState()
	return cmd
}

// syncFromState copies the orchestrator's drafts into the inputs, so resets
// done by the session (after a submit or logout) show up on screen.
func (m *Model) syncFromState() {
	s := m.orch.State()

	setValue(&m.loginInputs[0], s.LoginForm.StudentID)
	setValue(&m.loginInputs[1], s.LoginForm.Password)

	setValue(&m.registerInputs[0], s.RegisterForm.StudentID)
	setValue(&m.registerInputs[1], s.RegisterForm.Name)
	setValue(&m.registerInputs[2], s.RegisterForm.Email)
	setValue(&m.registerInputs[3], s.RegisterForm.Password)

	setValue(&m.resultInputs[0], s.ResultDraft.StudentID)
	setValue(&m.resultInputs[1], s.ResultDraft.SubjectID)
	setValue(&m.resultInputs[2], s.ResultDraft.Marks)
	setValue(&m.resultInputs[3], s.ResultDraft.Semester)
	setValue(&m.resultInputs[4], s.ResultDraft.Year)

	setValue(&m.subjectInputs[0], s.SubjectDraft.Name)
	setValue(&m.subjectInputs[1], s.SubjectDraft.Code)
	setValue(&m.subjectInputs[2], s.SubjectDraft.Credits)

	rows := make([]table.Row, 0, len(s.Students))
	for _, st := range s.Students {
		rows = append(rows, table.Row{st.StudentID, st.Name, st.Email})
	}
	m.roster.SetRows(rows)

	if v := m.currentView(); v != m.lastView {
		m.lastView = v
		m.authFocus = 0
		m.adminFocus = adminRoster
	}
	if s.Tab == session.TabLogin && m.authFocus > loginButton {
		m.authFocus = 0
	}
	m.applyFocus()
}

func setValue(ti *textinput.Model, v string) {
	if ti.Value() != v {
		ti.SetValue(v)
	}
}

func (m *Model) applyFocus() {
	s := m.orch.State()
	view := m.currentView()

	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	for i := range m.registerInputs {
		m.registerInputs[i].Blur()
	}
	for i := range m.resultInputs {
		m.resultInputs[i].Blur()
	}
	for i := range m.subjectInputs {
		m.subjectInputs[i].Blur()
	}
	m.roster.Blur()

	switch view {
	case AuthView:
		if s.Tab == session.TabLogin && m.authFocus < len(m.loginInputs) {
			m.loginInputs[m.authFocus].Focus()
		}
		if s.Tab == session.TabRegister && m.authFocus < len(m.registerInputs) {
			m.registerInputs[m.authFocus].Focus()
		}
	case AdminView:
		switch {
		case m.adminFocus == adminRoster:
			m.roster.Focus()
		case m.adminFocus < adminSubjectName:
			m.resultInputs[m.adminFocus-adminResultStudent].Focus()
		default:
			m.subjectInputs[m.adminFocus-adminSubjectName].Focus()
		}
	}
}

// updateInputs forwards non-key messages such as cursor blinks.
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	for i := range m.loginInputs {
		m.loginInputs[i], cmd = m.loginInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	for i := range m.registerInputs {
		m.registerInputs[i], cmd = m.registerInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	for i := range m.resultInputs {
		m.resultInputs[i], cmd = m.resultInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	for i := range m.subjectInputs {
		m.subjectInputs[i], cmd = m.subjectInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.orch.Close()
		return m, tea.Quit
	}

	switch m.currentView() {
	case AuthView:
		return m.handleAuthKeys(msg)
	case LoadingView:
		return m.handleLoadingKeys(msg)
	case StudentView:
		return m.handleStudentKeys(msg)
	case AdminView:
		return m.handleAdminKeys(msg)
	default:
		return m, nil
	}
}

func (m Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.orch.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.orch.State()
	register := s.Tab == session.TabRegister

	fields := loginButton + 1
	submitField := loginButton
	if register {
		fields = registerButton + 1
		submitField = registerButton
	}

	if register && m.authFocus == registerRole {
		switch msg.String() {
		case " ", "left", "right", "h", "l", "enter":
			form := s.RegisterForm
			if form.Role == api.RoleAdmin {
				form.Role = api.RoleStudent
			} else {
				form.Role = api.RoleAdmin
			}
			cmd := m.dispatch(session.EditRegister{Form: form})
			return m, cmd
		}
	}

	switch msg.String() {
	case "esc":
		m.showPassword = !m.showPassword
		mode := textinput.EchoPassword
		if m.showPassword {
			mode = textinput.EchoNormal
		}
		m.loginInputs[loginPassword].EchoMode = mode
		m.registerInputs[registerPassword].EchoMode = mode
		return m, nil

	case "ctrl+t":
		tab := session.TabRegister
		if register {
			tab = session.TabLogin
		}
		m.authFocus = 0
		cmd := m.dispatch(session.SelectTab{Tab: tab})
		return m, cmd

	case "tab", "down":
		m.authFocus = (m.authFocus + 1) % fields
		m.applyFocus()
		return m, nil

	case "shift+tab", "up":
		m.authFocus = (m.authFocus - 1 + fields) % fields
		m.applyFocus()
		return m, nil

	case "enter":
		// Enter on the login password submits, like the button.
		if m.authFocus == submitField || (!register && m.authFocus == loginPassword) {
			if register {
				cmd := m.dispatch(session.SubmitRegister{})
				return m, cmd
			}
			cmd := m.dispatch(session.SubmitLogin{})
			return m, cmd
		}
		m.authFocus = (m.authFocus + 1) % fields
		m.applyFocus()
		return m, nil
	}

	cmd := m.updateAuthInput(msg)
	return m, cmd
}

func (m *Model) updateAuthInput(msg tea.Msg) tea.Cmd {
	s := m.orch.State()
	var cmd tea.Cmd

	if s.Tab == session.TabLogin {
		if m.authFocus >= len(m.loginInputs) {
			return nil
		}
		m.loginInputs[m.authFocus], cmd = m.loginInputs[m.authFocus].Update(msg)
		form := api.Credentials{
			StudentID: m.loginInputs[loginStudentID].Value(),
			Password:  m.loginInputs[loginPassword].Value(),
		}
		return tea.Batch(cmd, m.dispatch(session.EditLogin{Form: form}))
	}

	if m.authFocus >= len(m.registerInputs) {
		return nil
	}
	m.registerInputs[m.authFocus], cmd = m.registerInputs[m.authFocus].Update(msg)
	form := s.RegisterForm
	form.StudentID = m.registerInputs[registerStudentID].Value()
	form.Name = m.registerInputs[registerName].Value()
	form.Email = m.registerInputs[registerEmail].Value()
	form.Password = m.registerInputs[registerPassword].Value()
	return tea.Batch(cmd, m.dispatch(session.EditRegister{Form: form}))
}

func (m Model) handleStudentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.orch.Close()
		return m, tea.Quit
	case "l", "L":
		cmd := m.dispatch(session.Logout{})
		return m, cmd
	case "r":
		cmd := m.dispatch(session.Refresh{})
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAdminKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.adminFocus = (m.adminFocus + 1) % adminFocusCount
		m.applyFocus()
		return m, nil
	case "shift+tab":
		m.adminFocus = (m.adminFocus - 1 + adminFocusCount) % adminFocusCount
		m.applyFocus()
		return m, nil
	case "esc":
		m.adminFocus = adminRoster
		m.applyFocus()
		return m, nil
	}

	var cmd tea.Cmd

	switch {
	case m.adminFocus == adminRoster:
		switch msg.String() {
		case "q":
			m.orch.Close()
			return m, tea.Quit
		case "l", "L":
			cmd = m.dispatch(session.Logout{})
			return m, cmd
		case "r":
			cmd = m.dispatch(session.Refresh{})
			return m, cmd
		case "enter":
			row := m.roster.SelectedRow()
			if len(row) == 0 {
				return m, nil
			}
			draft := m.orch.State().ResultDraft
			draft.StudentID = row[0]
			cmd = tea.Batch(
				m.dispatch(session.EditResult{Draft: draft}),
				m.dispatch(session.InspectStudent{StudentID: row[0]}),
			)
			return m, cmd
		}
		m.roster, cmd = m.roster.Update(msg)
		return m, cmd

	case m.adminFocus < adminSubjectName:
		if msg.String() == "enter" {
			cmd = m.dispatch(session.SubmitResult{})
			return m, cmd
		}
		i := m.adminFocus - adminResultStudent
		m.resultInputs[i], cmd = m.resultInputs[i].Update(msg)
		draft := api.ResultDraft{
			StudentID: m.resultInputs[0].Value(),
			SubjectID: m.resultInputs[1].Value(),
			Marks:     m.resultInputs[2].Value(),
			Semester:  m.resultInputs[3].Value(),
			Year:      m.resultInputs[4].Value(),
		}
		cmd = tea.Batch(cmd, m.dispatch(session.EditResult{Draft: draft}))
		return m, cmd

	default:
		if msg.String() == "enter" {
			cmd = m.dispatch(session.SubmitSubject{})
			return m, cmd
		}
		i := m.adminFocus - adminSubjectName
		m.subjectInputs[i], cmd = m.subjectInputs[i].Update(msg)
		draft := api.SubjectDraft{
			Name:    m.subjectInputs[0].Value(),
			Code:    m.subjectInputs[1].Value(),
			Credits: m.subjectInputs[2].Value(),
		}
		cmd = tea.Batch(cmd, m.dispatch(session.EditSubject{Draft: draft}))
		return m, cmd
	}
}
