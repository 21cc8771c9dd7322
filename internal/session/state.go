package session

import (
	"github.com/feelsunbreeze/result_portal_tui/internal/api"
)

type Phase int

const (
	Unauthenticated Phase = iota
	Authenticating
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Tab int

const (
	TabLogin Tab = iota
	TabRegister
)

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeError
	NoticeSuccess
)

// Notice is the single transient message on screen.
type Notice struct {
	Kind NoticeKind
	Text string
	Seq  uint64
}

// Action names a form whose submission is guarded by a busy flag.
type Action uint8

const (
	ActionLogin Action = 1 << iota
	ActionRegister
	ActionAddResult
	ActionAddSubject
)

// Inspection is the admin's view of one student's results.
type Inspection struct {
	StudentID string
	Summary   *api.ResultsSummary
	Loading   bool
}

type State struct {
	Phase Phase
	Tab   Tab
	Token string
	User  *api.User

	Subjects  []api.Subject
	Students  []api.Student
	Stats     *api.Stats
	Results   *api.ResultsSummary
	Inspected Inspection

	LoginForm    api.Credentials
	RegisterForm api.RegisterRequest
	ResultDraft  api.ResultDraft
	SubjectDraft api.SubjectDraft

	Notice Notice

	// Gen is bumped whenever the authenticated identity changes. Responses
	// tagged with an older generation are dropped.
	Gen uint64

	busy      Action
	noticeSeq uint64
}

func NewState() State {
	return State{
		RegisterForm: api.RegisterRequest{Role: api.RoleStudent},
	}
}

func (s State) Busy(a Action) bool {
	return s.busy&a != 0
}

func (s State) Role() api.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

func (s State) IsStudent() bool {
	return s.User != nil && s.User.Role == api.RoleStudent
}
