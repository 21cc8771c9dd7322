package session

import (
	"time"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
)

// Event is anything Reduce understands: user intents and request outcomes.
type Event interface {
	isEvent()
}

type Restore struct {
	Token string
	Now   time.Time
}

type SelectTab struct{ Tab Tab }

type EditLogin struct{ Form api.Credentials }

type EditRegister struct{ Form api.RegisterRequest }

type EditResult struct{ Draft api.ResultDraft }

type EditSubject struct{ Draft api.SubjectDraft }

type SubmitLogin struct{}

type SubmitRegister struct{}

type SubmitResult struct{}

type SubmitSubject struct{}

type Logout struct{}

type Refresh struct{}

type InspectStudent struct{ StudentID string }

type NoticeExpired struct{ Seq uint64 }

type UserLoaded struct {
	Gen  uint64
	User api.User
	Err  error
}

type LoginFinished struct {
	Gen  uint64
	Resp api.LoginResponse
	Err  error
}

type RegisterFinished struct {
	Gen  uint64
	Resp api.RegisterResponse
	Err  error
}

type SubjectsLoaded struct {
	Gen      uint64
	Subjects []api.Subject
	Err      error
}

type StudentsLoaded struct {
	Gen      uint64
	Students []api.Student
	Err      error
}

type StatsLoaded struct {
	Gen   uint64
	Stats api.Stats
	Err   error
}

type ResultsLoaded struct {
	Gen       uint64
	StudentID string
	Summary   api.ResultsSummary
	Err       error
}

type ResultAdded struct {
	Gen       uint64
	StudentID string
	Resp      api.ResultResponse
	Err       error
}

type SubjectAdded struct {
	Gen  uint64
	Resp api.SubjectResponse
	Err  error
}

func (Restore) isEvent()          {}
func (SelectTab) isEvent()        {}
func (EditLogin) isEvent()        {}
func (EditRegister) isEvent()     {}
func (EditResult) isEvent()       {}
func (EditSubject) isEvent()      {}
func (SubmitLogin) isEvent()      {}
func (SubmitRegister) isEvent()   {}
func (SubmitResult) isEvent()     {}
func (SubmitSubject) isEvent()    {}
func (Logout) isEvent()           {}
func (Refresh) isEvent()          {}
func (InspectStudent) isEvent()   {}
func (NoticeExpired) isEvent()    {}
func (UserLoaded) isEvent()       {}
func (LoginFinished) isEvent()    {}
func (RegisterFinished) isEvent() {}
func (SubjectsLoaded) isEvent()   {}
func (StudentsLoaded) isEvent()   {}
func (StatsLoaded) isEvent()      {}
func (ResultsLoaded) isEvent()    {}
func (ResultAdded) isEvent()      {}
func (SubjectAdded) isEvent()     {}
