package session

import (
	"github.com/feelsunbreeze/result_portal_tui/internal/api"
)

// Effect is a side effect requested by Reduce and carried out by the Orchestrator.
type Effect interface {
	isEffect()
}

type FetchUser struct {
	Gen   uint64
	Token string
}

type SendLogin struct {
	Gen   uint64
	Creds api.Credentials
}

type SendRegister struct {
	Gen uint64
	Req api.RegisterRequest
}

type FetchSubjects struct {
	Gen uint64
}

type FetchStudents struct {
	Gen   uint64
	Token string
}

type FetchStats struct {
	Gen   uint64
	Token string
}

type FetchResults struct {
	Gen       uint64
	Token     string
	StudentID string
}

type SendResult struct {
	Gen    uint64
	Token  string
	Result api.NewResult
}

type SendSubject struct {
	Gen     uint64
	Token   string
	Subject api.NewSubject
}

type SaveToken struct {
	Token string
}

type ClearToken struct{}

// CancelRequests aborts everything issued under earlier generations.
type CancelRequests struct{}

type ExpireNotice struct {
	Seq uint64
}

func (FetchUser) isEffect()      {}
func (SendLogin) isEffect()      {}
func (SendRegister) isEffect()   {}
func (FetchSubjects) isEffect()  {}
func (FetchStudents) isEffect()  {}
func (FetchStats) isEffect()     {}
func (FetchResults) isEffect()   {}
func (SendResult) isEffect()     {}
func (SendSubject) isEffect()    {}
func (SaveToken) isEffect()      {}
func (ClearToken) isEffect()     {}
func (CancelRequests) isEffect() {}
func (ExpireNotice) isEffect()   {}
