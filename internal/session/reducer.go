package session

import (
	"strings"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
)

const (
	MsgLoginSuccess    = "Login successful!"
	MsgLoginFailed     = "Login failed"
	MsgRegisterSuccess = "Registration successful! Please login."
	MsgRegisterFailed  = "Registration failed"
	MsgLogoutSuccess   = "Logged out successfully!"
	MsgResultAdded     = "Result added successfully!"
	MsgResultUpdated   = "Result updated successfully!"
	MsgResultFailed    = "Failed to add result"
	MsgSubjectAdded    = "Subject created successfully!"
	MsgSubjectFailed   = "Failed to create subject"
	MsgNetworkError    = "Network error. Please try again."
	MsgSessionExpired  = "Your session has expired. Please login again."
	MsgUnsupportedRole = "This portal only supports student and admin accounts."
)

// Reduce applies ev to s. It never performs I/O; everything that must happen
// outside the state is returned as effects, in order.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Restore:
		return reduceRestore(s, ev)
	case UserLoaded:
		return reduceUserLoaded(s, ev)

	case SelectTab:
		if s.Phase == Unauthenticated {
			s.Tab = ev.Tab
		}
		return s, nil
	case EditLogin:
		s.LoginForm = ev.Form
		return s, nil
	case EditRegister:
		s.RegisterForm = ev.Form
		return s, nil
	case EditResult:
		s.ResultDraft = ev.Draft
		return s, nil
	case EditSubject:
		s.SubjectDraft = ev.Draft
		return s, nil

	case SubmitLogin:
		return reduceSubmitLogin(s)
	case LoginFinished:
		return reduceLoginFinished(s, ev)
	case SubmitRegister:
		return reduceSubmitRegister(s)
	case RegisterFinished:
		return reduceRegisterFinished(s, ev)
	case Logout:
		return reduceLogout(s)

	case Refresh:
		if s.Phase != Authenticated {
			return s, nil
		}
		effects := dashboardEffects(s)
		if s.IsAdmin() && s.Inspected.StudentID != "" {
			s.Inspected.Loading = true
			effects = append(effects, FetchResults{Gen: s.Gen, Token: s.Token, StudentID: s.Inspected.StudentID})
		}
		return s, effects

	case SubjectsLoaded:
		if stale(s, ev.Gen) || s.Phase != Authenticated {
			return s, nil
		}
		if ev.Err != nil {
			return fetchFailed(s, ev.Err, "subjects")
		}
		s.Subjects = ev.Subjects
		return s, nil
	case StudentsLoaded:
		if stale(s, ev.Gen) || !s.IsAdmin() {
			return s, nil
		}
		if ev.Err != nil {
			return fetchFailed(s, ev.Err, "students")
		}
		s.Students = ev.Students
		return s, nil
	case StatsLoaded:
		if stale(s, ev.Gen) || !s.IsAdmin() {
			return s, nil
		}
		if ev.Err != nil {
			return fetchFailed(s, ev.Err, "summary")
		}
		stats := ev.Stats
		s.Stats = &stats
		return s, nil
	case ResultsLoaded:
		return reduceResultsLoaded(s, ev)

	case InspectStudent:
		if s.Phase != Authenticated || !s.IsAdmin() || ev.StudentID == "" {
			return s, nil
		}
		s.Inspected = Inspection{StudentID: ev.StudentID, Loading: true}
		return s, []Effect{FetchResults{Gen: s.Gen, Token: s.Token, StudentID: ev.StudentID}}

	case SubmitResult:
		return reduceSubmitResult(s)
	case ResultAdded:
		return reduceResultAdded(s, ev)
	case SubmitSubject:
		return reduceSubmitSubject(s)
	case SubjectAdded:
		return reduceSubjectAdded(s, ev)

	case NoticeExpired:
		if s.Notice.Kind != NoticeNone && s.Notice.Seq == ev.Seq {
			s.Notice = Notice{}
		}
		return s, nil
	}

	return s, nil
}

func reduceRestore(s State, ev Restore) (State, []Effect) {
	if s.Phase != Unauthenticated || ev.Token == "" {
		return s, nil
	}
	if api.TokenExpired(ev.Token, ev.Now) {
		return s, []Effect{ClearToken{}}
	}
	s.Token = ev.Token
	s.Phase = Authenticating
	return s, []Effect{FetchUser{Gen: s.Gen, Token: s.Token}}
}

func reduceUserLoaded(s State, ev UserLoaded) (State, []Effect) {
	if stale(s, ev.Gen) || s.Phase != Authenticating {
		return s, nil
	}
	if ev.Err != nil {
		// A failed whoami is never reported; the user just sees the login form.
		s = signedOut(s)
		return s, []Effect{ClearToken{}, CancelRequests{}}
	}

	if !supportedRole(ev.User.Role) {
		return unsupported(s)
	}

	user := ev.User
	s.User = &user
	s.Phase = Authenticated
	s = bump(s)
	return s, append([]Effect{CancelRequests{}}, dashboardEffects(s)...)
}

func reduceSubmitLogin(s State) (State, []Effect) {
	if s.Phase != Unauthenticated || s.Busy(ActionLogin) {
		return s, nil
	}
	creds := api.Credentials{
		StudentID: strings.TrimSpace(s.LoginForm.StudentID),
		Password:  s.LoginForm.Password,
	}
	if err := api.Validate(creds); err != nil {
		return notify(s, NoticeError, api.Detail(err))
	}

	s.busy |= ActionLogin
	s.Phase = Authenticating
	s.Notice = Notice{}
	return s, []Effect{SendLogin{Gen: s.Gen, Creds: creds}}
}

func reduceLoginFinished(s State, ev LoginFinished) (State, []Effect) {
	if stale(s, ev.Gen) || !s.Busy(ActionLogin) {
		return s, nil
	}
	s.busy &^= ActionLogin

	if ev.Err != nil {
		s.Phase = Unauthenticated
		return notify(s, NoticeError, failureText(ev.Err, MsgLoginFailed, MsgNetworkError))
	}

	if !supportedRole(ev.Resp.User.Role) {
		s.LoginForm.Password = ""
		return unsupported(s)
	}

	user := ev.Resp.User
	s.Token = ev.Resp.AccessToken
	s.User = &user
	s.Phase = Authenticated
	s.LoginForm.Password = ""
	s = bump(s)

	effects := []Effect{SaveToken{Token: s.Token}, CancelRequests{}}
	s, noticeEffects := notify(s, NoticeSuccess, MsgLoginSuccess)
	effects = append(effects, noticeEffects...)
	return s, append(effects, dashboardEffects(s)...)
}

func reduceSubmitRegister(s State) (State, []Effect) {
	if s.Phase != Unauthenticated || s.Busy(ActionRegister) {
		return s, nil
	}
	req := s.RegisterForm
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = api.RoleStudent
	}
	if err := api.Validate(req); err != nil {
		return notify(s, NoticeError, api.Detail(err))
	}

	s.busy |= ActionRegister
	s.Notice = Notice{}
	return s, []Effect{SendRegister{Gen: s.Gen, Req: req}}
}

func reduceRegisterFinished(s State, ev RegisterFinished) (State, []Effect) {
	if stale(s, ev.Gen) || !s.Busy(ActionRegister) {
		return s, nil
	}
	s.busy &^= ActionRegister

	if ev.Err != nil {
		return notify(s, NoticeError, failureText(ev.Err, MsgRegisterFailed, MsgNetworkError))
	}

	s.Tab = TabLogin
	s.RegisterForm = api.RegisterRequest{Role: api.RoleStudent}
	return notify(s, NoticeSuccess, MsgRegisterSuccess)
}

func reduceLogout(s State) (State, []Effect) {
	s = signedOut(s)
	s.Tab = TabLogin
	s.LoginForm = api.Credentials{}
	s, effects := notify(s, NoticeSuccess, MsgLogoutSuccess)
	return s, append([]Effect{ClearToken{}, CancelRequests{}}, effects...)
}

func reduceResultsLoaded(s State, ev ResultsLoaded) (State, []Effect) {
	if stale(s, ev.Gen) {
		return s, nil
	}

	switch {
	case s.IsStudent():
		if ev.StudentID != s.User.StudentID {
			return s, nil
		}
		if ev.Err != nil {
			return fetchFailed(s, ev.Err, "results")
		}
		summary := ev.Summary
		s.Results = &summary
	case s.IsAdmin():
		if ev.StudentID != s.Inspected.StudentID {
			return s, nil
		}
		s.Inspected.Loading = false
		if ev.Err != nil {
			return fetchFailed(s, ev.Err, "results")
		}
		summary := ev.Summary
		s.Inspected.Summary = &summary
	}
	return s, nil
}

func reduceSubmitResult(s State) (State, []Effect) {
	if s.Phase != Authenticated || !s.IsAdmin() || s.Busy(ActionAddResult) {
		return s, nil
	}
	payload, err := s.ResultDraft.Payload()
	if err != nil {
		return notify(s, NoticeError, api.Detail(err))
	}
	subject, err := api.ResolveSubject(s.Subjects, payload.SubjectID)
	if err != nil {
		return notify(s, NoticeError, api.Detail(err))
	}
	payload.SubjectID = subject.ID

	s.busy |= ActionAddResult
	return s, []Effect{SendResult{Gen: s.Gen, Token: s.Token, Result: payload}}
}

func reduceResultAdded(s State, ev ResultAdded) (State, []Effect) {
	if stale(s, ev.Gen) || !s.Busy(ActionAddResult) {
		return s, nil
	}
	s.busy &^= ActionAddResult

	if ev.Err != nil {
		if api.IsUnauthorized(ev.Err) {
			return expired(s)
		}
		return notify(s, NoticeError, failureText(ev.Err, MsgResultFailed, MsgNetworkError))
	}

	text := MsgResultAdded
	if strings.Contains(strings.ToLower(ev.Resp.Message), "updated") {
		text = MsgResultUpdated
	}
	s.ResultDraft = api.ResultDraft{}
	s.Inspected = Inspection{StudentID: ev.StudentID, Loading: true}

	s, effects := notify(s, NoticeSuccess, text)
	return s, append(effects,
		FetchResults{Gen: s.Gen, Token: s.Token, StudentID: ev.StudentID},
		FetchStats{Gen: s.Gen, Token: s.Token},
	)
}

func reduceSubmitSubject(s State) (State, []Effect) {
	if s.Phase != Authenticated || !s.IsAdmin() || s.Busy(ActionAddSubject) {
		return s, nil
	}
	payload, err := s.SubjectDraft.Payload()
	if err != nil {
		return notify(s, NoticeError, api.Detail(err))
	}

	s.busy |= ActionAddSubject
	return s, []Effect{SendSubject{Gen: s.Gen, Token: s.Token, Subject: payload}}
}

func reduceSubjectAdded(s State, ev SubjectAdded) (State, []Effect) {
	if stale(s, ev.Gen) || !s.Busy(ActionAddSubject) {
		return s, nil
	}
	s.busy &^= ActionAddSubject

	if ev.Err != nil {
		if api.IsUnauthorized(ev.Err) {
			return expired(s)
		}
		return notify(s, NoticeError, failureText(ev.Err, MsgSubjectFailed, MsgNetworkError))
	}

	s.SubjectDraft = api.SubjectDraft{}
	s, effects := notify(s, NoticeSuccess, MsgSubjectAdded)
	return s, append(effects, FetchSubjects{Gen: s.Gen}, FetchStats{Gen: s.Gen, Token: s.Token})
}

// dashboardEffects are the fetches owed to a freshly established user.
func dashboardEffects(s State) []Effect {
	effects := []Effect{FetchSubjects{Gen: s.Gen}}
	switch {
	case s.IsStudent():
		effects = append(effects, FetchResults{Gen: s.Gen, Token: s.Token, StudentID: s.User.StudentID})
	case s.IsAdmin():
		effects = append(effects,
			FetchStudents{Gen: s.Gen, Token: s.Token},
			FetchStats{Gen: s.Gen, Token: s.Token},
		)
	}
	return effects
}

func fetchFailed(s State, err error, resource string) (State, []Effect) {
	if api.IsUnauthorized(err) {
		return expired(s)
	}
	return notify(s, NoticeError, failureText(err, "Failed to fetch "+resource, "Network error fetching "+resource))
}

// expired handles a token the server stopped accepting mid-session.
func expired(s State) (State, []Effect) {
	s = signedOut(s)
	s.Tab = TabLogin
	s, effects := notify(s, NoticeError, MsgSessionExpired)
	return s, append([]Effect{ClearToken{}, CancelRequests{}}, effects...)
}

func supportedRole(role api.Role) bool {
	return role == api.RoleStudent || role == api.RoleAdmin
}

// unsupported refuses an account whose role has no dashboard.
func unsupported(s State) (State, []Effect) {
	s = signedOut(s)
	s.Tab = TabLogin
	s, effects := notify(s, NoticeError, MsgUnsupportedRole)
	return s, append([]Effect{ClearToken{}, CancelRequests{}}, effects...)
}

// signedOut drops every identity-derived slice and starts a new generation.
func signedOut(s State) State {
	s.Phase = Unauthenticated
	s.Token = ""
	s.User = nil
	s.Subjects = nil
	s.Students = nil
	s.Stats = nil
	s.Results = nil
	s.Inspected = Inspection{}
	s.ResultDraft = api.ResultDraft{}
	s.SubjectDraft = api.SubjectDraft{}
	return bump(s)
}

func bump(s State) State {
	s.Gen++
	s.busy = 0
	return s
}

func stale(s State, gen uint64) bool {
	return gen != s.Gen
}

func notify(s State, kind NoticeKind, text string) (State, []Effect) {
	s.noticeSeq++
	s.Notice = Notice{Kind: kind, Text: text, Seq: s.noticeSeq}
	return s, []Effect{ExpireNotice{Seq: s.noticeSeq}}
}

// failureText keeps transport failures and server rejections on separate
// message paths.
func failureText(err error, fallback, network string) string {
	if api.IsTransport(err) {
		return network
	}
	if detail := api.Detail(err); detail != "" {
		return detail
	}
	return fallback
}
