package session

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
)

// Client is the subset of *api.Client the orchestrator calls.
type Client interface {
	Me(ctx context.Context, token string) (api.User, error)
	Login(ctx context.Context, creds api.Credentials) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
	Subjects(ctx context.Context) ([]api.Subject, error)
	CreateSubject(ctx context.Context, token string, subject api.NewSubject) (api.SubjectResponse, error)
	Students(ctx context.Context, token string) ([]api.Student, error)
	StudentResults(ctx context.Context, token, studentID string) (api.ResultsSummary, error)
	Stats(ctx context.Context, token string) (api.Stats, error)
	AddResult(ctx context.Context, token string, result api.NewResult) (api.ResultResponse, error)
}

// Orchestrator owns the session State. Dispatch runs Reduce and turns the
// resulting effects into tea commands; command results come back as Events.
// Dispatch must only be called from one goroutine (bubbletea's Update loop).
type Orchestrator struct {
	client      Client
	tokens      store.TokenStore
	log         zerolog.Logger
	noticeDelay time.Duration
	now         func() time.Time
	timer       func(d time.Duration, msg tea.Msg) tea.Cmd

	state  State
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Orchestrator)

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func WithNoticeDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.noticeDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTimer replaces the notice-expiry scheduler (tea.Tick by default).
func WithTimer(timer func(d time.Duration, msg tea.Msg) tea.Cmd) Option {
	return func(o *Orchestrator) { o.timer = timer }
}

func New(client Client, tokens store.TokenStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		tokens:      tokens,
		log:         zerolog.Nop(),
		noticeDelay: 5 * time.Second,
		now:         time.Now,
		timer: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
		state: NewState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o
}

func (o *Orchestrator) State() State {
	return o.state
}

// Init restores a persisted session, if any.
func (o *Orchestrator) Init() tea.Cmd {
	token, err := o.tokens.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoToken) {
			o.log.Warn().Err(err).Msg("Failed to load stored token")
		}
		return nil
	}
	return o.Dispatch(Restore{Token: token, Now: o.now()})
}

// Update dispatches msg when it is a session Event. The bool reports whether
// msg was consumed.
func (o *Orchestrator) Update(msg tea.Msg) (tea.Cmd, bool) {
	ev, ok := msg.(Event)
	if !ok {
		return nil, false
	}
	return o.Dispatch(ev), true
}

func (o *Orchestrator) Dispatch(ev Event) tea.Cmd {
	before := o.state.Phase
	next, effects := Reduce(o.state, ev)
	o.state = next

	if next.Phase != before {
		o.log.Debug().Str("from", before.String()).Str("to", next.Phase.String()).Uint64("gen", next.Gen).Msg("Session phase changed")
	}

	var cmds []tea.Cmd
	for _, eff := range effects {
		if cmd := o.run(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Close cancels every in-flight request.
func (o *Orchestrator) Close() {
	o.cancel()
}

func (o *Orchestrator) run(eff Effect) tea.Cmd {
	ctx := o.ctx

	switch eff := eff.(type) {
	case SaveToken:
		if err := o.tokens.Save(eff.Token); err != nil {
			o.log.Warn().Err(err).Msg("Failed to persist token")
		}
		return nil

	case ClearToken:
		if err := o.tokens.Clear(); err != nil {
			o.log.Warn().Err(err).Msg("Failed to clear token")
		}
		return nil

	case CancelRequests:
		o.cancel()
		o.ctx, o.cancel = context.WithCancel(context.Background())
		return nil

	case ExpireNotice:
		return o.timer(o.noticeDelay, NoticeExpired{Seq: eff.Seq})

	case FetchUser:
		return func() tea.Msg {
			user, err := o.client.Me(ctx, eff.Token)
			if err != nil {
				o.log.Info().Err(err).Msg("Stored token rejected")
			}
			return UserLoaded{Gen: eff.Gen, User: user, Err: err}
		}

	case SendLogin:
		return func() tea.Msg {
			resp, err := o.client.Login(ctx, eff.Creds)
			return LoginFinished{Gen: eff.Gen, Resp: resp, Err: err}
		}

	case SendRegister:
		return func() tea.Msg {
			resp, err := o.client.Register(ctx, eff.Req)
			return RegisterFinished{Gen: eff.Gen, Resp: resp, Err: err}
		}

	case FetchSubjects:
		return func() tea.Msg {
			subjects, err := o.client.Subjects(ctx)
			return SubjectsLoaded{Gen: eff.Gen, Subjects: subjects, Err: err}
		}

	case FetchStudents:
		return func() tea.Msg {
			students, err := o.client.Students(ctx, eff.Token)
			return StudentsLoaded{Gen: eff.Gen, Students: students, Err: err}
		}

	case FetchStats:
		return func() tea.Msg {
			stats, err := o.client.Stats(ctx, eff.Token)
			return StatsLoaded{Gen: eff.Gen, Stats: stats, Err: err}
		}

	case FetchResults:
		return func() tea.Msg {
			summary, err := o.client.StudentResults(ctx, eff.Token, eff.StudentID)
			return ResultsLoaded{Gen: eff.Gen, StudentID: eff.StudentID, Summary: summary, Err: err}
		}

	case SendResult:
		return func() tea.Msg {
			resp, err := o.client.AddResult(ctx, eff.Token, eff.Result)
			return ResultAdded{Gen: eff.Gen, StudentID: eff.Result.StudentID, Resp: resp, Err: err}
		}

	case SendSubject:
		return func() tea.Msg {
			resp, err := o.client.CreateSubject(ctx, eff.Token, eff.Subject)
			return SubjectAdded{Gen: eff.Gen, Resp: resp, Err: err}
		}
	}

	o.log.Error().Type("effect", eff).Msg("Unhandled effect")
	return nil
}
