package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/metrics"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/notify"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
)

// Backend is everything the portal needs from the REST backend.
type Backend interface {
	ComplaintAPI
	EmployeeAPI
	Login(ctx context.Context, req gateway.LoginRequest) (gateway.LoginResult, error)
}

// BackendFactory binds a backend client to a session's token source.
type BackendFactory func(ts gateway.TokenSource) Backend

// Options wires a Portal.
type Options struct {
	Store      repository.SessionStore
	Backend    BackendFactory
	Sender     notify.Sender
	Events     EventPublisher // optional
	Normalizer IdentifierNormalizer
	StripPlus  bool // submit the identifier without its leading "+"
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

// Controllers are the page controllers of one signed-in user.
type Controllers struct {
	Complaints *ComplaintList
	Status     *StatusUpdater
	Employees  *EmployeeList
	Form       *EmployeeForm
}

// Workspace is the view state of one browser session: its auth session and
// the controllers of the pages it may open.
type Workspace struct {
	Session *SessionManager

	mu       sync.Mutex
	ctrl     Controllers
	owner    uint64 // user ctrl was built for, 0 when signed out
	lastSeen time.Time
}

// Controllers returns the controllers bound to the current user.
func (ws *Workspace) Controllers() Controllers {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.ctrl
}

func (ws *Workspace) touch() {
	ws.mu.Lock()
	ws.lastSeen = time.Now()
	ws.mu.Unlock()
}

func (ws *Workspace) idleSince(t time.Time) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.lastSeen.Before(t)
}

// Portal keeps one Workspace per session id. Credentials live in the
// session store; workspaces only cache view state and can be swept.
type Portal struct {
	opts    Options
	log     *zap.Logger
	devices DeviceTokens

	mu     sync.Mutex
	spaces map[string]*Workspace

	background sync.WaitGroup // phase two of every status update
}

func NewPortal(opts Options) *Portal {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sender == nil {
		opts.Sender = notify.Noop{}
	}
	if opts.Normalizer == (IdentifierNormalizer{}) {
		opts.Normalizer = NewIdentifierNormalizer(DefaultAdminIdentifier)
	}
	return &Portal{
		opts:    opts,
		log:     opts.Logger,
		devices: DeviceTokens{Store: opts.Store},
		spaces:  make(map[string]*Workspace),
	}
}

// Workspace returns the workspace for sid with its session hydrated from
// the store. Controllers are rebuilt whenever the signed-in user changes.
func (p *Portal) Workspace(ctx context.Context, sid string) (*Workspace, error) {
	ws := p.workspace(sid)
	if err := ws.Session.Hydrate(ctx); err != nil {
		return ws, err
	}
	p.bind(ws)
	return ws, nil
}

// Login normalizes the identifier, authenticates against the backend and,
// on success, stores token and user for sid.
func (p *Portal) Login(ctx context.Context, sid, identifier, password string) (model.User, error) {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(password) == "" {
		return model.User{}, &ValidationError{Message: MsgFillAllFields}
	}
	ident := p.opts.Normalizer.Normalize(identifier)
	if p.opts.StripPlus {
		ident = StripLeadingPlus(ident)
	}

	device, err := p.devices.Get(ctx, sid)
	if err != nil {
		return model.User{}, err
	}

	res, err := p.opts.Backend(nil).Login(ctx, gateway.LoginRequest{
		Identifier:  ident,
		Password:    password,
		DeviceToken: device,
	})
	if err != nil {
		p.log.Info("login rejected", zap.String("identifier", ident), zap.Error(err))
		return model.User{}, err
	}

	ws := p.workspace(sid)
	if err := ws.Session.Login(ctx, res.Token, res.User); err != nil {
		return model.User{}, err
	}
	p.bind(ws)
	p.log.Info("login succeeded",
		zap.Uint64("user_id", res.User.ID), zap.String("role", res.User.Role))
	return res.User, nil
}

// Logout signs sid out and forgets its view state. The device token stays.
func (p *Portal) Logout(ctx context.Context, sid string) error {
	ws := p.workspace(sid)
	err := ws.Session.Logout(ctx)
	p.mu.Lock()
	delete(p.spaces, sid)
	p.mu.Unlock()
	return err
}

// Sweep drops workspaces not touched for longer than idle and returns how
// many were removed.
func (p *Portal) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for sid, ws := range p.spaces {
		if ws.idleSince(cutoff) {
			delete(p.spaces, sid)
			n++
		}
	}
	return n
}

// Wait blocks until the background work of every status update started
// through the portal is done, including updates of workspaces that were
// logged out, swept or rebound since.
func (p *Portal) Wait() { p.background.Wait() }

func (p *Portal) workspace(sid string) *Workspace {
	p.mu.Lock()
	defer p.mu.Unlock()
	ws, ok := p.spaces[sid]
	if !ok {
		ws = &Workspace{Session: NewSessionManager(p.opts.Store, sid, p.log)}
		p.spaces[sid] = ws
	}
	ws.touch()
	return ws
}

// bind (re)builds the controllers when the signed-in user differs from the
// one they were built for.
func (p *Portal) bind(ws *Workspace) {
	var owner uint64
	if u, ok := ws.Session.User(); ok {
		owner = u.ID
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.ctrl.Complaints != nil && ws.owner == owner {
		return
	}
	api := p.opts.Backend(ws.Session)
	log := p.log.With(zap.Uint64("user_id", owner))
	list := NewComplaintList(api, ws.Session, log)

	ws.owner = owner
	ws.ctrl = Controllers{
		Complaints: list,
		Employees:  NewEmployeeList(api, ws.Session, log),
		Form:       NewEmployeeForm(api, ws.Session, log),
		Status: &StatusUpdater{
			API:     api,
			List:    list,
			Session: ws.Session,
			Sender:  p.opts.Sender,
			Events:  p.opts.Events,
			Metrics: p.opts.Metrics,
			Log:     log,
			ActorID: owner,

			Background: &p.background,
		},
	}
}
