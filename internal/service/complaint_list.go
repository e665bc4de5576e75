package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
)

// ComplaintAPI is the part of the backend the complaint views use.
type ComplaintAPI interface {
	ListComplaints(ctx context.Context) ([]model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id uint64, status model.ComplaintStatus) error
}

// ComplaintListState is a copy of what the list view renders.
type ComplaintListState struct {
	Loading    bool              `json:"loading"`
	Complaints []model.Complaint `json:"complaints"`
	Error      string            `json:"error,omitempty"`
	FetchedAt  *time.Time        `json:"fetched_at,omitempty"`
}

// ComplaintList holds the complaints fetched for one session. Results of a
// refresh replace the collection in resolution order; there is no request
// generation counter.
type ComplaintList struct {
	api     ComplaintAPI
	session SessionTerminator
	log     *zap.Logger

	mu         sync.Mutex
	loading    bool
	loaded     bool
	complaints []model.Complaint
	errMsg     string
	fetchedAt  time.Time
}

func NewComplaintList(api ComplaintAPI, session SessionTerminator, log *zap.Logger) *ComplaintList {
	if log == nil {
		log = zap.NewNop()
	}
	return &ComplaintList{api: api, session: session, log: log}
}

// Refresh refetches the collection. On failure the previous collection is
// kept and the error message recorded; an auth rejection also signs the
// session out. A refresh already in flight yields ErrRefreshInFlight.
func (l *ComplaintList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		return ErrRefreshInFlight
	}
	l.loading = true
	l.errMsg = ""
	l.mu.Unlock()

	list, err := l.api.ListComplaints(ctx)

	l.mu.Lock()
	l.loading = false
	if err == nil {
		l.complaints = list
		l.loaded = true
		l.fetchedAt = time.Now().UTC()
		l.mu.Unlock()
		return nil
	}
	l.errMsg = UserMessage(err, MsgComplaintsFailed, MsgComplaintsRetry)
	l.mu.Unlock()

	if gateway.IsAuthRejected(err) {
		l.log.Info("complaints: token rejected; signing out")
		if lerr := l.session.Logout(context.WithoutCancel(ctx)); lerr != nil {
			l.log.Error("complaints: logout after 401 failed", zap.Error(lerr))
		}
	} else {
		l.log.Error("complaints: fetch failed", zap.Error(err))
	}
	return err
}

// ApplyStatusPatch sets the status of complaint id in place. Every other
// field and the order of the collection are untouched. It reports whether
// the complaint was found.
func (l *ComplaintList) ApplyStatusPatch(id uint64, status model.ComplaintStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.complaints {
		if l.complaints[i].ID == id {
			l.complaints[i].Status = status
			return true
		}
	}
	return false
}

// Find returns a copy of complaint id from the held collection.
func (l *ComplaintList) Find(id uint64) (model.Complaint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.complaints {
		if c.ID == id {
			return c, true
		}
	}
	return model.Complaint{}, false
}

// Loaded reports whether at least one refresh succeeded.
func (l *ComplaintList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Snapshot copies the current state.
func (l *ComplaintList) Snapshot() ComplaintListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := ComplaintListState{
		Loading:    l.loading,
		Complaints: append([]model.Complaint{}, l.complaints...),
		Error:      l.errMsg,
	}
	if !l.fetchedAt.IsZero() {
		at := l.fetchedAt
		st.FetchedAt = &at
	}
	return st
}
