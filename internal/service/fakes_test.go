package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/notify"
	"github.com/iliyamo/complaints-admin-portal/internal/queue"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
)

var errUnauthorized = &gateway.TransportError{Op: "test", StatusCode: http.StatusUnauthorized, Message: "Unauthenticated."}

// fakeBackend answers from its fields; a nil func returns zero values.
type fakeBackend struct {
	mu            sync.Mutex
	login         func(gateway.LoginRequest) (gateway.LoginResult, error)
	complaints    func() ([]model.Complaint, error)
	update        func(id uint64, status model.ComplaintStatus) error
	employees     func() ([]model.Employee, error)
	create        func(gateway.CreateEmployeeRequest) (model.Employee, error)
	updateCalls   int
	lastLogin     gateway.LoginRequest
	createdBodies []gateway.CreateEmployeeRequest
}

func (f *fakeBackend) Login(_ context.Context, req gateway.LoginRequest) (gateway.LoginResult, error) {
	f.mu.Lock()
	f.lastLogin = req
	f.mu.Unlock()
	if f.login == nil {
		return gateway.LoginResult{}, errors.New("no login")
	}
	return f.login(req)
}

func (f *fakeBackend) ListComplaints(context.Context) ([]model.Complaint, error) {
	if f.complaints == nil {
		return []model.Complaint{}, nil
	}
	return f.complaints()
}

func (f *fakeBackend) UpdateComplaintStatus(_ context.Context, id uint64, status model.ComplaintStatus) error {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	if f.update == nil {
		return nil
	}
	return f.update(id, status)
}

func (f *fakeBackend) ListEmployees(context.Context) ([]model.Employee, error) {
	if f.employees == nil {
		return []model.Employee{}, nil
	}
	return f.employees()
}

func (f *fakeBackend) CreateEmployee(_ context.Context, req gateway.CreateEmployeeRequest) (model.Employee, error) {
	f.mu.Lock()
	f.createdBodies = append(f.createdBodies, req)
	f.mu.Unlock()
	if f.create == nil {
		return model.Employee{ID: 1, Name: req.Name}, nil
	}
	return f.create(req)
}

// recordingSender remembers notifications and fails with err when set.
type recordingSender struct {
	mu    sync.Mutex
	sent  []notify.Notification
	err   error
	panic bool
}

func (s *recordingSender) Send(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	if s.panic {
		panic("sender exploded")
	}
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []queue.StatusChangedEvent
}

func (r *recordingEvents) PublishStatusChanged(_ context.Context, ev queue.StatusChangedEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// failingStore wraps a store and fails Set for one key.
type failingStore struct {
	repository.SessionStore
	failKey string
}

func (s failingStore) Set(ctx context.Context, sid, key, value string) error {
	if key == s.failKey {
		return errors.New("store down")
	}
	return s.SessionStore.Set(ctx, sid, key, value)
}

func sampleComplaints() []model.Complaint {
	return []model.Complaint{
		{ID: 3, Identifier: "C-3", Description: "pothole", Status: model.StatusInProgress, Address: "Main st"},
		{ID: 7, Identifier: "C-7", Description: "broken light", Status: model.StatusNew, Latitude: 33.5, Longitude: 36.3,
			User: model.ComplaintUser{ID: 42, Name: "citizen", FCMToken: "citizen-token"},
			Documents: []model.Document{{ID: 1, Path: "/docs/1.jpg"}}},
		{ID: 9, Identifier: "C-9", Status: model.StatusRejected},
	}
}

// signedIn returns a session manager already holding token T1 for user.
func signedIn(store repository.SessionStore, user model.User) *SessionManager {
	m := NewSessionManager(store, "sid-1", nil)
	_ = m.Login(context.Background(), "T1", user)
	return m
}
