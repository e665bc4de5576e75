package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
)

func TestRefreshReplacesCollection(t *testing.T) {
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) { return sampleComplaints(), nil }}
	l := NewComplaintList(api, signedIn(repository.NewMemorySessionStore(), admin), nil)

	if l.Loaded() {
		t.Fatal("not loaded before the first refresh")
	}
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	st := l.Snapshot()
	if st.Loading || st.Error != "" || len(st.Complaints) != 3 || st.FetchedAt == nil {
		t.Fatalf("unexpected state %+v", st)
	}
	if !l.Loaded() {
		t.Fatal("expected loaded")
	}
}

func TestRefreshBusinessFailure(t *testing.T) {
	calls := 0
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) {
		calls++
		if calls == 1 {
			return sampleComplaints(), nil
		}
		return nil, &gateway.BusinessError{Op: "list_complaints", Message: "no access"}
	}}
	session := signedIn(repository.NewMemorySessionStore(), admin)
	l := NewComplaintList(api, session, nil)
	_ = l.Refresh(context.Background())

	err := l.Refresh(context.Background())
	if !gateway.IsBusiness(err) {
		t.Fatalf("expected business error, got %v", err)
	}
	st := l.Snapshot()
	if st.Error != "no access" {
		t.Fatalf("error message = %q", st.Error)
	}
	if len(st.Complaints) != 3 {
		t.Fatal("previous collection should survive a failed refresh")
	}
	if !session.IsAuthenticated() {
		t.Fatal("business failure must not sign out")
	}
}

func TestRefreshTransportFallbackMessage(t *testing.T) {
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) {
		return nil, &gateway.TransportError{Op: "list_complaints", Err: errors.New("connection refused")}
	}}
	l := NewComplaintList(api, signedIn(repository.NewMemorySessionStore(), admin), nil)
	_ = l.Refresh(context.Background())
	if got := l.Snapshot().Error; got != MsgComplaintsRetry {
		t.Fatalf("error message = %q", got)
	}
}

func TestRefreshAuthRejectedClearsSession(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySessionStore()
	session := signedIn(store, admin)
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) { return nil, errUnauthorized }}
	l := NewComplaintList(api, session, nil)

	err := l.Refresh(ctx)
	if !gateway.IsAuthRejected(err) {
		t.Fatalf("expected auth rejection, got %v", err)
	}
	if session.IsAuthenticated() {
		t.Fatal("session should be torn down")
	}
	for _, k := range []string{repository.KeyAuthToken, repository.KeyUser} {
		if _, err := store.Get(ctx, "sid-1", k); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("%s still stored", k)
		}
	}
	if l.Snapshot().Error != "Unauthenticated." {
		t.Fatalf("error message = %q", l.Snapshot().Error)
	}
}

func TestRefreshInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) {
		close(started)
		<-release
		return sampleComplaints(), nil
	}}
	l := NewComplaintList(api, signedIn(repository.NewMemorySessionStore(), admin), nil)

	done := make(chan error, 1)
	go func() { done <- l.Refresh(context.Background()) }()
	<-started

	if !l.Snapshot().Loading {
		t.Fatal("expected loading state")
	}
	if err := l.Refresh(context.Background()); !errors.Is(err, ErrRefreshInFlight) {
		t.Fatalf("expected ErrRefreshInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
}

func TestApplyStatusPatchTouchesOnlyStatus(t *testing.T) {
	api := &fakeBackend{complaints: func() ([]model.Complaint, error) { return sampleComplaints(), nil }}
	l := NewComplaintList(api, signedIn(repository.NewMemorySessionStore(), admin), nil)
	_ = l.Refresh(context.Background())

	if !l.ApplyStatusPatch(7, model.StatusCompleted) {
		t.Fatal("complaint 7 not found")
	}
	if l.ApplyStatusPatch(99, model.StatusCompleted) {
		t.Fatal("unknown id must report false")
	}

	want := sampleComplaints()
	want[1].Status = model.StatusCompleted
	if got := l.Snapshot().Complaints; !reflect.DeepEqual(got, want) {
		t.Fatalf("collection after patch:\n got %+v\nwant %+v", got, want)
	}
}
