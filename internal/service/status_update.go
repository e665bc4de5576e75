package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/metrics"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/notify"
	"github.com/iliyamo/complaints-admin-portal/internal/queue"
)

// EventPublisher receives status-change events after the backend accepted
// the change. *queue.Publisher implements it.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, ev queue.StatusChangedEvent) error
}

// StatusResult describes an accepted status change.
type StatusResult struct {
	ComplaintID uint64                `json:"complaint_id"`
	Status      model.ComplaintStatus `json:"status"`
	Label       string                `json:"label"`
	PushQueued  bool                  `json:"push_queued"`
}

// StatusUpdater runs complaint status changes in two phases. Phase one is
// the backend call and the local patch; its error is the caller's answer.
// Phase two, the push notification and the audit event, runs afterwards on
// its own goroutine and only ever logs.
type StatusUpdater struct {
	API     ComplaintAPI
	List    *ComplaintList
	Session SessionTerminator
	Sender  notify.Sender
	Events  EventPublisher
	Metrics *metrics.Recorder
	Log     *zap.Logger
	ActorID uint64 // user id recorded as changed_by

	// Background, when set, also tracks every phase two so an owner can
	// wait for work of updaters it no longer holds.
	Background *sync.WaitGroup

	mu       sync.Mutex
	inFlight map[uint64]struct{}
	wg       sync.WaitGroup
}

// SetStatus changes complaint id to status. pushToken addresses the
// citizen's device; when empty the token of the complaint's submitting user
// is used if the held list knows one. A second call for an id whose update
// is still running returns ErrUpdateInFlight.
func (u *StatusUpdater) SetStatus(ctx context.Context, id uint64, status model.ComplaintStatus, pushToken string) (StatusResult, error) {
	if !u.begin(id) {
		u.Metrics.StatusUpdate("in_flight")
		return StatusResult{}, ErrUpdateInFlight
	}

	previous, known := u.List.Find(id)
	err := u.API.UpdateComplaintStatus(ctx, id, status)
	if err != nil {
		u.end(id)
		u.Metrics.StatusUpdate("failed")
		if gateway.IsAuthRejected(err) {
			if lerr := u.Session.Logout(context.WithoutCancel(ctx)); lerr != nil {
				u.log().Error("status: logout after 401 failed", zap.Error(lerr))
			}
		} else {
			u.log().Error("status: update failed", zap.Uint64("complaint_id", id), zap.Error(err))
		}
		return StatusResult{}, err
	}

	u.List.ApplyStatusPatch(id, status)
	u.end(id)
	u.Metrics.StatusUpdate("ok")

	token := pushToken
	if token == "" && known {
		token = previous.User.FCMToken
	}

	ev := queue.StatusChangedEvent{
		ComplaintID: id,
		Identifier:  previous.Identifier,
		Status:      string(status),
		ChangedBy:   u.ActorID,
	}
	if known {
		ev.Previous = string(previous.Status)
	}

	bg := context.WithoutCancel(ctx)
	u.wg.Add(1)
	if u.Background != nil {
		u.Background.Add(1)
	}
	go func() {
		defer func() {
			if u.Background != nil {
				u.Background.Done()
			}
			u.wg.Done()
		}()
		ev.Notified = u.push(bg, token, id, status)
		u.publish(bg, ev)
	}()

	return StatusResult{ComplaintID: id, Status: status, Label: status.Label(), PushQueued: token != ""}, nil
}

// InFlight reports whether an update for id is outstanding.
func (u *StatusUpdater) InFlight(id uint64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.inFlight[id]
	return ok
}

// Wait blocks until every started phase two has finished.
func (u *StatusUpdater) Wait() { u.wg.Wait() }

func (u *StatusUpdater) begin(id uint64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inFlight == nil {
		u.inFlight = make(map[uint64]struct{})
	}
	if _, busy := u.inFlight[id]; busy {
		return false
	}
	u.inFlight[id] = struct{}{}
	return true
}

func (u *StatusUpdater) end(id uint64) {
	u.mu.Lock()
	delete(u.inFlight, id)
	u.mu.Unlock()
}

// push sends the notification and reports whether it was delivered. A
// panicking sender counts as a failed send.
func (u *StatusUpdater) push(ctx context.Context, token string, id uint64, status model.ComplaintStatus) (sent bool) {
	if token == "" || u.Sender == nil {
		u.Metrics.Push("skipped")
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			u.Metrics.Push("failed")
			u.log().Warn("status: push notification panicked",
				zap.Uint64("complaint_id", id), zap.String("panic", fmt.Sprint(r)))
			sent = false
		}
	}()
	if err := u.Sender.Send(ctx, notify.StatusNotification(token, id, status)); err != nil {
		u.Metrics.Push("failed")
		u.log().Warn("status: push notification failed", zap.Uint64("complaint_id", id), zap.Error(err))
		return false
	}
	u.Metrics.Push("sent")
	return true
}

func (u *StatusUpdater) publish(ctx context.Context, ev queue.StatusChangedEvent) {
	if u.Events == nil {
		return
	}
	if err := u.Events.PublishStatusChanged(ctx, ev); err != nil {
		u.log().Debug("status: event not published", zap.Uint64("complaint_id", ev.ComplaintID), zap.Error(err))
	}
}

func (u *StatusUpdater) log() *zap.Logger {
	if u.Log == nil {
		return zap.NewNop()
	}
	return u.Log
}
