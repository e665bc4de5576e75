// Package notify delivers push notifications to citizens' devices after a
// complaint status change. Delivery is best effort: callers log failures
// and move on.
package notify

import (
	"context"
	"errors"
	"strconv"

	"github.com/iliyamo/complaints-admin-portal/internal/model"
)

// ErrNotConfigured is returned by senders that have no credentials.
var ErrNotConfigured = errors.New("push notifications are not configured")

// Notification is one message addressed to a device token.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// StatusTitle is the title of every status-change notification.
const StatusTitle = "Complaint status updated"

// StatusNotification builds the message telling a citizen that their
// complaint moved to status.
func StatusNotification(token string, complaintID uint64, status model.ComplaintStatus) Notification {
	id := strconv.FormatUint(complaintID, 10)
	return Notification{
		Token: token,
		Title: StatusTitle,
		Body:  "Your complaint #" + id + " is now " + status.Label(),
		Data: map[string]string{
			"complaint_id": id,
			"status":       string(status),
		},
	}
}

// Noop is the sender used when no provider is configured.
type Noop struct{}

func (Noop) Send(context.Context, Notification) error { return ErrNotConfigured }
