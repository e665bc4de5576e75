// Package queue defines message payloads exchanged over the message broker.
package queue

// DefaultStatusQueue is the durable queue status-change events go to.
const DefaultStatusQueue = "complaint.status_changed"

// StatusChangedEvent is published after the backend accepted a complaint
// status change. It carries enough for an audit trail without calling the
// backend again.
type StatusChangedEvent struct {
	ComplaintID uint64 `json:"complaint_id"`
	Identifier  string `json:"identifier,omitempty"`
	Status      string `json:"status"`
	Previous    string `json:"previous_status,omitempty"`
	ChangedBy   uint64 `json:"changed_by"`
	Notified    bool   `json:"notified"`
	ChangedAt   string `json:"changed_at"`
}
