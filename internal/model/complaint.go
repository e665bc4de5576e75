package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ComplaintStatus is the lifecycle state of a complaint.  The backend uses
// the four constants below; older data may carry free text, which is kept
// verbatim.
type ComplaintStatus string

const (
	StatusNew        ComplaintStatus = "new"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusRejected   ComplaintStatus = "rejected"
	StatusCompleted  ComplaintStatus = "completed"
)

var statusLabels = map[ComplaintStatus]string{
	StatusNew:        "New",
	StatusInProgress: "In Progress",
	StatusRejected:   "Rejected",
	StatusCompleted:  "Completed",
}

// Label returns the human-readable form used in notifications.  Unknown
// values are returned unchanged.
func (s ComplaintStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Known reports whether s is one of the statuses an employee may set.
func (s ComplaintStatus) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// EditableStatuses lists, in display order, the statuses an employee can pick.
func EditableStatuses() []ComplaintStatus {
	return []ComplaintStatus{StatusNew, StatusInProgress, StatusRejected, StatusCompleted}
}

// ComplaintUser is the citizen who submitted a complaint.  FCMToken is
// present when the citizen's device registered for push.
type ComplaintUser struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	FCMToken string `json:"fcm_token,omitempty"`
}

// ComplaintType classifies a complaint.
type ComplaintType struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Document is an attachment reference.  The portal only lists them.
type Document struct {
	ID   uint64 `json:"id"`
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

// Complaint is the cached copy of a backend complaint.  Status is the only
// field the portal changes, and only after the backend accepted the change.
// Timestamps stay as the backend's strings; the views format them.
type Complaint struct {
	ID            uint64          `json:"id"`
	Identifier    string          `json:"identifier"`
	Description   string          `json:"description"`
	Status        ComplaintStatus `json:"status"`
	Latitude      Coordinate      `json:"latitude"`
	Longitude     Coordinate      `json:"longitude"`
	Address       string          `json:"address"`
	LockedAt      *string         `json:"locked_at"`
	CreatedAt     string          `json:"created_at"`
	User          ComplaintUser   `json:"user"`
	ComplaintType ComplaintType   `json:"complaint_type"`
	Destination   Destination     `json:"destination"`
	Documents     []Document      `json:"documents"`
}

// Coordinate is a latitude or longitude in degrees.  Decimal columns often
// arrive as strings ("33.51"), so it decodes from a JSON number, a numeric
// string, an empty string or null.  It always encodes as a number.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", b, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("coordinate %s: not a finite number", b)
	}
	*c = Coordinate(f)
	return nil
}
