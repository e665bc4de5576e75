package repository

import "context"

// Keys stored per session.  They match the names the browser front end used
// in local storage so exported data stays recognisable.
const (
	KeyAuthToken   = "auth_token"
	KeyUser        = "user"
	KeyDeviceToken = "admin_device_token"
)

// SessionStore is the persisted, per-session key-value store.  It has no
// logic of its own: values are opaque strings.
type SessionStore interface {
	// Get returns the value of key for sid, or ErrNotFound.
	Get(ctx context.Context, sid, key string) (string, error)
	// Set stores value under key for sid, replacing any previous value.
	Set(ctx context.Context, sid, key, value string) error
	// Delete removes the given keys for sid in one operation.  Missing keys
	// are not an error.
	Delete(ctx context.Context, sid string, keys ...string) error
}
