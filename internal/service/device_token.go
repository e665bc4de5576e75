package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/complaints-admin-portal/internal/repository"
)

// DeviceTokens hands out the per-session device identifier submitted at
// login. The value is generated once and survives logout.
type DeviceTokens struct {
	Store repository.SessionStore
}

// Get returns the stored device token, creating a random UUID on first use.
func (d DeviceTokens) Get(ctx context.Context, sid string) (string, error) {
	v, err := d.Store.Get(ctx, sid, repository.KeyDeviceToken)
	if err == nil && v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	v = uuid.NewString()
	if err := d.Store.Set(ctx, sid, repository.KeyDeviceToken, v); err != nil {
		return "", err
	}
	return v, nil
}

// Clear forgets the device token so the next Get issues a new one.
func (d DeviceTokens) Clear(ctx context.Context, sid string) error {
	return d.Store.Delete(ctx, sid, repository.KeyDeviceToken)
}
