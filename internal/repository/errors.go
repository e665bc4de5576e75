// Package repository holds the persisted session store: a key-value store
// scoped by portal session id.  Every backend (redis, mysql, memory)
// satisfies SessionStore and reports missing keys with ErrNotFound so the
// service layer never sees driver-specific sentinels such as redis.Nil or
// sql.ErrNoRows.
package repository

import "errors"

// ErrNotFound is returned by Get when the key is absent for the session.
var ErrNotFound = errors.New("not found")
