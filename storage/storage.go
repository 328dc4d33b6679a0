// Package storage persists encrypted recovery shares. The service never sees
// share plaintext; blobs are sealed client-side before upload.
package storage

import "context"

// ShareStore stores encrypted share blobs keyed by user id.
type ShareStore interface {
	PutShare(ctx context.Context, userID string, share []byte) error
	GetShare(ctx context.Context, userID string) ([]byte, error)
	DeleteShare(ctx context.Context, userID string) error
}

// Provider is the process-wide share store, set during startup.
var Provider ShareStore
