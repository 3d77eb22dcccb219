// Package blobstore holds ticket ciphertext that is too large to keep inline
// in the ticket record.
package blobstore

import (
	"context"
	"errors"
)

// KeyPrefix namespaces ticket payloads inside a bucket or directory.
const KeyPrefix = "tickets/"

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("blob not found")

// Store is the blob store adapter. Delete and BatchDelete treat missing keys
// as already deleted. Permission failures wrap common.ErrPermissionDenied.
type Store interface {
	Put(ctx context.Context, key, content string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	BatchDelete(ctx context.Context, keys []string) error
}

// Key returns the object key for a ticket id.
func Key(id string) string {
	return KeyPrefix + id
}

// Keys maps ticket ids to object keys.
func Keys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	return keys
}
