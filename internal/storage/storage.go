// Package storage stores user avatars in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is an open stored object.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStorage defines the object operations the API needs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AvatarKey is the object key of a user's avatar. One object per user; a new
// upload overwrites the previous one.
func AvatarKey(userID string) string {
	return "avatars/" + userID
}
