package blobstore

import (
	"context"
	"io"
	"time"
)

// Driver abstracts the underlying object store the spec treats as an
// opaque byte-addressable collaborator (write, read, stat).
type Driver interface {
	// Writer returns a writer to upload a blob at path with the given
	// content type, the only metadata a Blob carries beyond its bytes.
	Writer(ctx context.Context, path string, contentType string) (io.WriteCloser, error)
	// Reader returns a reader to download the blob at path.
	Reader(ctx context.Context, path string) (io.ReadCloser, error)
	// Stat returns the object's size and stored content type, or an error
	// if it does not exist.
	Stat(ctx context.Context, path string) (size int64, contentType string, err error)
	// PresignedURL returns a time-limited URL for the object, when supported.
	PresignedURL(ctx context.Context, path string, method string, expiry time.Duration) (string, error)
}
