// Package blobstore implements the content-addressed byte store described
// in spec.md §4.1: dedup via exists-check, hash-verified writes, and plain
// reads, with a short-lived positive existence cache.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fileset/fileset/pkg/config"
)

var (
	// ErrHashMismatch is returned when the declared sha does not match the
	// SHA-1 of the uploaded bytes. No durable write is performed.
	ErrHashMismatch = errors.New("blobstore: hash mismatch")
	// ErrNotFound is returned by Read when no blob exists under the digest.
	ErrNotFound = errors.New("blobstore: not found")
)

const existsCacheTTL = 5 * time.Minute

// Store is the content-addressed blob store. Dedup is implicit: callers
// probe Exists before uploading, but Write always re-verifies the hash so a
// lying client cannot poison the store.
type Store struct {
	driver Driver
	cache  *redis.Client
	bucket string
}

func NewStore(driver Driver, cache *redis.Client, cfg *config.Config) *Store {
	return &Store{driver: driver, cache: cache, bucket: cfg.MinioBucket}
}

// ExternalKey returns the stable external encoding of a blob's location,
// per §6: `/<bucket>/blobs/<sha>`. The Server does not use it; it serves
// blobs through StreamTo and Read.
func (s *Store) ExternalKey(sha string) string {
	return fmt.Sprintf("/%s/blobs/%s", s.bucket, sha)
}

func (s *Store) objectPath(sha string) string {
	return "blobs/" + sha
}

// Exists returns true iff a blob with that digest is durably stored. A
// short-lived positive cache is consulted first; negative results are never
// cached, per §5 (revocation/visibility must not have stale negatives).
func (s *Store) Exists(ctx context.Context, sha string) (bool, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, existsCacheKey(sha)).Result()
		if err == nil && cached == "1" {
			return true, nil
		}
	}

	_, _, err := s.driver.Stat(ctx, s.objectPath(sha))
	if err != nil {
		return false, nil
	}

	s.cachePositive(ctx, sha)
	return true, nil
}

// Write computes the SHA-1 of data; if it does not match sha, it fails with
// ErrHashMismatch and performs no durable write. On success it stores the
// bytes under ExternalKey(sha) along with contentType, the only metadata a
// Blob carries beyond its body, and populates the positive existence cache.
func (s *Store) Write(ctx context.Context, sha string, data []byte, contentType string) error {
	sum := sha1.Sum(data)
	computed := hex.EncodeToString(sum[:])
	if computed != sha {
		return ErrHashMismatch
	}

	w, err := s.driver.Writer(ctx, s.objectPath(sha), contentType)
	if err != nil {
		return fmt.Errorf("blobstore: open writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("blobstore: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("blobstore: close: %w", err)
	}

	s.cachePositive(ctx, sha)
	return nil
}

// ContentType returns the content type stored alongside the blob at write
// time, or "" if the blob carries none.
func (s *Store) ContentType(ctx context.Context, sha string) (string, error) {
	_, contentType, err := s.driver.Stat(ctx, s.objectPath(sha))
	if err != nil {
		return "", ErrNotFound
	}
	return contentType, nil
}

// StreamTo hands the blob directly to the downstream byte-streaming
// facility (the object store reader), writing straight into w without
// buffering the whole body in memory. The Server falls back to Read plus a
// manual write when this returns an error, per §7's "best-effort second
// attempt" policy.
func (s *Store) StreamTo(ctx context.Context, sha string, w io.Writer) error {
	r, err := s.driver.Reader(ctx, s.objectPath(sha))
	if err != nil {
		return ErrNotFound
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("blobstore: stream: %w", err)
	}
	return nil
}

// Read returns the stored content, or ErrNotFound.
func (s *Store) Read(ctx context.Context, sha string) ([]byte, error) {
	r, err := s.driver.Reader(ctx, s.objectPath(sha))
	if err != nil {
		return nil, ErrNotFound
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("blobstore: read: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) cachePositive(ctx context.Context, sha string) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, existsCacheKey(sha), "1", existsCacheTTL)
}

func existsCacheKey(sha string) string {
	return "blob:exists:" + sha
}
