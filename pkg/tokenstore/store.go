// Package tokenstore issues, validates, and revokes the opaque bearer
// tokens described in spec.md §4.2. Tokens are stored hashed; validity is
// membership in the token table, with a positive-only cache in front of it.
package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const validCacheTTL = 1 * time.Minute

// Store persists AuthToken records and caches positive validity checks.
type Store struct {
	db    *sql.DB
	cache *redis.Client
}

func NewStore(db *sql.DB, cache *redis.Client) *Store {
	return &Store{db: db, cache: cache}
}

// Token is the record returned to an admin when minting a token; the raw
// hex value is only ever surfaced at creation time.
type Token struct {
	Description string
	CreatedBy   string
	Created     time.Time
	LastUsed    *time.Time
}

// Create generates a cryptographically random 256-bit token, stores its
// hash, and returns the hex form. Only callable from an admin-authenticated
// context (enforced by the caller, e.g. the /_fs/token handler).
func (s *Store) Create(ctx context.Context, description, createdBy string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("tokenstore: generate: %w", err)
	}
	token := hex.EncodeToString(raw)
	hash := hashToken(token)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (token_hash, description, created_by, created)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)`,
		hash, description, createdBy)
	if err != nil {
		return "", fmt.Errorf("tokenstore: insert: %w", err)
	}

	return token, nil
}

// IsValid is a membership test. A positive-only cache is consulted first;
// negative results are never cached so revocation is immediate.
func (s *Store) IsValid(ctx context.Context, token string) (bool, error) {
	hash := hashToken(token)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, validCacheKey(hash)).Result()
		if err == nil && cached == "1" {
			go s.touchLastUsed(hash)
			return true, nil
		}
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM auth_tokens WHERE token_hash = $1)", hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tokenstore: lookup: %w", err)
	}
	if !exists {
		return false, nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, validCacheKey(hash), "1", validCacheTTL)
	}
	go s.touchLastUsed(hash)
	return true, nil
}

// Revoke deletes the record and invalidates the cache entry, so a revoked
// token stops working on its very next check rather than waiting out the
// cache TTL.
func (s *Store) Revoke(ctx context.Context, token string) error {
	hash := hashToken(token)

	if _, err := s.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE token_hash = $1", hash); err != nil {
		return fmt.Errorf("tokenstore: delete: %w", err)
	}
	if s.cache != nil {
		s.cache.Del(context.Background(), validCacheKey(hash))
	}
	return nil
}

// touchLastUsed is best-effort and asynchronous: §9's open question notes
// that updating last_used on every check risks write contention on a hot
// token, so we fire it off without blocking the validity check.
func (s *Store) touchLastUsed(hash string) {
	_, _ = s.db.ExecContext(context.Background(),
		"UPDATE auth_tokens SET last_used = CURRENT_TIMESTAMP WHERE token_hash = $1", hash)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func validCacheKey(hash string) string {
	return "token:valid:" + hash
}
