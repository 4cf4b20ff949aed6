// Package manifeststore persists immutable, numbered manifests and the
// mutable branch pointers and timed deploys built on top of them, per
// spec.md §4.3.
package manifeststore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Manifest is the immutable record described in spec.md §3. Paths maps
// request path strings to blob SHA-1 hashes.
type Manifest struct {
	ID      int64
	Commit  json.RawMessage
	Paths   map[string]string
	Created time.Time
}

// PromotedDeploy is one entry of PromoteDueDeploys' return value.
type PromotedDeploy struct {
	Branch     string
	ManifestID int64
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save allocates a new manifest id and stores an immutable Manifest.
func (s *Store) Save(ctx context.Context, commit json.RawMessage, paths map[string]string) (int64, error) {
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return 0, fmt.Errorf("manifeststore: marshal paths: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO manifests (commit, paths, created)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id`, commit, pathsJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("manifeststore: insert: %w", err)
	}
	return id, nil
}

// Get loads a manifest by id, or returns (nil, nil) if it does not exist.
func (s *Store) Get(ctx context.Context, manifestID int64) (*Manifest, error) {
	var m Manifest
	var pathsJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, commit, paths, created FROM manifests WHERE id = $1`, manifestID).
		Scan(&m.ID, &m.Commit, &pathsJSON, &m.Created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifeststore: get: %w", err)
	}
	if err := json.Unmarshal(pathsJSON, &m.Paths); err != nil {
		return nil, fmt.Errorf("manifeststore: unmarshal paths: %w", err)
	}
	return &m, nil
}

// GetBranchManifest resolves the branch pointer and loads its Manifest, or
// returns (nil, nil) if the branch has no pointer.
func (s *Store) GetBranchManifest(ctx context.Context, branch string) (*Manifest, error) {
	var manifestID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT manifest_id FROM branch_pointers WHERE branch = $1", branch).Scan(&manifestID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifeststore: branch lookup: %w", err)
	}
	return s.Get(ctx, manifestID)
}

// SetBranchManifest is the single write path for deploys. If
// deployTimestamp is non-nil and in the future, it upserts a pending
// TimedDeploy (overwriting any existing one for the same branch) and leaves
// the branch pointer untouched. Otherwise it overwrites the branch pointer
// immediately.
func (s *Store) SetBranchManifest(ctx context.Context, branch string, manifestID int64, deployTimestamp *int64, now time.Time) error {
	if deployTimestamp != nil && *deployTimestamp > now.Unix() {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO timed_deploys (branch, manifest_id, deploy_timestamp, deployed)
			VALUES ($1, $2, $3, NULL)
			ON CONFLICT (branch) DO UPDATE SET
				manifest_id = EXCLUDED.manifest_id,
				deploy_timestamp = EXCLUDED.deploy_timestamp,
				deployed = NULL`,
			branch, manifestID, *deployTimestamp)
		if err != nil {
			return fmt.Errorf("manifeststore: upsert timed deploy: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branch_pointers (branch, manifest_id)
		VALUES ($1, $2)
		ON CONFLICT (branch) DO UPDATE SET manifest_id = EXCLUDED.manifest_id`,
		branch, manifestID)
	if err != nil {
		return fmt.Errorf("manifeststore: set branch pointer: %w", err)
	}
	return nil
}

// PromoteDueDeploys promotes every TimedDeploy whose deploy_timestamp has
// passed and that has not yet been promoted, ordered by deploy_timestamp
// ascending. Each record is marked deployed before the pointer write for
// the next one is attempted, so concurrent cron invocations promote a given
// record at most once: whichever instance's UPDATE ... WHERE deployed IS
// NULL affects a row wins; the other affects zero rows and is a no-op.
func (s *Store) PromoteDueDeploys(ctx context.Context, now time.Time) ([]PromotedDeploy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch, manifest_id FROM timed_deploys
		WHERE deploy_timestamp < $1 AND deployed IS NULL
		ORDER BY deploy_timestamp ASC`, now.Unix()+1)
	if err != nil {
		return nil, fmt.Errorf("manifeststore: query due deploys: %w", err)
	}

	type candidate struct {
		branch     string
		manifestID int64
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.branch, &c.manifestID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("manifeststore: scan due deploy: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()

	var promoted []PromotedDeploy
	for _, c := range candidates {
		res, err := s.db.ExecContext(ctx, `
			UPDATE timed_deploys SET deployed = $1
			WHERE branch = $2 AND manifest_id = $3 AND deployed IS NULL`,
			now, c.branch, c.manifestID)
		if err != nil {
			return nil, fmt.Errorf("manifeststore: mark deployed: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Another cron instance already claimed this record.
			continue
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO branch_pointers (branch, manifest_id)
			VALUES ($1, $2)
			ON CONFLICT (branch) DO UPDATE SET manifest_id = EXCLUDED.manifest_id`,
			c.branch, c.manifestID); err != nil {
			return nil, fmt.Errorf("manifeststore: promote pointer: %w", err)
		}

		promoted = append(promoted, PromotedDeploy{Branch: c.branch, ManifestID: c.manifestID})
	}

	return promoted, nil
}
