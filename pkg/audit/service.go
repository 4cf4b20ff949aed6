package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

type LogEntry struct {
	ID        uuid.UUID       `json:"id"`
	Principal string          `json:"principal"`
	Action    string          `json:"action"`
	Branch    string          `json:"branch"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

// Log records an ingest or cron action: principal is a short label for
// the caller ("token" or "cron"), branch may be empty for non-branch
// actions (e.g. manifest.upload).
func (s *Service) Log(ctx context.Context, principal, action, branch string, details map[string]interface{}) error {
	detailsJSON, _ := json.Marshal(details)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO audit_logs (principal, action, branch, details, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)`,
		principal, action, branch, detailsJSON)
	return err
}

// GetRecentLogs retrieves the most recent audit entries, newest first.
func (s *Service) GetRecentLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, principal, action, branch, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Principal, &l.Action, &l.Branch, &l.Details, &l.CreatedAt); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}
