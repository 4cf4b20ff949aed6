// Package cronjob promotes due timed deploys, either on a ticker in the
// background worker or synchronously when the ingest API's cron.timed_deploy
// endpoint is called.
package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/fileset/fileset/pkg/audit"
	"github.com/fileset/fileset/pkg/deployqueue"
	"github.com/fileset/fileset/pkg/manifeststore"
)

type Service struct {
	Manifests   *manifeststore.Store
	DeployQueue *deployqueue.Service
	Audit       *audit.Service
}

func NewService(manifests *manifeststore.Store, dq *deployqueue.Service, aud *audit.Service) *Service {
	return &Service{Manifests: manifests, DeployQueue: dq, Audit: aud}
}

// PromoteDue runs one promotion pass and returns the branches that were
// promoted, per spec.md's "deploy_timestamp < now+1 AND deployed IS NULL"
// at-most-once semantics.
func (s *Service) PromoteDue(ctx context.Context) ([]manifeststore.PromotedDeploy, error) {
	now := time.Now()
	promoted, err := s.Manifests.PromoteDueDeploys(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, p := range promoted {
		log.Printf("[cronjob] promoted branch %q to manifest %d", p.Branch, p.ManifestID)

		if s.DeployQueue != nil {
			event := deployqueue.Event{
				Action:     "timed_deploy_promoted",
				Branch:     p.Branch,
				ManifestID: p.ManifestID,
				User:       "cron",
				Timestamp:  now.Unix(),
			}
			if err := s.DeployQueue.Enqueue(ctx, event); err != nil {
				log.Printf("[cronjob] failed to enqueue deploy event for %q: %v", p.Branch, err)
			}
		}

		if s.Audit != nil {
			if err := s.Audit.Log(ctx, "cron", "timed_deploy_promoted", p.Branch, map[string]interface{}{
				"manifest_id": p.ManifestID,
			}); err != nil {
				log.Printf("[cronjob] audit log failed for %q: %v", p.Branch, err)
			}
		}
	}

	return promoted, nil
}

// Run ticks every interval, promoting due deploys in the background and
// logging, rather than returning, a failed pass.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	log.Println("[cronjob] starting timed-deploy promotion worker")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PromoteDue(ctx); err != nil {
				log.Printf("[cronjob] promotion pass failed: %v", err)
			}
		}
	}
}
