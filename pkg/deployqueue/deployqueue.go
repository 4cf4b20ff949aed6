// Package deployqueue decouples webhook/email delivery from the
// ingest request path with a Redis list, the same pattern the teacher uses
// for its vulnerability-scan queue.
package deployqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fileset/fileset/pkg/config"
)

const DeployQueueKey = "fileset:deploy_queue"

// Event describes a deploy-relevant action: a branch pointer moved
// immediately, or a timed deploy promoted.
type Event struct {
	Action     string `json:"action"`
	Branch     string `json:"branch"`
	ManifestID int64  `json:"manifest_id"`
	User       string `json:"user"`
	Timestamp  int64  `json:"timestamp"`
}

type Service struct {
	Client *redis.Client
}

func NewService(cfg *config.Config) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Service{Client: rdb}, nil
}

func (s *Service) Enqueue(ctx context.Context, event Event) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Client.RPush(ctx, DeployQueueKey, bytes).Err()
}

// Dequeue blocks until an event is available or the context is cancelled.
func (s *Service) Dequeue(ctx context.Context) (*Event, error) {
	result, err := s.Client.BLPop(ctx, 0*time.Second, DeployQueueKey).Result()
	if err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, err
	}
	return &event, nil
}
