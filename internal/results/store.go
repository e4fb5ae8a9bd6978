package results

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"spam-trainer/internal/config"
	"spam-trainer/internal/domain"
)

// SlotKey names the single result slot.
const SlotKey = "spamDetectionResults"

// Store persists the most recent successful training result of one browsing
// session. There is at most one value; Put overwrites it.
type Store interface {
	Put(ctx context.Context, result domain.JobResult) error
	Get(ctx context.Context) (domain.JobResult, bool, error)
	Clear(ctx context.Context) error
	Backend() string
}

// Open builds the configured backend. sessionID scopes the redis key so that
// concurrent app instances do not see each other's results.
func Open(ctx context.Context, cfg config.ResultsConfig, sessionID string, logger zerolog.Logger) (Store, func() error, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect result store: %w", err)
		}
		return NewRedisStore(client, sessionID, cfg.TTL, logger), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown results backend %q", cfg.Backend)
	}
}
