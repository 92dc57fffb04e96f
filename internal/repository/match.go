package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

type MatchRepository interface {
	Save(ctx context.Context, runID string, snapshot entity.Snapshot) error
	DeleteByRunID(ctx context.Context, runID string) error
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMatchRepository stores snapshots under "match:<runID>". Keys expire after
// ttl so state of a stopped process never outlives it for long.
func NewMatchRepository(client *redis.Client, ttl time.Duration) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbMatch) Save(ctx context.Context, runID string, snapshot entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	if err = that.client.Set(ctx, matchKey(runID), snapshotJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

// DeleteByRunID removes the snapshot of the run. A missing key is not an error.
func (that *dbMatch) DeleteByRunID(ctx context.Context, runID string) error {
	if err := that.client.Del(ctx, matchKey(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete match by run id: %w", err)
	}

	return nil
}

func matchKey(runID string) string {
	return "match:" + runID
}
