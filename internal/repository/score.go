package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

const (
	scoreFieldX = "x"
	scoreFieldO = "o"
)

type ScoreRepository interface {
	Save(ctx context.Context, runID string, score entity.Score) error
	DeleteByRunID(ctx context.Context, runID string) error
}

type dbScore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreRepository keeps the win counters of a run in the hash "score:<runID>".
func NewScoreRepository(client *redis.Client, ttl time.Duration) ScoreRepository {
	return &dbScore{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbScore) Save(ctx context.Context, runID string, score entity.Score) error {
	key := scoreKey(runID)

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, scoreFieldX, score.X, scoreFieldO, score.O)
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}

	return nil
}

func (that *dbScore) DeleteByRunID(ctx context.Context, runID string) error {
	if err := that.client.Del(ctx, scoreKey(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete score by run id: %w", err)
	}

	return nil
}

func scoreKey(runID string) string {
	return "score:" + runID
}
