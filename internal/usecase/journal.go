package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

type matchRepo interface {
	Save(ctx context.Context, runID string, snapshot entity.Snapshot) error
	DeleteByRunID(ctx context.Context, runID string) error
}

type scoreRepo interface {
	Save(ctx context.Context, runID string, score entity.Score) error
	DeleteByRunID(ctx context.Context, runID string) error
}

// Journal mirrors the latest match snapshot to storage off the event loop.
// Only the newest pending snapshot is kept; older ones are superseded.
type Journal struct {
	logger *slog.Logger
	runID  string

	matchRepo matchRepo
	scoreRepo scoreRepo

	pending chan entity.Snapshot
	stopped chan struct{}
}

func NewJournal(logger *slog.Logger, runID string, matchRepo matchRepo, scoreRepo scoreRepo) *Journal {
	return &Journal{
		logger: logger.With("component", "journal", "runID", runID),
		runID:  runID,

		matchRepo: matchRepo,
		scoreRepo: scoreRepo,

		pending: make(chan entity.Snapshot, 1),
		stopped: make(chan struct{}),
	}
}

// Record implements tictactoe.Journal. It never blocks and expects a single
// producer, the match runner goroutine.
func (that *Journal) Record(snapshot entity.Snapshot) {
	select {
	case <-that.pending:
	default:
	}

	select {
	case that.pending <- snapshot:
	default:
		that.logger.Warn("snapshot dropped")
	}
}

// Run writes snapshots until ctx is canceled.
func (that *Journal) Run(ctx context.Context) {
	defer close(that.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-that.pending:
			if err := that.save(ctx, snapshot); err != nil {
				that.logger.Error("failed to save snapshot", "error", err)
			}
		}
	}
}

// Purge waits for Run to return, then deletes everything stored for the run.
func (that *Journal) Purge(ctx context.Context) error {
	select {
	case <-that.stopped:
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for journal writer: %w", ctx.Err())
	}

	if err := that.matchRepo.DeleteByRunID(ctx, that.runID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	if err := that.scoreRepo.DeleteByRunID(ctx, that.runID); err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}

	that.logger.Info("journal purged")

	return nil
}

func (that *Journal) save(ctx context.Context, snapshot entity.Snapshot) error {
	if err := that.matchRepo.Save(ctx, that.runID, snapshot); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	if snapshot.Score == nil {
		return nil
	}

	if err := that.scoreRepo.Save(ctx, that.runID, *snapshot.Score); err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	return nil
}
