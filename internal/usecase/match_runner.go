package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
	"github.com/rocketscienceinc/tictactoe-match/internal/tictactoe"
)

const queueSize = 64

// MatchRunner serializes every intent on the match onto one goroutine, delayed
// resets included. It is safe for concurrent use.
type MatchRunner struct {
	logger      *slog.Logger
	coordinator *tictactoe.Coordinator

	queue chan func()
	done  chan struct{}
}

func NewMatchRunner(logger *slog.Logger, notifier tictactoe.Notifier, opts tictactoe.Options) *MatchRunner {
	runner := &MatchRunner{
		logger: logger.With("component", "match_runner"),
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}

	runner.coordinator = tictactoe.NewCoordinator(logger, notifier, runner, opts)

	return runner
}

// Run processes intents until ctx is canceled.
func (that *MatchRunner) Run(ctx context.Context) {
	defer close(that.done)

	that.logger.Info("match runner started")

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("match runner stopped")
			return
		case fn := <-that.queue:
			fn()
		}
	}
}

// AfterFunc implements tictactoe.Scheduler: fn fires on the runner goroutine.
func (that *MatchRunner) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case that.queue <- fn:
		case <-that.done:
		}
	})
}

func (that *MatchRunner) Admit(ctx context.Context, sessionID string) (string, error) {
	var mark string

	err := that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		var err error
		mark, err = coordinator.Admit(sessionID)
		return err
	})

	return mark, err
}

func (that *MatchRunner) ApplyMove(ctx context.Context, sessionID, claimed string, cell int) error {
	return that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		return coordinator.ApplyMove(sessionID, claimed, cell)
	})
}

func (that *MatchRunner) RequestReset(ctx context.Context, sessionID string) error {
	return that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		return coordinator.RequestReset(sessionID)
	})
}

func (that *MatchRunner) Release(ctx context.Context, sessionID string) error {
	return that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		return coordinator.Release(sessionID)
	})
}

func (that *MatchRunner) IsFull(ctx context.Context) (bool, error) {
	var full bool

	err := that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		full = coordinator.IsFull()
		return nil
	})

	return full, err
}

func (that *MatchRunner) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	var snapshot entity.Snapshot

	err := that.dispatch(ctx, func(coordinator *tictactoe.Coordinator) error {
		snapshot = coordinator.Snapshot()
		return nil
	})

	return snapshot, err
}

// dispatch runs fn on the runner goroutine and waits for its result.
func (that *MatchRunner) dispatch(ctx context.Context, fn func(*tictactoe.Coordinator) error) error {
	result := make(chan error, 1)

	select {
	case that.queue <- func() { result <- fn(that.coordinator) }:
	case <-that.done:
		return apperror.ErrRunnerStopped
	case <-ctx.Done():
		return fmt.Errorf("failed to queue intent: %w", ctx.Err())
	}

	select {
	case err := <-result:
		return err
	case <-that.done:
		return apperror.ErrRunnerStopped
	case <-ctx.Done():
		return fmt.Errorf("failed to await intent: %w", ctx.Err())
	}
}
