package tictactoe

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

const (
	DefaultResetDelay = time.Second

	resetReasonRequested   = "requested"
	resetReasonSessionLost = "session_lost"
	resetReasonRoundOver   = "round_over"
)

// Scheduler runs fn after d. The callback must re-enter the goroutine that owns
// the coordinator.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type Options struct {
	ResetDelay       time.Duration
	FirstMover       FirstMover
	TrackScore       bool
	NotifyRejections bool

	Recorder Recorder
	Journal  Journal
}

// Coordinator is the authoritative state machine of one match. It is not safe
// for concurrent use: every call must come from the same goroutine.
type Coordinator struct {
	logger    *slog.Logger
	notifier  Notifier
	scheduler Scheduler

	resetDelay       time.Duration
	firstMover       FirstMover
	trackScore       bool
	notifyRejections bool
	recorder         Recorder
	journal          Journal

	registry *Registry
	match    *entity.Match
	score    entity.Score
}

func NewCoordinator(logger *slog.Logger, notifier Notifier, scheduler Scheduler, opts Options) *Coordinator {
	if opts.FirstMover == nil {
		opts.FirstMover = FixedFirstMover()
	}

	if opts.ResetDelay < 0 {
		opts.ResetDelay = DefaultResetDelay
	}

	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	if opts.Journal == nil {
		opts.Journal = nopJournal{}
	}

	return &Coordinator{
		logger:    logger.With("component", "coordinator"),
		notifier:  notifier,
		scheduler: scheduler,

		resetDelay:       opts.ResetDelay,
		firstMover:       opts.FirstMover,
		trackScore:       opts.TrackScore,
		notifyRejections: opts.NotifyRejections,
		recorder:         opts.Recorder,
		journal:          opts.Journal,

		registry: NewRegistry(),
		match:    entity.NewMatch(),
	}
}

// Admit gives the connection a symbol. A third connection is told the match is
// full and disconnected.
func (that *Coordinator) Admit(sessionID string) (string, error) {
	log := that.logger.With("method", "Admit", "sessionID", sessionID)

	mark, err := that.registry.Admit(sessionID)
	if errors.Is(err, apperror.ErrAlreadyAdmitted) {
		log.Debug("connection already admitted", "mark", mark)
		return mark, err
	}

	if errors.Is(err, apperror.ErrMatchFull) {
		log.Info("admission refused, match is full")

		that.notifier.Send(sessionID, Event{Action: ActionMatchFull, Payload: Payload{Error: err.Error()}})
		that.notifier.Disconnect(sessionID)

		return "", err
	}

	if err != nil {
		return "", fmt.Errorf("failed to admit session: %w", err)
	}

	that.notifier.Send(sessionID, Event{Action: ActionSetSymbol, Payload: Payload{Symbol: mark}})
	that.recorder.SessionsChanged(that.registry.Len())

	if that.registry.IsFull() && that.match.IsWaiting() {
		that.match.Status = entity.StatusOngoing
		that.match.Turn = that.firstMover()

		that.notifier.Broadcast(turnEvent(that.match.Turn))
		log.Info("match started", "turn", that.match.Turn)
	}

	log.Info("session admitted", "mark", mark)
	that.record()

	return mark, nil
}

// ApplyMove plays cell for the connection. claimed is the symbol the client says
// it plays; it must match the assigned one when present. Rejected moves change
// nothing and are not broadcast.
func (that *Coordinator) ApplyMove(sessionID, claimed string, cell int) error {
	log := that.logger.With("method", "ApplyMove", "sessionID", sessionID, "cell", cell)

	mark, ok := that.registry.MarkOf(sessionID)
	if !ok {
		that.recorder.MoveHandled(apperror.ErrSessionNotFound)
		return fmt.Errorf("invalid move: %w", apperror.ErrSessionNotFound)
	}

	err := that.validateMove(mark, claimed, cell)
	that.recorder.MoveHandled(err)

	if err != nil {
		log.Debug("move rejected", "mark", mark, "error", err)

		if that.notifyRejections {
			that.notifier.Send(sessionID, Event{Action: ActionMoveRejected, Payload: Payload{Error: err.Error()}})
		}

		return fmt.Errorf("invalid move: %w", err)
	}

	that.match.Board[cell] = mark
	that.notifier.Broadcast(Event{Action: ActionMoveMade, Payload: Payload{Player: mark, Index: &cell}})

	if outcome := Evaluate(that.match.Board); outcome.IsTerminal() {
		that.finish(outcome)
	} else {
		that.match.Turn = entity.ToggleMark(mark)
		that.notifier.Broadcast(turnEvent(that.match.Turn))
	}

	that.record()

	return nil
}

// RequestReset restarts the round right away on behalf of an admitted session.
func (that *Coordinator) RequestReset(sessionID string) error {
	if _, ok := that.registry.MarkOf(sessionID); !ok {
		return fmt.Errorf("reset refused: %w", apperror.ErrSessionNotFound)
	}

	that.Reset(true)

	return nil
}

// Release drops the connection. Losing a player resets the match immediately,
// leaving it waiting for a new opponent.
func (that *Coordinator) Release(sessionID string) error {
	session, ok := that.registry.Release(sessionID)
	if !ok {
		return apperror.ErrSessionNotFound
	}

	that.logger.Info("session released", "sessionID", sessionID, "mark", session.Mark)
	that.recorder.SessionsChanged(that.registry.Len())

	that.reset(resetReasonSessionLost)

	return nil
}

// Reset clears the board now, or after the reset delay when immediate is false.
func (that *Coordinator) Reset(immediate bool) {
	if immediate {
		that.reset(resetReasonRequested)
		return
	}

	that.scheduleReset()
}

func (that *Coordinator) IsFull() bool {
	return that.registry.IsFull()
}

func (that *Coordinator) Snapshot() entity.Snapshot {
	snapshot := entity.Snapshot{
		Match:    *that.match,
		Sessions: that.registry.Sessions(),
	}

	if that.trackScore {
		score := that.score
		snapshot.Score = &score
	}

	return snapshot
}

func (that *Coordinator) validateMove(mark, claimed string, cell int) error {
	if err := that.match.ConfirmOngoingState(); err != nil {
		return err
	}

	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if claimed != "" && claimed != mark {
		return fmt.Errorf("%w: playing %s as %s", apperror.ErrNotYourTurn, claimed, mark)
	}

	if that.match.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if that.match.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Coordinator) finish(outcome entity.Outcome) {
	that.match.Status = entity.StatusFinished
	that.match.Turn = entity.EmptyCell

	payload := Payload{
		Message: outcome.Message(),
		Winner:  outcome.Winner,
	}

	if that.trackScore {
		that.score.Inc(outcome.Winner)
		score := that.score
		payload.Score = &score
	}

	that.notifier.Broadcast(Event{Action: ActionGameOver, Payload: payload})
	that.recorder.RoundFinished(outcome)
	that.logger.Info("round finished", "outcome", outcome.Kind, "winner", outcome.Winner, "round", that.match.Round)

	that.scheduleReset()
}

// scheduleReset defers the reset. The fire is dropped when the match has been
// reset in the meantime so that a newer round is never cleared.
func (that *Coordinator) scheduleReset() {
	round := that.match.Round

	that.scheduler.AfterFunc(that.resetDelay, func() {
		if that.match.Round != round {
			that.logger.Debug("stale reset skipped", "scheduledRound", round, "round", that.match.Round)
			return
		}

		that.reset(resetReasonRoundOver)
	})
}

func (that *Coordinator) reset(reason string) {
	that.match.ClearBoard()
	that.match.Turn = that.firstMover()

	if that.registry.IsFull() {
		that.match.Status = entity.StatusOngoing
	} else {
		that.match.Status = entity.StatusWaiting
	}

	that.notifier.Broadcast(Event{Action: ActionGameReset})

	if that.match.IsOngoing() {
		that.notifier.Broadcast(turnEvent(that.match.Turn))
	}

	that.recorder.MatchReset(reason)
	that.logger.Info("match reset", "reason", reason, "status", that.match.Status, "round", that.match.Round)

	that.record()
}

func (that *Coordinator) record() {
	that.journal.Record(that.Snapshot())
}
