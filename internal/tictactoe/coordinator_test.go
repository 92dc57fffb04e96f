package tictactoe

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_Admit(t *testing.T) {
	t.Run("Second admission starts the match with X to move", func(t *testing.T) {
		coordinator, notifier, _ := newTestCoordinator(Options{})

		// When: two connections request a symbol
		first, err := coordinator.Admit("a")
		require.NoError(t, err)
		assert.True(t, coordinator.Snapshot().Match.IsWaiting())

		second, err := coordinator.Admit("b")
		require.NoError(t, err)

		// Then: each was told its symbol and the match is live
		assert.Equal(t, x, first)
		assert.Equal(t, o, second)
		assert.Equal(t, []sentEvent{
			{to: "a", event: Event{Action: ActionSetSymbol, Payload: Payload{Symbol: x}}},
			{to: "b", event: Event{Action: ActionSetSymbol, Payload: Payload{Symbol: o}}},
		}, notifier.sent)
		assert.Equal(t, []Event{turnEvent(x)}, notifier.broadcasts)
		assert.True(t, coordinator.Snapshot().Match.IsOngoing())
	})

	t.Run("Third connection is refused and disconnected", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		before := coordinator.Snapshot()

		// When: a third connection requests a symbol
		_, err := coordinator.Admit("c")

		// Then: it is told the match is full and dropped
		require.ErrorIs(t, err, apperror.ErrMatchFull)
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "c", notifier.sent[0].to)
		assert.Equal(t, ActionMatchFull, notifier.sent[0].event.Action)
		assert.Equal(t, []string{"c"}, notifier.disconnected)

		// And: the admitted sessions are unaffected
		assert.Empty(t, notifier.broadcasts)
		assert.Equal(t, before, coordinator.Snapshot())
	})

	t.Run("Repeated request keeps the first symbol", func(t *testing.T) {
		coordinator, notifier, _ := newTestCoordinator(Options{})

		_, err := coordinator.Admit("a")
		require.NoError(t, err)
		notifier.clear()

		mark, err := coordinator.Admit("a")

		assert.ErrorIs(t, err, apperror.ErrAlreadyAdmitted)
		assert.Equal(t, x, mark)
		assert.Empty(t, notifier.sent)
		assert.True(t, coordinator.Snapshot().Match.IsWaiting())
	})

	t.Run("Random policy picks the opening symbol", func(t *testing.T) {
		coordinator, notifier, _ := newTestCoordinator(Options{FirstMover: func() string { return o }})

		_, _ = coordinator.Admit("a")
		_, _ = coordinator.Admit("b")

		assert.Equal(t, []Event{turnEvent(o)}, notifier.broadcasts)
		assert.Equal(t, o, coordinator.Snapshot().Match.Turn)
	})
}

func TestCoordinator_ApplyMove(t *testing.T) {
	t.Run("Accepted move is broadcast and the turn flips once", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})

		// When: X plays the center
		err := coordinator.ApplyMove("x", x, 4)

		// Then: everyone sees the move and that O is next
		require.NoError(t, err)
		cell := 4
		assert.Equal(t, []Event{
			{Action: ActionMoveMade, Payload: Payload{Player: x, Index: &cell}},
			turnEvent(o),
		}, notifier.broadcasts)

		snapshot := coordinator.Snapshot()
		assert.Equal(t, x, snapshot.Match.Board[4])
		assert.Equal(t, o, snapshot.Match.Turn)
	})

	t.Run("Turn alternates after every accepted move", func(t *testing.T) {
		coordinator, _, _ := newLiveCoordinator(Options{})

		moves := []struct {
			sessionID string
			cell      int
		}{
			{"x", 0}, {"o", 1}, {"x", 2}, {"o", 4}, {"x", 3}, {"o", 5},
		}

		for _, move := range moves {
			mover := coordinator.Snapshot().Match.Turn

			require.NoError(t, coordinator.ApplyMove(move.sessionID, "", move.cell))

			assert.Equal(t, entity.ToggleMark(mover), coordinator.Snapshot().Match.Turn)
		}
	})

	t.Run("Rejections leave board and turn untouched", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		require.NoError(t, coordinator.ApplyMove("x", "", 0))
		notifier.clear()
		before := coordinator.Snapshot()

		cases := []struct {
			name      string
			sessionID string
			claimed   string
			cell      int
			err       error
		}{
			{"wrong turn", "x", "", 1, apperror.ErrNotYourTurn},
			{"occupied cell", "o", "", 0, apperror.ErrCellOccupied},
			{"cell above range", "o", "", 9, apperror.ErrInvalidCell},
			{"negative cell", "o", "", -1, apperror.ErrInvalidCell},
			{"spoofed symbol", "x", o, 1, apperror.ErrNotYourTurn},
			{"unknown connection", "ghost", o, 1, apperror.ErrSessionNotFound},
		}

		for _, tc := range cases {
			err := coordinator.ApplyMove(tc.sessionID, tc.claimed, tc.cell)

			assert.ErrorIs(t, err, tc.err, tc.name)
			assert.Equal(t, before, coordinator.Snapshot(), tc.name)
		}

		assert.Empty(t, notifier.broadcasts)
		assert.Empty(t, notifier.sent)
	})

	t.Run("Moves before the match starts are rejected", func(t *testing.T) {
		coordinator, notifier, _ := newTestCoordinator(Options{})
		_, _ = coordinator.Admit("x")
		notifier.clear()

		err := coordinator.ApplyMove("x", x, 0)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.Empty(t, notifier.broadcasts)
	})

	t.Run("Rejection reason is sent to the mover when enabled", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{NotifyRejections: true})

		err := coordinator.ApplyMove("o", "", 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "o", notifier.sent[0].to)
		assert.Equal(t, ActionMoveRejected, notifier.sent[0].event.Action)
		assert.Contains(t, notifier.sent[0].event.Payload.Error, "not your turn")
		assert.Empty(t, notifier.broadcasts)
	})
}

func TestCoordinator_Outcome(t *testing.T) {
	t.Run("X wins on the diagonal", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{TrackScore: true, ResetDelay: time.Second})

		// When: X0, O1, X4, O2, X8
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))

		// Then: the round is over with X as winner
		snapshot := coordinator.Snapshot()
		assert.True(t, snapshot.Match.IsFinished())
		assert.Equal(t, &entity.Score{X: 1}, snapshot.Score)

		last := notifier.broadcasts[len(notifier.broadcasts)-1]
		assert.Equal(t, ActionGameOver, last.Action)
		assert.Equal(t, "X won!", last.Payload.Message)
		assert.Equal(t, x, last.Payload.Winner)
		assert.Equal(t, &entity.Score{X: 1}, last.Payload.Score)

		// And: a reset is scheduled after the delay
		assert.Equal(t, []time.Duration{time.Second}, scheduler.delays)
	})

	t.Run("Full board without triple is a draw", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{TrackScore: true})

		// When: X:0,1,5,6,8 and O:2,3,4,7 are played alternately
		require.NoError(t, play(coordinator, 0, 2, 1, 3, 5, 4, 6, 7, 8))

		// Then: the round ends in a draw and nobody scores
		last := notifier.broadcasts[len(notifier.broadcasts)-1]
		assert.Equal(t, ActionGameOver, last.Action)
		assert.Equal(t, "Draw!", last.Payload.Message)
		assert.Empty(t, last.Payload.Winner)
		assert.Equal(t, &entity.Score{}, coordinator.Snapshot().Score)
	})

	t.Run("Moves during the reset delay are rejected", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))
		notifier.clear()

		err := coordinator.ApplyMove("o", "", 5)

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Empty(t, notifier.broadcasts)
		assert.Len(t, scheduler.pending, 1)
	})

	t.Run("Score is omitted when tracking is off", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))

		last := notifier.broadcasts[len(notifier.broadcasts)-1]
		assert.Nil(t, last.Payload.Score)
		assert.Nil(t, coordinator.Snapshot().Score)
	})
}

func TestCoordinator_Reset(t *testing.T) {
	t.Run("Delayed reset after a win starts a new round", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{TrackScore: true})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))
		notifier.clear()

		// When: the reset timer fires
		scheduler.fire()

		// Then: the board is empty and X opens the next round
		snapshot := coordinator.Snapshot()
		assert.Equal(t, [9]string{}, snapshot.Match.Board)
		assert.True(t, snapshot.Match.IsOngoing())
		assert.Equal(t, x, snapshot.Match.Turn)
		assert.Equal(t, 1, snapshot.Match.Round)
		assert.Equal(t, []string{ActionGameReset, ActionTurn}, notifier.actions())

		// And: the score survives the reset
		assert.Equal(t, &entity.Score{X: 1}, snapshot.Score)
	})

	t.Run("Reset after a draw follows the random policy", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		expected := RandomFirstMover(rand.New(rand.NewPCG(1, 2)))
		coordinator, _, scheduler := newLiveCoordinator(Options{FirstMover: RandomFirstMover(rng)})

		// the opening pick consumed one draw from both sources
		require.Equal(t, expected(), coordinator.Snapshot().Match.Turn)

		order := []string{"x", "o"}
		if coordinator.Snapshot().Match.Turn == o {
			order = []string{"o", "x"}
		}

		for i, cell := range []int{0, 2, 1, 3, 5, 4, 6, 7, 8} {
			require.NoError(t, coordinator.ApplyMove(order[i%2], "", cell))
		}

		scheduler.fire()

		snapshot := coordinator.Snapshot()
		assert.Equal(t, [9]string{}, snapshot.Match.Board)
		assert.Equal(t, expected(), snapshot.Match.Turn)
	})

	t.Run("Requested reset clears mid-round immediately", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1))
		notifier.clear()

		require.NoError(t, coordinator.RequestReset("o"))

		assert.Equal(t, [9]string{}, coordinator.Snapshot().Match.Board)
		assert.Equal(t, []string{ActionGameReset, ActionTurn}, notifier.actions())
		assert.Empty(t, scheduler.pending)
	})

	t.Run("Reset requests from unadmitted connections are ignored", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0))
		notifier.clear()

		err := coordinator.RequestReset("stranger")

		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Equal(t, x, coordinator.Snapshot().Match.Board[0])
		assert.Empty(t, notifier.broadcasts)
	})

	t.Run("Stale delayed reset does not clear a newer round", func(t *testing.T) {
		coordinator, _, scheduler := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))

		// Given: players reset by hand and start playing before the timer fires
		coordinator.Reset(true)
		require.NoError(t, play(coordinator, 4))

		// When: the old timer fires
		scheduler.fire()

		// Then: the new round keeps its move
		assert.Equal(t, x, coordinator.Snapshot().Match.Board[4])
		assert.True(t, coordinator.Snapshot().Match.IsOngoing())
	})

	t.Run("Timer from a won round is dropped after the opponent is replaced", func(t *testing.T) {
		// Given: X wins and O leaves before the reset fires
		coordinator, notifier, scheduler := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))
		require.NoError(t, coordinator.Release("o"))

		// And: a newcomer takes O and X opens the new round
		mark, err := coordinator.Admit("newcomer")
		require.NoError(t, err)
		require.Equal(t, o, mark)
		require.NoError(t, coordinator.ApplyMove("x", "", 3))
		notifier.clear()

		// When: the timer of the won round fires
		scheduler.fire()

		// Then: the new round is untouched and nothing is broadcast
		snapshot := coordinator.Snapshot()
		assert.Equal(t, x, snapshot.Match.Board[3])
		assert.Equal(t, o, snapshot.Match.Turn)
		assert.True(t, snapshot.Match.IsOngoing())
		assert.Empty(t, notifier.broadcasts)
	})

	t.Run("Reset without immediate is deferred", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{ResetDelay: 250 * time.Millisecond})
		require.NoError(t, play(coordinator, 0))
		notifier.clear()

		coordinator.Reset(false)

		assert.Empty(t, notifier.broadcasts)
		assert.Equal(t, []time.Duration{250 * time.Millisecond}, scheduler.delays)

		scheduler.fire()
		assert.Equal(t, [9]string{}, coordinator.Snapshot().Match.Board)
	})
}

func TestCoordinator_Release(t *testing.T) {
	t.Run("Mid-match disconnect leaves the survivor waiting", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4))
		notifier.clear()

		// When: O disconnects
		require.NoError(t, coordinator.Release("o"))

		// Then: the board is cleared and no turn is announced
		snapshot := coordinator.Snapshot()
		assert.True(t, snapshot.Match.IsWaiting())
		assert.Equal(t, [9]string{}, snapshot.Match.Board)
		assert.Equal(t, []string{ActionGameReset}, notifier.actions())
		assert.Equal(t, []entity.Session{{ID: "x", Mark: x}}, snapshot.Sessions)

		// And: moves are refused until someone joins
		assert.ErrorIs(t, coordinator.ApplyMove("x", "", 0), apperror.ErrGameIsNotStarted)
	})

	t.Run("New opponent restarts the match", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})
		require.NoError(t, coordinator.Release("x"))
		notifier.clear()

		mark, err := coordinator.Admit("newcomer")

		require.NoError(t, err)
		assert.Equal(t, x, mark)
		assert.True(t, coordinator.Snapshot().Match.IsOngoing())
		assert.Equal(t, []Event{turnEvent(x)}, notifier.broadcasts)
	})

	t.Run("Disconnect during the reset delay lands in waiting", func(t *testing.T) {
		coordinator, notifier, scheduler := newLiveCoordinator(Options{})
		require.NoError(t, play(coordinator, 0, 1, 4, 2, 8))
		require.NoError(t, coordinator.Release("o"))
		notifier.clear()

		scheduler.fire()

		assert.True(t, coordinator.Snapshot().Match.IsWaiting())
		assert.Empty(t, notifier.broadcasts)
	})

	t.Run("Unknown connection changes nothing", func(t *testing.T) {
		coordinator, notifier, _ := newLiveCoordinator(Options{})

		err := coordinator.Release("spectator")

		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.True(t, coordinator.Snapshot().Match.IsOngoing())
		assert.Empty(t, notifier.broadcasts)
	})
}

func TestCoordinator_Journal(t *testing.T) {
	journal := &fakeJournal{}
	coordinator, _, _ := newTestCoordinator(Options{Journal: journal})

	_, _ = coordinator.Admit("a")
	_, _ = coordinator.Admit("b")
	_ = coordinator.ApplyMove("a", "", 0)
	_ = coordinator.ApplyMove("a", "", 1)

	// rejected moves are not journaled
	require.Len(t, journal.snapshots, 3)
	assert.Equal(t, x, journal.snapshots[2].Match.Board[0])
	assert.Len(t, journal.snapshots[2].Sessions, 2)
}
