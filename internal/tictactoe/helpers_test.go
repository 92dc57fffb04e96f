package tictactoe

import (
	"io"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

type sentEvent struct {
	to    string
	event Event
}

type fakeNotifier struct {
	broadcasts   []Event
	sent         []sentEvent
	disconnected []string
}

func (that *fakeNotifier) Broadcast(event Event) {
	that.broadcasts = append(that.broadcasts, event)
}

func (that *fakeNotifier) Send(sessionID string, event Event) {
	that.sent = append(that.sent, sentEvent{to: sessionID, event: event})
}

func (that *fakeNotifier) Disconnect(sessionID string) {
	that.disconnected = append(that.disconnected, sessionID)
}

func (that *fakeNotifier) actions() []string {
	actions := make([]string, 0, len(that.broadcasts))
	for _, event := range that.broadcasts {
		actions = append(actions, event.Action)
	}
	return actions
}

func (that *fakeNotifier) clear() {
	that.broadcasts = nil
	that.sent = nil
	that.disconnected = nil
}

type fakeScheduler struct {
	delays  []time.Duration
	pending []func()
}

func (that *fakeScheduler) AfterFunc(d time.Duration, fn func()) {
	that.delays = append(that.delays, d)
	that.pending = append(that.pending, fn)
}

// fire runs every pending callback as the event loop would.
func (that *fakeScheduler) fire() {
	pending := that.pending
	that.pending = nil

	for _, fn := range pending {
		fn()
	}
}

type fakeJournal struct {
	snapshots []entity.Snapshot
}

func (that *fakeJournal) Record(snapshot entity.Snapshot) {
	that.snapshots = append(that.snapshots, snapshot)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(opts Options) (*Coordinator, *fakeNotifier, *fakeScheduler) {
	notifier := &fakeNotifier{}
	scheduler := &fakeScheduler{}

	return NewCoordinator(discardLogger(), notifier, scheduler, opts), notifier, scheduler
}

// newLiveCoordinator admits "x" and "o" and clears the recorded events.
func newLiveCoordinator(opts Options) (*Coordinator, *fakeNotifier, *fakeScheduler) {
	coordinator, notifier, scheduler := newTestCoordinator(opts)

	if _, err := coordinator.Admit("x"); err != nil {
		panic(err)
	}

	if _, err := coordinator.Admit("o"); err != nil {
		panic(err)
	}

	notifier.clear()

	return coordinator, notifier, scheduler
}

func play(coordinator *Coordinator, moves ...int) error {
	for i, cell := range moves {
		sessionID := "x"
		if i%2 == 1 {
			sessionID = "o"
		}

		if err := coordinator.ApplyMove(sessionID, "", cell); err != nil {
			return err
		}
	}

	return nil
}
