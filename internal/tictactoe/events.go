package tictactoe

import "github.com/rocketscienceinc/tictactoe-match/internal/entity"

// Inbound actions.
const (
	ActionRequestSymbol = "request-symbol"
	ActionMakeMove      = "make-move"
	ActionRequestReset  = "request-reset"
)

// Outbound actions.
const (
	ActionSetSymbol    = "set-symbol"
	ActionMoveMade     = "move-made"
	ActionTurn         = "turn"
	ActionGameOver     = "game-over"
	ActionGameReset    = "game-reset"
	ActionMatchFull    = "match-full"
	ActionMoveRejected = "move-rejected"
)

// Event is a state delta published to connected sessions.
type Event struct {
	Action  string
	Payload Payload
}

type Payload struct {
	Symbol  string        `json:"symbol,omitempty"`
	Player  string        `json:"player,omitempty"`
	Index   *int          `json:"index,omitempty"`
	Message string        `json:"message,omitempty"`
	Winner  string        `json:"winner,omitempty"`
	Score   *entity.Score `json:"score,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Notifier delivers events to connections. Implementations must not block.
type Notifier interface {
	Broadcast(event Event)
	Send(sessionID string, event Event)
	Disconnect(sessionID string)
}

// Recorder receives metrics about what the coordinator did.
type Recorder interface {
	SessionsChanged(count int)
	MoveHandled(err error)
	RoundFinished(outcome entity.Outcome)
	MatchReset(reason string)
}

// Journal receives a snapshot after every state change.
type Journal interface {
	Record(snapshot entity.Snapshot)
}

type nopRecorder struct{}

func (nopRecorder) SessionsChanged(int)          {}
func (nopRecorder) MoveHandled(error)            {}
func (nopRecorder) RoundFinished(entity.Outcome) {}
func (nopRecorder) MatchReset(string)            {}

type nopJournal struct{}

func (nopJournal) Record(entity.Snapshot) {}

func turnEvent(mark string) Event {
	return Event{Action: ActionTurn, Payload: Payload{Symbol: mark}}
}
