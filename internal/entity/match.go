package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	BoardSize = 9
)

// Match is the state of the single match owned by the coordinator.
// Waiting, ongoing and finished correspond to Idle, Live and Terminal.
type Match struct {
	Board  [BoardSize]string `json:"board"`
	Turn   string            `json:"turn"`
	Status string            `json:"status"`
	Round  int               `json:"round"`
}

func NewMatch() *Match {
	return &Match{
		Turn:   PlayerX,
		Status: StatusWaiting,
	}
}

func (that Match) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that Match) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that Match) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// ConfirmOngoingState returns nil only when moves may be played.
func (that *Match) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", apperror.ErrUnknownGameState, that.Status)
	}
}

// ClearBoard empties every cell and starts a new round.
func (that *Match) ClearBoard() {
	that.Board = [BoardSize]string{}
	that.Round++
}

func (that *Match) IsFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func IsMark(mark string) bool {
	return mark == PlayerX || mark == PlayerO
}

func ToggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
