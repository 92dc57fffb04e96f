package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")

	ErrMatchFull        = errors.New("match is full")
	ErrAlreadyAdmitted  = errors.New("connection already holds a symbol")
	ErrSessionNotFound  = errors.New("session not found")
	ErrRunnerStopped    = errors.New("match runner stopped")
	ErrUnknownGameState = errors.New("unknown game status")
)

// IsInvalidMove reports whether err is one of the move rejections.
func IsInvalidMove(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrGameIsNotStarted) ||
		errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrInvalidCell)
}
