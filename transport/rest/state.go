package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

type stateReader interface {
	Snapshot(ctx context.Context) (entity.Snapshot, error)
}

type stateHandler struct {
	logger *slog.Logger
	state  stateReader
}

func NewStateHandler(logger *slog.Logger, state stateReader) http.Handler {
	return &stateHandler{
		logger: logger.With("component", "state_handler"),
		state:  state,
	}
}

// ServeHTTP writes the current match and score as JSON.
func (that *stateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	snapshot, err := that.state.Snapshot(r.Context())
	if err != nil {
		log.Error("failed to read match state", "error", err)

		status := http.StatusInternalServerError
		if errors.Is(err, apperror.ErrRunnerStopped) {
			status = http.StatusServiceUnavailable
		}

		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error("failed to write match state", "error", err)
	}
}
