package monitor

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

const (
	moveAccepted = "accepted"
	moveOther    = "other"
)

// Metrics implements tictactoe.Recorder on a dedicated prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	sessions    prometheus.Gauge
	connections prometheus.Gauge
	moves       *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	resets      *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),

		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admitted_sessions",
			Help:      "Number of sessions holding a symbol",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Number of open websocket connections",
		}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Moves handled by the coordinator by result",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_finished_total",
			Help:      "Finished rounds by outcome and winner",
		}, []string{"outcome", "winner"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Board resets by reason",
		}, []string{"reason"}),
	}

	metrics.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.sessions,
		metrics.connections,
		metrics.moves,
		metrics.outcomes,
		metrics.resets,
	)

	return metrics
}

func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.registry, promhttp.HandlerOpts{Registry: that.registry})
}

func (that *Metrics) SessionsChanged(count int) {
	that.sessions.Set(float64(count))
}

func (that *Metrics) ConnectionOpened() {
	that.connections.Inc()
}

func (that *Metrics) ConnectionClosed() {
	that.connections.Dec()
}

func (that *Metrics) MoveHandled(err error) {
	that.moves.WithLabelValues(moveResult(err)).Inc()
}

func (that *Metrics) RoundFinished(outcome entity.Outcome) {
	that.outcomes.WithLabelValues(outcome.Kind, outcome.Winner).Inc()
}

func (that *Metrics) MatchReset(reason string) {
	that.resets.WithLabelValues(reason).Inc()
}

func moveResult(err error) string {
	switch {
	case err == nil:
		return moveAccepted
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return "not_started"
	case errors.Is(err, apperror.ErrGameFinished):
		return "finished"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "invalid_cell"
	case errors.Is(err, apperror.ErrSessionNotFound):
		return "no_session"
	default:
		return moveOther
	}
}
