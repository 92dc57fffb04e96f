package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-match/internal/config"
	"github.com/rocketscienceinc/tictactoe-match/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-match/internal/repository"
	"github.com/rocketscienceinc/tictactoe-match/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-match/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-match/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-match/transport/rest"
	"github.com/rocketscienceinc/tictactoe-match/transport/websocket"
)

const purgeTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	runID := uuid.New().String()
	log = log.With("runID", runID)

	seed := conf.Match.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint: gosec // fairness only
	}

	firstMover, err := tictactoe.ParseFirstMover(conf.Match.FirstMover, seed)
	if err != nil {
		return fmt.Errorf("invalid match config: %w", err)
	}

	metrics := monitor.NewMetrics(conf.Metrics.Namespace)

	opts := tictactoe.Options{
		ResetDelay:       conf.Match.ResetDelay,
		FirstMover:       firstMover,
		TrackScore:       conf.Score.Enabled,
		NotifyRejections: conf.Match.NotifyRejections,
		Recorder:         metrics,
	}

	if conf.Redis.Enabled {
		journal, closeStorage, journalErr := startJournal(ctx, logger, conf, runID)
		if journalErr != nil {
			return journalErr
		}
		defer func() {
			cancel()
			closeStorage()
		}()

		opts.Journal = journal
	}

	hub := websocket.NewHub(logger, metrics, conf.Websocket.SendBuffer)
	runner := usecase.NewMatchRunner(logger, hub, opts)
	go runner.Run(ctx)

	wsServer := websocket.New(logger, hub, runner, websocket.Options{
		AllowedOrigins: conf.Websocket.AllowedOrigins,
		CheckOnConnect: conf.Admission.CheckOnConnect,
	})

	router := rest.NewRouter(rest.Routes{
		StaticDir: conf.StaticDir,
		WebSocket: wsServer,
		Metrics:   metrics.Handler(),
		State:     rest.NewStateHandler(logger, runner),
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.Start(ctx, logger, conf.HTTPPort, router)
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return <-httpErrCh
	}
}

// startJournal connects to redis and starts mirroring snapshots under runID.
// The returned func purges the run and closes the client; ctx must be canceled first.
func startJournal(ctx context.Context, logger *slog.Logger, conf *config.Config, runID string) (*usecase.Journal, func(), error) {
	log := logger.With("component", "app")

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	matchRepo := repository.NewMatchRepository(redisStorage, conf.Redis.TTL)
	scoreRepo := repository.NewScoreRepository(redisStorage, conf.Redis.TTL)

	journal := usecase.NewJournal(logger, runID, matchRepo, scoreRepo)
	go journal.Run(ctx)

	closeStorage := func() {
		purgeCtx, purgeCancel := context.WithTimeout(context.WithoutCancel(ctx), purgeTimeout)
		defer purgeCancel()

		if err = journal.Purge(purgeCtx); err != nil {
			log.Error("could not purge match journal", "error", err)
		}

		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return journal, closeStorage, nil
}
