package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/tictactoe"
)

const releaseTimeout = 5 * time.Second

type matchRunner interface {
	Admit(ctx context.Context, sessionID string) (string, error)
	ApplyMove(ctx context.Context, sessionID, claimed string, cell int) error
	RequestReset(ctx context.Context, sessionID string) error
	Release(ctx context.Context, sessionID string) error
	IsFull(ctx context.Context) (bool, error)
}

type Options struct {
	AllowedOrigins []string
	CheckOnConnect bool
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	runner   matchRunner
	upgrader websocket.Upgrader

	checkOnConnect bool

	handlers map[string]func(ctx context.Context, c *client, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, runner matchRunner, opts Options) *Server {
	server := &Server{
		logger: logger.With("component", "ws_server"),
		hub:    hub,
		runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},

		checkOnConnect: opts.CheckOnConnect,

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[tictactoe.ActionRequestSymbol] = server.handleRequestSymbol
	server.handlers[tictactoe.ActionMakeMove] = server.handleMakeMove
	server.handlers[tictactoe.ActionRequestReset] = server.handleRequestReset

	return server
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ctx := req.Context()

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	if that.checkOnConnect {
		full, fullErr := that.runner.IsFull(ctx)
		if fullErr != nil {
			log.Error("failed to check match capacity", "error", fullErr)
		}

		if full {
			log.Info("connection refused, match is full")
			that.refuse(conn)
			return
		}
	}

	c := that.hub.register(conn)
	go c.writePump()

	that.readPump(ctx, c)

	that.hub.unregister(c)

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err = that.runner.Release(releaseCtx, c.id); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		log.Error("failed to release session", "sessionID", c.id, "error", err)
	}
}

// readPump processes messages from the client until the connection fails.
func (that *Server) readPump(ctx context.Context, c *client) {
	log := that.logger.With("method", "readPump", "sessionID", c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		err = handler(ctx, c, &message)

		switch {
		case err == nil:
		case errors.Is(err, apperror.ErrRunnerStopped):
			log.Info("match runner stopped, closing connection")
			return
		case apperror.IsInvalidMove(err),
			errors.Is(err, apperror.ErrAlreadyAdmitted),
			errors.Is(err, apperror.ErrSessionNotFound):
			log.Debug("request rejected", "action", message.Action, "error", err)
		case errors.Is(err, apperror.ErrMatchFull):
			log.Info("admission refused", "error", err)
		default:
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) refuse(conn *websocket.Conn) {
	defer conn.Close()

	data, err := encodeEvent(tictactoe.Event{
		Action:  tictactoe.ActionMatchFull,
		Payload: tictactoe.Payload{Error: apperror.ErrMatchFull.Error()},
	})
	if err != nil {
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "match is full"),
		time.Now().Add(writeWait),
	)
}

// checkOrigin accepts every origin when the allow-list is empty.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}

		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
