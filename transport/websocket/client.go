package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type frame struct {
	data []byte
	last bool
}

// client is one open connection. send is never closed; done ends the writer.
type client struct {
	id   string
	conn *websocket.Conn

	send      chan frame
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan frame, buffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client is gone or its buffer
// is full.
func (that *client) enqueue(f frame) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- f:
		return true
	default:
		return false
	}
}

func (that *client) kick() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump owns all writes to the connection.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case f := <-that.send:
			if f.last {
				_ = that.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "match is full"),
					time.Now().Add(writeWait),
				)
				return
			}

			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-that.done:
			return
		}
	}
}
