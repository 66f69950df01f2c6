package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sabridemirel/arayanibul-sub003/domain"
	"github.com/sabridemirel/arayanibul-sub003/runtime"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Connection lifecycle. There is no transition out of closed: a reconnect
// is a brand-new connection that must rejoin its conversations explicitly.
const (
	stateConnecting int32 = iota
	stateOpen
	stateClosed
)

// Client is one live realtime connection bound to exactly one account.
// It implements contract.FrameSink so the registry can push fan-out frames
// straight into its outbound buffer.
type Client struct {
	connID    string
	accountID string
	conn      *websocket.Conn
	registry  *runtime.Registry
	router    *runtime.ConversationRouter
	send      chan domain.Frame
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Int32
	log       *slog.Logger
}

func newClient(
	connID, accountID string,
	conn *websocket.Conn,
	registry *runtime.Registry,
	router *runtime.ConversationRouter,
	sendBuffer int,
	log *slog.Logger,
) *Client {
	return &Client{
		connID:    connID,
		accountID: accountID,
		conn:      conn,
		registry:  registry,
		router:    router,
		send:      make(chan domain.Frame, sendBuffer),
		done:      make(chan struct{}),
		log:       log,
	}
}

// open registers the connection and moves it to the open state. The
// handshake already validated the session token at this point.
func (c *Client) open() {
	c.registry.Register(c.accountID, c.connID, c)
	c.state.Store(stateOpen)
}

// Push hands a frame to the connection's outbound buffer without blocking.
// A closing or saturated connection reports false and the frame is skipped;
// fan-out is best-effort by contract.
func (c *Client) Push(frame domain.Frame) bool {
	if c.state.Load() != stateOpen {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown moves the connection to its terminal state and deterministically
// removes it from the registry. Safe to call from both pumps.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.state.Store(stateClosed)
		c.registry.Unregister(c.connID)
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump pumps commands from the websocket into the router. It owns the
// read side of the connection and triggers shutdown when the transport
// fails or the peer closes.
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read error", "conn_id", c.connID, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.log.Debug("malformed command skipped", "conn_id", c.connID, "error", err)
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd Command) {
	switch cmd.Type {
	case commandJoin:
		c.router.JoinConversation(c.connID, cmd.ConversationID)
	case commandLeave:
		c.router.LeaveConversation(c.connID, cmd.ConversationID)
	case commandSend:
		c.router.Route(cmd.ConversationID, cmd.Payload, c.connID, c.accountID)
	default:
		c.log.Debug("unknown command type", "conn_id", c.connID, "type", cmd.Type)
	}
}

// writePump pushes buffered frames and keepalive pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			event := Event{
				Type:           eventMessage,
				ConversationID: frame.ConversationID,
				From:           frame.SenderAccount,
				Payload:        frame.Payload,
				SentAt:         frame.SentAt,
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
