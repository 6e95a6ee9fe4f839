package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the peer has to answer a ping.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames.
	maxMessageSize = 64 * 1024

	// sendQueueSize buffers outbound envelopes per connection.
	sendQueueSize = 64
)

// Client binds one websocket connection to the relay. Inbound events are
// handled in arrival order by the read loop; outbound sends go through a
// buffered queue drained by the write loop, so a slow or dead peer never
// blocks the relay.
type Client struct {
	id    string
	conn  *websocket.Conn
	relay *Relay
	send  chan OutEnvelope
	done  chan struct{}
}

// NewClient wraps an upgraded websocket connection.
func NewClient(r *Relay, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		conn:  conn,
		relay: r,
		send:  make(chan OutEnvelope, sendQueueSize),
		done:  make(chan struct{}),
	}
}

// ID returns the connection identifier used in session slots.
func (c *Client) ID() string { return c.id }

// Send enqueues an outbound event. It never blocks: if the queue is full
// or the connection is closing, the event is dropped.
func (c *Client) Send(event string, data any) {
	select {
	case <-c.done:
	case c.send <- OutEnvelope{Event: event, Data: data}:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Str("event", event).
			Msg("send queue full, dropping event")
	}
}

// Run pumps the connection until the peer goes away or ctx is cancelled.
// It blocks the caller for the lifetime of the connection.
func (c *Client) Run(ctx context.Context) {
	c.relay.HandleConnect(c)
	go c.writeLoop()
	c.readLoop(ctx)

	close(c.done)
	c.relay.HandleDisconnect(c)
	_ = c.conn.Close()
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Send(EventError, ErrorData{Message: "invalid envelope", Detail: err.Error()})
			continue
		}
		c.relay.HandleEvent(ctx, c, env)
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
