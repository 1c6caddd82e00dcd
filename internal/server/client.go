package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/gloomdelve/server/internal/config"
	"github.com/gloomdelve/server/internal/logger"
	"github.com/gloomdelve/server/internal/metrics"
	"github.com/gloomdelve/server/internal/protocol"
)

const writeTimeout = 10 * time.Second

// client is one WebSocket game connection. It owns the inbound intent queue,
// the per-intent throttles, and the bounded send window; the session layer
// talks to it through the Transport interface.
type client struct {
	gameID string
	conn   *websocket.Conn

	// queue carries the intents waiting to be processed, one at a time.
	// Arrivals beyond its capacity are dropped.
	queue chan protocol.Intent

	// window holds one token per unacknowledged outbound message; Send
	// blocks while the client owes acks for a full window.
	window chan struct{}

	moveLimiter   *rate.Limiter
	attackLimiter *rate.Limiter

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func newClient(gameID string, conn *websocket.Conn, cfg config.ThrottleConfig) *client {
	return &client{
		gameID:        gameID,
		conn:          conn,
		queue:         make(chan protocol.Intent, cfg.MaxPending),
		window:        make(chan struct{}, cfg.MaxUnacked),
		moveLimiter:   rate.NewLimiter(rate.Every(time.Duration(cfg.MoveIntervalMillis)*time.Millisecond), 1),
		attackLimiter: rate.NewLimiter(rate.Every(time.Duration(cfg.AttackIntervalMillis)*time.Millisecond), 1),
		closed:        make(chan struct{}),
	}
}

// Send serialises and writes one message, blocking while the unacked window
// is full. A closed connection returns websocket.ErrCloseSent.
func (c *client) Send(msg protocol.Message) error {
	select {
	case c.window <- struct{}{}:
	case <-c.closed:
		return websocket.ErrCloseSent
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.release()
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.release()
		return err
	}
	return nil
}

// ack releases one send-window slot.
func (c *client) ack() {
	c.release()
}

func (c *client) release() {
	select {
	case <-c.window:
	default:
	}
}

// Close shuts the connection down exactly once and unblocks pending sends.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
	return nil
}

// isClosed reports whether Close has run.
func (c *client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// enqueue admits an intent to the processing queue, applying the throttles.
// Drops are silent; the client is expected to tolerate them.
func (c *client) enqueue(in protocol.Intent) {
	switch in.Type {
	case protocol.IntentMove:
		if !c.moveLimiter.Allow() {
			metrics.IntentsDropped.WithLabelValues("throttle").Inc()
			return
		}
	case protocol.IntentAttack:
		if !c.attackLimiter.Allow() {
			metrics.IntentsDropped.WithLabelValues("throttle").Inc()
			return
		}
	}

	select {
	case c.queue <- in:
	default:
		metrics.IntentsDropped.WithLabelValues("queue_full").Inc()
		logger.Debug("Intent queue full, dropping", "game", c.gameID, "type", in.Type)
	}
}
