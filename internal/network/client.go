// Package network connects the view to the game server's state feed.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/dungeonview/internal/game/world"
	"github.com/Faultbox/dungeonview/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 << 20
)

// Message types sent by the server.
const (
	MessageUpdate = "update"
	MessageError  = "error"
)

// ErrNotConnected is returned when sending without a connection.
var ErrNotConnected = errors.New("network: not connected")

// Sink receives decoded snapshots. Implementations must be safe to call
// from the reader goroutine.
type Sink interface {
	Submit(s *world.Snapshot)
}

type envelope struct {
	Type        string          `json:"type"`
	State       json.RawMessage `json:"state,omitempty"`
	Description string          `json:"description,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// MoveCommand is the only command the view sends.
type MoveCommand struct {
	Action    string          `json:"action"`
	Direction world.Direction `json:"direction"`
}

// Client handles the websocket connection.
type Client struct {
	url    string
	dialer *websocket.Dialer
	log    *zap.Logger

	mu        sync.Mutex // guards conn and writes
	conn      *websocket.Conn
	connected bool
}

// New creates a client for a ws:// or wss:// URL.
func New(url string, dialTimeout time.Duration) *Client {
	d := *websocket.DefaultDialer
	if dialTimeout > 0 {
		d.HandshakeTimeout = dialTimeout
	}
	return &Client{url: url, dialer: &d, log: logger.Named("feed")}
}

// Connect dials the server.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return fmt.Errorf("already connected")
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c.conn = conn
	c.connected = true
	c.log.Info("connected", zap.String("url", c.url))
	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run reads messages until ctx is done or the connection fails, passing
// every snapshot to sink. Snapshots are decoded but not validated.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("server closed the connection")
				return nil
			}
			return fmt.Errorf("reading feed: %w", err)
		}
		c.dispatch(data, sink)
	}
}

func (c *Client) dispatch(data []byte, sink Sink) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Error("bad message", zap.Error(err))
		return
	}

	switch env.Type {
	case MessageUpdate:
		var s world.Snapshot
		if err := json.Unmarshal(env.State, &s); err != nil {
			c.log.Error("bad snapshot", zap.Error(err))
			return
		}
		if env.Description != "" {
			c.log.Info(env.Description)
		}
		sink.Submit(&s)
	case MessageError:
		c.log.Warn("server error", zap.String("message", env.Message))
	default:
		c.log.Debug("ignoring message", zap.String("type", env.Type))
	}
}

// Send turns an intent into a move command.
func (c *Client) Send(in world.Intent) error {
	d, ok := in.Step()
	if !ok {
		return fmt.Errorf("intent %v is not a single step", in)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(MoveCommand{Action: "move", Direction: d}); err != nil {
		return fmt.Errorf("sending %v: %w", in, err)
	}
	return nil
}

// Pump sends intents until ctx is done or the channel closes.
func (c *Client) Pump(ctx context.Context, intents <-chan world.Intent) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-intents:
			if !ok {
				return
			}
			if err := c.Send(in); err != nil {
				c.log.Warn("intent not sent", zap.Error(err))
			}
		}
	}
}
