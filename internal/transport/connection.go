package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arjunv/actorlink/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// connection implements Connection over a gorilla/websocket conn.
type connection struct {
	id       uuid.UUID // log-correlation only, see SPEC_FULL.md §4.8
	endpoint model.Endpoint
	cfg      DialerConfig
	codec    Codec
	logger   *slog.Logger

	conn *websocket.Conn

	writeMu sync.Mutex

	mu         sync.RWMutex
	valid      bool
	closed     bool
	closeErr   error
	lastPingAt time.Time
}

func newConnection(conn *websocket.Conn, endpoint model.Endpoint, cfg DialerConfig, codec Codec, logger *slog.Logger) *connection {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &connection{
		id:         id,
		endpoint:   endpoint,
		cfg:        cfg,
		codec:      codec,
		logger:     logger.With("conn_id", id.String(), "endpoint", endpoint.String()),
		conn:       conn,
		valid:      true,
		lastPingAt: time.Now(),
	}
}

func (c *connection) Endpoint() model.Endpoint { return c.endpoint }

func (c *connection) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid
}

// Send writes a message. Once IsValid has flipped false this always
// fails with ErrNotConnected; the message center's send path treats that
// as a lost race (SPEC_FULL.md §4.2, §7 RaceLost).
func (c *connection) Send(msg model.Message) error {
	c.mu.RLock()
	valid := c.valid
	c.mu.RUnlock()
	if !valid {
		return ErrNotConnected
	}

	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the transport. Safe to call more than once; only the
// first call flips IsValid and records reason.
func (c *connection) Close(reason error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.valid = false
	c.closeErr = reason
	c.mu.Unlock()

	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}

// Run drives the read side until the transport closes or ctx is
// cancelled. It is meant to be run as the connection's dedicated
// background reader task (SPEC_FULL.md §3, §4.1).
func (c *connection) Run(ctx context.Context, onReceive func(model.Message)) error {
	defer func() {
		c.mu.Lock()
		c.valid = false
		c.mu.Unlock()
	}()

	c.conn.SetPingHandler(func(data string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	c.conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()
		return nil
	})

	done := make(chan struct{})
	var heartbeatWG sync.WaitGroup
	heartbeatWG.Add(1)
	go func() {
		defer heartbeatWG.Done()
		c.heartbeatLoop(ctx, done)
	}()
	defer func() {
		close(done)
		heartbeatWG.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			c.logger.Warn("failed to decode inbound frame", "error", err)
			continue
		}

		onReceive(msg)
	}
}

func (c *connection) heartbeatLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, connection stale", "last_ping", lastPing, "timeout", c.cfg.PingTimeout)
				c.Close(ErrStaleConnection)
				return
			}
		}
	}
}
