package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arjunv/actorlink/internal/model"
	"github.com/gorilla/websocket"
)

// Dialer is the default ConnectionFactory: it dials a gorilla/websocket
// connection to the endpoint's gateway stream path.
type Dialer struct {
	cfg    DialerConfig
	codec  Codec
	logger *slog.Logger
}

// NewDialer creates a Dialer. codec defaults to JSONCodec if nil.
func NewDialer(cfg DialerConfig, codec Codec, logger *slog.Logger) *Dialer {
	if codec == nil {
		codec = JSONCodec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{cfg: cfg, codec: codec, logger: logger}
}

// Connect dials endpoint, retrying up to cfg.RetryCount additional times
// with cfg.RetryInterval between attempts before giving up. This is the
// intra-call retry budget described in SPEC_FULL.md §4.8; the cooldown
// between separate GetConnection calls is connpool.Manager's concern.
func (d *Dialer) Connect(ctx context.Context, endpoint model.Endpoint) (Connection, error) {
	scheme := "ws"
	if d.cfg.TLS {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s/v1/stream", scheme, endpoint.AsGatewayURI())

	dialer := websocket.Dialer{HandshakeTimeout: d.cfg.HandshakeTimeout}
	header := http.Header{}

	var lastErr error
	for attempt := 0; attempt <= d.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.cfg.RetryInterval):
			}
		}

		conn, _, err := dialer.DialContext(ctx, url, header)
		if err != nil {
			lastErr = err
			d.logger.Debug("dial attempt failed", "endpoint", endpoint.String(), "attempt", attempt, "error", err)
			continue
		}

		return newConnection(conn, endpoint, d.cfg, d.codec, d.logger), nil
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, endpoint.String(), lastErr)
}
