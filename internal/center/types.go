package center

import (
	"context"
	"errors"
	"time"

	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/transport"
)

// Sentinel errors, mapped from the error kinds in SPEC_FULL.md §7.
var (
	ErrRaceLost     = errors.New("connection invalidated between selection and send")
	ErrNotRunning   = errors.New("message center not running")
	ErrInvalidState = errors.New("invalid client id transition")
)

// Handler synchronously consumes one category's dispatched messages. It
// takes precedence over the inbound queue for its category once
// registered.
type Handler func(model.Message)

// StatusListener observes connected-gateway-count transitions
// (SPEC_FULL.md §4.6).
type StatusListener interface {
	GatewayCountChanged(newCount, oldCount int)
	ClusterConnectionLost()
}

// ConnectionPool is the subset of connpool.Manager the center needs:
// one live connection per endpoint, dialing if necessary.
type ConnectionPool interface {
	GetConnection(ctx context.Context, endpoint model.Endpoint) (transport.Connection, error)
}

// GatewayLocator is the subset of gateway.Manager the center needs to
// pick and quarantine endpoints.
type GatewayLocator interface {
	GetLiveGateway() (model.GatewayURI, error)
	GetLiveGateways() []model.GatewayURI
	MarkAsDead(uri model.GatewayURI)
	Stop(ctx context.Context) error
}

// Config holds the tunables named in SPEC_FULL.md §6.
type Config struct {
	Buckets int

	// SendRetryDelay is how long a RaceLost send waits before retrying
	// SendMessage for the same message.
	SendRetryDelay time.Duration

	// SelectionRetryLimit bounds the "restart the whole selection"
	// retry spec.md §4.2 describes for a dial failure during
	// sticky-bucket assignment. The source text doesn't bound this
	// loop explicitly; an always-failing gateway set would otherwise
	// spin the selecting goroutine indefinitely, so we cap it and
	// surface a rejection once exhausted.
	SelectionRetryLimit int

	// Recorder receives send/reject/gateway-count hook events. Left
	// nil, it defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
}

// DefaultConfig returns spec.md §6's defaults.
func DefaultConfig() Config {
	return Config{
		Buckets:             8192,
		SendRetryDelay:      2 * time.Second,
		SelectionRetryLimit: 3,
		Recorder:            metrics.NoopRecorder{},
	}
}
