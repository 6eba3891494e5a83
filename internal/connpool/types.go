package connpool

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
	ErrConnectionFailed  = errors.New("connection failed")
	ErrConnectionAborted = errors.New("connection aborted")
)

var errGuardTimeout = errors.New("attempt guard acquisition timed out")

// Manager is the ConnectionManager contract (SPEC_FULL.md §6): a pool of
// pooled connections keyed by endpoint, dialed on demand and reclaimed
// once closed, removed or aborted.
type Manager interface {
	// GetConnection returns a connection to endpoint, dialing one if
	// necessary.
	GetConnection(ctx context.Context, endpoint model.Endpoint) (transport.Connection, error)

	// Remove evicts conn from endpoint's entry and closes it, if it is
	// still present.
	Remove(endpoint model.Endpoint, conn transport.Connection)

	// Abort drops every connection to endpoint and removes its entry.
	Abort(endpoint model.Endpoint)

	// Close closes every pooled connection and blocks until the pool
	// drains or ctx is cancelled.
	Close(ctx context.Context) error

	// ConnectionCount returns a best-effort total across every endpoint.
	ConnectionCount() int

	// ConnectedEndpoints returns the gateway URIs with at least one live
	// connection.
	ConnectedEndpoints() []model.GatewayURI
}

// Config holds the tunables named in SPEC_FULL.md §6.
type Config struct {
	MaxConnectionsPerEndpoint int
	ConnectRetryDelay         time.Duration
	AttemptGuardTimeout       time.Duration
	ClosePollInterval         time.Duration
	CloseWarnInterval         time.Duration

	// Recorder receives dial/connection-lifecycle hook events. Left nil,
	// it defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
}

// DefaultConfig returns the defaults spec.md §6 names.
func DefaultConfig() Config {
	return Config{
		MaxConnectionsPerEndpoint: 1,
		ConnectRetryDelay:         1 * time.Second,
		AttemptGuardTimeout:       100 * time.Millisecond,
		ClosePollInterval:         10 * time.Millisecond,
		CloseWarnInterval:         5 * time.Second,
	}
}

// Hooks are the callbacks the owning ClientMessageCenter wires in: one to
// receive every inbound message from every connection's reader loop, and
// two to observe connection-count transitions (SPEC_FULL.md §4.6).
type Hooks struct {
	OnReceive func(model.Message)
	OnOpened  func(endpoint model.Endpoint)
	OnClosed  func(endpoint model.Endpoint, reason error)
}
