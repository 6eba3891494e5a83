package transport

import (
	"context"
	"errors"
	"time"

	"github.com/arjunv/actorlink/internal/model"
)

// Sentinel errors returned by Connection and Dialer.
var (
	ErrNotConnected    = errors.New("connection not connected")
	ErrAlreadyClosed   = errors.New("connection already closed")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrDialFailed      = errors.New("dial failed")
)

// Connection is a single bidirectional framed transport to one endpoint.
// Its identity is immutable; IsValid flips exactly once, true to false.
type Connection interface {
	// Endpoint returns the gateway this connection talks to.
	Endpoint() model.Endpoint

	// Send writes a message. It returns an error if the connection has
	// already gone invalid (the send-path RaceLost case in SPEC_FULL.md §7).
	Send(msg model.Message) error

	// IsValid reports the connection's current liveness.
	IsValid() bool

	// Close closes the transport, recording reason for diagnostics. Safe
	// to call more than once; only the first call has effect.
	Close(reason error) error

	// Run drives the connection's read side until it closes or ctx is
	// cancelled, invoking onReceive for every decoded inbound message.
	// The caller is expected to run Run in a dedicated goroutine.
	Run(ctx context.Context, onReceive func(model.Message)) error
}

// ConnectionFactory asynchronously produces a live Connection for a given
// endpoint.
type ConnectionFactory interface {
	Connect(ctx context.Context, endpoint model.Endpoint) (Connection, error)
}

// Handle wraps a Connection behind a concrete, addressable pointer.
// Connection is an interface, and Go's weak package keys off a pointer
// to a concrete allocation; a bucket table that wants a real weak
// reference to "the connection ConnectionManager is holding" needs that
// allocation to be the same object ConnectionManager's pool keeps a
// strong reference to, not a copy. ConnectionManager wraps every
// connection it dials in a Handle before storing it, so a weak.Pointer
// taken from a Handle actually tracks the pooled connection's lifetime.
type Handle struct {
	Connection
}

// Codec translates between wire frames and model.Message. Wire framing is
// declared out of scope by SPEC_FULL.md §1; this interface is the seam a
// real protocol implementation would replace.
type Codec interface {
	Encode(msg model.Message) ([]byte, error)
	Decode(frame []byte) (model.Message, error)
}

// DialerConfig configures a Dialer.
type DialerConfig struct {
	TLS              bool
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PingTimeout      time.Duration
	BufferSize       int

	// RetryCount bounds the number of additional handshake attempts
	// within a single Connect call (SPEC_FULL.md §4.8), separate from the
	// cooldown connpool.Manager applies between calls.
	RetryCount    int
	RetryInterval time.Duration
}

// DefaultDialerConfig returns sensible defaults mirroring SPEC_FULL.md §6's
// tunables (CONNECT_RETRY_COUNT=2, MINIMUM_INTERCONNECT_DELAY=100ms).
func DefaultDialerConfig() DialerConfig {
	return DialerConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
		BufferSize:       1000,
		RetryCount:       2,
		RetryInterval:    100 * time.Millisecond,
	}
}
