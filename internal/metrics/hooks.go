package metrics

import "time"

// Recorder is the hook surface that statistics-collection infrastructure
// implements. The message center and its collaborators call these methods
// at the points named below; this package declares only the hooks, not a
// collector.
type Recorder interface {
	// ConnectionOpened is called when a Connection transitions to open.
	ConnectionOpened(endpoint string)

	// ConnectionClosed is called when a Connection transitions to closed.
	ConnectionClosed(endpoint string)

	// MessageSent is called after a message is handed to a Connection for
	// write, with the time spent selecting and dispatching it.
	MessageSent(category string, elapsed time.Duration)

	// MessageRejected is called when a message is rejected instead of sent.
	MessageRejected(category, reason string)

	// DialAttempt is called once per attempted dial to an endpoint,
	// success reporting whether the dial succeeded.
	DialAttempt(endpoint string, success bool, elapsed time.Duration)

	// GatewayCountChanged is called whenever the live gateway set size
	// changes.
	GatewayCountChanged(count int)
}

// NoopRecorder discards everything. It is the default Recorder used when
// no statistics-collection infrastructure is wired in.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) ConnectionOpened(endpoint string)                                 {}
func (NoopRecorder) ConnectionClosed(endpoint string)                                 {}
func (NoopRecorder) MessageSent(category string, elapsed time.Duration)               {}
func (NoopRecorder) MessageRejected(category, reason string)                          {}
func (NoopRecorder) DialAttempt(endpoint string, success bool, elapsed time.Duration) {}
func (NoopRecorder) GatewayCountChanged(count int)                                    {}
