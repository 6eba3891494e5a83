package connpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/transport"
	"golang.org/x/sync/singleflight"
)

// poolManager is the default Manager: a pool of transport.Connection
// keyed by endpoint, with at-most-one-in-flight dial per endpoint and a
// cooldown after the most recent failure (SPEC_FULL.md §4.1).
//
// Grounded on the teacher's internal/connection/manager.go dial
// coordination and reconnect pattern, generalized to the attemptGuard
// timeout semantics spec.md §4.1 describes via singleflight.DoChan raced
// against a timer rather than a bare singleflight.Do.
type poolManager struct {
	factory transport.ConnectionFactory
	hooks   Hooks
	cfg     Config
	logger  *slog.Logger

	entries sync.Map // model.GatewayURI -> *entry
	flights singleflight.Group

	closing chan struct{}
	closed  atomic.Bool
}

// NewManager constructs a Manager. hooks' fields may be left nil; nil
// callbacks are simply skipped.
func NewManager(factory transport.ConnectionFactory, hooks Hooks, cfg Config, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &poolManager{
		factory: factory,
		hooks:   hooks,
		cfg:     cfg,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// GetConnection returns a connection to endpoint, dialing one if
// necessary. It implements the selection loop from SPEC_FULL.md §4.1:
// fast-path reuse, cooldown fast-fail, then a guarded dial that restarts
// selection on attemptGuard timeout instead of piling up duplicate dials.
func (m *poolManager) GetConnection(ctx context.Context, endpoint model.Endpoint) (transport.Connection, error) {
	uri := endpoint.AsGatewayURI()

	for {
		if m.closed.Load() {
			return nil, fmt.Errorf("%w: connection manager closed", ErrConnectionAborted)
		}

		ent := m.loadOrCreate(uri)

		if ent.len() >= m.cfg.MaxConnectionsPerEndpoint {
			if conn, ok := ent.pick(m.cfg.MaxConnectionsPerEndpoint); ok && conn.IsValid() {
				return conn, nil
			}
			// The round-robin pick was stale; prune before considering a
			// redial so the entry never silently exceeds capacity with
			// dead connections occupying a slot (Invariant 1).
			ent.prune()
		}

		now := time.Now()
		if ent.inCooldown(now, m.cfg.ConnectRetryDelay) {
			return nil, fmt.Errorf("%w: endpoint %s in cooldown", ErrConnectionFailed, endpoint)
		}

		conn, err := m.dialGuarded(ctx, endpoint, uri, ent)
		if errors.Is(err, errGuardTimeout) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

func (m *poolManager) loadOrCreate(uri model.GatewayURI) *entry {
	v, _ := m.entries.LoadOrStore(uri, newEntry())
	return v.(*entry)
}

// dialGuarded runs the actual dial inside a singleflight flight keyed by
// the endpoint's full identity (including generation), so a stale
// gateway generation never joins a flight for its successor. The
// flight's result is raced against AttemptGuardTimeout: if the timer
// wins, the caller gets errGuardTimeout and loops back to re-check
// state, but the flight itself keeps running for whichever caller is
// actually waiting on it — DoChan's cancellation is purely local to this
// call, never the shared dial (spec.md §4.1 step 4, "acquire the
// attemptGuard with a 100ms timeout; on failure, restart selection").
func (m *poolManager) dialGuarded(ctx context.Context, endpoint model.Endpoint, uri model.GatewayURI, ent *entry) (transport.Connection, error) {
	key := endpoint.String()
	resultCh := m.flights.DoChan(key, func() (interface{}, error) {
		return m.dial(endpoint, uri, ent)
	})

	timer := time.NewTimer(m.cfg.AttemptGuardTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(transport.Connection), nil
	case <-timer.C:
		return nil, errGuardTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dial performs the single dial attempt shared by every waiter on a
// flight. It re-checks capacity once more before dialing, since another
// flight may have completed while this one was queued behind the
// singleflight group's internal lock.
func (m *poolManager) dial(endpoint model.Endpoint, uri model.GatewayURI, ent *entry) (transport.Connection, error) {
	if conn, ok := ent.pick(m.cfg.MaxConnectionsPerEndpoint); ok && conn.IsValid() {
		return conn, nil
	}

	start := time.Now()
	dialed, err := m.factory.Connect(context.Background(), endpoint)
	if err != nil {
		ent.markFailure(time.Now())
		m.cfg.Recorder.DialAttempt(endpoint.String(), false, time.Since(start))
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectionFailed, endpoint, err)
	}
	m.cfg.Recorder.DialAttempt(endpoint.String(), true, time.Since(start))

	// Wrapped so that center.BucketTable can take a weak.Pointer to the
	// exact allocation this pool holds a strong reference to.
	conn := transport.Connection(&transport.Handle{Connection: dialed})

	ent.clearFailure()
	ent.add(conn)

	m.cfg.Recorder.ConnectionOpened(endpoint.String())
	if m.hooks.OnOpened != nil {
		m.hooks.OnOpened(endpoint)
	}

	go m.runConnection(endpoint, uri, ent, conn)

	return conn, nil
}

// runConnection drives conn's read loop until it closes, then evicts it
// from the pool exactly once.
func (m *poolManager) runConnection(endpoint model.Endpoint, uri model.GatewayURI, ent *entry, conn transport.Connection) {
	onReceive := m.hooks.OnReceive
	if onReceive == nil {
		onReceive = func(model.Message) {}
	}

	err := conn.Run(context.Background(), onReceive)

	remaining, _ := ent.remove(conn)
	m.pruneIfEmpty(uri, ent, remaining)
	m.logger.Debug("connection closed", "endpoint", endpoint.String(), "error", err)

	m.cfg.Recorder.ConnectionClosed(endpoint.String())
	if m.hooks.OnClosed != nil {
		m.hooks.OnClosed(endpoint, err)
	}
}

// Remove evicts conn from endpoint's entry and closes it, if it is still
// present. A second call for an already-removed connection is a no-op
// (SPEC_FULL.md §4.1 tie-breaks).
func (m *poolManager) Remove(endpoint model.Endpoint, conn transport.Connection) {
	uri := endpoint.AsGatewayURI()
	v, ok := m.entries.Load(uri)
	if !ok {
		return
	}
	ent := v.(*entry)
	remaining, found := ent.remove(conn)
	if !found {
		return
	}
	conn.Close(ErrConnectionAborted)
	m.pruneIfEmpty(uri, ent, remaining)
}

// pruneIfEmpty removes ent from the map once its connection set has
// drained to zero, so an endpoint that comes and goes doesn't leak a
// map entry forever (SPEC_FULL.md §4.1: "An entry whose connection set
// becomes empty must be removed from the map").
func (m *poolManager) pruneIfEmpty(uri model.GatewayURI, ent *entry, remaining int) {
	if remaining == 0 {
		m.entries.CompareAndDelete(uri, ent)
	}
}

// Abort drops every connection to endpoint, closing each with
// ErrConnectionAborted, and removes the entry so a future GetConnection
// dials fresh.
func (m *poolManager) Abort(endpoint model.Endpoint) {
	uri := endpoint.AsGatewayURI()
	v, loaded := m.entries.LoadAndDelete(uri)
	if !loaded {
		return
	}
	ent := v.(*entry)
	for _, conn := range ent.snapshot() {
		conn.Close(ErrConnectionAborted)
	}
}

// Close closes every pooled connection and blocks until the pool drains
// or ctx is cancelled, logging a warning on each CloseWarnInterval tick
// while connections remain (grounded on the teacher's drain-and-wait
// shutdown in internal/connection/manager.go).
func (m *poolManager) Close(ctx context.Context) error {
	m.closed.Store(true)
	close(m.closing)

	m.entries.Range(func(_, v interface{}) bool {
		ent := v.(*entry)
		for _, conn := range ent.snapshot() {
			conn.Close(ErrConnectionAborted)
		}
		return true
	})

	pollTicker := time.NewTicker(m.cfg.ClosePollInterval)
	defer pollTicker.Stop()
	warnTicker := time.NewTicker(m.cfg.CloseWarnInterval)
	defer warnTicker.Stop()

	for {
		if m.ConnectionCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-warnTicker.C:
			m.logger.Warn("connection manager still draining", "remaining", m.ConnectionCount())
		case <-pollTicker.C:
		}
	}
}

// ConnectionCount returns a best-effort total across every endpoint.
func (m *poolManager) ConnectionCount() int {
	total := 0
	m.entries.Range(func(_, v interface{}) bool {
		total += v.(*entry).len()
		return true
	})
	return total
}

// ConnectedEndpoints returns the gateway URIs with at least one live
// connection.
func (m *poolManager) ConnectedEndpoints() []model.GatewayURI {
	var out []model.GatewayURI
	m.entries.Range(func(k, v interface{}) bool {
		if v.(*entry).len() > 0 {
			out = append(out, k.(model.GatewayURI))
		}
		return true
	})
	return out
}
