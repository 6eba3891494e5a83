package connpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/transport"
)

// fakeConnection is a minimal transport.Connection double for exercising
// the pool's bookkeeping without a real socket.
type fakeConnection struct {
	endpoint model.Endpoint
	mu       sync.Mutex
	valid    bool
	runBlock chan struct{}
}

func newFakeConnection(endpoint model.Endpoint) *fakeConnection {
	return &fakeConnection{endpoint: endpoint, valid: true, runBlock: make(chan struct{})}
}

func (f *fakeConnection) Endpoint() model.Endpoint { return f.endpoint }
func (f *fakeConnection) Send(model.Message) error { return nil }

func (f *fakeConnection) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}

func (f *fakeConnection) Close(reason error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.valid {
		return nil
	}
	f.valid = false
	select {
	case <-f.runBlock:
	default:
		close(f.runBlock)
	}
	return nil
}

func (f *fakeConnection) Run(ctx context.Context, onReceive func(model.Message)) error {
	select {
	case <-f.runBlock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fakeFactory counts dial attempts and can be configured to fail the
// first N calls, to exercise the cooldown path.
type fakeFactory struct {
	failCount atomic.Int64
	dials     atomic.Int64
}

func (f *fakeFactory) Connect(ctx context.Context, endpoint model.Endpoint) (transport.Connection, error) {
	f.dials.Add(1)
	if f.failCount.Add(-1) >= 0 {
		return nil, errors.New("simulated dial failure")
	}
	return newFakeConnection(endpoint), nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ConnectRetryDelay = 50 * time.Millisecond
	cfg.AttemptGuardTimeout = 200 * time.Millisecond
	cfg.ClosePollInterval = 5 * time.Millisecond
	cfg.CloseWarnInterval = time.Hour
	return cfg
}

func TestManager_GetConnection_ReturnsSameConnectionAtCapacity(t *testing.T) {
	factory := &fakeFactory{}
	m := NewManager(factory, Hooks{}, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	c1, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	c2, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if c1 != c2 {
		t.Error("expected MaxConnectionsPerEndpoint=1 to reuse the same connection")
	}
	if factory.dials.Load() != 1 {
		t.Errorf("expected exactly one dial, got %d", factory.dials.Load())
	}
}

func TestManager_GetConnection_ConcurrentCallersShareOneDial(t *testing.T) {
	factory := &fakeFactory{}
	m := NewManager(factory, Hooks{}, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := m.GetConnection(context.Background(), endpoint)
			errs[idx] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if factory.dials.Load() != 1 {
		t.Errorf("expected at most one dial across %d concurrent callers, got %d", n, factory.dials.Load())
	}
}

func TestManager_GetConnection_CooldownAfterFailure(t *testing.T) {
	factory := &fakeFactory{}
	factory.failCount.Store(1)
	cfg := testConfig()
	cfg.ConnectRetryDelay = 200 * time.Millisecond
	m := NewManager(factory, Hooks{}, cfg, nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	_, err := m.GetConnection(context.Background(), endpoint)
	if err == nil {
		t.Fatal("expected first dial to fail")
	}

	_, err = m.GetConnection(context.Background(), endpoint)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("expected a cooldown fast-fail, got %v", err)
	}

	time.Sleep(cfg.ConnectRetryDelay + 50*time.Millisecond)

	conn, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("expected dial to succeed after cooldown expires, got %v", err)
	}
	if conn == nil {
		t.Fatal("expected a connection")
	}
}

func TestManager_Remove_IsIdempotent(t *testing.T) {
	factory := &fakeFactory{}
	m := NewManager(factory, Hooks{}, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	conn, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}

	m.Remove(endpoint, conn)
	if m.ConnectionCount() != 0 {
		t.Errorf("expected pool empty after Remove, got %d", m.ConnectionCount())
	}

	// Second removal of the same connection must not panic or double-close.
	m.Remove(endpoint, conn)
}

func TestManager_Abort_ClosesAllConnections(t *testing.T) {
	factory := &fakeFactory{}
	m := NewManager(factory, Hooks{}, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	conn, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}

	m.Abort(endpoint)

	if conn.IsValid() {
		t.Error("expected connection invalid after Abort")
	}
	if m.ConnectionCount() != 0 {
		t.Errorf("expected pool empty after Abort, got %d", m.ConnectionCount())
	}
}

func TestManager_Close_DrainsConnections(t *testing.T) {
	factory := &fakeFactory{}
	m := NewManager(factory, Hooks{}, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	if _, err := m.GetConnection(context.Background(), endpoint); err != nil {
		t.Fatalf("GetConnection: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after Close, got %d", m.ConnectionCount())
	}
}

func TestManager_OnClosedHookFiresWhenConnectionDrops(t *testing.T) {
	factory := &fakeFactory{}
	var closedEndpoint model.Endpoint
	var fired atomic.Bool
	hooks := Hooks{
		OnClosed: func(endpoint model.Endpoint, reason error) {
			closedEndpoint = endpoint
			fired.Store(true)
		},
	}
	m := NewManager(factory, hooks, testConfig(), nil)
	endpoint := model.Endpoint{Host: "gw1", Port: 9000}

	conn, err := m.GetConnection(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}

	conn.Close(nil)

	deadline := time.Now().Add(time.Second)
	for !fired.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !fired.Load() {
		t.Fatal("expected OnClosed hook to fire")
	}
	if closedEndpoint != endpoint {
		t.Errorf("expected OnClosed endpoint %v, got %v", endpoint, closedEndpoint)
	}
}
