package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arjunv/actorlink/internal/discovery"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/store"
)

func discoveryServer(t *testing.T, gateways func() []discovery.GatewayInfo) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(discovery.GatewaysResponse{Gateways: gateways()})
	}))
}

func testManagerConfig() Config {
	return Config{
		ReconcileInterval:     30 * time.Millisecond,
		Concurrency:           4,
		QuarantineGracePeriod: 24 * time.Hour,
	}
}

func TestManager_Start_LoadsLiveSetFromDiscovery(t *testing.T) {
	server := discoveryServer(t, func() []discovery.GatewayInfo {
		return []discovery.GatewayInfo{
			{Host: "gw1", Port: 9000, Alive: true},
			{Host: "gw2", Port: 9000, Alive: false},
		}
	})
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	m := NewManager(testManagerConfig(), client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	live := m.GetLiveGateways()
	if len(live) != 1 || live[0] != model.GatewayURI("gw1:9000") {
		t.Errorf("expected only the alive gateway, got %v", live)
	}
}

func TestManager_GetLiveGateway_ErrorsWhenEmpty(t *testing.T) {
	server := discoveryServer(t, func() []discovery.GatewayInfo { return nil })
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	m := NewManager(testManagerConfig(), client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	if _, err := m.GetLiveGateway(); err != ErrNoGatewayAvailable {
		t.Errorf("expected ErrNoGatewayAvailable, got %v", err)
	}
}

func TestManager_Reconcile_PicksUpNewAndDroppedGateways(t *testing.T) {
	var round atomic.Int64
	server := discoveryServer(t, func() []discovery.GatewayInfo {
		if round.Load() == 0 {
			return []discovery.GatewayInfo{{Host: "gw1", Port: 9000, Alive: true}}
		}
		return []discovery.GatewayInfo{{Host: "gw2", Port: 9000, Alive: true}}
	})
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	m := NewManager(testManagerConfig(), client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	round.Store(1)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		live := m.GetLiveGateways()
		if len(live) == 1 && live[0] == model.GatewayURI("gw2:9000") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected live set to reconcile to gw2:9000, got %v", m.GetLiveGateways())
}

func TestManager_MarkAsDead_SurvivesReconciliation(t *testing.T) {
	server := discoveryServer(t, func() []discovery.GatewayInfo {
		return []discovery.GatewayInfo{{Host: "gw1", Port: 9000, Alive: true}}
	})
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	m := NewManager(testManagerConfig(), client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	m.MarkAsDead(model.GatewayURI("gw1:9000"))

	// Several reconciliation ticks pass here (interval 30ms); discovery
	// keeps reporting gw1 alive the whole time, but the grace period is
	// 24h, so the quarantine must not be erased by the wholesale refresh.
	time.Sleep(150 * time.Millisecond)

	if live := m.GetLiveGateways(); len(live) != 0 {
		t.Errorf("expected gw1 to remain quarantined across reconciliation, got %v", live)
	}
}

func TestManager_MarkAsDead_ReAdmitsAfterGracePeriod(t *testing.T) {
	server := discoveryServer(t, func() []discovery.GatewayInfo {
		return []discovery.GatewayInfo{{Host: "gw1", Port: 9000, Alive: true}}
	})
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	cfg := testManagerConfig()
	cfg.ReconcileInterval = 10 * time.Millisecond
	cfg.QuarantineGracePeriod = 20 * time.Millisecond
	m := NewManager(cfg, client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	m.MarkAsDead(model.GatewayURI("gw1:9000"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		live := m.GetLiveGateways()
		if len(live) == 1 && live[0] == model.GatewayURI("gw1:9000") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected gw1 to be re-admitted after the grace period, got %v", m.GetLiveGateways())
}

func TestManager_MarkAsDead_RemovesImmediately(t *testing.T) {
	server := discoveryServer(t, func() []discovery.GatewayInfo {
		return []discovery.GatewayInfo{{Host: "gw1", Port: 9000, Alive: true}}
	})
	defer server.Close()

	client := discovery.NewClient(server.URL, nil)
	cfg := testManagerConfig()
	cfg.ReconcileInterval = time.Hour
	m := NewManager(cfg, client, store.NoopStore{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop(context.Background())

	m.MarkAsDead(model.GatewayURI("gw1:9000"))

	if len(m.GetLiveGateways()) != 0 {
		t.Errorf("expected live set empty after MarkAsDead, got %v", m.GetLiveGateways())
	}
}
