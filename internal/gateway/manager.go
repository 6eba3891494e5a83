package gateway

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/arjunv/actorlink/internal/discovery"
	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/store"
)

// liveSetManager is the default Manager: an in-memory live set kept
// fresh by discovery.Client, optionally seeded from and persisted to a
// store.Store so a restart doesn't have to wait on a cold discovery
// round-trip before GetLiveGateway can answer (SPEC_FULL.md §4.7).
//
// Grounded on the teacher's registryImpl split between a blocking
// initialSync and a ticker-driven reconciliationLoop
// (internal/market/impl.go, internal/market/sync.go).
type liveSetManager struct {
	cfg       Config
	discovery *discovery.Client
	seedStore store.Store
	logger    *slog.Logger

	mu         sync.RWMutex
	live       map[model.GatewayURI]struct{}
	quarantine map[model.GatewayURI]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager constructs a Manager. seedStore may be a store.NoopStore if
// no membership-cache persistence is configured.
func NewManager(cfg Config, discoveryClient *discovery.Client, seedStore store.Store, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if seedStore == nil {
		seedStore = store.NoopStore{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &liveSetManager{
		cfg:        cfg,
		discovery:  discoveryClient,
		seedStore:  seedStore,
		logger:     logger,
		live:       make(map[model.GatewayURI]struct{}),
		quarantine: make(map[model.GatewayURI]time.Time),
	}
}

func (m *liveSetManager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.initialSync(m.ctx); err != nil {
		m.cancel()
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconciliationLoop(m.ctx)
	}()

	m.logger.Info("gateway manager started", "live_count", len(m.GetLiveGateways()))
	return nil
}

func (m *liveSetManager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("gateway manager stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// initialSync fetches live gateways from discovery, falling back to the
// seed cache if discovery fails and a cache is configured (so a cold
// start during a discovery outage still has something to dial).
func (m *liveSetManager) initialSync(ctx context.Context) error {
	uris, err := m.discovery.GetLiveURIs(ctx)
	if err != nil {
		m.logger.Warn("initial discovery sync failed, falling back to seed cache", "error", err)
		seeded, seedErr := m.seedStore.LoadSeed(ctx)
		if seedErr != nil || len(seeded) == 0 {
			return err
		}
		uris = seeded
	}

	m.mu.Lock()
	m.live = make(map[model.GatewayURI]struct{}, len(uris))
	for _, u := range uris {
		m.live[u] = struct{}{}
	}
	m.mu.Unlock()

	if saveErr := m.seedStore.SaveSeed(ctx, uris); saveErr != nil {
		m.logger.Debug("failed to persist gateway seed cache", "error", saveErr)
	}

	return nil
}

func (m *liveSetManager) reconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reconcile(ctx)
		}
	}
}

// reconcile re-fetches the live set from discovery, refreshes every
// non-quarantined entry wholesale from that response, and separately
// probes each currently-quarantined endpoint's liveness with a
// bounded-concurrency worker pool: a quarantined endpoint is only
// re-admitted once it has been in quarantine for at least
// QuarantineGracePeriod and is present in this tick's discovery
// response, so MarkAsDead's effect survives more than one
// reconciliation tick (SPEC_FULL.md §4.7; grounded on the
// teacher's poller.pollAll semaphore fan-out).
func (m *liveSetManager) reconcile(ctx context.Context) {
	start := time.Now()

	uris, err := m.discovery.GetLiveURIs(ctx)
	if err != nil {
		m.logger.Warn("reconciliation failed", "error", err)
		return
	}

	freshSet := make(map[model.GatewayURI]struct{}, len(uris))
	for _, u := range uris {
		freshSet[u] = struct{}{}
	}

	m.mu.RLock()
	quarantined := make([]model.GatewayURI, 0, len(m.quarantine))
	for uri := range m.quarantine {
		quarantined = append(quarantined, uri)
	}
	m.mu.RUnlock()

	sem := make(chan struct{}, m.cfg.Concurrency)
	reAdmits := make(chan model.GatewayURI, len(quarantined))
	var wg sync.WaitGroup

	now := time.Now()
	for _, uri := range quarantined {
		wg.Add(1)
		go func(u model.GatewayURI) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			m.mu.RLock()
			quarantinedAt, stillQuarantined := m.quarantine[u]
			m.mu.RUnlock()
			if !stillQuarantined {
				return
			}

			_, seenLive := freshSet[u]
			if seenLive && now.Sub(quarantinedAt) >= m.cfg.QuarantineGracePeriod {
				reAdmits <- u
			}
		}(uri)
	}

	wg.Wait()
	close(reAdmits)

	m.mu.Lock()
	for uri := range reAdmits {
		delete(m.quarantine, uri)
	}
	fresh := make(map[model.GatewayURI]struct{}, len(freshSet))
	for uri := range freshSet {
		if _, stillQuarantined := m.quarantine[uri]; stillQuarantined {
			continue
		}
		fresh[uri] = struct{}{}
	}
	before := len(m.live)
	m.live = fresh
	after := len(fresh)
	m.mu.Unlock()

	if after != before {
		m.cfg.Recorder.GatewayCountChanged(after)
	}

	if saveErr := m.seedStore.SaveSeed(ctx, uris); saveErr != nil {
		m.logger.Debug("failed to persist gateway seed cache", "error", saveErr)
	}

	m.logger.Debug("reconciliation complete",
		"before", before, "after", after, "duration", time.Since(start))
}

func (m *liveSetManager) GetLiveGateway() (model.GatewayURI, error) {
	uris := m.GetLiveGateways()
	if len(uris) == 0 {
		return "", ErrNoGatewayAvailable
	}
	return uris[rand.IntN(len(uris))], nil
}

func (m *liveSetManager) GetLiveGateways() []model.GatewayURI {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.GatewayURI, 0, len(m.live))
	for u := range m.live {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarkAsDead moves uri from the live set into quarantine, stamped with
// the current time. It stays excluded from GetLiveGateway/GetLiveGateways
// until reconcile's probe re-admits it past QuarantineGracePeriod
// (SPEC_FULL.md §4.7).
func (m *liveSetManager) MarkAsDead(uri model.GatewayURI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, uri)
	m.quarantine[uri] = time.Now()
}

// Dispose is an alias for Stop, retained for contract compatibility
// with callers that distinguish the two names (SPEC_FULL.md §6).
func (m *liveSetManager) Dispose(ctx context.Context) error {
	return m.Stop(ctx)
}
