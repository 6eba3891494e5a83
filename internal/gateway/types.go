package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
)

// ErrNoGatewayAvailable is returned by GetLiveGateway when the live set
// is empty (SPEC_FULL.md §7).
var ErrNoGatewayAvailable = errors.New("no gateway available")

// Manager is the GatewayManager contract (SPEC_FULL.md §4.7): a
// continuously reconciled view of which gateways are currently live.
type Manager interface {
	// Start performs the initial blocking sync against discovery, then
	// launches the background reconciliation loop.
	Start(ctx context.Context) error

	// Stop cancels the reconciliation loop and waits for it to exit.
	Stop(ctx context.Context) error

	// GetLiveGateway returns a pseudo-randomly chosen live gateway.
	GetLiveGateway() (model.GatewayURI, error)

	// GetLiveGateways returns every gateway currently considered live,
	// in a stable sorted order.
	GetLiveGateways() []model.GatewayURI

	// MarkAsDead moves uri into quarantine immediately, ahead of the
	// next reconciliation pass, so a connection failure doesn't wait
	// out ReconcileInterval before the manager stops offering it.
	// Quarantined endpoints are only re-admitted once the
	// reconciliation loop has probed them live again past
	// QuarantineGracePeriod (SPEC_FULL.md §4.7) — discovery still
	// reporting them alive on the very next tick does not undo the
	// quarantine by itself.
	MarkAsDead(uri model.GatewayURI)

	// Dispose stops the manager, the contract-compatible name for
	// Stop (SPEC_FULL.md §6).
	Dispose(ctx context.Context) error
}

// Config holds the GatewayManager's tunables (SPEC_FULL.md §4.7).
type Config struct {
	ReconcileInterval time.Duration
	Concurrency       int

	// QuarantineGracePeriod is how long an endpoint must stay in
	// quarantine before reconcile re-admits it to the live set; at that
	// point it must also be present in the current discovery response.
	QuarantineGracePeriod time.Duration

	// Recorder receives live-set-size change events. Left nil, it
	// defaults to metrics.NoopRecorder.
	Recorder metrics.Recorder
}

// DefaultConfig returns spec.md's defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval:     30 * time.Second,
		Concurrency:           4,
		QuarantineGracePeriod: 30 * time.Second,
	}
}
