package center

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/transport"
)

// Center is the default ClientMessageCenter (SPEC_FULL.md §4.2-§4.6):
// bucketed sticky routing over a ConnectionPool, an inbound queue with
// optional per-category synchronous handlers, and gateway-count
// transition notifications.
//
// Grounded on the teacher's router.Router for the single-reader
// dispatch-loop shape and registryImpl for the Start/Stop idiom,
// generalized from market data fan-out to request/response routing.
type Center struct {
	cfg      Config
	pool     ConnectionPool
	gateways GatewayLocator
	listener StatusListener
	logger   *slog.Logger

	lifecycle lifecycle
	buckets   *bucketTable
	handlers  *handlerTable
	inbound   *growableQueue

	numMessages  atomic.Uint64
	gatewayCount atomic.Int64

	myAddress model.Endpoint
	clientID  atomic.Pointer[clientIdentity]
}

type clientIdentity struct {
	id   model.ActorId
	kind model.ClientIdKind
}

// Reader is the single consumer endpoint of the inbound queue.
// Categories are not demultiplexed here: every caller of GetReader
// shares the same underlying queue, a historical artifact spec.md
// preserves rather than fixes.
type Reader struct {
	queue *growableQueue
}

// Read blocks until a message is available or the queue has closed with
// nothing left to drain.
func (r *Reader) Read() (model.Message, bool) {
	return r.queue.read()
}

// NewCenter constructs a Center. listener may be nil, in which case
// gateway-count transitions are simply not reported anywhere.
func NewCenter(cfg Config, pool ConnectionPool, gateways GatewayLocator, listener StatusListener, myAddress model.Endpoint, clientID model.ActorId, logger *slog.Logger) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	c := &Center{
		cfg:       cfg,
		pool:      pool,
		gateways:  gateways,
		listener:  listener,
		logger:    logger,
		buckets:   newBucketTable(cfg.Buckets),
		handlers:  newHandlerTable(),
		inbound:   newGrowableQueue(256),
		myAddress: myAddress,
	}
	c.clientID.Store(&clientIdentity{id: clientID, kind: model.ClientIdKindClient})
	return c
}

// Start transitions Constructed -> Running. Start(); Start() is
// observationally equivalent to Start() (SPEC_FULL.md §8 property 6).
func (c *Center) Start() error {
	return c.lifecycle.start()
}

// Stop transitions Constructed or Running -> Stopped, closing the
// inbound queue and stopping the gateway manager exactly once.
// Stop(); Stop() is observationally equivalent to Stop().
func (c *Center) Stop(ctx context.Context) error {
	if !c.lifecycle.stop() {
		return nil
	}
	c.inbound.close()
	if c.gateways != nil {
		return c.gateways.Stop(ctx)
	}
	return nil
}

// Dispose is an alias for Stop, retained for contract compatibility
// with callers that distinguish the two names (SPEC_FULL.md §6).
func (c *Center) Dispose(ctx context.Context) error {
	return c.Stop(ctx)
}

// Running reports whether the center is currently accepting sends.
func (c *Center) Running() bool { return c.lifecycle.isRunning() }

// MyAddress returns this client's own endpoint identity.
func (c *Center) MyAddress() model.Endpoint { return c.myAddress }

// ClientId returns the current client identity.
func (c *Center) ClientId() model.ActorId { return c.clientID.Load().id }

// SendQueueLength and ReceiveQueueLength are retained for contract
// compatibility; this implementation has no per-send queueing, so both
// are always 0 (SPEC_FULL.md §6).
func (c *Center) SendQueueLength() int    { return 0 }
func (c *Center) ReceiveQueueLength() int { return 0 }

// UpdateClientId transitions the client identity from Client to
// GeoClient. Any other transition fails with ErrInvalidState
// (SPEC_FULL.md §6).
func (c *Center) UpdateClientId(newID model.ActorId) error {
	current := c.clientID.Load()
	if current.kind != model.ClientIdKindClient {
		return ErrInvalidState
	}
	fresh := &clientIdentity{id: newID, kind: model.ClientIdKindGeoClient}
	if !c.clientID.CompareAndSwap(current, fresh) {
		return ErrInvalidState
	}
	return nil
}

// RegisterLocalMessageHandler installs h as the synchronous handler for
// category. Last writer wins; there is no removal API.
func (c *Center) RegisterLocalMessageHandler(category model.Category, h Handler) {
	c.handlers.register(category, h)
}

// GetReader returns the inbound queue's single reader. category is
// accepted but ignored, per the historical signature spec.md §4.3
// preserves.
func (c *Center) GetReader(category model.Category) *Reader {
	return &Reader{queue: c.inbound}
}

// OnReceivedMessage delivers msg to its category handler if one is
// registered, otherwise enqueues it on the inbound queue. Messages may
// be enqueued even before Start() (SPEC_FULL.md §4.5); only a Stopped
// center drops them.
func (c *Center) OnReceivedMessage(msg model.Message) {
	if c.lifecycle.isStopped() {
		c.logger.Warn("dropping inbound message: center stopped", "message_id", msg.ID)
		return
	}

	if h, ok := c.handlers.lookup(msg.Category); ok {
		h(msg)
		return
	}

	if !c.inbound.tryWrite(msg) {
		c.logger.Warn("dropping inbound message: queue closed", "message_id", msg.ID)
	}
}

// RejectMessage synthesizes a rejection response and routes it through
// the normal inbound path, per SPEC_FULL.md §4.4.
func (c *Center) RejectMessage(msg model.Message, reason string, cause error) {
	if !c.lifecycle.isRunning() {
		return
	}
	if msg.Direction != model.DirectionRequest {
		c.logger.Warn("dropping non-request rejection", "message_id", msg.ID, "reason", reason)
		return
	}
	c.cfg.Recorder.MessageRejected(msg.Category.String(), reason)
	rejection := createRejectionResponse(msg, model.RejectionUnrecoverable, reason, cause)
	c.OnReceivedMessage(rejection)
}

// SendMessage is fire-and-forget: it returns immediately, dispatching
// synchronously on the bucket-table fast path and asynchronously
// whenever dialing or gateway selection would otherwise block the
// caller (SPEC_FULL.md §4.2).
func (c *Center) SendMessage(msg model.Message) {
	if !c.lifecycle.isRunning() {
		c.logger.Warn("dropping SendMessage: not running", "message_id", msg.ID)
		return
	}

	if msg.TargetEndpoint == nil && !msg.TargetActor.IsSystemTarget && !msg.IsUnordered {
		i := msg.TargetActor.Bucket(c.buckets.size())
		if conn, _ := c.buckets.resolve(i); conn != nil {
			c.dispatchSend(msg, conn)
			return
		}
	}

	go c.selectAndSend(msg, 0)
}

// selectAndSend runs the full rule-1/2/3 priority selection
// (SPEC_FULL.md §4.2) and dispatches the send. attempt bounds the
// "restart the whole selection" retry spec.md describes for a dial
// failure mid-selection.
func (c *Center) selectAndSend(msg model.Message, attempt int) {
	if !c.lifecycle.isRunning() {
		return
	}
	if attempt >= c.cfg.SelectionRetryLimit {
		c.RejectMessage(msg, "No gateways available", nil)
		return
	}

	ctx := context.Background()

	// Rule 1: pinned target.
	if msg.TargetEndpoint != nil {
		endpoint := *msg.TargetEndpoint
		if c.isLive(endpoint.AsGatewayURI()) {
			conn, err := c.pool.GetConnection(ctx, endpoint)
			if err != nil {
				c.gateways.MarkAsDead(endpoint.AsGatewayURI())
				c.selectAndSend(msg, attempt+1)
				return
			}
			c.dispatchSend(msg, conn)
			return
		}
	}

	// Rule 2: unordered or system-target round robin.
	if msg.TargetActor.IsSystemTarget || msg.IsUnordered {
		live := c.gateways.GetLiveGateways()
		if len(live) == 0 {
			c.RejectMessage(msg, "No gateways available", nil)
			return
		}
		idx := c.numMessages.Add(1) % uint64(len(live))
		endpoint, err := parseGatewayURI(live[idx])
		if err != nil {
			c.RejectMessage(msg, "No gateways available", err)
			return
		}
		conn, err := c.pool.GetConnection(ctx, endpoint)
		if err != nil {
			c.gateways.MarkAsDead(endpoint.AsGatewayURI())
			c.selectAndSend(msg, attempt+1)
			return
		}
		c.dispatchSend(msg, conn)
		return
	}

	// Rule 3: sticky bucket.
	i := msg.TargetActor.Bucket(c.buckets.size())
	if conn, _ := c.buckets.resolve(i); conn != nil {
		c.dispatchSend(msg, conn)
		return
	}

	uri, err := c.gateways.GetLiveGateway()
	if err != nil {
		c.RejectMessage(msg, "No gateways available", err)
		return
	}
	endpoint, err := parseGatewayURI(uri)
	if err != nil {
		c.RejectMessage(msg, "No gateways available", err)
		return
	}

	conn, err := c.pool.GetConnection(ctx, endpoint)
	if err != nil {
		c.gateways.MarkAsDead(uri)
		c.selectAndSend(msg, attempt+1)
		return
	}

	installed := c.installBucket(i, conn)
	c.dispatchSend(msg, installed)
}

// installBucket performs the compare-and-set install loop described in
// SPEC_FULL.md §4.2 rule 3: keep retrying with conn until either the
// install succeeds or a concurrently-installed live connection is
// adopted instead.
func (c *Center) installBucket(i int, conn transport.Connection) transport.Connection {
	handle, ok := conn.(*transport.Handle)
	if !ok {
		handle = &transport.Handle{Connection: conn}
	}
	for {
		_, observed := c.buckets.resolve(i)
		adopted, installed := c.buckets.install(i, observed, handle)
		if installed {
			return adopted
		}
	}
}

func (c *Center) dispatchSend(msg model.Message, conn transport.Connection) {
	start := time.Now()
	if err := conn.Send(msg); err == nil {
		c.cfg.Recorder.MessageSent(msg.Category.String(), time.Since(start))
		return
	}

	if msg.TargetEndpoint != nil {
		reason := fmt.Sprintf("Target silo %s is unavailable", msg.TargetEndpoint.String())
		c.RejectMessage(msg, reason, ErrRaceLost)
		return
	}

	time.AfterFunc(c.cfg.SendRetryDelay, func() {
		c.SendMessage(msg)
	})
}

func (c *Center) isLive(uri model.GatewayURI) bool {
	for _, live := range c.gateways.GetLiveGateways() {
		if live == uri {
			return true
		}
	}
	return false
}

// OnConnectionOpened is the hook a ConnectionFactory's dialed connection
// fires on successful open (SPEC_FULL.md §4.6).
func (c *Center) OnConnectionOpened() {
	count := c.gatewayCount.Add(1)
	c.cfg.Recorder.GatewayCountChanged(int(count))
	if c.listener != nil {
		c.listener.GatewayCountChanged(int(count), int(count-1))
	}
}

// OnConnectionClosed is the hook a connection fires when it goes
// invalid (SPEC_FULL.md §4.6).
func (c *Center) OnConnectionClosed() {
	count := c.gatewayCount.Add(-1)
	c.cfg.Recorder.GatewayCountChanged(int(count))
	if c.listener == nil {
		return
	}
	if count == 0 {
		c.listener.ClusterConnectionLost()
	}
	c.listener.GatewayCountChanged(int(count), int(count+1))
}

// GatewayCount returns the current count of open connections, as
// maintained purely through the OnConnectionOpened/Closed hooks
// (SPEC_FULL.md §8 property 5).
func (c *Center) GatewayCount() int {
	return int(c.gatewayCount.Load())
}

// parseGatewayURI splits a bare "host:port" GatewayURI into an Endpoint.
// GatewayManager tracks membership without a generation; connections
// dialed from it always carry generation 0.
func parseGatewayURI(uri model.GatewayURI) (model.Endpoint, error) {
	s := string(uri)
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return model.Endpoint{}, fmt.Errorf("malformed gateway uri %q", s)
	}
	port, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("malformed gateway uri %q: %w", s, err)
	}
	return model.Endpoint{Host: s[:idx], Port: port}, nil
}
