package model

import (
	"fmt"

	"github.com/google/uuid"
)

// GatewayURI is the bare host:port form a GatewayManager tracks in its
// live set. It carries no generation, unlike Endpoint.
type GatewayURI string

// Endpoint identifies one gateway's address. Two endpoints are equal iff
// every field matches, including Generation: a gateway process that
// restarts at the same host:port gets a new generation so stale
// connections and stale bucket-table entries don't alias onto it.
type Endpoint struct {
	Host       string
	Port       int
	Generation uint64
}

// String renders a debug form including the generation.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d#%d", e.Host, e.Port, e.Generation)
}

// AsGatewayURI renders the bare host:port form used for GatewayManager
// live-set membership.
func (e Endpoint) AsGatewayURI() GatewayURI {
	return GatewayURI(fmt.Sprintf("%s:%d", e.Host, e.Port))
}

// Equal reports whether two endpoints name the same dial target and
// generation.
func (e Endpoint) Equal(other Endpoint) bool {
	return e.Host == other.Host && e.Port == other.Port && e.Generation == other.Generation
}

// ActorId identifies an addressable actor. IsSystemTarget marks actors
// that belong to the runtime itself (cluster management, membership
// gossip) rather than to application grains; such targets are routed
// unordered (see center.Center.SendMessage rule 2).
type ActorId struct {
	Key            string
	IsSystemTarget bool
}

// ClientIdKind distinguishes the two identity kinds UpdateClientId may
// transition between.
type ClientIdKind int

const (
	ClientIdKindClient ClientIdKind = iota
	ClientIdKindGeoClient
)

// Category is the dispatch key used by the message center's handler
// table and inbound queue.
type Category int

const (
	CategoryRequest Category = iota
	CategoryResponse
	CategorySystem
	CategoryUnrecoverable
)

func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "Request"
	case CategoryResponse:
		return "Response"
	case CategorySystem:
		return "System"
	case CategoryUnrecoverable:
		return "Unrecoverable"
	default:
		return "Unknown"
	}
}

// Direction describes whether a Message is a one-shot request, a reply to
// one, or fire-and-forget.
type Direction int

const (
	DirectionRequest Direction = iota
	DirectionResponse
	DirectionOneWay
)

func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "Request"
	case DirectionResponse:
		return "Response"
	case DirectionOneWay:
		return "OneWay"
	default:
		return "Unknown"
	}
}

// RejectionKind classifies why RejectMessage synthesized a response.
type RejectionKind int

const (
	RejectionUnrecoverable RejectionKind = iota
	RejectionGatewayTooBusy
)

// Message is the opaque record the message center routes. Payload framing
// is out of scope for this subsystem (see SPEC_FULL.md §1); Payload is
// carried as an already-serialized blob.
type Message struct {
	ID             uuid.UUID
	Category       Category
	Direction      Direction
	TargetActor    ActorId
	TargetEndpoint *Endpoint
	IsUnordered    bool
	Payload        []byte
}

// NewMessage mints a Message with a fresh correlation ID.
func NewMessage(category Category, direction Direction, target ActorId, payload []byte) Message {
	return Message{
		ID:          uuid.New(),
		Category:    category,
		Direction:   direction,
		TargetActor: target,
		Payload:     payload,
	}
}

// WithTargetEndpoint returns a copy of m pinned to endpoint.
func (m Message) WithTargetEndpoint(e Endpoint) Message {
	m.TargetEndpoint = &e
	return m
}
