package center

import (
	"encoding/json"

	"github.com/arjunv/actorlink/internal/model"
)

// rejectionPayload is the shape of a synthesized rejection, JSON-encoded
// into the Payload of the rejection Message.
type rejectionPayload struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Cause  string `json:"cause,omitempty"`
}

// createRejectionResponse stands in for the external MessageFactory
// named in SPEC_FULL.md §6: it synthesizes a Response-direction message
// carrying the rejection, addressed back to the original request's
// target actor so it resolves that caller's waiter through the normal
// inbound path (SPEC_FULL.md §4.4).
func createRejectionResponse(original model.Message, kind model.RejectionKind, reason string, cause error) model.Message {
	payload := rejectionPayload{Reason: reason}
	switch kind {
	case model.RejectionGatewayTooBusy:
		payload.Kind = "GatewayTooBusy"
	default:
		payload.Kind = "Unrecoverable"
	}
	if cause != nil {
		payload.Cause = cause.Error()
	}

	encoded, _ := json.Marshal(payload)

	resp := model.NewMessage(model.CategoryUnrecoverable, model.DirectionResponse, original.TargetActor, encoded)
	resp.ID = original.ID
	return resp
}
