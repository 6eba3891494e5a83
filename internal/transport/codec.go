package transport

import (
	"encoding/json"
	"fmt"

	"github.com/arjunv/actorlink/internal/model"
	"github.com/google/uuid"
)

// wireMessage is the JSON envelope the default codec uses. It is not a
// specified wire protocol (SPEC_FULL.md §1 leaves framing out of scope);
// it exists so cmd/client and the test suite have something concrete to
// send over the wire.
type wireMessage struct {
	ID          uuid.UUID       `json:"id"`
	Category    model.Category  `json:"category"`
	Direction   model.Direction `json:"direction"`
	TargetKey   string          `json:"target_key"`
	IsSystem    bool            `json:"is_system"`
	IsUnordered bool            `json:"is_unordered"`
	Payload     []byte          `json:"payload"`
}

// JSONCodec is the default Codec: a JSON envelope with no length prefix
// beyond what gorilla/websocket already frames for us at the transport
// level.
type JSONCodec struct{}

func (JSONCodec) Encode(msg model.Message) ([]byte, error) {
	wire := wireMessage{
		ID:          msg.ID,
		Category:    msg.Category,
		Direction:   msg.Direction,
		TargetKey:   msg.TargetActor.Key,
		IsSystem:    msg.TargetActor.IsSystemTarget,
		IsUnordered: msg.IsUnordered,
		Payload:     msg.Payload,
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(frame []byte) (model.Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(frame, &wire); err != nil {
		return model.Message{}, fmt.Errorf("decode message: %w", err)
	}

	return model.Message{
		ID:        wire.ID,
		Category:  wire.Category,
		Direction: wire.Direction,
		TargetActor: model.ActorId{
			Key:            wire.TargetKey,
			IsSystemTarget: wire.IsSystem,
		},
		IsUnordered: wire.IsUnordered,
		Payload:     wire.Payload,
	}, nil
}
