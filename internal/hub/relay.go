package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

type publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type envelope struct {
	RoomID uint  `json:"room_id"`
	Frame  Frame `json:"frame"`
}

// Relay routes broadcasts through a kafka topic so every instance's hub sees them.
type Relay struct {
	Hub      *Hub
	Producer publisher
	Topic    string
}

func (r *Relay) Broadcast(ctx context.Context, roomID uint, f Frame) error {
	key := strconv.FormatUint(uint64(roomID), 10)
	return r.Producer.PublishEvent(ctx, r.Topic, key, envelope{RoomID: roomID, Frame: f})
}

// Handle is the consumer callback that feeds relayed frames into the local hub.
func (r *Relay) Handle(_ context.Context, m kafka.Message) error {
	var env envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode chat frame: %w", err)
	}
	if env.RoomID == 0 {
		return fmt.Errorf("decode chat frame: missing room id")
	}
	r.Hub.Publish(env.RoomID, env.Frame)
	return nil
}
