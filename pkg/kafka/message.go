package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a producer-side Kafka message with headers.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

// NewEventMessage builds a JSON event message keyed by the given partition
// key, with a fresh event id.
func NewEventMessage(key, eventType, source string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderEventType: eventType,
			HeaderSource:    source,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}
