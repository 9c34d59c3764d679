package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordChangeMessage says an investment was created or deleted. It carries
// only the ID; consumers fetch the record itself from the database.
type RecordChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChangeMessage(kind string, id int64) *RecordChangeMessage {
	return &RecordChangeMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON decodes and validates a message body.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != "created" && msg.Kind != "deleted" {
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", msg.ID)
	}
	return &msg, nil
}
