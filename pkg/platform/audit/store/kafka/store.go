// Package kafka streams audit records to a Kafka topic for downstream
// compliance consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"mcpgate/internal/platform/kafka/producer"
	audit "mcpgate/pkg/platform/audit"
)

// DefaultTopic receives session lifecycle records.
const DefaultTopic = "mcp.session.audit"

// Producer is the subset of producer.Producer the store needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Store implements audit.Store by publishing each record as JSON. Records
// are keyed by session id so a session's history stays on one partition and
// in order.
type Store struct {
	producer Producer
	topic    string
}

func New(p Producer, topic string) *Store {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Store{producer: p, topic: topic}
}

func (s *Store) Append(ctx context.Context, record audit.Record) error {
	if record.ID == "" {
		record.ID = audit.NewRecordID()
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	key := record.SessionID.String()
	if key == "" {
		key = record.CredentialID.String()
	}
	err = s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			"event_type": string(record.Action),
			"category":   string(record.Action.Category()),
			"record_id":  record.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish audit record: %w", err)
	}
	return nil
}
