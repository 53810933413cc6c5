// Package publisher ships audit events to Kafka for downstream consumers
// (SIEM, compliance archive). The Postgres store remains the local trail;
// Kafka is the integration surface.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "tenantgate/pkg/platform/audit"
)

// Kafka publishes audit events to a single topic, keyed by owner so one
// applicant's trail stays ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// payload is the JSON structure written to the topic.
type payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
	ActorID       string `json:"actor_id,omitempty"`
	OwnerID       string `json:"owner_id,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Email         string `json:"email,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Kafka{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Append implements audit.Store so the worker can treat Kafka as one more
// sink. The produce is synchronous; the worker already runs off the request
// path.
func (k *Kafka) Append(ctx context.Context, event audit.Event) error {
	p := payload{
		ID:        uuid.NewString(),
		Category:  string(event.Action.Category()),
		Action:    string(event.Action),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Decision:  event.Decision,
		Reason:    event.Reason,
		Email:     event.Email,
		RequestID: event.RequestID,
	}
	if !event.ActorID.IsNil() {
		p.ActorID = event.ActorID.String()
	}
	if !event.OwnerID.IsNil() {
		p.OwnerID = event.OwnerID.String()
	}
	if !event.ApplicationID.IsNil() {
		p.ApplicationID = event.ApplicationID.String()
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	var key []byte
	if p.OwnerID != "" {
		key = []byte(p.OwnerID)
	}

	record := &kgo.Record{Topic: k.topic, Key: key, Value: value}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
