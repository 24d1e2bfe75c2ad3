package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

const eventKey = "new-offerings"

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Kafka publishes new-offerings events for downstream consumers.
type Kafka struct {
	client producer
	topic  string
}

// NewKafka creates a producer for topic on the given seed brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("notify: kafka brokers and topic are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: creating kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Publish writes the event as JSON. It matches service.OfferingsListener.
func (k *Kafka) Publish(ctx context.Context, event models.NewOfferingsEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: encoding event: %w", err)
	}
	record := &kgo.Record{Topic: k.topic, Key: []byte(eventKey), Value: payload}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("notify: publishing to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
