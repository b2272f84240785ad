package repository

import (
	"context"
	"time"

	pkgkafka "HedgeDesk/pkg/kafka"
)

// KafkaRebuildPublisher implements RebuildPublisher for Kafka. Each bucket
// replacement emits one event keyed by tenant so downstream consumers see
// replacements for a tenant in order.
type KafkaRebuildPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRebuildPublisher creates a Kafka rebuild publisher.
func NewKafkaRebuildPublisher(producer *pkgkafka.Producer, topic string) *KafkaRebuildPublisher {
	return &KafkaRebuildPublisher{producer: producer, topic: topic}
}

func (p *KafkaRebuildPublisher) PublishRebuilt(ctx context.Context, tenant string, buckets int) error {
	return p.producer.Publish(ctx, p.topic, []byte(tenant), map[string]interface{}{
		"tenant_id":  tenant,
		"buckets":    buckets,
		"rebuilt_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *KafkaRebuildPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
