package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// publishBatchTimeout caps how long a synchronous Publish waits for the
// writer to fill a batch.
const publishBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes events to Kafka, one topic per event type.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
}

// NewKafkaPublisher creates a publisher. Event types missing from
// topicByEvent are written to a topic named after the type.
func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           publishBatchTimeout,
			AllowAutoTopicCreation: true,
		},
		topicByEvent: topicByEvent,
	}, nil
}

func (p *KafkaPublisher) topic(eventType string) string {
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		return mapped
	}
	return eventType
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic(eventType),
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
