package publish

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits each snapshot as one message keyed by run id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
		topic: topic,
	}
}

// NewKafkaFromEnv returns nil when KAFKA_BROKERS is not set.
func NewKafkaFromEnv(topic string) *KafkaPublisher {
	raw := os.Getenv("KAFKA_BROKERS")
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return NewKafkaPublisher(brokers, topic)
}

func (k *KafkaPublisher) Name() string { return "kafka:" + k.topic }

func (k *KafkaPublisher) Publish(ctx context.Context, snap types.Snapshot) error {
	value, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(snap.Metadata.RunID),
		Value: value,
		Time:  time.Now(),
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
