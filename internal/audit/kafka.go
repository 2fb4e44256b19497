package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the slice of *kgo.Client the sink uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaSink publishes history events to a Kafka topic, keyed by empkey so a
// company's events stay ordered within a partition.
type KafkaSink struct {
	client producer
	topic  string
}

// NewKafkaSink connects to brokers lazily; the first publish dials.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (k *KafkaSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(strconv.FormatInt(event.EmpKey, 10)),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce history event: %w", err)
	}
	return nil
}

func (k *KafkaSink) Close() {
	k.client.Close()
}
