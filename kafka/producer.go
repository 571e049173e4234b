package kafka

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/IBM/sarama"
)

// Producer publishes pipeline events to Kafka
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducerFromEnv connects using KAFKA_BROKERS (comma separated). Returns
// nil without error when no brokers are configured; callers treat a nil
// producer as "event publishing disabled".
func NewProducerFromEnv() (*Producer, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, nil
	}
	return NewProducer(strings.Split(brokers, ","))
}

// NewProducer creates a synchronous producer
func NewProducer(brokers []string) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Producer{producer: producer}, nil
}

// Publish sends one JSON-encoded event to the topic, keyed for partition
// affinity (e.g. user id so one user's events stay ordered)
func (p *Producer) Publish(topic, key string, event interface{}) error {
	if p == nil {
		return nil
	}

	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(b),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	log.Printf("📤 Published to %s: partition=%d, offset=%d", topic, partition, offset)
	return nil
}

// Close shuts the producer down
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
