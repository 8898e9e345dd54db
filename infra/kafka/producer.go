// Package kafka publishes encoded change events to a Kafka topic. Two
// clients are supported: segmentio/kafka-go and IBM/sarama.
package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	DriverKafkaGo = "kafka-go"
	DriverSarama  = "sarama"
)

// Publisher is satisfied by both producers.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

var ErrUnknownDriver = errors.New("kafka: unknown driver")

// NewPublisher builds the producer for driver.
func NewPublisher(driver string, brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: no topic configured")
	}
	switch driver {
	case DriverKafkaGo:
		return NewProducer(brokers, topic), nil
	case DriverSarama:
		return NewSaramaProducer(brokers, topic)
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", driver)
	}
}

// Producer writes through a synchronous kafka-go Writer.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
