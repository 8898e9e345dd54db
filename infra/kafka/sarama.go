package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// SaramaProducer publishes through a sarama SyncProducer.
type SaramaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func NewSaramaProducer(brokers []string, topic string) (*SaramaProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "sarama producer")
	}
	return WrapSarama(producer, topic), nil
}

// WrapSarama adapts an existing producer, e.g. sarama/mocks in tests.
func WrapSarama(producer sarama.SyncProducer, topic string) *SaramaProducer {
	return &SaramaProducer{producer: producer, topic: topic}
}

// Publish sends one message. sarama's sync producer has no context support,
// so ctx is only checked before sending.
func (p *SaramaProducer) Publish(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}
