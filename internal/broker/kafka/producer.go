// Package kafka публикует события об изменениях в Kafka.
package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Producer пишет сообщения в произвольные топики.
type Producer struct {
	w      messageWriter
	closer func() error
}

// NewProducer создаёт асинхронного продюсера для указанных брокеров.
// Publish не ждёт брокер; ошибки доставки пишутся в logger.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           2 * time.Second,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             completionLogger(logger),
	}
	return &Producer{w: w, closer: w.Close}
}

func newProducerWithWriter(w messageWriter) *Producer {
	return &Producer{w: w}
}

func completionLogger(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, m := range messages {
			logger.Warn("kafka delivery failed",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.ByteString("key", m.Key),
			)
		}
	}
}

// Publish отправляет одно сообщение. Ключ определяет партицию.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// Close дожидается отправки буфера и закрывает соединения.
func (p *Producer) Close() error {
	if p.closer == nil {
		return nil
	}
	return errors.Wrap(p.closer(), "kafka close")
}
