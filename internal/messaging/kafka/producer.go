package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const (
	producerClientID = "checkout-producer"
	// HeaderEventType — заголовок сообщения с типом события. Консьюмеры
	// маршрутизируют по нему, не разбирая payload.
	HeaderEventType = "event-type"

	producerMaxRetries   = 5
	producerRetryBackoff = 100 * time.Millisecond
)

// Producer публикует события заказов в Kafka поверх sarama SyncProducer.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// newProducerConfig настраивает доставку под события заказов: каждое событие
// соответствует оформленному заказу, терять и дублировать их нельзя.
func newProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = producerClientID

	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // Требование идемпотентного продюсера
	config.Producer.Retry.Max = producerMaxRetries
	config.Producer.Retry.Backoff = producerRetryBackoff
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy

	return config
}

// NewProducer подключается к брокерам и возвращает готовый producer.
func NewProducer(brokers []string) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// PublishEvent сериализует событие и отправляет его в topic. Ключом служит
// идентификатор агрегата: события одного заказа попадают в одну партицию и
// сохраняют порядок.
func (p *Producer) PublishEvent(topic, key, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(eventType)},
		},
		Timestamp: time.Now().UTC(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":      topic,
			"key":        key,
			"event_type": eventType,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("send %s event: %w", eventType, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      topic,
		"key":        key,
		"event_type": eventType,
		"partition":  partition,
		"offset":     offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает соединение с брокерами.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
