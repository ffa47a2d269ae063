// Package events publishes domain events to Kafka so downstream services
// (meal planning, notifications, analytics) can react to imports, new
// nutrition plans and calendar changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/JonMunkholm/trainfuel/internal/observability"
)

// Event types.
const (
	WorkoutsImported     = "workouts.imported"
	NutritionPlanCreated = "nutrition.plan_created"
	ScheduleAdjusted     = "schedule.adjusted"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// messageWriter is the subset of the Kafka producer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends events to one topic per event type, named
// "<prefix>.<type>".
type Publisher struct {
	writer      messageWriter
	topicPrefix string
	now         func() time.Time
}

// NewKafkaPublisher creates a Publisher backed by a KafkaProducer.
func NewKafkaPublisher(brokers []string, topicPrefix string) *Publisher {
	return newPublisher(NewKafkaProducer(brokers), topicPrefix)
}

func newPublisher(w messageWriter, topicPrefix string) *Publisher {
	return &Publisher{writer: w, topicPrefix: topicPrefix, now: time.Now}
}

// Topic returns the topic an event type is published to.
func (p *Publisher) Topic(eventType string) string {
	if p.topicPrefix == "" {
		return eventType
	}
	return p.topicPrefix + "." + eventType
}

// Publish wraps payload in an Envelope and writes it keyed by key, so all
// events for one user land on the same partition.
func (p *Publisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}

	err = p.writer.WriteMessages(ctx, p.Topic(eventType), kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(env.ID)},
		},
	})
	observability.RecordEventPublished(eventType, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Close releases the underlying writers.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

// Publish implements core.EventPublisher.
func (NopPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	slog.Debug("event dropped, publishing disabled", "type", eventType, "key", key)
	return nil
}

// Close implements io.Closer.
func (NopPublisher) Close() error { return nil }

// KafkaProducer lazily manages writers per topic.
type KafkaProducer struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages writes messages to topic, creating its writer on first use.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerForTopic(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	p.writers[topic] = w
	return w
}

// Close closes every writer and returns the first error.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
