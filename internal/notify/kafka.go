package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
)

const (
	// EventListingScored is the event type carried in every message header.
	EventListingScored = "listing.scored"

	channelKafka = "kafka"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements Notifier by emitting a listing.scored event for
// every scored listing, keyed by listing ID.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		now:    time.Now,
	}
}

// NotifyScored publishes a single event.
func (p *KafkaPublisher) NotifyScored(ctx context.Context, s *ScoredListing) error {
	msg, err := p.message(s)
	if err != nil {
		return err
	}
	return p.write(ctx, msg)
}

// NotifyBatch publishes one event per item in a single write.
func (p *KafkaPublisher) NotifyBatch(ctx context.Context, items []ScoredListing) error {
	if len(items) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(items))
	for i := range items {
		msg, err := p.message(&items[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, msgs...)
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) message(s *ScoredListing) (kafka.Message, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling scored listing %s: %w", s.ListingID, err)
	}
	return kafka.Message{
		Key:   []byte(s.ListingID),
		Value: payload,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventListingScored)},
			{Key: "grade", Value: []byte(s.Grade)},
		},
	}, nil
}

func (p *KafkaPublisher) write(ctx context.Context, msgs ...kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(channelKafka).Inc()
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(channelKafka).Add(float64(len(msgs)))
	return nil
}
