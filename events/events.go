package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"hiko-crawler/models"
)

// Event types emitted over the deal lifecycle.
const (
	TypeCreated = "hotdeal.created"
	TypeUpdated = "hotdeal.updated"
	TypeExpired = "hotdeal.expired"
	TypeDeleted = "hotdeal.deleted"
)

// Event is one lifecycle notification for a HotDeal.
type Event struct {
	Type       string            `json:"type"`
	DealID     string            `json:"deal_id"`
	Source     models.Source     `json:"source,omitempty"`
	SourceID   string            `json:"source_id,omitempty"`
	Status     models.DealStatus `json:"status,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Deal       *models.HotDeal   `json:"deal,omitempty"`
}

// ForDeal builds an event carrying a snapshot of deal.
func ForDeal(eventType string, deal *models.HotDeal, at time.Time) Event {
	return Event{
		Type:       eventType,
		DealID:     deal.ID,
		Source:     deal.Source,
		SourceID:   deal.SourceID,
		Status:     deal.Status,
		OccurredAt: at,
		Deal:       deal,
	}
}

// Key is the partition key: deals from the same post always land on the
// same partition.
func (e Event) Key() string {
	if e.Source != "" && e.SourceID != "" {
		return string(e.Source) + ":" + e.SourceID
	}
	return e.DealID
}

type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON records keyed by source:source_id.
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaPublisherWith is only for tests to inject a fake writer.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, evts ...Event) error {
	if len(evts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		b, err := json.Marshal(&e)
		if err != nil {
			return fmt.Errorf("events: marshal %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.Key()),
			Value:   b,
			Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
			Time:    e.OccurredAt,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("events: write: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// Recorder keeps published events in memory. Used by tests and by the
// memory store setup.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Fail   error
}

func (r *Recorder) Publish(_ context.Context, evts ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.events = append(r.events, evts...)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
