// Package kafka publishes turn events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	segkafka "github.com/segmentio/kafka-go"

	"github.com/demoforge/demoforge/pkg/eventstream"
)

// Config holds the Kafka connection settings.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// Publisher implements eventstream.Publisher on a Kafka topic. Events are
// keyed by session ID so one session's turns stay ordered within a partition.
type Publisher struct {
	writer *segkafka.Writer
	logger *slog.Logger
}

var _ eventstream.Publisher = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher. The writer connects lazily on the
// first publish.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		writer: &segkafka.Writer{
			Addr:                   segkafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &segkafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}, nil
}

// PublishTurn marshals the event and writes it keyed by session ID.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, segkafka.Message{
		Key:   []byte(event.Source.SessionID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing turn event: %w", err)
	}

	p.logger.Debug("published turn event",
		"event_id", event.EventID,
		"session_id", event.Source.SessionID,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
