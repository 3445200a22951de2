package kafka

import (
	"context"
	"fmt"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
)

// Publisher is the interface the EventPublisher writes through.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	Close() error
}

// EventPublisher wraps gateway events in an EventEnvelope and writes them to
// one topic, keyed by SMILES so events for a molecule share a partition.
type EventPublisher struct {
	producer Publisher
	topic    string
	logger   logging.Logger
}

func NewEventPublisher(producer Publisher, topic string, logger logging.Logger) *EventPublisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

// NewEventPublisherFromConfig builds the producer and, when cfg.CreateTopic is
// set, creates the topic first.
func NewEventPublisherFromConfig(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) (*EventPublisher, error) {
	if cfg.CreateTopic {
		tm, err := NewTopicManager(cfg.Brokers, logger)
		if err != nil {
			return nil, err
		}
		err = tm.EnsureTopic(ctx, TopicConfig{
			Name:              cfg.Topic,
			NumPartitions:     cfg.Partitions,
			ReplicationFactor: cfg.ReplicationFactor,
		})
		_ = tm.Close()
		if err != nil {
			return nil, err
		}
	}
	producer, err := NewProducer(ProducerConfigFrom(cfg), logger)
	if err != nil {
		return nil, err
	}
	return NewEventPublisher(producer, cfg.Topic, logger), nil
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	env, err := NewEventEnvelope(event.EventType(), EventSource, event)
	if err != nil {
		return err
	}
	env.TraceID = requestID(ctx)

	msg, err := env.ToMessage(p.topic, eventKey(event))
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		p.logger.WithContext(ctx).Warn("Failed to publish event",
			logging.String("event_type", env.EventType),
			logging.String("event_id", env.EventID),
			logging.Err(err))
		return err
	}
	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

func eventKey(event domain.DomainEvent) []byte {
	switch e := event.(type) {
	case domain.PredictionCompletedEvent:
		return []byte(e.SMILES)
	case domain.Features3DComputedEvent:
		return []byte(e.SMILES)
	}
	return nil
}

func requestID(ctx context.Context) string {
	for _, f := range logging.FieldsFromContext(ctx) {
		if f.Key == logging.FieldRequestID {
			return fmt.Sprint(f.Value)
		}
	}
	return ""
}
