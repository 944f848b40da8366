package events

import (
	"context"
	"strconv"

	"carpool/pkg/kafka"
	"carpool/pkg/logger"
	"carpool/pkg/model"
)

const SchemaVersion = "1"

// KafkaPublisher writes events to the events topic. Events of one trip share
// a partition key so consumers see them in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *model.Event) error {
	msg, err := kafka.NewMessage().
		WithKey(PartitionKey(event)).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func PartitionKey(event *model.Event) string {
	switch {
	case event.TripID != 0:
		return "trip-" + strconv.FormatInt(event.TripID, 10)
	case event.RecipientID != 0:
		return "user-" + strconv.FormatInt(event.RecipientID, 10)
	default:
		return "event-" + event.ID
	}
}

// KafkaHandler adapts h to a consumer handler. Undecodable payloads are
// permanent failures; handler failures are treated as transient.
func KafkaHandler(h Handler) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode event", err)
		}
		if event.ID == "" {
			event.ID = msg.GetEventID()
		}
		if id := msg.GetCorrelationID(); id != "" {
			ctx = logger.ContextWithRequestID(ctx, id)
		}
		if err := h.HandleEvent(ctx, &event); err != nil {
			return kafka.NewTransientError("event handler failed", err)
		}
		return nil
	}
}
