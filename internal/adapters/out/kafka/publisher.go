// Package kafka publishes notification envelopes to a Kafka topic. Messages are
// keyed by recipient id, so one recipient's notifications stay on one partition
// and keep their order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/pkg/errs"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTopic is used when the configured topic is empty.
const DefaultTopic = "robodelivery.notifications"

var tracer = otel.Tracer("robodelivery/kafka")

// Publisher mirrors notification envelopes to a Kafka topic keyed by
// recipient, so one recipient's messages stay ordered within a partition.
type Publisher struct {
	writer *kafkago.Writer
	topic  string
}

// NewPublisher creates a writer for brokers. The connection is opened lazily on first publish.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		topic: topic,
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafkago.RequireOne,
		},
	}
}

// Publish writes one message and injects the trace context into its headers.
func (p *Publisher) Publish(ctx context.Context, recipientID string, message notification.Envelope) error {
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := kafkago.Message{
		Key:   []byte(recipientID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "notification-type", Value: []byte(message.Type)},
		},
	}

	ctx, span := tracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(recipientID),
			attribute.String("notification.id", message.ID),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			return errs.NewUnavailableError("kafka", err)
		}
		return err
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
