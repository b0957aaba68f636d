package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/RashedShahabi/order-system-project/internal/event"
)

// Producer writes saga events synchronously with full acks: a handler's
// downstream publish must be durable before the incoming message is
// committed. Partitioning hashes on the order id so one order's events keep
// their relative order.
type Producer struct {
	w       *kafka.Writer
	service string
}

func NewProducer(brokers []string, service string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		service: service,
	}
}

func (p *Producer) Publish(ctx context.Context, ev event.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	msg := kafka.Message{
		Topic: string(ev.Kind()),
		Key:   []byte(ev.CorrelationID()),
		Value: b,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.NewString())},
			{Key: HeaderEventType, Value: []byte(ev.Kind())},
			{Key: HeaderProducer, Value: []byte(p.service)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind(), err)
	}
	return nil
}

// DeadLetter copies an unprocessable message onto the dead-letter topic,
// tagging it with its origin and the decode failure.
func (p *Producer) DeadLetter(ctx context.Context, m kafka.Message, cause error) error {
	dead := kafka.Message{
		Topic: TopicDeadLetter,
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: append(m.Headers,
			kafka.Header{Key: HeaderOriginTopic, Value: []byte(m.Topic)},
			kafka.Header{Key: HeaderError, Value: []byte(cause.Error())},
			kafka.Header{Key: HeaderProducer, Value: []byte(p.service)},
		),
	}
	if err := p.w.WriteMessages(ctx, dead); err != nil {
		return fmt.Errorf("dead-letter from %s: %w", m.Topic, err)
	}
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }
