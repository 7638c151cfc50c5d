package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Envelope is the wire format shared by every message on our exchanges.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Exchange      string          `json:"exchange"`
	RoutingKey    string          `json:"routing_key"`
	Message       json.RawMessage `json:"message"`
}

// Publisher sends events to one exchange. Safe for concurrent use.
type Publisher struct {
	mu       sync.Mutex
	ch       publishChannel
	exchange string
	now      func() time.Time
}

func NewPublisher(ch *amqp091.Channel, exchange string) *Publisher {
	return newPublisher(ch, exchange)
}

func newPublisher(ch publishChannel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", routingKey, err)
	}
	id := uuid.NewString()
	body, err := json.Marshal(Envelope{
		CorrelationID: id,
		Exchange:      p.exchange,
		RoutingKey:    routingKey,
		Message:       payload,
	})
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     id,
		CorrelationId: id,
		Timestamp:     p.now().UTC(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publishing %s to %s: %w", routingKey, p.exchange, err)
	}
	return nil
}
