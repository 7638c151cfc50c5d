package rabbit

import (
	"context"
	"errors"
	"fmt"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/service"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeclareTopology declares the exchanges this service publishes to and the
// payment exchange it consumes from.
func DeclareTopology(ch *amqp091.Channel, cfg config.RabbitConfig) error {
	exchanges := []struct {
		name, kind string
	}{
		{cfg.OrderEventsExchange, amqp091.ExchangeTopic},
		{cfg.AccountEventsExchange, amqp091.ExchangeTopic},
		{cfg.PaymentExchange, amqp091.ExchangeFanout},
	}
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declaring exchange %s: %w", ex.name, err)
		}
	}
	return nil
}

// SetupConsumers binds the payment queue and starts consuming it until ctx is
// done or the channel closes.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, cfg config.RabbitConfig, payments PaymentCompleter, log *zap.Logger) error {
	consumer := NewPaymentConsumer(payments, log)

	q, err := ch.QueueDeclare(
		cfg.PaymentQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}

	// fanout ignores the routing key
	if err := ch.QueueBind(q.Name, "", cfg.PaymentExchange, false, nil); err != nil {
		return fmt.Errorf("binding %s to %s: %w", q.Name, cfg.PaymentExchange, err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("setting qos: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consuming %s: %w", q.Name, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					log.Warn("payment deliveries channel closed")
					return
				}
				settle(m, m.Redelivered, consumer.Handle(ctx, m.Body), log)
			}
		}
	}()

	log.Info("subscribed to payment exchange",
		zap.String("exchange", cfg.PaymentExchange), zap.String("queue", q.Name))
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle acks handled deliveries. Infrastructure failures and lost write
// races are requeued once; everything else is dropped.
func settle(d acknowledger, redelivered bool, err error, log *zap.Logger) {
	var settleErr error
	switch {
	case err == nil:
		settleErr = d.Ack(false)
	case !redelivered && retryable(err):
		settleErr = d.Nack(false, true)
	default:
		settleErr = d.Nack(false, false)
	}
	if settleErr != nil {
		log.Error("settling delivery failed", zap.Error(settleErr))
	}
}

func retryable(err error) bool {
	if errors.Is(err, service.ErrConcurrentModification) {
		return true
	}
	return !errors.Is(err, ErrMalformedMessage) && apperr.CodeOf(err) == apperr.CodeUnexpected
}
