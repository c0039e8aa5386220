package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDelayUnsupported is returned by PublishDelayed when the broker has no
// delayed message exchange.
var ErrDelayUnsupported = errors.New("delayed message exchange not available")

// Config names the broker and the topology used for order events.
type Config struct {
	URL             string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	DelayExchange   string
}

func (c Config) deadLetterExchange() string {
	return c.DeadLetterQueue + "_exchange"
}

// RabbitMQ publishes order events and consumes them back for background
// processing.
type RabbitMQ struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	cfg     Config
	log     *zap.Logger
	delayed bool

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

func NewRabbitMQ(cfg Config, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{
		conn: conn,
		ch:   ch,
		cfg:  cfg,
		log:  log,
	}, nil
}

// SetupQueues declares the order exchange and queue, the dead letter queue
// and, when the broker supports it, the delayed exchange feeding the order
// queue.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.ch.ExchangeDeclare(
		r.cfg.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare dead letter exchange: %w", err)
	}

	if _, err := r.ch.QueueDeclare(
		r.cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("declare dead letter queue: %w", err)
	}

	if err := r.ch.QueueBind(r.cfg.DeadLetterQueue, r.cfg.DeadLetterQueue, r.cfg.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead letter queue: %w", err)
	}

	if err := r.ch.ExchangeDeclare(
		r.cfg.OrderExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare order exchange: %w", err)
	}

	if _, err := r.ch.QueueDeclare(
		r.cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    r.cfg.deadLetterExchange(),
			"x-dead-letter-routing-key": r.cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}

	if err := r.ch.QueueBind(r.cfg.OrderQueue, "", r.cfg.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind order queue: %w", err)
	}

	// Requires the rabbitmq_delayed_message_exchange plugin. A failed
	// declare closes the channel, so it is reopened.
	if err := r.ch.ExchangeDeclare(
		r.cfg.DelayExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		r.log.Warn("delayed exchange not supported, unpaid checkouts will only expire through payment webhooks", zap.Error(err))
		ch, err := r.conn.Channel()
		if err != nil {
			return fmt.Errorf("reopen channel: %w", err)
		}
		r.ch = ch
		return nil
	}

	if err := r.ch.QueueBind(r.cfg.OrderQueue, "", r.cfg.DelayExchange, false, nil); err != nil {
		return fmt.Errorf("bind delayed exchange: %w", err)
	}
	r.delayed = true
	return nil
}

// Publish sends an order event to the order exchange.
func (r *RabbitMQ) Publish(ctx context.Context, event models.OrderEvent) error {
	return r.publish(ctx, r.cfg.OrderExchange, event, nil)
}

// PublishDelayed sends an order event that is delivered after delay.
func (r *RabbitMQ) PublishDelayed(ctx context.Context, event models.OrderEvent, delay time.Duration) error {
	if !r.delayed {
		return ErrDelayUnsupported
	}
	return r.publish(ctx, r.cfg.DelayExchange, event, amqp.Table{"x-delay": delay.Milliseconds()})
}

func (r *RabbitMQ) publish(ctx context.Context, exchange string, event models.OrderEvent, headers amqp.Table) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Type:         event.Type,
		Body:         body,
		Headers:      headers,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx,
		exchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

// Consume delivers messages from the order queue and the dead letter queue
// to consumer until ctx is cancelled.
func (r *RabbitMQ) Consume(ctx context.Context, consumer *Consumer) error {
	if err := r.ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := r.ch.ConsumeWithContext(ctx,
		r.cfg.OrderQueue,
		"storefront",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume order queue: %w", err)
	}

	dlqMsgs, err := r.ch.ConsumeWithContext(ctx,
		r.cfg.DeadLetterQueue,
		"storefront-dlq",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume dead letter queue: %w", err)
	}

	go func() {
		for msg := range msgs {
			consumer.HandleDelivery(ctx, msg)
		}
	}()
	go func() {
		for msg := range dlqMsgs {
			consumer.HandleDeadLetter(msg)
		}
	}()
	return nil
}

func (r *RabbitMQ) Close() {
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			r.log.Debug("close channel", zap.Error(err))
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.log.Debug("close connection", zap.Error(err))
		}
	}
}
