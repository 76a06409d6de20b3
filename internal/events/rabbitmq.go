package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Sink forwards events outside the process.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// RabbitPublisher publishes events as persistent JSON messages on a durable
// queue through the default exchange.
type RabbitPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewRabbitPublisher dials url and declares queue.
func NewRabbitPublisher(url, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to rabbitmq", zap.String("queue", queue))
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

// Send publishes event. Channels are not safe for concurrent publishing, so
// sends are serialized.
func (p *RabbitPublisher) Send(ctx context.Context, event Event) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher not configured")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the channel and the connection.
func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
