package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPClient publishes events to, and consumes them from, a durable RabbitMQ queue.
type AMQPClient struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	log          *zap.Logger
}

func NewAMQPClient(url, exchangeName, queueName string, log *zap.Logger) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &AMQPClient{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		log:          log,
	}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *AMQPClient) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name on a direct exchange
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *AMQPClient) Publish(ctx context.Context, e Event) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID.String(),
		Type:         string(e.Kind),
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.log.Info("published event",
		zap.String("kind", string(e.Kind)),
		zap.Stringer("appointment_id", e.AppointmentID),
		zap.String("queue", c.queueName))
	return nil
}

// Consume hands each delivery to h until ctx ends. Undecodable messages are
// dropped; handler failures are requeued.
func (c *AMQPClient) Consume(ctx context.Context, h Handler) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.log.Info("consuming events", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.deliver(ctx, h, delivery)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *AMQPClient) deliver(ctx context.Context, h Handler, d amqp091.Delivery) {
	handleDelivery(ctx, c.log, h, d.Body, d.Redelivered, &d)
}

// handleDelivery requeues a failed event once. A second failure drops it;
// pending payments are published again by the reconciler.
func handleDelivery(ctx context.Context, log *zap.Logger, h Handler, body []byte, redelivered bool, ack acknowledger) {
	e, err := FromJSON(body)
	if err != nil {
		log.Error("dropping undecodable event", zap.Error(err))
		ack.Nack(false, false)
		return
	}
	if err := h.HandleEvent(ctx, e); err != nil {
		fields := []zap.Field{
			zap.Error(err),
			zap.String("kind", string(e.Kind)),
			zap.Stringer("event_id", e.ID),
		}
		if redelivered {
			log.Error("event handler failed again, dropping", fields...)
			ack.Nack(false, false)
			return
		}
		log.Error("event handler failed, requeueing", fields...)
		ack.Nack(false, true)
		return
	}
	ack.Ack(false)
}

func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// RunConsumer keeps a consumer alive across broker restarts until ctx ends.
func RunConsumer(ctx context.Context, url, exchangeName, queueName string, h Handler, log *zap.Logger) error {
	for attempt := 0; ; attempt++ {
		client, err := NewAMQPClient(url, exchangeName, queueName, log)
		if err == nil {
			attempt = 0
			err = client.Consume(ctx, h)
			client.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		log.Warn("amqp connection lost, retrying", zap.Error(err), zap.Duration("wait", wait))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	const maxWait = 30 * time.Second
	if attempt >= 5 {
		return maxWait
	}
	wait := time.Second << attempt
	if wait > maxWait {
		return maxWait
	}
	return wait
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "closed", "eof", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
