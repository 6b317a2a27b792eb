package events

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"dormhub-backend/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers already encoded event payloads to the notification collaborator.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close()
}

// Producer publishes to a durable topic exchange.
type Producer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	declared bool
}

// FallbackPublisher is used when RabbitMQ is unavailable at startup. It logs
// and reports failure so the outbox keeps the events for a later attempt.
type FallbackPublisher struct{}

var ErrBrokerUnavailable = errors.New("message broker unavailable")

func (FallbackPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	logger.Warn("Broker unavailable, event left in outbox", "routingKey", routingKey, "bytes", len(body))
	return ErrBrokerUnavailable
}

func (FallbackPublisher) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

func NewProducer(amqpURL, exchange string) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Producer{conn: conn, channel: ch, exchange: exchange}, nil
}

// NewPublisher returns a Producer, or a FallbackPublisher when the broker cannot be reached.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		logger.Warn("RabbitMQ URL not configured, using fallback publisher")
		return FallbackPublisher{}
	}
	p, err := NewProducer(amqpURL, exchange)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, using fallback publisher", "error", err)
		return FallbackPublisher{}
	}
	return p
}

func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger.ExternalServiceCall("rabbitmq", "publish", "exchange", p.exchange, "routingKey", routingKey)
	err := p.publish(ctx, routingKey, body)
	if err != nil {
		// One reopen attempt; the channel is closed by the broker after most errors.
		if chErr := p.reopen(); chErr == nil {
			err = p.publish(ctx, routingKey, body)
		}
	}
	logger.ExternalServiceResult("rabbitmq", "publish", err, "routingKey", routingKey)
	return err
}

func (p *Producer) publish(ctx context.Context, routingKey string, body []byte) error {
	if !p.declared {
		if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
		p.declared = true
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *Producer) reopen() error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	p.declared = false
	return nil
}

func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
