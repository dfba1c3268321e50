package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"mindgap-tutor/internal/domain"
)

// CompletedRoutingKey is the routing key of quiz completion events.
const CompletedRoutingKey = "quiz.completed"

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher emits quiz completion events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Dial connects to RabbitMQ and declares the durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// completedEvent is the message body: the completion plus the flags
// consumers use for achievements and weak-topic tracking.
type completedEvent struct {
	domain.Completion
	Percentage  int         `json:"percentage"`
	Band        domain.Band `json:"band"`
	Perfect     bool        `json:"perfect"`
	NeedsReview bool        `json:"needsReview"`
}

// Report publishes the completion as a persistent JSON message.
func (p *Publisher) Report(ctx context.Context, completion domain.Completion) error {
	body, err := json.Marshal(completedEvent{
		Completion:  completion,
		Percentage:  completion.Percentage(),
		Band:        completion.Band(),
		Perfect:     completion.Perfect(),
		NeedsReview: completion.NeedsReview(),
	})
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, CompletedRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    completion.SessionID,
		Timestamp:    completion.FinishedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish completion: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
