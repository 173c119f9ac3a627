// Package service holds integrations with external systems that handlers
// reach through small interfaces.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/kasirku/internal/queue"
)

// ErrPublisherDisabled is returned when no broker URL was configured.
var ErrPublisherDisabled = errors.New("inventory publisher disabled")

// Publisher sends inventory events to RabbitMQ.  A connection is opened per
// publish; product edits are rare enough that pooling is not worth the
// reconnect handling.
type Publisher struct {
	url         string
	dialTimeout time.Duration
}

// NewPublisher returns a publisher for url.  An empty url yields a
// publisher whose every call returns ErrPublisherDisabled.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dialTimeout: 2 * time.Second}
}

func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// PublishInventory publishes ev to the inventory queue as a persistent
// message.  Failures are returned wrapped with the step that failed; the
// caller decides how to log them.
func (p *Publisher) PublishInventory(ctx context.Context, ev q.InventoryEvent) error {
	if !p.Enabled() {
		return ErrPublisherDisabled
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so events survive broker restarts
	if _, err := ch.QueueDeclare(q.InventoryQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", q.InventoryQueue, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.InventoryQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Action, err)
	}
	return nil
}
