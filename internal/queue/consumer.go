package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const inventoryLogFile = "inventory.log"

// StartInventoryConsumer connects to RabbitMQ, declares the inventory queue
// (durable) and appends every event to <logDir>/inventory.log, one line per
// event.  It reconnects with exponential backoff and returns only when ctx
// is cancelled.  Malformed messages are rejected without requeue so they
// cannot loop.
func StartInventoryConsumer(ctx context.Context, url, logDir string) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			zap.L().Warn("inventory-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		zap.L().Warn("inventory-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		zap.L().Warn("inventory-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(InventoryQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(InventoryQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(logDir, d.Body); err != nil {
				zap.L().Error("inventory-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(logDir string, body []byte) error {
	var ev InventoryEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Action == "" || ev.ProductID == 0 {
		return fmt.Errorf("incomplete event: action=%q product_id=%d", ev.Action, ev.ProductID)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, inventoryLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEvent(ev InventoryEvent) string {
	return fmt.Sprintf("[%s] Product %s | product_id=%d | name=%s | price=%s | stock=%d | unit=%s | by=%s (id=%d)\n",
		ev.OccurredAt, ev.Action, ev.ProductID, strconv.Quote(ev.Name),
		strconv.FormatFloat(ev.Price, 'f', 2, 64), ev.Stock, ev.Unit, ev.Actor, ev.ActorID)
}
