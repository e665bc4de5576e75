package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer reads status-change events and appends one line per event
// to <dir>/status.log.
type AuditConsumer struct {
	URL   string
	Queue string
	Dir   string
	Log   *zap.Logger
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Messages that fail to process are rejected without requeue so a bad
// payload cannot spin the loop.
func (a *AuditConsumer) Run(ctx context.Context) error {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	queue := a.Queue
	if queue == "" {
		queue = DefaultStatusQueue
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			log.Warn("audit-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consume(ctx, conn, queue, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("audit-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection, queue string, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
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
			if err := a.handle(d.Body); err != nil {
				log.Warn("audit-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (a *AuditConsumer) handle(body []byte) error {
	var ev StatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ComplaintID == 0 || ev.Status == "" {
		return errors.New("event without complaint id or status")
	}
	return appendStatusLine(a.Dir, ev)
}

// FormatStatusLine renders ev the way status.log stores it.
func FormatStatusLine(ev StatusChangedEvent) string {
	prev := ev.Previous
	if prev == "" {
		prev = "-"
	}
	return fmt.Sprintf("[%s] Complaint status changed | complaint_id=%d | identifier=\"%s\" | from=%s | to=%s | by=%d | notified=%t\n",
		ev.ChangedAt, ev.ComplaintID, ev.Identifier, prev, ev.Status, ev.ChangedBy, ev.Notified)
}

func appendStatusLine(dir string, ev StatusChangedEvent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "status.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatStatusLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
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
