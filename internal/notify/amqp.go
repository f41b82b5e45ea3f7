package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	coreconfig "github.com/hiwwer/marketbot/core/config"
	"github.com/hiwwer/marketbot/core/logger"
	"github.com/hiwwer/marketbot/internal/gateway"
	"log/slog"
)

// Intake consumes pushed notifications from a RabbitMQ queue and feeds them
// into the same per-record delivery path the poller uses. The poll loop
// remains the backstop: anything the intake fails to deliver is re-fetched.
type Intake struct {
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	queue  string
	poller *Poller
	wg     sync.WaitGroup
}

// NewIntake dials the broker and declares the exchange/queue binding.
func NewIntake(cfg coreconfig.AMQPConfig, poller *Poller) (*Intake, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp intake: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp intake: channel: %w", err)
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("amqp intake: declare exchange: %w", err)
		}
	}
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp intake: declare queue: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.QueueBind(q.Name, cfg.BindingKey, cfg.Exchange, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("amqp intake: bind queue: %w", err)
		}
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp intake: qos: %w", err)
	}

	return &Intake{conn: conn, ch: ch, queue: q.Name, poller: poller}, nil
}

// Start begins consuming until ctx is cancelled.
func (in *Intake) Start(ctx context.Context) error {
	deliveries, err := in.ch.Consume(in.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp intake: consume: %w", err)
	}

	logger.NOTIFY.Info("amqp intake started",
		slog.String("event", "notify.amqp_start"),
		slog.String("queue", in.queue),
	)

	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				in.handle(ctx, d)
			}
		}
	}()
	return nil
}

func (in *Intake) handle(ctx context.Context, d amqp091.Delivery) {
	var n gateway.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil || n.ID == "" {
		// Poison: acknowledge so it never cycles back.
		logger.NOTIFY.Warn("undecodable notification dropped",
			slog.String("event", "notify.amqp_poison"),
			slog.String("routing_key", d.RoutingKey),
		)
		_ = d.Ack(false)
		return
	}

	delivered := in.poller.Process(ctx, "amqp:"+n.ID, n)
	if delivered || n.DeliveredToChat {
		_ = d.Ack(false)
		return
	}

	// One redelivery attempt; after that the poll loop is the retry path.
	if d.Redelivered {
		_ = d.Ack(false)
		return
	}
	_ = d.Nack(false, true)
}

// Close tears the consumer down and waits for the handler loop.
func (in *Intake) Close() {
	if in.ch != nil {
		_ = in.ch.Close()
	}
	if in.conn != nil {
		_ = in.conn.Close()
	}
	in.wg.Wait()
}
