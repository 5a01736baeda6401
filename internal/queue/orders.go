package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type OrderPlacedEvent struct {
	OrderID   string    `json:"orderId"`
	Reference string    `json:"reference"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	Total     int64     `json:"total"`
	PlacedAt  time.Time `json:"placedAt"`
}

// OrderPublisher sends order events on one channel and redials when the
// broker drops it. Publishes are serialised on mu.
type OrderPublisher struct {
	url       string
	queueName string
	logger    zerolog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewOrderPublisher(url, queueName string, logger zerolog.Logger) (*OrderPublisher, error) {
	p := &OrderPublisher{
		url:       url,
		queueName: queueName,
		logger:    logger.With().Str("queue", queueName).Logger(),
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held (or before p is shared).
func (p *OrderPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	p.conn, p.channel = conn, ch
	go p.watch(ch, ch.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// watch forgets ch once the broker closes it so the next publish redials.
func (p *OrderPublisher) watch(ch *amqp.Channel, closed <-chan *amqp.Error) {
	reason, ok := <-closed
	if !ok {
		// Closed by us.
		return
	}
	p.logger.Warn().Str("reason", reason.Reason).Int("code", reason.Code).Msg("amqp channel closed")

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == ch {
		p.drop()
	}
}

func (p *OrderPublisher) drop() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
}

// PublishOrderPlaced redials a dropped connection first, and retries once on
// a fresh one when the broker closes the channel mid-publish.
func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if p.channel == nil || p.channel.IsClosed() {
			p.drop()
			if err := p.connect(); err != nil {
				return err
			}
			p.logger.Info().Msg("amqp reconnected")
		}

		err := p.channel.PublishWithContext(ctx, "", p.queueName, false, false, msg)
		if err == nil || attempt > 0 || !errors.Is(err, amqp.ErrClosed) {
			return err
		}
		p.drop()
	}
}

func (p *OrderPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drop()
}

type OrderHandler func(ctx context.Context, event OrderPlacedEvent) error

// OrderConsumer drains the order queue, reconnecting with backoff when the
// broker goes away.
type OrderConsumer struct {
	url       string
	queueName string
	tag       string
	handler   OrderHandler
	logger    zerolog.Logger
}

func NewOrderConsumer(url, queueName, tag string, handler OrderHandler, logger zerolog.Logger) *OrderConsumer {
	return &OrderConsumer{
		url:       url,
		queueName: queueName,
		tag:       tag,
		handler:   handler,
		logger:    logger.With().Str("queue", queueName).Logger(),
	}
}

func (c *OrderConsumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("amqp dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Msg("consume loop ended, reconnecting")
		time.Sleep(2 * time.Second)
	}
}

func (c *OrderConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.logger.Warn().Err(err).Msg("set qos failed")
	}
	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queueName, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range deliveries {
		if err := c.Deliver(ctx, d.Body); err != nil {
			c.logger.Error().Err(err).Msg("handle order event failed")
			// Undecodable or rejected events are dropped rather than requeued in a tight loop.
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Deliver decodes one message body and hands it to the handler.
func (c *OrderConsumer) Deliver(ctx context.Context, body []byte) error {
	var event OrderPlacedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	return c.handler(ctx, event)
}
