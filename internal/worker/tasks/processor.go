package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"koomia/api/internal/mail"
	"koomia/api/internal/queue"
)

type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Processor delivers outbound mail taken from the stream and turns order
// events into confirmation mail.
type Processor struct {
	sender MailSender
	logger zerolog.Logger
}

type TaskPayload struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

func NewProcessor(sender MailSender, logger zerolog.Logger) *Processor {
	return &Processor{
		sender: sender,
		logger: logger,
	}
}

// Handle returns nil for messages that can never succeed so the consumer
// acknowledges them instead of reclaiming them forever.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable task")
		return nil
	}

	switch payload.Type {
	case queue.TaskMail:
		return p.handleMail(ctx, msg.ID, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleMail(ctx context.Context, messageID string, payload TaskPayload) error {
	var msg mail.Message
	if err := json.Unmarshal([]byte(payload.Payload), &msg); err != nil {
		p.logger.Error().Err(err).Str("message_id", messageID).Msg("dropping malformed mail task")
		return nil
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s mail: %w", msg.Kind, err)
	}
	p.logger.Info().Str("kind", string(msg.Kind)).Str("message_id", messageID).Msg("mail sent")
	return nil
}

// HandleOrderPlaced sends the order confirmation.
func (p *Processor) HandleOrderPlaced(ctx context.Context, event queue.OrderPlacedEvent) error {
	if event.Email == "" {
		p.logger.Warn().Str("order_id", event.OrderID).Msg("order event without recipient")
		return nil
	}
	msg := mail.Message{
		Kind: mail.KindOrderPlaced,
		To:   event.Email,
		Data: map[string]string{
			"firstName": event.FirstName,
			"reference": event.Reference,
			"total":     FormatAmount(event.Total),
		},
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send order confirmation %s: %w", event.OrderID, err)
	}
	p.logger.Info().Str("order_id", event.OrderID).Msg("order confirmation sent")
	return nil
}

// FormatAmount renders minor units with two decimals.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
