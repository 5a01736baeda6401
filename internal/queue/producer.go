package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"koomia/api/internal/mail"
)

const TaskMail = "mail"

// MailProducer appends outbound mail to the stream the worker consumes.
type MailProducer struct {
	client *redis.Client
	stream string
}

func NewMailProducer(client *redis.Client, stream string) *MailProducer {
	return &MailProducer{client: client, stream: stream}
}

func (p *MailProducer) Enqueue(ctx context.Context, msg mail.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":    TaskMail,
			"payload": string(payload),
		},
	}).Err()
}
