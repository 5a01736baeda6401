package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/mail"
	"koomia/api/internal/queue"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func mailTask(t *testing.T, msg mail.Message) redis.XMessage {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	return redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"type":    queue.TaskMail,
		"payload": string(payload),
	}}
}

func TestHandleMailTask(t *testing.T) {
	sender := &recordingSender{}
	p := NewProcessor(sender, zerolog.Nop())

	msg := mail.Message{Kind: mail.KindVerifyEmail, To: "ada@x.com", Data: map[string]string{"otp": "123456"}}
	require.NoError(t, p.Handle(context.Background(), mailTask(t, msg)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, msg, sender.sent[0])
}

func TestHandleMailTaskSendFailureIsRetried(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	p := NewProcessor(sender, zerolog.Nop())

	err := p.Handle(context.Background(), mailTask(t, mail.Message{Kind: mail.KindVerifyEmail, To: "ada@x.com"}))
	assert.Error(t, err)
}

func TestHandleDropsUnusableTasks(t *testing.T) {
	sender := &recordingSender{}
	p := NewProcessor(sender, zerolog.Nop())

	assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": "thumbnail"}}))
	assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]interface{}{"type": queue.TaskMail, "payload": "{"}}))
	assert.Empty(t, sender.sent)
}

func TestHandleOrderPlaced(t *testing.T) {
	sender := &recordingSender{}
	p := NewProcessor(sender, zerolog.Nop())

	err := p.HandleOrderPlaced(context.Background(), queue.OrderPlacedEvent{
		OrderID:   "o1",
		Reference: "1790000000000",
		Email:     "ada@x.com",
		FirstName: "Ada",
		Total:     4505,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, mail.KindOrderPlaced, sender.sent[0].Kind)
	assert.Equal(t, "45.05", sender.sent[0].Data["total"])

	require.NoError(t, p.HandleOrderPlaced(context.Background(), queue.OrderPlacedEvent{OrderID: "o2"}))
	assert.Len(t, sender.sent, 1)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "12.00", FormatAmount(1200))
	assert.Equal(t, "-1.50", FormatAmount(-150))
}
