package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"koomia/api/internal/config"
)

type Kind string

const (
	KindVerifyEmail   Kind = "verify_email"
	KindResetPassword Kind = "reset_password"
	KindOrderPlaced   Kind = "order_placed"
)

// Message is what travels through the outbound stream; the worker renders it.
type Message struct {
	Kind Kind              `json:"kind"`
	To   string            `json:"to"`
	Data map[string]string `json:"data"`
}

type letter struct {
	subject string
	body    *template.Template
}

var letters = map[Kind]letter{
	KindVerifyEmail: {
		subject: "Verify your e-mail",
		body: template.Must(template.New("verify").Parse(
			`<p>Hi {{.firstName}},</p><p>Your verification code is <strong>{{.otp}}</strong>. It expires in {{.ttl}}.</p>`)),
	},
	KindResetPassword: {
		subject: "Reset your password",
		body: template.Must(template.New("reset").Parse(
			`<p>Hi {{.firstName}},</p><p>Use the link below to choose a new password. It expires in {{.ttl}}.</p><p><a href="{{.link}}">{{.link}}</a></p>`)),
	},
	KindOrderPlaced: {
		subject: "We received your order",
		body: template.Must(template.New("order").Parse(
			`<p>Hi {{.firstName}},</p><p>Order <strong>#{{.reference}}</strong> was placed. Total: {{.total}}.</p>`)),
	},
}

func Render(msg Message) (subject string, body string, err error) {
	l, ok := letters[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("unknown mail kind %q", msg.Kind)
	}
	var buf bytes.Buffer
	if err := l.body.Execute(&buf, msg.Data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", msg.Kind, err)
	}
	return l.subject, buf.String(), nil
}

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer Dialer
	from   string
}

func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Sender,
	}
}

func NewSenderWithDialer(dialer Dialer, from string) *Sender {
	return &Sender{dialer: dialer, from: from}
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := Render(msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send %s: %w", msg.Kind, err)
	}
	return nil
}
