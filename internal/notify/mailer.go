package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Envelope is the fixed addressing of every notification.
type Envelope struct {
	Subject     string
	FromName    string
	FromAddress string
	To          []string
	Cc          []string
}

// Message is one ready-to-send notification email.
type Message struct {
	Envelope
	Content
}

func (e Envelope) Wrap(c Content) Message {
	return Message{Envelope: e, Content: c}
}

type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type SmtpConfig struct {
	Server   string
	Port     int
	Username string
	Password string
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

// SMTPSender delivers messages through one SMTP relay, one attempt per call.
type SMTPSender struct {
	config SmtpConfig
	send   sendFunc
}

func NewSMTPSender(config SmtpConfig) *SMTPSender {
	return &SMTPSender{
		config: config,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Err: err}
	}
	if len(msg.To) == 0 {
		return &DeliveryError{Err: fmt.Errorf("no recipients")}
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromAddress)
	mail.To = msg.To
	mail.Cc = msg.Cc
	mail.Subject = msg.Subject
	mail.HTML = []byte(msg.HTML)
	if msg.Text != "" {
		mail.Text = []byte(msg.Text)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Server)
	}

	err := s.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(mail, addr, nil)
	}
	if err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}
