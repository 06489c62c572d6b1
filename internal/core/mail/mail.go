package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"go-contacts-api/internal/core/config"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(c config.Mail) *SMTPSender {
	d := gomail.NewDialer(c.Host, c.Port, c.Username, c.Password)
	d.SSL = c.SSL
	d.TLSConfig = &tls.Config{ServerName: c.Host, MinVersion: tls.VersionTLS12}
	return &SMTPSender{dialer: d, from: c.From, fromName: c.FromName}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if m.To == "" {
		return errors.New("mail: empty recipient")
	}
	if m.To == s.from {
		return errors.New("mail: recipient equals sender")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.fromName)
	if m.ToName != "" {
		msg.SetAddressHeader("To", m.To, m.ToName)
	} else {
		msg.SetHeader("To", m.To)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.To, err)
	}
	return nil
}

// LogSender writes messages to the logger instead of sending them.
type LogSender struct{ log *zap.Logger }

func NewLogSender(l *zap.Logger) *LogSender { return &LogSender{log: l.Named("mail")} }

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.log.Info("mail (not sent)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("html", m.HTML),
	)
	return nil
}

// NewSender picks the sender for mail.driver.
func NewSender(c config.Mail, l *zap.Logger) Sender {
	if c.Driver == "smtp" {
		return NewSMTPSender(c)
	}
	return NewLogSender(l)
}
