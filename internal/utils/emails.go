package utils

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/config"
)

// Attachment is a file generated on the fly and attached to a message.
type Attachment struct {
	Name  string
	Write func(io.Writer) error
}

// Sender delivers a prepared message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	sender Sender
}

// NewMailer returns a mailer using the SMTP settings of cfg.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewMailerWithSender is used when delivery goes through something other
// than an SMTP dialer.
func NewMailerWithSender(from string, s Sender) *Mailer {
	return &Mailer{from: from, sender: s}
}

// BuildMessage assembles an HTML message with its attachments.
func (m *Mailer) BuildMessage(to, subject, body string, attachments ...Attachment) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	for _, a := range attachments {
		write := a.Write
		msg.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			return write(w)
		}))
	}
	return msg
}

// SendEmail sends an HTML message.
func (m *Mailer) SendEmail(to, subject, body string, attachments ...Attachment) error {
	if err := m.sender.DialAndSend(m.BuildMessage(to, subject, body, attachments...)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
