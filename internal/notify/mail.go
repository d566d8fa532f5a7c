package notify

import (
	"gopkg.in/gomail.v2"

	"github.com/quillpost/server/internal/config"
)

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a Mailer that sends through the configured SMTP server
func NewMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) SendEmail(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
