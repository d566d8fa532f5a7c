// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quillpost/server/internal/logging"
	"github.com/quillpost/server/internal/model"
)

// ErrNoAddress is returned when the user has nowhere to receive a code
var ErrNoAddress = errors.New("user has no phone or email")

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Dispatcher picks the channel for a code: SMS for phones, mail for emails.
// A nil transport means codes for that channel are only logged.
type Dispatcher struct {
	sms    SMSSender
	mail   Mailer
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. sms and mail may be nil.
func NewDispatcher(sms SMSSender, mail Mailer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sms: sms, mail: mail, logger: logger}
}

// SendCode implements auth.CodeSender. Username logins go to the phone on
// file, else the email.
func (d *Dispatcher) SendCode(ctx context.Context, user model.User, method model.AuthMethod, code string) error {
	phone, email := deref(user.Phone), deref(user.Email)
	switch method {
	case model.MethodPhone:
		email = ""
	case model.MethodEmail:
		phone = ""
	}

	switch {
	case phone != "":
		return d.sendSMS(ctx, phone, code)
	case email != "":
		return d.sendMail(email, code)
	}
	return ErrNoAddress
}

func (d *Dispatcher) sendSMS(ctx context.Context, phone, code string) error {
	if d.sms == nil {
		d.logger.Info("sms transport disabled, code not sent", zap.String("to", logging.MaskPhone(phone)))
		return nil
	}
	if err := d.sms.SendSMS(ctx, phone, smsBody(code)); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	d.logger.Debug("code sent by sms", zap.String("to", logging.MaskPhone(phone)))
	return nil
}

func (d *Dispatcher) sendMail(email, code string) error {
	if d.mail == nil {
		d.logger.Info("mail transport disabled, code not sent", zap.String("to", logging.MaskEmail(email)))
		return nil
	}
	if err := d.mail.SendEmail(email, "Your verification code", mailBody(code)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	d.logger.Debug("code sent by mail", zap.String("to", logging.MaskEmail(email)))
	return nil
}

func smsBody(code string) string {
	return fmt.Sprintf("Your verification code is %s", code)
}

func mailBody(code string) string {
	return fmt.Sprintf("Your verification code is %s.\nIt expires in 2 minutes. If you did not request it, ignore this email.", code)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
