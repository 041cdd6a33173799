package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/gussmann/loyalty-auth/internal/observability/logger"
)

// SMTP delivers temporary passwords by email.
type SMTP struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	StartTLS           bool
	InsecureSkipVerify bool
}

// NewSMTP builds an SMTP notifier.
func NewSMTP(host string, port int, from, user, pass string) *SMTP {
	return &SMTP{Host: host, Port: port, From: from, User: user, Pass: pass, StartTLS: true}
}

// SendTemporaryPassword emails the temporary password to the account holder.
// The secret goes into the message body only, never into logs.
func (s *SMTP) SendTemporaryPassword(ctx context.Context, email, fullName, tempPassword string) error {
	log := logger.From(ctx).With(
		logger.Component("notify.smtp"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
	)

	name := fullName
	if name == "" {
		name = email
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your temporary password")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account. Your temporary password is:\n\n    %s\n\nIt is valid for one login; please change it immediately after signing in.\nIf you did not request this, contact your administrator.\n",
		name, tempPassword,
	))

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	if s.StartTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	if s.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{ServerName: s.Host, InsecureSkipVerify: true}
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("temporary password delivery failed", logger.Err(err))
		return err
	}
	log.Info("temporary password delivered")
	return nil
}
