package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the mail transport settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// SMTPSender delivers messages over SMTP with STARTTLS and plain
// authentication, the way the upstream transport expects.
type SMTPSender struct {
	log       *slog.Logger
	client    *mail.Client
	username  string
	recipient string
}

// NewSMTPSender creates an SMTP sender. The username doubles as the sender
// address.
func NewSMTPSender(log *slog.Logger, cfg SMTPConfig) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{
		log:       log,
		client:    client,
		username:  cfg.Username,
		recipient: cfg.Recipient,
	}, nil
}

// Send transmits the message as a multipart mail with a plain-text body and
// an HTML alternative. Connection-level failures are marked transient so the
// notifier retries them.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := mail.NewMsg()
	if err := m.From(s.username); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", s.username, err)
	}
	if err := m.To(s.recipient); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", s.recipient, err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return classifySendErr(fmt.Errorf("failed to send mail: %w", err))
	}

	s.log.Info("Mail notification sent", "recipient", s.recipient, "subject", msg.Subject)

	return nil
}
