// Package mail delivers invoice emails. Messages are assembled with go-mail
// and either relayed over SMTP or, in development, rendered and logged.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/infrastructure/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender identifies the envelope sender of every message
type Sender struct {
	Address string
	Name    string
}

// New returns the mailer selected by cfg.Provider
func New(cfg *config.MailConfig, logger *zap.Logger) (invoicingapp.Mailer, error) {
	sender := Sender{Address: cfg.FromAddress, Name: cfg.FromName}
	switch cfg.Provider {
	case "smtp":
		return NewSMTPMailer(cfg, sender, logger)
	case "log":
		logger.Info("Mail provider is log, invoice emails will not be delivered")
		return NewLogMailer(sender, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// buildMessage assembles a MIME message with its attachments
func buildMessage(sender Sender, email invoicingapp.Email) (*gomail.Msg, error) {
	if len(email.To) == 0 {
		return nil, fmt.Errorf("email has no recipients")
	}
	msg := gomail.NewMsg()

	name := email.FromName
	if name == "" {
		name = sender.Name
	}
	var err error
	if name != "" {
		err = msg.FromFormat(name, sender.Address)
	} else {
		err = msg.From(sender.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if len(email.CC) > 0 {
		if err := msg.Cc(email.CC...); err != nil {
			return nil, fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(email.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextPlain, email.Body)

	for _, a := range email.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = string(gomail.TypeAppOctetStream)
		}
		if err := msg.AttachReader(a.FileName, bytes.NewReader(a.Data),
			gomail.WithFileContentType(gomail.ContentType(contentType))); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", a.FileName, err)
		}
	}
	return msg, nil
}

// SMTPMailer relays messages through an SMTP server
type SMTPMailer struct {
	client  *gomail.Client
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMTPMailer creates a mailer for the configured relay. No connection is
// made until the first Send.
func NewSMTPMailer(cfg *config.MailConfig, sender Sender, logger *zap.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(tlsPolicy(cfg.TLSPolicy)),
		gomail.WithTimeout(cfg.SendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{
		client:  client,
		sender:  sender,
		timeout: cfg.SendTimeout,
		logger:  logger.Named("mail"),
	}, nil
}

func tlsPolicy(policy string) gomail.TLSPolicy {
	switch policy {
	case "opportunistic":
		return gomail.TLSOpportunistic
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSMandatory
	}
}

// Send delivers email, bounded by the configured send timeout
func (m *SMTPMailer) Send(ctx context.Context, email invoicingapp.Email) error {
	msg, err := buildMessage(m.sender, email)
	if err != nil {
		return err
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	m.logger.Info("Email delivered",
		zap.Strings("to", email.To),
		zap.Int("cc", len(email.CC)),
		zap.String("subject", email.Subject),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// LogMailer renders messages and logs them instead of delivering them
type LogMailer struct {
	sender Sender
	logger *zap.Logger
}

// NewLogMailer creates a mailer for development environments
func NewLogMailer(sender Sender, logger *zap.Logger) *LogMailer {
	return &LogMailer{sender: sender, logger: logger.Named("mail")}
}

// Send builds the message so address errors still surface, then logs it
func (m *LogMailer) Send(_ context.Context, email invoicingapp.Email) error {
	msg, err := buildMessage(m.sender, email)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	names := make([]string, len(email.Attachments))
	for i, a := range email.Attachments {
		names[i] = a.FileName
	}
	m.logger.Info("Email not delivered (log mailer)",
		zap.Strings("to", email.To),
		zap.Strings("cc", email.CC),
		zap.String("subject", email.Subject),
		zap.Strings("attachments", names),
		zap.Int("size", buf.Len()),
	)
	return nil
}
