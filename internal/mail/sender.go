// Package mail delivers rendered newsletters over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/ignite/jellyfin-newsletter/internal/config"
)

// Sender sends HTML newsletters through a configured SMTP server
type Sender struct {
	client  *gomail.Client
	from    string
	replyTo string
}

// NewSender creates an SMTP sender from mail configuration
func NewSender(cfg config.MailConfig) (*Sender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}

	if cfg.Secure {
		// Implicit TLS, typically port 465.
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	if cfg.Auth.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Auth.User),
			gomail.WithPassword(cfg.Auth.Pass),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}

	return &Sender{
		client:  client,
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
	}, nil
}

// Send delivers one newsletter. One message per recipient, HTML body.
func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	if s.replyTo != "" {
		if err := msg.ReplyTo(s.replyTo); err != nil {
			return fmt.Errorf("invalid reply-to address %q: %w", s.replyTo, err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
