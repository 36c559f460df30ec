// Package mail sends the transactional messages of the auth flows over smtp.
// Templates are deliberately minimal; applications wanting branded mail can
// implement their own delivery and skip this package entirely.
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/dundas/lightauth/config"
)

// Mailer sends mail with the smtp settings of the current configuration
// snapshot, so a reload changes servers without rebuilding the mailer.
type Mailer struct {
	config *config.Provider
	logger *slog.Logger
}

// New creates a Mailer reading its smtp settings from provider.
func New(provider *config.Provider, logger *slog.Logger) (*Mailer, error) {
	if provider == nil {
		return nil, errors.New("mail: config provider cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mailer{config: provider, logger: logger}, nil
}

// SendVerificationEmail mails the link that confirms an address. callbackURL
// is the full link including the token; building it is the caller's job
// since only the application knows its routes.
func (m *Mailer) SendVerificationEmail(ctx context.Context, email, callbackURL string) error {
	cfg := m.config.Get().Smtp
	subject := fmt.Sprintf("Verify your %s email", cfg.FromName)
	body := fmt.Sprintf(`
		<h1>Verify your email</h1>
		<p>Please click the link below to verify your email address:</p>
		<p><a href="%s">Verify Email</a></p>
		<p>If you did not create this account, you can ignore this message.</p>
	`, callbackURL)
	return m.send(ctx, &cfg, email, subject, body)
}

// SendPasswordResetEmail mails the link that opens the new password form.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email, callbackURL string) error {
	cfg := m.config.Get().Smtp
	subject := fmt.Sprintf("Reset your %s password", cfg.FromName)
	body := fmt.Sprintf(`
		<h1>Reset your password</h1>
		<p>Please click the link below to choose a new password:</p>
		<p><a href="%s">Reset Password</a></p>
		<p>The link expires soon. If you did not ask for a reset, you can ignore this message.</p>
	`, callbackURL)
	return m.send(ctx, &cfg, email, subject, body)
}

// ResetTokenDelivery adapts the mailer to the delivery callback shape the
// password reset workflow takes. buildURL turns the raw token into the full
// link the mail points at.
func (m *Mailer) ResetTokenDelivery(buildURL func(token string) string) func(ctx context.Context, email, token string) error {
	return func(ctx context.Context, email, token string) error {
		return m.SendPasswordResetEmail(ctx, email, buildURL(token))
	}
}

// VerificationTokenDelivery is the verification counterpart of
// ResetTokenDelivery, for callers that mail the tokens returned by the
// register and resend workflows.
func (m *Mailer) VerificationTokenDelivery(buildURL func(token string) string) func(ctx context.Context, email, token string) error {
	return func(ctx context.Context, email, token string) error {
		return m.SendVerificationEmail(ctx, email, buildURL(token))
	}
}

func (m *Mailer) send(ctx context.Context, cfg *config.Smtp, to, subject, html string) error {
	client, err := m.client(cfg)
	if err != nil {
		return fmt.Errorf("mail: building smtp client: %w", err)
	}

	client.To(to)
	client.From(cfg.FromAddress)
	client.FromName(cfg.FromName)
	client.Subject(subject)
	client.HTML().Set(html)

	// Send blocks without taking a context, so it runs on the side and the
	// select enforces the caller's deadline.
	done := make(chan error, 1)
	go func() {
		done <- client.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: sending %q: %w", subject, err)
		}
	}

	m.logger.Debug("mail sent", "subject", subject)
	return nil
}

func (m *Mailer) client(cfg *config.Smtp) (*mailyak.MailYak, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" {
		switch cfg.AuthMethod {
		case "cram-md5":
			auth = smtp.CRAMMD5Auth(cfg.Username, cfg.Password)
		default:
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
	}

	if cfg.UseTLS {
		return mailyak.NewWithTLS(addr, auth, nil)
	}
	return mailyak.New(addr, auth), nil
}
