// Package mail composes the confirmation and password reset emails and
// delivers them over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/iliyamo/contacts-api/internal/config"
)

// Kind tells the two outbound messages apart on the wire.
type Kind string

const (
	KindConfirmEmail  Kind = "confirm_email"
	KindResetPassword Kind = "reset_password"
)

// dialTimeout bounds connecting to the relay and each SMTP command.
const dialTimeout = 15 * time.Second

// sendFunc delivers one message through a configured client.
type sendFunc func(ctx context.Context, c *gomail.Client, m *gomail.Msg) error

func dialAndSend(ctx context.Context, c *gomail.Client, m *gomail.Msg) error {
	return c.DialAndSendWithContext(ctx, m)
}

// SMTPSender delivers mail through one SMTP relay.
type SMTPSender struct {
	cfg     config.MailConfig
	baseURL string
	send    sendFunc
	now     func() time.Time
}

// NewSMTPSender builds a sender.  baseURL is the public root of the API and
// prefixes every link placed in a message.
func NewSMTPSender(cfg config.MailConfig, baseURL string) *SMTPSender {
	return &SMTPSender{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		send:    dialAndSend,
		now:     time.Now,
	}
}

// SendConfirmation mails the link that confirms the address.
func (s *SMTPSender) SendConfirmation(ctx context.Context, to, username, token string) error {
	return s.Send(ctx, KindConfirmEmail, to, username, token)
}

// SendPasswordReset mails the link to the reset form.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, username, token string) error {
	return s.Send(ctx, KindResetPassword, to, username, token)
}

// Send composes a message of the given kind and hands it to the relay.
func (s *SMTPSender) Send(ctx context.Context, kind Kind, to, username, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.Compose(kind, to, username, token)
	if err != nil {
		return err
	}
	client, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := s.send(ctx, client, msg); err != nil {
		return fmt.Errorf("smtp send %s to %s: %w", kind, to, err)
	}
	return nil
}

// client builds a relay client.  SSLTLS wraps the connection in TLS from the
// first byte; StartTLS requires the upgrade; otherwise the session stays
// plain.
func (s *SMTPSender) client() (*gomail.Client, error) {
	var opts []gomail.Option
	switch {
	case s.cfg.SSLTLS:
		opts = append(opts, gomail.WithSSL())
	case s.cfg.StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password))
	}
	// port last so no TLS option can reset it
	opts = append(opts, gomail.WithTimeout(dialTimeout), gomail.WithPort(s.cfg.Port))
	return gomail.NewClient(s.cfg.Host, opts...)
}

// Link returns the URL a recipient follows for kind.
func (s *SMTPSender) Link(kind Kind, token string) (string, error) {
	switch kind {
	case KindConfirmEmail:
		return s.baseURL + "/api/auth/confirmed_email/" + token, nil
	case KindResetPassword:
		return s.baseURL + "/api/auth/reset-password/" + token, nil
	}
	return "", fmt.Errorf("unknown mail kind %q", kind)
}

var bodies = map[Kind]*template.Template{
	KindConfirmEmail: template.Must(template.New("confirm").Parse(
		"Hi {{.Username}},\n\nPlease confirm your email address by opening the link below:\n\n{{.Link}}\n\nThe link is valid for a limited time.\n")),
	KindResetPassword: template.Must(template.New("reset").Parse(
		"Hi {{.Username}},\n\nWe received a request to reset your password. Open the link below to choose a new one:\n\n{{.Link}}\n\nIf you did not ask for this, ignore this message.\n")),
}

var subjects = map[Kind]string{
	KindConfirmEmail:  "Confirm your email",
	KindResetPassword: "Reset your password",
}

// Compose builds the message.  go-mail encodes the address headers and a
// non-ASCII subject.
func (s *SMTPSender) Compose(kind Kind, to, username, token string) (*gomail.Msg, error) {
	link, err := s.Link(kind, token)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMsg()
	if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", s.cfg.From, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("to %q: %w", to, err)
	}
	m.Subject(subjects[kind])
	m.SetDateWithValue(s.now())
	if err := m.SetBodyTextTemplate(bodies[kind], struct{ Username, Link string }{username, link}); err != nil {
		return nil, err
	}
	return m, nil
}
