package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/iliyamo/contacts-api/internal/config"
)

type captured struct {
	client *gomail.Client
	msg    string
	calls  int
}

func newTestSender(t *testing.T, cfg config.MailConfig, err error) (*SMTPSender, *captured) {
	t.Helper()
	s := NewSMTPSender(cfg, "http://api.local/")
	c := &captured{}
	s.send = func(_ context.Context, client *gomail.Client, m *gomail.Msg) error {
		var buf bytes.Buffer
		_, werr := m.WriteTo(&buf)
		require.NoError(t, werr)
		c.client, c.msg = client, buf.String()
		c.calls++
		return err
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, c
}

// headers returns the header block of a rendered message.
func headers(msg string) string {
	head, _, _ := strings.Cut(msg, "\r\n\r\n")
	return head
}

func TestSendConfirmation(t *testing.T) {
	s, c := newTestSender(t, config.MailConfig{Host: "smtp.local", Port: 2525, From: "noreply@api.local", FromName: "Contacts", StartTLS: true}, nil)

	require.NoError(t, s.SendConfirmation(context.Background(), "ann@example.com", "ann", "tok123"))
	require.Equal(t, 1, c.calls)
	assert.Equal(t, "smtp.local:2525", c.client.ServerAddr())

	head := headers(c.msg)
	assert.Contains(t, head, "Subject: Confirm your email")
	assert.Contains(t, head, "<ann@example.com>")
	assert.Contains(t, head, `"Contacts" <noreply@api.local>`)
	assert.Contains(t, head, "01 May 2024 12:00:00")
	assert.Contains(t, c.msg, "http://api.local/api/auth/confirmed_email/tok123")
	assert.Contains(t, c.msg, "Hi ann,")
}

func TestSendPasswordReset(t *testing.T) {
	s, c := newTestSender(t, config.MailConfig{Host: "smtp.local", Port: 587, Username: "u", Password: "p", From: "noreply@api.local", StartTLS: true}, nil)

	require.NoError(t, s.SendPasswordReset(context.Background(), "bob@example.com", "bob", "rst"))
	assert.Contains(t, headers(c.msg), "Subject: Reset your password")
	assert.Contains(t, c.msg, "http://api.local/api/auth/reset-password/rst")
}

func TestSend_ImplicitTLSKeepsPort(t *testing.T) {
	s, c := newTestSender(t, config.MailConfig{Host: "smtp.meta.com", Port: 435, Username: "u", Password: "p", From: "from@test.com", SSLTLS: true}, nil)

	require.NoError(t, s.SendConfirmation(context.Background(), "x@example.com", "x", "t"))
	assert.Equal(t, "smtp.meta.com:435", c.client.ServerAddr())
}

func TestCompose_EncodesNonASCIIHeaders(t *testing.T) {
	s, _ := newTestSender(t, config.MailConfig{From: "noreply@api.local", FromName: "Контакты"}, nil)

	m, err := s.Compose(KindConfirmEmail, "ann@example.com", "Аня", "tok")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	head := headers(buf.String())
	assert.NotContains(t, head, "Контакты")
	assert.Contains(t, strings.ToLower(head), "=?utf-8?")
}

func TestCompose_RejectsBadRecipient(t *testing.T) {
	s, _ := newTestSender(t, config.MailConfig{From: "noreply@api.local"}, nil)
	_, err := s.Compose(KindConfirmEmail, "not an address", "x", "t")
	assert.Error(t, err)
}

func TestSend_RelayError(t *testing.T) {
	s, _ := newTestSender(t, config.MailConfig{Host: "smtp.local", Port: 25, From: "noreply@api.local"}, errors.New("421 busy"))
	err := s.SendConfirmation(context.Background(), "x@example.com", "x", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "421 busy")
}

func TestSend_CancelledContext(t *testing.T) {
	s, c := newTestSender(t, config.MailConfig{Host: "smtp.local", Port: 25, From: "noreply@api.local"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SendConfirmation(ctx, "x@example.com", "x", "t"), context.Canceled)
	assert.Zero(t, c.calls)
}

func TestLink_UnknownKind(t *testing.T) {
	s, _ := newTestSender(t, config.MailConfig{}, nil)
	_, err := s.Link("bogus", "t")
	assert.Error(t, err)
}
