// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"fmt"

	"github.com/iliyamo/contacts-api/internal/mail"
)

// EmailEvent asks the mail consumer to deliver one message.  It carries the
// token rather than the rendered link so the consumer's base URL decides
// where the link points.
type EmailEvent struct {
	Kind      mail.Kind `json:"kind"`
	To        string    `json:"to"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	CreatedAt string    `json:"created_at"`
}

// Validate rejects events the consumer cannot act on.
func (e EmailEvent) Validate() error {
	switch e.Kind {
	case mail.KindConfirmEmail, mail.KindResetPassword:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.To == "" || e.Token == "" {
		return fmt.Errorf("event %s is missing recipient or token", e.Kind)
	}
	return nil
}
