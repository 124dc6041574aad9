// Package email relays finished conversations to the visitor and a copy
// to the configured admin address.
package email

import (
	"context"
	"errors"

	"github.com/webchatkit/webchatkit/internal/contact"
)

// Turn is one transcript line.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationEmail is a transcript relay request. It needs at least one
// contact channel and a non-empty transcript; anything less is rejected
// before any remote call.
type ConversationEmail struct {
	Hostname   string       `json:"hostname"`
	Contact    contact.Info `json:"contact"`
	Transcript []Turn       `json:"transcript"`
}

type Provider interface {
	SendConversation(ctx context.Context, req ConversationEmail) error
}

var (
	ErrMissingContact    = errors.New("missing_contact")
	ErrMissingTranscript = errors.New("missing_transcript")
	ErrNotConfigured     = errors.New("email_not_configured")
)

// NoOpProvider drops every conversation. Used when SMTP is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) SendConversation(ctx context.Context, req ConversationEmail) error {
	return validate(req)
}

func validate(req ConversationEmail) error {
	if req.Contact.Empty() {
		return ErrMissingContact
	}
	if len(req.Transcript) == 0 {
		return ErrMissingTranscript
	}
	return nil
}
