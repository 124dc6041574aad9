package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webchatkit/webchatkit/internal/contact"
	"go.uber.org/zap"
)

type capturedMail struct {
	to  []string
	msg string
}

func newTestSMTP(mails *[]capturedMail) *SMTPProvider {
	provider := NewSMTP(Config{
		Host:  "smtp.example.com",
		Port:  587,
		From:  "widget@example.com",
		Admin: "admin@example.com",
	}, zap.NewNop())
	provider.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*mails = append(*mails, capturedMail{to: to, msg: string(msg)})
		return nil
	}
	return provider
}

func transcript() []Turn {
	return []Turn{
		{Role: "user", Content: "How much is the product?"},
		{Role: "assistant", Content: "It costs 10."},
	}
}

func TestSendConversationToVisitorAndAdmin(t *testing.T) {
	var mails []capturedMail
	provider := newTestSMTP(&mails)

	err := provider.SendConversation(context.Background(), ConversationEmail{
		Hostname:   "acme.io",
		Contact:    contact.Info{Email: "visitor@example.com"},
		Transcript: transcript(),
	})
	require.NoError(t, err)

	require.Len(t, mails, 2)
	assert.Equal(t, []string{"visitor@example.com"}, mails[0].to)
	assert.Equal(t, []string{"admin@example.com"}, mails[1].to)
	assert.Contains(t, mails[0].msg, "acme.io")
	assert.Contains(t, mails[0].msg, "How much is the product?")
	assert.Contains(t, mails[1].msg, "[copy]")
}

func TestSendConversationPhoneOnlyGoesToAdmin(t *testing.T) {
	var mails []capturedMail
	provider := newTestSMTP(&mails)

	err := provider.SendConversation(context.Background(), ConversationEmail{
		Hostname:   "acme.io",
		Contact:    contact.Info{Phone: "+1 202 555 0199"},
		Transcript: transcript(),
	})
	require.NoError(t, err)

	require.Len(t, mails, 1)
	assert.Equal(t, []string{"admin@example.com"}, mails[0].to)
	// html/template entity-escapes '+' in text nodes.
	assert.Contains(t, mails[0].msg, "&#43;1 202 555 0199")
}

func TestSendConversationRejectsMalformedInput(t *testing.T) {
	var mails []capturedMail
	provider := newTestSMTP(&mails)

	err := provider.SendConversation(context.Background(), ConversationEmail{
		Hostname:   "acme.io",
		Transcript: transcript(),
	})
	assert.ErrorIs(t, err, ErrMissingContact)

	err = provider.SendConversation(context.Background(), ConversationEmail{
		Hostname: "acme.io",
		Contact:  contact.Info{Email: "visitor@example.com"},
	})
	assert.ErrorIs(t, err, ErrMissingTranscript)

	// Nothing left the process.
	assert.Empty(t, mails)
}
