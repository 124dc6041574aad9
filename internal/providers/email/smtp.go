package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Admin    string
}

type SMTPProvider struct {
	cfg Config
	log *zap.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg Config, log *zap.Logger) *SMTPProvider {
	return &SMTPProvider{
		cfg:  cfg,
		log:  log.Named("providers.email"),
		send: smtp.SendMail,
	}
}

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<html>
<body>
<h2>Conversation from {{.Hostname}}</h2>
{{if .Contact.Email}}<p>Visitor email: {{.Contact.Email}}</p>{{end}}
{{if .Contact.Phone}}<p>Visitor phone: {{.Contact.Phone}}</p>{{end}}
<hr/>
{{range .Transcript}}<p><strong>{{.Role}}:</strong> {{.Content}}</p>
{{end}}
</body>
</html>`))

func (p *SMTPProvider) SendConversation(ctx context.Context, req ConversationEmail) error {
	if err := validate(req); err != nil {
		return err
	}
	if p.cfg.Host == "" || p.cfg.From == "" {
		return ErrNotConfigured
	}

	var body bytes.Buffer
	if err := transcriptTemplate.Execute(&body, req); err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}

	subject := "Your conversation transcript"
	if req.Hostname != "" {
		subject = fmt.Sprintf("Conversation transcript from %s", req.Hostname)
	}

	if req.Contact.Email != "" {
		if err := p.deliver(ctx, req.Contact.Email, subject, body.String()); err != nil {
			return fmt.Errorf("send to visitor: %w", err)
		}
	}
	if p.cfg.Admin != "" {
		if err := p.deliver(ctx, p.cfg.Admin, "[copy] "+subject, body.String()); err != nil {
			return fmt.Errorf("send admin copy: %w", err)
		}
	}

	p.log.Info("conversation relayed",
		zap.String("hostname", req.Hostname),
		zap.Bool("visitor_email", req.Contact.Email != ""),
		zap.Int("turns", len(req.Transcript)),
	)
	return nil
}

func (p *SMTPProvider) deliver(_ context.Context, to, subject, htmlBody string) error {
	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	msg := strings.Join([]string{
		"From: " + p.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	return p.send(addr, auth, p.cfg.From, []string{to}, []byte(msg))
}
