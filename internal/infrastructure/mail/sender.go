package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"JournalDigest/internal/config"
	"JournalDigest/internal/ports"
)

// Sender submits the digest over authenticated SMTP.
type Sender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

var _ ports.Sender = (*Sender)(nil)

// NewSender keeps the submission settings; connections are opened per Send.
func NewSender(cfg config.SMTPConfig, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{cfg: cfg, timeout: timeout}
}

// Send returns nil only after the server accepted the message.
func (s *Sender) Send(ctx context.Context, msg ports.Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *Sender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(s.timeout),
	}
	if s.cfg.TLS == "starttls" {
		return append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	return append(opts, gomail.WithSSL())
}

func (s *Sender) buildMessage(msg ports.Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", s.cfg.From, err)
	}
	if err := m.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("recipient address %q: %w", s.cfg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}
	return m, nil
}
