package mailer

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// SMTPConfig describes the submission endpoint and the bound account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the account address every message is sent from.
	From string
	// InsecureSkipVerify disables certificate checks, for local relays only.
	InsecureSkipVerify bool
}

// SMTPTransport sends mail through an SMTP relay using STARTTLS, or implicit TLS on port 465.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
	logger *zap.Logger
}

func NewSMTPTransport(cfg SMTPConfig, logger *zap.Logger) *SMTPTransport {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Port == 465 {
		d.SSL = true
	} else {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.InsecureSkipVerify}
	return &SMTPTransport{cfg: cfg, dialer: d, logger: logger}
}

// Send builds a multipart message and submits it. The context only guards the
// start of the call; mail.v2 dials without one.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := BuildMessage(t.cfg.From, msg)
	if err := t.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	t.logger.Debug("SMTP message submitted", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// BuildMessage converts msg into a mail.v2 message sent from the account address.
func BuildMessage(account string, msg *Message) *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", account, msg.FromName)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		settings := []mail.FileSetting{}
		if a.Filename != "" {
			settings = append(settings, mail.Rename(a.Filename))
		}
		if a.ContentID != "" {
			settings = append(settings, mail.SetHeader(map[string][]string{
				"Content-ID": {"<" + a.ContentID + ">"},
			}))
			m.Embed(a.Path, settings...)
			continue
		}
		m.Attach(a.Path, settings...)
	}
	return m
}
