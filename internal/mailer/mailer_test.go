package mailer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildMessage_HeadersAndInlineLogo(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("png-bytes"), 0o600))

	m := BuildMessage("outreach@agency.io", &Message{
		FromName: "Ana Ruiz",
		ReplyTo:  "ana@agency.io",
		To:       "lead@acme.com",
		Subject:  "Hello",
		HTML:     `<img src="cid:logo">`,
		Text:     "Hello",
		Attachments: []Attachment{
			{Filename: "logo.png", Path: logo, ContentID: "logo"},
		},
	})

	assert.Equal(t, []string{`"Ana Ruiz" <outreach@agency.io>`}, m.GetHeader("From"))
	assert.Equal(t, []string{"ana@agency.io"}, m.GetHeader("Reply-To"))
	assert.Equal(t, []string{"lead@acme.com"}, m.GetHeader("To"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Content-ID: <logo>")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "text/plain")
}

func TestSMTPTransport_CancelledContext(t *testing.T) {
	tr := NewSMTPTransport(SMTPConfig{Host: "localhost", Port: 587}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Send(ctx, &Message{To: "x@y.z"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPTransport_ImplicitTLSOn465(t *testing.T) {
	assert.True(t, NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 465}, zap.NewNop()).dialer.SSL)
	assert.False(t, NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 587}, zap.NewNop()).dialer.SSL)
}

func TestMemoryTransport(t *testing.T) {
	tr := NewMemoryTransport()
	tr.FailFor("bad@x.com", errors.New("mailbox unavailable"))

	require.NoError(t, tr.Send(context.Background(), &Message{To: "good@x.com"}))
	err := tr.Send(context.Background(), &Message{To: "bad@x.com"})

	assert.EqualError(t, err, "mailbox unavailable")
	assert.Len(t, tr.Sent(), 1)
	assert.Equal(t, "good@x.com,bad@x.com", strings.Join(tr.Attempts(), ","))
}
