// Package mailer delivers rendered messages over SMTP.
package mailer

import "context"

// Attachment is a file sent with a message. A non-empty ContentID makes it
// an inline part referenced from the HTML body as cid:<ContentID>.
type Attachment struct {
	Filename  string
	Path      string
	ContentID string
}

// Message is one outbound email.
type Message struct {
	FromName    string
	ReplyTo     string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Transport sends a single message. Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}
