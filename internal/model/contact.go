// internal/model/contact.go
package model

import (
	"strings"
	"time"
)

// Contact is a marketing contact. The dispatcher only ever reads it.
type Contact struct {
	ID              string     `db:"id" json:"id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Email           string     `db:"email" json:"email"`
	Company         string     `db:"company" json:"company"`
	Industry        string     `db:"industry" json:"industry"`
	Location        string     `db:"location" json:"location"`
	LeadSource      string     `db:"lead_source" json:"lead_source"`
	Tags            []string   `db:"tags" json:"tags"`
	IsSubscribed    bool       `db:"is_subscribed" json:"is_subscribed"`
	LastEmailSent   *time.Time `db:"last_email_sent" json:"last_email_sent,omitempty"`
	EngagementScore int        `db:"engagement_score" json:"engagement_score"`
}

// Eligible reports whether the contact may receive a send attempt.
func (c Contact) Eligible() bool {
	return c.IsSubscribed && strings.TrimSpace(c.Email) != ""
}

// HasAnyTag reports whether the contact carries at least one of tags.
// An empty tag list matches every contact.
func (c Contact) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range c.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (c *Contact) Clone() *Contact {
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	if c.LastEmailSent != nil {
		t := *c.LastEmailSent
		out.LastEmailSent = &t
	}
	return &out
}

// SenderIdentity is the From/signature identity of a single dispatch call.
type SenderIdentity struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"`
}
