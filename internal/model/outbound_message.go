// internal/model/outbound_message.go
package model

import "time"

type OutboundStatus string

const (
	OutboundSent    OutboundStatus = "sent"
	OutboundFailed  OutboundStatus = "failed"
	OutboundSkipped OutboundStatus = "skipped"
)

// OutboundMessage records the outcome of one recipient in one dispatch.
type OutboundMessage struct {
	ID         string         `db:"id" json:"id"`
	CampaignID string         `db:"campaign_id" json:"campaign_id"`
	ContactID  string         `db:"contact_id" json:"contact_id"`
	Email      string         `db:"email" json:"email"`
	Status     OutboundStatus `db:"status" json:"status"`
	LastError  string         `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
