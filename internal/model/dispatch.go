// internal/model/dispatch.go
package model

type SkipReason string

const (
	SkipUnsubscribed SkipReason = "unsubscribed"
	SkipMissingEmail SkipReason = "missing_email"
)

type SkippedRecipient struct {
	ContactID string     `json:"contact_id"`
	Email     string     `json:"email,omitempty"`
	Reason    SkipReason `json:"reason"`
}

// SendResult is the outcome of one SendMassEmail call.
type SendResult struct {
	Success   bool               `json:"success"`
	SentCount int                `json:"sent_count"`
	Errors    []string           `json:"errors"`
	Skipped   []SkippedRecipient `json:"skipped"`
}

// DispatchJob is the queued form of a send request.
type DispatchJob struct {
	CampaignID string         `json:"campaign_id"`
	TemplateID string         `json:"template_id"`
	ContactIDs []string       `json:"contact_ids,omitempty"`
	Recipients []Contact      `json:"recipients,omitempty"`
	Sender     SenderIdentity `json:"sender"`
}
