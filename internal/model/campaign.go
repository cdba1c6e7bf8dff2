// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusPaused    CampaignStatus = "paused"
)

type Campaign struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Subject          string         `db:"subject" json:"subject"`
	Content          string         `db:"content" json:"content"`
	FromName         string         `db:"from_name" json:"from_name"`
	FromEmail        string         `db:"from_email" json:"from_email"`
	TargetAudience   []string       `db:"target_audience" json:"target_audience"`
	Status           CampaignStatus `db:"status" json:"status"`
	TemplateID       string         `db:"template_id" json:"template_id,omitempty"`
	ScheduledAt      *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	UpdatedAt        *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
	SentCount        int            `db:"sent_count" json:"sent_count"`
	OpenRate         float64        `db:"open_rate" json:"open_rate"`
	ClickRate        float64        `db:"click_rate" json:"click_rate"`
	UnsubscribeCount int            `db:"unsubscribe_count" json:"unsubscribe_count"`
}

// CampaignDraft carries the caller-supplied fields of a new campaign.
type CampaignDraft struct {
	Name           string         `json:"name"`
	Subject        string         `json:"subject"`
	Content        string         `json:"content"`
	FromName       string         `json:"from_name"`
	FromEmail      string         `json:"from_email"`
	TargetAudience []string       `json:"target_audience"`
	Status         CampaignStatus `json:"status" validate:"omitempty,oneof=draft scheduled sending completed paused"`
	TemplateID     string         `json:"template_id"`
	ScheduledAt    *time.Time     `json:"scheduled_at,omitempty"`
	CreatedBy      string         `json:"created_by"`
}

// CampaignPatch is a partial update; nil fields are left untouched.
type CampaignPatch struct {
	Name             *string         `json:"name"`
	Subject          *string         `json:"subject"`
	Content          *string         `json:"content"`
	FromName         *string         `json:"from_name"`
	FromEmail        *string         `json:"from_email"`
	TargetAudience   *[]string       `json:"target_audience"`
	Status           *CampaignStatus `json:"status" validate:"omitempty,oneof=draft scheduled sending completed paused"`
	TemplateID       *string         `json:"template_id"`
	ScheduledAt      *time.Time      `json:"scheduled_at"`
	OpenRate         *float64        `json:"open_rate"`
	ClickRate        *float64        `json:"click_rate"`
	UnsubscribeCount *int            `json:"unsubscribe_count"`
}

// Apply merges the non-nil fields of p into c.
func (p CampaignPatch) Apply(c *Campaign) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Subject != nil {
		c.Subject = *p.Subject
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.FromName != nil {
		c.FromName = *p.FromName
	}
	if p.FromEmail != nil {
		c.FromEmail = *p.FromEmail
	}
	if p.TargetAudience != nil {
		c.TargetAudience = append([]string(nil), (*p.TargetAudience)...)
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.TemplateID != nil {
		c.TemplateID = *p.TemplateID
	}
	if p.ScheduledAt != nil {
		t := *p.ScheduledAt
		c.ScheduledAt = &t
	}
	if p.OpenRate != nil {
		c.OpenRate = *p.OpenRate
	}
	if p.ClickRate != nil {
		c.ClickRate = *p.ClickRate
	}
	if p.UnsubscribeCount != nil {
		c.UnsubscribeCount = *p.UnsubscribeCount
	}
}

// Clone returns a deep copy safe to hand out of a store.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.TargetAudience = append([]string(nil), c.TargetAudience...)
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		out.ScheduledAt = &t
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}
