// internal/model/template.go
package model

import "time"

type TemplateCategory string

const (
	CategoryWelcome      TemplateCategory = "welcome"
	CategoryFollowUp     TemplateCategory = "follow_up"
	CategoryPromotion    TemplateCategory = "promotion"
	CategoryNewsletter   TemplateCategory = "newsletter"
	CategoryServiceIntro TemplateCategory = "service_intro"
	CategoryTestimonial  TemplateCategory = "testimonial"
)

type Template struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Subject   string           `db:"subject" json:"subject"`
	Content   string           `db:"content" json:"content"`
	Category  TemplateCategory `db:"category" json:"category"`
	Variables []string         `db:"variables" json:"variables"`
	IsActive  bool             `db:"is_active" json:"is_active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// TemplatePatch is a partial update; nil fields are left untouched.
type TemplatePatch struct {
	Name      *string           `json:"name"`
	Subject   *string           `json:"subject"`
	Content   *string           `json:"content"`
	Category  *TemplateCategory `json:"category" validate:"omitempty,oneof=welcome follow_up promotion newsletter service_intro testimonial"`
	Variables *[]string         `json:"variables"`
	IsActive  *bool             `json:"is_active"`
}

func (p TemplatePatch) Apply(t *Template) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Variables != nil {
		t.Variables = append([]string(nil), (*p.Variables)...)
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
}

func (t *Template) Clone() *Template {
	out := *t
	out.Variables = append([]string(nil), t.Variables...)
	return &out
}
