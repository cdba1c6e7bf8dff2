// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrCampaignNotFound is returned when a campaign id does not resolve.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// ErrTemplateNotFound is returned when a template id does not resolve.
type ErrTemplateNotFound struct {
	TemplateID string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %s not found", e.TemplateID)
}

// ErrContactNotFound is returned when a contact id does not resolve.
type ErrContactNotFound struct {
	ContactID string
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("contact with ID %s not found", e.ContactID)
}

// ErrDispatchInProgress is returned when a campaign is already being sent.
type ErrDispatchInProgress struct {
	CampaignID string
}

func (e *ErrDispatchInProgress) Error() string {
	return fmt.Sprintf("campaign %s is already being sent", e.CampaignID)
}

// TemplateValidationError lists placeholders used but not declared by a template.
type TemplateValidationError struct {
	TemplateID   string
	Undeclared   []string
	EmptyContent bool
}

func (e *TemplateValidationError) Error() string {
	if e.EmptyContent {
		return "template content cannot be empty"
	}
	return fmt.Sprintf("template %q uses undeclared variables: %s", e.TemplateID, strings.Join(e.Undeclared, ", "))
}

// Helper constructors
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

func NewTemplateNotFound(id string) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

func NewContactNotFound(id string) error {
	return &ErrContactNotFound{ContactID: id}
}

func NewDispatchInProgress(id string) error {
	return &ErrDispatchInProgress{CampaignID: id}
}
