package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/repository"
)

const (
	defaultFirstName = "there"
	defaultLastName  = ""
	defaultCompany   = "your business"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Personalize substitutes the recognised {{token}} placeholders of pattern.
// Unknown tokens are left untouched and nothing is escaped.
func Personalize(pattern string, contact model.Contact, sender model.SenderIdentity) string {
	firstName := contact.FirstName
	if firstName == "" {
		firstName = defaultFirstName
	}
	lastName := contact.LastName
	if lastName == "" {
		lastName = defaultLastName
	}
	company := contact.Company
	if company == "" {
		company = defaultCompany
	}

	return RenderTemplate(pattern, map[string]string{
		"firstName":   firstName,
		"lastName":    lastName,
		"company":     company,
		"senderName":  sender.Name,
		"senderEmail": sender.Email,
	})
}

// RenderTemplate replaces {{key}} with data[key] in a single pass, so values
// that themselves look like placeholders are never expanded again.
func RenderTemplate(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[2 : len(token)-2]
		if v, ok := data[key]; ok {
			return v
		}
		return token
	})
}

// Placeholders returns the distinct token names used in s, in order of first use.
func Placeholders(s string) []string {
	seen := map[string]bool{}
	names := []string{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidateTemplate checks that every placeholder in the subject and content is
// declared in Variables.
func ValidateTemplate(t *model.Template) error {
	if strings.TrimSpace(t.Content) == "" {
		return &appErrors.TemplateValidationError{TemplateID: t.ID, EmptyContent: true}
	}

	declared := map[string]bool{}
	for _, v := range t.Variables {
		declared[v] = true
	}

	undeclared := []string{}
	for _, name := range Placeholders(t.Subject + "\n" + t.Content) {
		if !declared[name] {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		sort.Strings(undeclared)
		return &appErrors.TemplateValidationError{TemplateID: t.ID, Undeclared: undeclared}
	}
	return nil
}

// TemplateService owns template records.
type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	Logger       *zap.Logger
}

func NewTemplateService(repo repository.TemplateRepositoryInterface, logger *zap.Logger) *TemplateService {
	return &TemplateService{TemplateRepo: repo, Logger: logger}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, t *model.Template) (*model.Template, error) {
	if err := ValidateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.TemplateRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.Logger.Info("Template created", zap.String("template_id", t.ID), zap.String("category", string(t.Category)))
	return t, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	return s.TemplateRepo.GetByID(ctx, id)
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	return s.TemplateRepo.List(ctx)
}

// UpdateTemplate merges patch into the stored template and re-validates it.
func (s *TemplateService) UpdateTemplate(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	t, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := ValidateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.TemplateRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	return s.TemplateRepo.Delete(ctx, id)
}

// SeedTemplates stores DefaultTemplates when the repository is empty.
func (s *TemplateService) SeedTemplates(ctx context.Context) (int, error) {
	existing, err := s.TemplateRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	seeded := 0
	for _, t := range DefaultTemplates() {
		t := t
		if err := s.TemplateRepo.Create(ctx, &t); err != nil {
			return seeded, fmt.Errorf("seed template %q: %w", t.Name, err)
		}
		seeded++
	}
	s.Logger.Info("Seeded default templates", zap.Int("count", seeded))
	return seeded, nil
}
