// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
	"github.com/unclebandit/campaign-mailer/internal/mailer"
	"github.com/unclebandit/campaign-mailer/internal/metrics"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/queue"
	"github.com/unclebandit/campaign-mailer/internal/repository"
)

// CampaignService owns campaigns and dispatches them. OutboundRepo, Metrics and
// Queue are optional.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Transport    mailer.Transport
	Limiter      Limiter
	Envelope     Envelope
	// Attachments go out with every message; the logo's ContentID must match Envelope.Brand.LogoContentID.
	Attachments []mailer.Attachment
	// SenderRole fills SenderIdentity.Role for scheduled sends and previews.
	SenderRole string
	Metrics    *metrics.Metrics
	Queue      queue.Queue
	Logger     *zap.Logger
	// StaleAfter is how long a sending campaign may go without a heartbeat
	// before Reconcile pauses it. Zero means DefaultStaleAfter.
	StaleAfter time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// DefaultStaleAfter is the heartbeat age at which a sending campaign counts as abandoned.
const DefaultStaleAfter = 2 * time.Minute

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

// Preview is a rendered message for one contact.
type Preview struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// acquire marks id as being dispatched. It fails if a dispatch is already running.
func (s *CampaignService) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, busy := s.inFlight[id]; busy {
		return appErrors.NewDispatchInProgress(id)
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *CampaignService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func (s *CampaignService) staleAfter() time.Duration {
	if s.StaleAfter <= 0 {
		return DefaultStaleAfter
	}
	return s.StaleAfter
}

// heartbeat touches the campaign every StaleAfter/4 until stop is called.
func (s *CampaignService) heartbeat(ctx context.Context, id string) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	interval := s.staleAfter() / 4
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer close(finished)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.CampaignRepo.Touch(ctx, id); err != nil {
					s.logger().Warn("Campaign heartbeat failed", zap.String("campaign_id", id), zap.Error(err))
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func (s *CampaignService) isInFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[id]
	return busy
}

// ====================== Campaign records ======================

// CreateCampaign stores a new campaign. Fields are not validated.
func (s *CampaignService) CreateCampaign(ctx context.Context, d model.CampaignDraft) (*model.Campaign, error) {
	status := d.Status
	if status == "" {
		status = model.CampaignStatusDraft
	}
	c := &model.Campaign{
		Name:           d.Name,
		Subject:        d.Subject,
		Content:        d.Content,
		FromName:       d.FromName,
		FromEmail:      d.FromEmail,
		TargetAudience: d.TargetAudience,
		Status:         status,
		TemplateID:     d.TemplateID,
		ScheduledAt:    d.ScheduledAt,
		CreatedAt:      time.Now(),
		CreatedBy:      d.CreatedBy,
	}
	if c.TargetAudience == nil {
		c.TargetAudience = []string{}
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger().Info("Campaign created", zap.String("campaign_id", c.ID), zap.String("status", string(c.Status)))
	return c, nil
}

// ListCampaigns fetches campaigns. A pageSize <= 0 returns every campaign.
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status model.CampaignStatus) ([]*model.Campaign, map[string]int, error) {
	if pageSize <= 0 {
		campaigns, total, err := s.CampaignRepo.ListCampaigns(ctx, 0, 0, status)
		if err != nil {
			return nil, nil, err
		}
		totalPages := 0
		if total > 0 {
			totalPages = 1
		}
		return campaigns, map[string]int{
			"page":        1,
			"page_size":   total,
			"total_count": total,
			"total_pages": totalPages,
		}, nil
	}

	if page < 1 {
		page = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// GetCampaignDetailsWithStats adds per-status delivery counts from the outbound log.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, id string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{}
	if s.OutboundRepo != nil {
		stats, err = s.OutboundRepo.GetCampaignStats(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load stats for campaign %s: %w", id, err)
		}
	}
	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// UpdateCampaign merges patch into a campaign that is not currently being sent.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, patch model.CampaignPatch) (*model.Campaign, error) {
	if s.isInFlight(id) {
		return nil, appErrors.NewDispatchInProgress(id)
	}
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCampaign removes a campaign that is not currently being sent.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if s.isInFlight(id) {
		return appErrors.NewDispatchInProgress(id)
	}
	return s.CampaignRepo.Delete(ctx, id)
}

// ====================== Dispatch ======================

// SendMassEmail personalizes the template for every eligible recipient and
// sends one message each, in order, waiting on the limiter after every attempt.
// Unknown campaign or template ids fail before anything is changed. Once the
// loop starts it is not cancelled by ctx.
func (s *CampaignService) SendMassEmail(ctx context.Context, campaignID string, recipients []model.Contact, templateID string, sender model.SenderIdentity) (*model.SendResult, error) {
	log := s.logger().With(zap.String("campaign_id", campaignID), zap.String("template_id", templateID))

	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	tmpl, err := s.TemplateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(campaignID); err != nil {
		return nil, err
	}
	defer s.release(campaignID)

	ctx = context.WithoutCancel(ctx)
	done := s.Metrics.DispatchStarted()
	defer done()

	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignStatusSending); err != nil {
		return nil, fmt.Errorf("mark campaign %s sending: %w", campaignID, err)
	}
	log.Info("Campaign dispatch started", zap.Int("recipients", len(recipients)))
	stopHeartbeat := s.heartbeat(ctx, campaignID)

	result := &model.SendResult{Errors: []string{}, Skipped: []model.SkippedRecipient{}}

	for _, contact := range recipients {
		if reason, skip := skipReason(contact); skip {
			result.Skipped = append(result.Skipped, model.SkippedRecipient{
				ContactID: contact.ID,
				Email:     contact.Email,
				Reason:    reason,
			})
			s.Metrics.Skipped(string(reason))
			s.record(ctx, campaignID, contact, model.OutboundSkipped, string(reason))
			continue
		}

		msg := s.buildMessage(tmpl, contact, sender)
		if err := s.Transport.Send(ctx, msg); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to send to %s: %s", contact.Email, err.Error()))
			s.Metrics.Failed()
			s.record(ctx, campaignID, contact, model.OutboundFailed, err.Error())
			log.Error("Email send failed", zap.String("to", contact.Email), zap.Error(err))
		} else {
			result.SentCount++
			s.Metrics.Sent()
			s.record(ctx, campaignID, contact, model.OutboundSent, "")
			log.Info("Email sent", zap.String("to", contact.Email))
		}

		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				log.Warn("Rate limiter wait failed", zap.Error(err))
			}
		}
	}

	stopHeartbeat()
	if err := s.CampaignRepo.UpdateProgress(ctx, campaignID, model.CampaignStatusCompleted, result.SentCount); err != nil {
		return result, fmt.Errorf("mark campaign %s completed: %w", campaignID, err)
	}

	result.Success = result.SentCount > 0
	log.Info("Campaign dispatch finished",
		zap.Int("sent", result.SentCount),
		zap.Int("failed", len(result.Errors)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func skipReason(c model.Contact) (model.SkipReason, bool) {
	switch {
	case c.Eligible():
		return "", false
	case !c.IsSubscribed:
		return model.SkipUnsubscribed, true
	default:
		return model.SkipMissingEmail, true
	}
}

func (s *CampaignService) buildMessage(tmpl *model.Template, contact model.Contact, sender model.SenderIdentity) *mailer.Message {
	body := Personalize(tmpl.Content, contact, sender)
	return &mailer.Message{
		FromName:    sender.Name,
		ReplyTo:     sender.Email,
		To:          contact.Email,
		Subject:     Personalize(tmpl.Subject, contact, sender),
		HTML:        s.Envelope.RenderHTML(body, sender),
		Text:        body,
		Attachments: s.Attachments,
	}
}

// record appends to the delivery log. Failures are logged and otherwise ignored.
func (s *CampaignService) record(ctx context.Context, campaignID string, contact model.Contact, status model.OutboundStatus, detail string) {
	if s.OutboundRepo == nil {
		return
	}
	err := s.OutboundRepo.Create(ctx, &model.OutboundMessage{
		CampaignID: campaignID,
		ContactID:  contact.ID,
		Email:      contact.Email,
		Status:     status,
		LastError:  detail,
	})
	if err != nil {
		s.logger().Warn("Failed to record outbound message",
			zap.String("campaign_id", campaignID),
			zap.String("contact_id", contact.ID),
			zap.Error(err),
		)
	}
}

// ResolveRecipients loads contacts by id, keeping the given order.
func (s *CampaignService) ResolveRecipients(ctx context.Context, contactIDs []string) ([]model.Contact, error) {
	return s.ContactRepo.GetByIDs(ctx, contactIDs)
}

// RenderPreview renders the message one contact would receive. An empty
// templateID falls back to the campaign's template, then to the campaign's own
// subject and content. A non-empty override replaces the body pattern.
func (s *CampaignService) RenderPreview(ctx context.Context, campaignID, contactID, templateID string, override *string) (*Preview, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	contact, err := s.ContactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}

	tmpl := &model.Template{Subject: campaign.Subject, Content: campaign.Content}
	if templateID == "" {
		templateID = campaign.TemplateID
	}
	if templateID != "" {
		if tmpl, err = s.TemplateRepo.GetByID(ctx, templateID); err != nil {
			return nil, err
		}
	}
	if override != nil && strings.TrimSpace(*override) != "" {
		tmpl.Content = *override
	}
	if strings.TrimSpace(tmpl.Content) == "" {
		return nil, fmt.Errorf("template cannot be empty")
	}

	msg := s.buildMessage(tmpl, *contact, s.senderFor(campaign))
	return &Preview{To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}, nil
}

func (s *CampaignService) senderFor(c *model.Campaign) model.SenderIdentity {
	return model.SenderIdentity{Name: c.FromName, Email: c.FromEmail, Role: s.SenderRole}
}

// EnqueueDispatch checks that the job's campaign and template exist and publishes it.
func (s *CampaignService) EnqueueDispatch(ctx context.Context, job model.DispatchJob) error {
	if s.Queue == nil {
		return fmt.Errorf("no dispatch queue configured")
	}
	if _, err := s.CampaignRepo.GetByID(ctx, job.CampaignID); err != nil {
		return err
	}
	if _, err := s.TemplateRepo.GetByID(ctx, job.TemplateID); err != nil {
		return err
	}
	if s.isInFlight(job.CampaignID) {
		return appErrors.NewDispatchInProgress(job.CampaignID)
	}
	if err := s.Queue.Publish(queue.CampaignSendsTopic, job); err != nil {
		return fmt.Errorf("enqueue campaign %s: %w", job.CampaignID, err)
	}
	s.logger().Info("Campaign dispatch queued", zap.String("campaign_id", job.CampaignID))
	return nil
}

// ====================== Lifecycle ======================

// Reconcile pauses sending campaigns whose heartbeat is older than StaleAfter,
// which are the ones a crashed process left behind. Live dispatches keep their
// heartbeat fresh and are left alone, whichever process runs them.
func (s *CampaignService) Reconcile(ctx context.Context) (int, error) {
	paused, err := s.CampaignRepo.PauseStale(ctx, time.Now().Add(-s.staleAfter()))
	if err != nil {
		return 0, err
	}
	for _, c := range paused {
		s.logger().Warn("Campaign interrupted mid-send, paused", zap.String("campaign_id", c.ID), zap.Int("sent_count", c.SentCount))
	}
	return len(paused), nil
}

// RunDueCampaigns dispatches every scheduled campaign whose time has come and
// that names a template. Recipients are the contacts tagged with any of the
// campaign's target audience. It returns how many campaigns were sent.
func (s *CampaignService) RunDueCampaigns(ctx context.Context, now time.Time) (int, error) {
	scheduled, _, err := s.CampaignRepo.ListCampaigns(ctx, 0, 0, model.CampaignStatusScheduled)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, c := range scheduled {
		if c.ScheduledAt == nil || c.ScheduledAt.After(now) || c.TemplateID == "" {
			continue
		}
		log := s.logger().With(zap.String("campaign_id", c.ID))

		recipients, err := s.ContactRepo.ListByTags(ctx, c.TargetAudience)
		if err != nil {
			log.Error("Failed to load recipients", zap.Error(err))
			continue
		}
		if _, err := s.SendMassEmail(ctx, c.ID, recipients, c.TemplateID, s.senderFor(c)); err != nil {
			log.Error("Scheduled dispatch failed", zap.Error(err))
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
