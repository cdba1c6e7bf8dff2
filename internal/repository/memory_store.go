package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
	"github.com/unclebandit/campaign-mailer/internal/model"
)

// sequence hands out monotonically increasing string ids.
type sequence struct {
	next int64
}

func (s *sequence) nextID() string {
	s.next++
	return strconv.FormatInt(s.next, 10)
}

// byNumericID orders string ids the way they were assigned.
func byNumericID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr != nil || berr != nil {
		return a < b
	}
	return ai < bi
}

// ====================== Campaigns ======================

// MemoryCampaignRepository keeps campaigns in process memory.
type MemoryCampaignRepository struct {
	mu        sync.RWMutex
	seq       sequence
	campaigns map[string]*model.Campaign
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{campaigns: make(map[string]*model.Campaign)}
}

func (r *MemoryCampaignRepository) Create(_ context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.seq.nextID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	r.campaigns[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCampaignRepository) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c.Clone(), nil
}

func (r *MemoryCampaignRepository) ListCampaigns(_ context.Context, offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := []*model.Campaign{}
	for _, c := range r.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}
	sort.Slice(filtered, func(i, j int) bool { return byNumericID(filtered[i].ID, filtered[j].ID) })
	total := len(filtered)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	out := make([]*model.Campaign, 0, end-offset)
	for _, c := range filtered[offset:end] {
		out = append(out, c.Clone())
	}
	return out, total, nil
}

func (r *MemoryCampaignRepository) Update(_ context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	// sent_count is owned by UpdateProgress
	c.SentCount = stored.SentCount
	now := time.Now()
	c.UpdatedAt = &now
	r.campaigns[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCampaignRepository) UpdateStatus(_ context.Context, id string, status model.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	now := time.Now()
	c.Status = status
	c.UpdatedAt = &now
	return nil
}

func (r *MemoryCampaignRepository) UpdateProgress(_ context.Context, id string, status model.CampaignStatus, sentCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	now := time.Now()
	c.Status = status
	c.SentCount = sentCount
	c.UpdatedAt = &now
	return nil
}

func (r *MemoryCampaignRepository) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if c.Status == model.CampaignStatusSending {
		now := time.Now()
		c.UpdatedAt = &now
	}
	return nil
}

func (r *MemoryCampaignRepository) PauseStale(_ context.Context, cutoff time.Time) ([]*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paused := []*model.Campaign{}
	now := time.Now()
	for _, c := range r.campaigns {
		if c.Status != model.CampaignStatusSending {
			continue
		}
		last := c.CreatedAt
		if c.UpdatedAt != nil {
			last = *c.UpdatedAt
		}
		if !last.Before(cutoff) {
			continue
		}
		c.Status = model.CampaignStatusPaused
		c.UpdatedAt = &now
		paused = append(paused, c.Clone())
	}
	sort.Slice(paused, func(i, j int) bool { return byNumericID(paused[i].ID, paused[j].ID) })
	return paused, nil
}

func (r *MemoryCampaignRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(r.campaigns, id)
	return nil
}

// ====================== Templates ======================

// MemoryTemplateRepository keeps templates in process memory.
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	seq       sequence
	templates map[string]*model.Template
}

// NewMemoryTemplateRepository creates a repository holding the given seed templates,
// which receive ids in order.
func NewMemoryTemplateRepository(seed ...model.Template) *MemoryTemplateRepository {
	r := &MemoryTemplateRepository{templates: make(map[string]*model.Template)}
	for i := range seed {
		t := seed[i]
		_ = r.Create(context.Background(), &t)
	}
	return r
}

func (r *MemoryTemplateRepository) Create(_ context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.seq.nextID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.templates[t.ID] = t.Clone()
	return nil
}

func (r *MemoryTemplateRepository) GetByID(_ context.Context, id string) (*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return t.Clone(), nil
}

func (r *MemoryTemplateRepository) List(_ context.Context) ([]*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return byNumericID(out[i].ID, out[j].ID) })
	return out, nil
}

func (r *MemoryTemplateRepository) Update(_ context.Context, t *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	r.templates[t.ID] = t.Clone()
	return nil
}

func (r *MemoryTemplateRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return appErrors.NewTemplateNotFound(id)
	}
	delete(r.templates, id)
	return nil
}

// ====================== Contacts ======================

// MemoryContactRepository keeps contacts in insertion order.
type MemoryContactRepository struct {
	mu       sync.RWMutex
	seq      sequence
	contacts []*model.Contact
}

func NewMemoryContactRepository(seed ...model.Contact) *MemoryContactRepository {
	r := &MemoryContactRepository{}
	for i := range seed {
		c := seed[i]
		_ = r.Create(context.Background(), &c)
	}
	return r
}

func (r *MemoryContactRepository) Create(_ context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.seq.nextID()
	r.contacts = append(r.contacts, c.Clone())
	return nil
}

func (r *MemoryContactRepository) GetByID(_ context.Context, id string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contacts {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, appErrors.NewContactNotFound(id)
}

func (r *MemoryContactRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error) {
	out := make([]model.Contact, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *MemoryContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
	return r.ListByTags(ctx, nil)
}

func (r *MemoryContactRepository) ListByTags(_ context.Context, tags []string) ([]model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Contact{}
	for _, c := range r.contacts {
		if c.HasAnyTag(tags) {
			out = append(out, *c.Clone())
		}
	}
	return out, nil
}

// ====================== Outbound messages ======================

// MemoryOutboundMessageRepository keeps the delivery log in process memory.
type MemoryOutboundMessageRepository struct {
	mu   sync.RWMutex
	seq  sequence
	msgs []model.OutboundMessage
}

func NewMemoryOutboundMessageRepository() *MemoryOutboundMessageRepository {
	return &MemoryOutboundMessageRepository{}
}

func (r *MemoryOutboundMessageRepository) Create(_ context.Context, msg *model.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = r.seq.nextID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *MemoryOutboundMessageRepository) ListByCampaign(_ context.Context, campaignID string) ([]model.OutboundMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.OutboundMessage{}
	for _, msg := range r.msgs {
		if msg.CampaignID == campaignID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *MemoryOutboundMessageRepository) GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	msgs, _ := r.ListByCampaign(ctx, campaignID)
	stats := newStats()
	for _, msg := range msgs {
		stats[string(msg.Status)]++
		stats["total"]++
	}
	return stats, nil
}

var (
	_ CampaignRepositoryInterface        = (*MemoryCampaignRepository)(nil)
	_ TemplateRepositoryInterface        = (*MemoryTemplateRepository)(nil)
	_ ContactRepositoryInterface         = (*MemoryContactRepository)(nil)
	_ OutboundMessageRepositoryInterface = (*MemoryOutboundMessageRepository)(nil)
)
