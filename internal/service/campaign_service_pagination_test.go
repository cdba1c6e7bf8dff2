package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

// MockCampaignPaginationRepo serves five fixed campaigns
type MockCampaignPaginationRepo struct {
	lastOffset, lastLimit int
}

func (m *MockCampaignPaginationRepo) ListCampaigns(_ context.Context, offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error) {
	m.lastOffset, m.lastLimit = offset, limit
	all := []*model.Campaign{
		{ID: "1", Name: "C1"},
		{ID: "2", Name: "C2"},
		{ID: "3", Name: "C3"},
		{ID: "4", Name: "C4"},
		{ID: "5", Name: "C5"},
	}

	if limit <= 0 {
		limit = len(all)
	}
	start := offset
	end := offset + limit

	if start >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], len(all), nil
}

// Stub implementations to satisfy the interface
func (m *MockCampaignPaginationRepo) Create(_ context.Context, c *model.Campaign) error {
	c.ID = "999"
	return nil
}

func (m *MockCampaignPaginationRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	return &model.Campaign{ID: id, Name: "Mock"}, nil
}

func (m *MockCampaignPaginationRepo) Update(context.Context, *model.Campaign) error { return nil }

func (m *MockCampaignPaginationRepo) UpdateStatus(context.Context, string, model.CampaignStatus) error {
	return nil
}

func (m *MockCampaignPaginationRepo) UpdateProgress(context.Context, string, model.CampaignStatus, int) error {
	return nil
}

func (m *MockCampaignPaginationRepo) Touch(context.Context, string) error { return nil }

func (m *MockCampaignPaginationRepo) PauseStale(context.Context, time.Time) ([]*model.Campaign, error) {
	return nil, nil
}

func (m *MockCampaignPaginationRepo) Delete(context.Context, string) error { return nil }

func TestPagination(t *testing.T) {
	repo := &MockCampaignPaginationRepo{}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctx := context.Background()

	pageSize := 2

	page1, pagination1, _ := svc.ListCampaigns(ctx, 1, pageSize, "")
	page2, _, _ := svc.ListCampaigns(ctx, 2, pageSize, "")

	expectedTotal := 5
	if pagination1["total_count"] != expectedTotal {
		t.Errorf("expected total_count %d, got %d", expectedTotal, pagination1["total_count"])
	}
	if pagination1["total_pages"] != 3 {
		t.Errorf("expected 3 pages, got %d", pagination1["total_pages"])
	}

	if len(page1) != 2 || len(page2) != 2 {
		t.Fatalf("expected full pages, got %d and %d", len(page1), len(page2))
	}

	// Creation order
	if page1[0].ID != "1" || page2[0].ID != "3" {
		t.Errorf("expected pages to start at 1 and 3, got %s and %s", page1[0].ID, page2[0].ID)
	}

	// Check no duplicates between pages
	if page1[1].ID == page2[0].ID {
		t.Errorf("duplicate entry between pages: %v", page1[1].ID)
	}

	page3, pagination3, _ := svc.ListCampaigns(ctx, 3, pageSize, "")
	if len(page3) != 1 {
		t.Errorf("expected last page to have 1 item, got %d", len(page3))
	}
	if pagination3["page"] != 3 {
		t.Errorf("expected page 3, got %d", pagination3["page"])
	}
}

func TestPagination_Defaults(t *testing.T) {
	repo := &MockCampaignPaginationRepo{}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctx := context.Background()

	all, pagination, err := svc.ListCampaigns(ctx, 0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || pagination["total_pages"] != 1 || pagination["page_size"] != 5 {
		t.Errorf("expected every campaign on one page, got %d items and %v", len(all), pagination)
	}

	_, pagination, _ = svc.ListCampaigns(ctx, -4, 500, "")
	if repo.lastOffset != 0 || repo.lastLimit != 100 {
		t.Errorf("expected clamped offset 0 limit 100, got %d and %d", repo.lastOffset, repo.lastLimit)
	}
	if pagination["page"] != 1 {
		t.Errorf("expected page 1, got %d", pagination["page"])
	}
}
