package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/controller"
	"github.com/unclebandit/campaign-mailer/internal/handler"
	"github.com/unclebandit/campaign-mailer/internal/mailer"
	"github.com/unclebandit/campaign-mailer/internal/metrics"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/repository"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

type apiEnv struct {
	router    http.Handler
	campaigns *service.CampaignService
	templates *service.TemplateService
}

func newAPI(t *testing.T, requestsPerMinute int) *apiEnv {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New(nil)
	previews := cache.New(time.Minute, time.Minute)
	validate := validator.New()

	templateSvc := service.NewTemplateService(repository.NewMemoryTemplateRepository(), logger)
	_, err := templateSvc.SeedTemplates(context.Background())
	require.NoError(t, err)

	campaignSvc := &service.CampaignService{
		CampaignRepo: repository.NewMemoryCampaignRepository(),
		TemplateRepo: templateSvc.TemplateRepo,
		ContactRepo: repository.NewMemoryContactRepository(
			model.Contact{FirstName: "Alice", Email: "a@x.com", IsSubscribed: true},
		),
		OutboundRepo: repository.NewMemoryOutboundMessageRepository(),
		Transport:    mailer.NewMemoryTransport(),
		Envelope:     service.NewEnvelope(service.DefaultBranding()),
		Metrics:      m,
		Logger:       logger,
	}

	router := handler.NewRouter(handler.Routes{
		Campaigns: &controller.CampaignController{
			CampaignService: campaignSvc,
			Previews:        previews,
			Validate:        validate,
			Logger:          logger,
		},
		Details:           handler.NewCampaignHandler(campaignSvc, logger),
		Templates:         &handler.TemplateHandler{Service: templateSvc, Validate: validate, Previews: previews},
		Metrics:           m,
		Logger:            logger,
		RequestsPerMinute: requestsPerMinute,
	})
	return &apiEnv{router: router, campaigns: campaignSvc, templates: templateSvc}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t, 0)

	w := api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = api.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "campaign_mailer_http_requests_total"))
}

func TestCampaignDetailsWithStats(t *testing.T) {
	api := newAPI(t, 0)
	ctx := context.Background()
	c, err := api.campaigns.CreateCampaign(ctx, model.CampaignDraft{Name: "Stats"})
	require.NoError(t, err)
	_, err = api.campaigns.SendMassEmail(ctx, c.ID, []model.Contact{
		{ID: "1", Email: "a@x.com", IsSubscribed: true},
		{ID: "2", Email: "b@x.com", IsSubscribed: false},
	}, "1", model.SenderIdentity{Name: "Dana", Email: "dana@agency.test"})
	require.NoError(t, err)

	w := api.do(t, http.MethodGet, "/campaigns/"+c.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var details struct {
		ID        string         `json:"id"`
		Status    string         `json:"status"`
		SentCount int            `json:"sent_count"`
		Stats     map[string]int `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&details))
	assert.Equal(t, c.ID, details.ID)
	assert.Equal(t, "completed", details.Status)
	assert.Equal(t, 1, details.SentCount)
	assert.Equal(t, map[string]int{"total": 2, "sent": 1, "failed": 0, "skipped": 1}, details.Stats)

	w = api.do(t, http.MethodGet, "/campaigns/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplateRoutes(t *testing.T) {
	api := newAPI(t, 0)

	w := api.do(t, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []model.Template `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Data, len(service.DefaultTemplates()))

	w = api.do(t, http.MethodPost, "/templates", map[string]any{
		"name": "Reminder", "subject": "Still there, {{firstName}}?", "content": "Hi {{firstName}}",
		"category": "follow_up", "variables": []string{"firstName"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Template
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.True(t, created.IsActive)
	path := "/templates/" + created.ID

	w = api.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPatch, path, map[string]any{"content": "Hi {{firstName}} from {{zipCode}}"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(t, http.MethodPatch, path, map[string]any{"category": "spam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPatch, path, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Template
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Hi {{firstName}}", updated.Content)
	assert.Equal(t, model.CategoryFollowUp, updated.Category)

	w = api.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTemplate_Validation(t *testing.T) {
	api := newAPI(t, 0)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing name", map[string]any{"content": "x", "category": "welcome"}, http.StatusBadRequest},
		{"unknown category", map[string]any{"name": "n", "content": "x", "category": "spam"}, http.StatusBadRequest},
		{"undeclared variable", map[string]any{"name": "n", "content": "Hi {{firstName}}", "category": "welcome"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/templates", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRateLimit(t *testing.T) {
	api := newAPI(t, 2)

	for i := 0; i < 2; i++ {
		w := api.do(t, http.MethodGet, "/templates", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := api.do(t, http.MethodGet, "/templates", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
