package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/controller"
	"github.com/unclebandit/campaign-mailer/internal/metrics"
	"github.com/unclebandit/campaign-mailer/internal/middleware"
)

// Routes collects everything the HTTP API serves.
type Routes struct {
	Campaigns *controller.CampaignController
	Details   *CampaignHandler
	Templates *TemplateHandler
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	// RequestsPerMinute limits each client IP; 0 disables the limit.
	RequestsPerMinute int
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(rt.Logger))
	r.Use(middleware.Logger(rt.Logger, rt.Metrics))

	r.Get("/healthz", Health)
	r.Method(http.MethodGet, "/metrics", rt.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if rt.RequestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(rt.RequestsPerMinute, time.Minute))
		}

		// Campaign routes
		r.Post("/campaigns", rt.Campaigns.CreateCampaign)
		r.Get("/campaigns", rt.Campaigns.ListCampaigns)
		r.Get("/campaigns/{id}", rt.Details.GetCampaignHandlerWithStats)
		r.Patch("/campaigns/{id}", rt.Campaigns.UpdateCampaign)
		r.Delete("/campaigns/{id}", rt.Campaigns.DeleteCampaign)
		r.Post("/campaigns/{id}/send", rt.Campaigns.SendCampaign)
		r.Post("/campaigns/{id}/preview", rt.Campaigns.PersonalizedPreview)

		// Template routes
		r.Get("/templates", rt.Templates.List)
		r.Post("/templates", rt.Templates.Create)
		r.Get("/templates/{id}", rt.Templates.Get)
		r.Patch("/templates/{id}", rt.Templates.Update)
		r.Delete("/templates/{id}", rt.Templates.Delete)
	})

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
