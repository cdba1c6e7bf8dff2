// internal/handler/campaign_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/controller"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

// CampaignHandler serves campaign reads that include delivery stats
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *zap.Logger
}

func NewCampaignHandler(svc *service.CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{Service: svc, Logger: logger}
}

// GetCampaignHandlerWithStats returns one campaign with its outbound message counts.
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		h.Logger.Warn("Failed to fetch campaign", zap.String("campaign_id", id), zap.Error(err))
		controller.WriteError(w, err)
		return
	}

	controller.WriteJSON(w, http.StatusOK, details)
}
