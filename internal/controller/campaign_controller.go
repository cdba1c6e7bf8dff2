// internal/controller/campaign_controller.go
package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	// Previews caches rendered previews; nil disables caching.
	Previews *cache.Cache
	Validate *validator.Validate
	Logger   *zap.Logger
}

type sendRequest struct {
	TemplateID string               `json:"template_id" validate:"required"`
	ContactIDs []string             `json:"contact_ids" validate:"required_without=Recipients"`
	Recipients []model.Contact      `json:"recipients"`
	Sender     model.SenderIdentity `json:"sender"`
}

type previewRequest struct {
	ContactID        string  `json:"contact_id" validate:"required"`
	TemplateID       string  `json:"template_id"`
	OverrideTemplate *string `json:"override_template"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var draft model.CampaignDraft
	if err := DecodeAndValidate(r, c.Validate, &draft); err != nil {
		WriteBadRequest(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), draft)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, campaign)
}

// ListCampaigns returns every campaign unless page or page_size is given.
func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := model.CampaignStatus(r.URL.Query().Get("status"))

	if page > 0 && pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var patch model.CampaignPatch
	if err := DecodeAndValidate(r, c.Validate, &patch); err != nil {
		WriteBadRequest(w, err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	c.flushPreviews()
	WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.DeleteCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}
	c.flushPreviews()
	w.WriteHeader(http.StatusNoContent)
}

// SendCampaign dispatches synchronously, or through the queue with ?async=true.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body sendRequest
	if err := DecodeAndValidate(r, c.Validate, &body); err != nil {
		WriteBadRequest(w, err)
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		job := model.DispatchJob{
			CampaignID: id,
			TemplateID: body.TemplateID,
			ContactIDs: body.ContactIDs,
			Recipients: body.Recipients,
			Sender:     body.Sender,
		}
		if err := c.CampaignService.EnqueueDispatch(r.Context(), job); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]string{"campaign_id": id, "status": "queued"})
		return
	}

	recipients := body.Recipients
	if len(recipients) == 0 {
		var err error
		recipients, err = c.CampaignService.ResolveRecipients(r.Context(), body.ContactIDs)
		if err != nil {
			WriteError(w, err)
			return
		}
	}

	result, err := c.CampaignService.SendMassEmail(r.Context(), id, recipients, body.TemplateID, body.Sender)
	if err != nil {
		WriteError(w, err)
		return
	}

	c.Logger.Info("Campaign sent",
		zap.String("campaign_id", id),
		zap.Int("sent", result.SentCount),
		zap.Int("failed", len(result.Errors)),
	)
	WriteJSON(w, http.StatusOK, result)
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body previewRequest
	if err := DecodeAndValidate(r, c.Validate, &body); err != nil {
		WriteBadRequest(w, err)
		return
	}

	key := previewKey(id, body)
	if c.Previews != nil {
		if cached, ok := c.Previews.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			WriteJSON(w, http.StatusOK, cached)
			return
		}
	}

	preview, err := c.CampaignService.RenderPreview(r.Context(), id, body.ContactID, body.TemplateID, body.OverrideTemplate)
	if err != nil {
		WriteError(w, err)
		return
	}

	if c.Previews != nil {
		c.Previews.SetDefault(key, preview)
		w.Header().Set("X-Cache", "MISS")
	}
	WriteJSON(w, http.StatusOK, preview)
}

func previewKey(campaignID string, body previewRequest) string {
	override := ""
	if body.OverrideTemplate != nil {
		override = *body.OverrideTemplate
	}
	return strings.Join([]string{campaignID, body.ContactID, body.TemplateID, override}, "\x00")
}

func (c *CampaignController) flushPreviews() {
	if c.Previews != nil {
		c.Previews.Flush()
	}
}
