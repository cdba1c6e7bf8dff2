package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"

	"github.com/unclebandit/campaign-mailer/internal/controller"
	"github.com/unclebandit/campaign-mailer/internal/model"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

// TemplateHandler exposes template records. Previews, when set, is flushed on
// every change so cached previews never outlive their template.
type TemplateHandler struct {
	Service  *service.TemplateService
	Validate *validator.Validate
	Previews *cache.Cache
}

type createTemplateRequest struct {
	Name      string                 `json:"name" validate:"required"`
	Subject   string                 `json:"subject"`
	Content   string                 `json:"content" validate:"required"`
	Category  model.TemplateCategory `json:"category" validate:"required,oneof=welcome follow_up promotion newsletter service_intro testimonial"`
	Variables []string               `json:"variables"`
	IsActive  *bool                  `json:"is_active"`
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Service.ListTemplates(r.Context())
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createTemplateRequest
	if err := controller.DecodeAndValidate(r, h.Validate, &body); err != nil {
		controller.WriteBadRequest(w, err)
		return
	}

	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	t, err := h.Service.CreateTemplate(r.Context(), &model.Template{
		Name:      body.Name,
		Subject:   body.Subject,
		Content:   body.Content,
		Category:  body.Category,
		Variables: body.Variables,
		IsActive:  active,
	})
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusCreated, t)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.TemplatePatch
	if err := controller.DecodeAndValidate(r, h.Validate, &patch); err != nil {
		controller.WriteBadRequest(w, err)
		return
	}

	t, err := h.Service.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	h.flushPreviews()
	controller.WriteJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		controller.WriteError(w, err)
		return
	}
	h.flushPreviews()
	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplateHandler) flushPreviews() {
	if h.Previews != nil {
		h.Previews.Flush()
	}
}
