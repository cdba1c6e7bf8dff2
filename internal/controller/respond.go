package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
)

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps typed service errors to HTTP status codes.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func StatusFor(err error) int {
	var (
		campaignNotFound *appErrors.ErrCampaignNotFound
		templateNotFound *appErrors.ErrTemplateNotFound
		contactNotFound  *appErrors.ErrContactNotFound
		busy             *appErrors.ErrDispatchInProgress
		invalidTemplate  *appErrors.TemplateValidationError
		invalidInput     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &campaignNotFound), errors.As(err, &templateNotFound), errors.As(err, &contactNotFound):
		return http.StatusNotFound
	case errors.As(err, &busy):
		return http.StatusConflict
	case errors.As(err, &invalidTemplate):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndValidate reads a JSON body into dst and runs struct validation.
func DecodeAndValidate(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &badRequest{msg: "invalid body: " + err.Error()}
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
			}
			return &badRequest{msg: "invalid body: " + strings.Join(fields, "; ")}
		}
		return &badRequest{msg: err.Error()}
	}
	return nil
}

type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

// WriteBadRequest writes a 400 with err's message.
func WriteBadRequest(w http.ResponseWriter, err error) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}
