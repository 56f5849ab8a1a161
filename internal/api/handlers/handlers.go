package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/middleware"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/reminders"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/validation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/workflow"
)

// Handler serves the payment workflow over HTTP. It keeps no session
// state: every step request carries the envelope of the previous hop.
type Handler struct {
	machine   *workflow.Machine
	store     *saved.Store
	reminders ReminderLister
	validate  *validator.Validate
	log       zerolog.Logger
}

// ReminderLister lists the reminders raised for scheduled bills.
type ReminderLister interface {
	List(ctx context.Context, f reminders.Filter) []reminders.Job
}

// NewHandler creates a Handler. lister may be nil when no reminder
// dispatcher runs.
func NewHandler(machine *workflow.Machine, store *saved.Store, lister ReminderLister, log zerolog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{machine: machine, store: store, reminders: lister, validate: v, log: log}
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog/categories", h.ListCategories)
	mux.HandleFunc("GET /api/catalog/providers", h.ListProviders)
	mux.HandleFunc("GET /api/catalog/providers/{name}/packages", h.ListPackages)

	mux.HandleFunc("POST /api/quote", h.Quote)
	mux.HandleFunc("POST /api/drafts/validate", h.ValidateDraft)

	mux.HandleFunc("POST /api/steps/category", h.SelectCategory)
	mux.HandleFunc("POST /api/steps/provider", h.SelectProvider)
	mux.HandleFunc("POST /api/steps/package", h.SelectPackage)
	mux.HandleFunc("POST /api/steps/details", h.SubmitDetails)
	mux.HandleFunc("POST /api/steps/confirm", h.Confirm)

	mux.HandleFunc("GET /api/owners/{owner}/favorites", h.ListFavorites)
	mux.HandleFunc("POST /api/owners/{owner}/favorites", h.AddFavorite)
	mux.HandleFunc("DELETE /api/owners/{owner}/favorites/{id}", h.RemoveFavorite)
	mux.HandleFunc("POST /api/owners/{owner}/favorites/{id}/start", h.StartFavorite)

	mux.HandleFunc("GET /api/owners/{owner}/schedules", h.ListSchedules)
	mux.HandleFunc("POST /api/owners/{owner}/schedules", h.AddSchedule)
	mux.HandleFunc("POST /api/owners/{owner}/schedules/{id}/toggle", h.ToggleSchedule)
	mux.HandleFunc("DELETE /api/owners/{owner}/schedules/{id}", h.RemoveSchedule)
	mux.HandleFunc("GET /api/owners/{owner}/reminders", h.ListReminders)
}

// ErrorResponse is the body of every non-2xx workflow response.
type ErrorResponse struct {
	Error  string           `json:"error"`
	Kind   domain.ErrorKind `json:"kind,omitempty"`
	Field  string           `json:"field,omitempty"`
	Errors []*domain.Error  `json:"errors,omitempty"`

	// Step is where the user should be sent, when the error routes them.
	Step *StepResponse `json:"step,omitempty"`
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.StructCtx(r.Context(), dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request: " + verrs[0].Field() + " failed " + verrs[0].Tag(),
				Field: verrs[0].Field(),
			})
			return false
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

// fail maps a workflow error onto a response. s, when non-nil, is the
// session the user is routed to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, s *workflow.Session) {
	resp := ErrorResponse{Error: err.Error()}
	if s != nil {
		step := stepFrom(s)
		resp.Step = &step
	}

	var verrs validation.ValidationErrors
	var ferrs validator.ValidationErrors
	var derr *domain.Error
	switch {
	case errors.As(err, &verrs):
		resp.Error = "Draft is not valid"
		resp.Errors = verrs
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, workflow.ErrIllegalTransition):
		middleware.WriteJSON(w, http.StatusConflict, resp)
	case errors.Is(err, workflow.ErrUnknownPackage), errors.Is(err, saved.ErrNotFound):
		middleware.WriteJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, saved.ErrDuplicate):
		middleware.WriteJSON(w, http.StatusConflict, resp)
	case errors.As(err, &derr):
		resp.Error = derr.Message
		resp.Kind = derr.Kind
		resp.Field = derr.Field
		status := http.StatusUnprocessableEntity
		if derr.Kind == domain.KindInvalidHandoffValue {
			status = http.StatusBadRequest
		}
		if derr.Kind == domain.KindConfirmationFailure {
			status = http.StatusPaymentRequired
		}
		middleware.WriteJSON(w, status, resp)
	case errors.As(err, &ferrs):
		middleware.WriteJSON(w, http.StatusBadRequest, resp)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", middleware.RequestIDFrom(r)).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
