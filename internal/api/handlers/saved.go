package handlers

import (
	"net/http"
	"strconv"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/middleware"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/reminders"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/saved"
)

type favoriteRequest struct {
	Nickname              string `json:"nickname"`
	Category              string `json:"category"`
	ProviderName          string `json:"provider_name" validate:"required"`
	AccountOrMobileNumber string `json:"account_or_mobile_number" validate:"required"`
	PayerFullName         string `json:"payer_full_name"`
	PayerEmail            string `json:"payer_email" validate:"omitempty,email"`
}

type scheduleRequest struct {
	ProviderName          string `json:"provider_name" validate:"required"`
	Category              string `json:"category"`
	AccountOrMobileNumber string `json:"account_or_mobile_number" validate:"required"`
	Amount                string `json:"amount" validate:"required"`
	DayOfMonth            int    `json:"day_of_month" validate:"min=1,max=28"`
}

type startFavoriteRequest struct {
	SourceAccountNumber string `json:"sourceAccountNumber" validate:"required"`
}

// ListFavorites handles GET /api/owners/{owner}/favorites
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs := h.store.Favorites(r.Context(), r.PathValue("owner")).List()
	if favs == nil {
		favs = []saved.Favorite{}
	}
	middleware.WriteJSON(w, http.StatusOK, favs)
}

// AddFavorite handles POST /api/owners/{owner}/favorites
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, _ := domain.ParseCategory(req.Category)
	if p, ok := h.machine.Catalog().Provider(req.ProviderName); ok {
		req.ProviderName = p.Name
		c = p.Category
	}
	f, err := h.store.AddFavorite(r.Context(), saved.Favorite{
		OwnerID:               r.PathValue("owner"),
		Nickname:              req.Nickname,
		Category:              c,
		ProviderName:          req.ProviderName,
		AccountOrMobileNumber: req.AccountOrMobileNumber,
		PayerFullName:         req.PayerFullName,
		PayerEmail:            req.PayerEmail,
	})
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, f)
}

// RemoveFavorite handles DELETE /api/owners/{owner}/favorites/{id}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveFavorite(r.Context(), r.PathValue("owner"), r.PathValue("id")); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartFavorite handles POST /api/owners/{owner}/favorites/{id}/start. It
// opens a session prefilled from the favorite.
func (h *Handler) StartFavorite(w http.ResponseWriter, r *http.Request) {
	var req startFavoriteRequest
	if !h.decode(w, r, &req) {
		return
	}

	f, err := h.store.GetFavorite(r.Context(), r.PathValue("owner"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	s, err := h.machine.StartFavorite(req.SourceAccountNumber, f)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// ListSchedules handles GET /api/owners/{owner}/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	bills := h.store.Schedules(r.Context(), r.PathValue("owner")).List()
	if bills == nil {
		bills = []saved.ScheduledBill{}
	}
	middleware.WriteJSON(w, http.StatusOK, bills)
}

// AddSchedule handles POST /api/owners/{owner}/schedules
func (h *Handler) AddSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	amt, ok := amount.Parse(req.Amount)
	if !ok || !amt.IsPositive() {
		h.fail(w, r, domain.NewError(domain.KindInvalidAmount, "amount", "enter an amount greater than zero"), nil)
		return
	}
	c, _ := domain.ParseCategory(req.Category)
	if p, found := h.machine.Catalog().Provider(req.ProviderName); found {
		req.ProviderName = p.Name
		c = p.Category
	}

	b, err := h.store.AddSchedule(r.Context(), saved.ScheduledBill{
		OwnerID:               r.PathValue("owner"),
		ProviderName:          req.ProviderName,
		Category:              c,
		AccountOrMobileNumber: req.AccountOrMobileNumber,
		Amount:                amt,
		DayOfMonth:            req.DayOfMonth,
	})
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, b)
}

// ToggleSchedule handles POST /api/owners/{owner}/schedules/{id}/toggle
func (h *Handler) ToggleSchedule(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.ToggleSchedule(r.Context(), r.PathValue("owner"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, b)
}

// RemoveSchedule handles DELETE /api/owners/{owner}/schedules/{id}
func (h *Handler) RemoveSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveSchedule(r.Context(), r.PathValue("owner"), r.PathValue("id")); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReminders handles GET /api/owners/{owner}/reminders?status=&limit=
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	f := reminders.Filter{
		OwnerID: r.PathValue("owner"),
		Status:  reminders.Status(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	jobs := []reminders.Job{}
	if h.reminders != nil {
		jobs = h.reminders.List(r.Context(), f)
	}
	middleware.WriteJSON(w, http.StatusOK, jobs)
}
