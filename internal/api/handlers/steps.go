package handlers

import (
	"net/http"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/middleware"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/workflow"
)

// StepResponse describes where a session stands after a step request.
// Envelope is what the client sends back with its next step.
type StepResponse struct {
	State    workflow.State    `json:"state"`
	Envelope *handoff.Envelope `json:"envelope,omitempty"`
	Draft    DraftView         `json:"draft"`
	Errors   []*domain.Error   `json:"errors,omitempty"`
	Receipt  *receipt.Receipt  `json:"receipt,omitempty"`
	Next     []workflow.State  `json:"next,omitempty"`
}

// DraftView is the client-facing rendering of a draft. Money is formatted
// with two decimals.
type DraftView struct {
	OwnerID               string          `json:"ownerId"`
	SourceAccountNumber   string          `json:"sourceAccountNumber"`
	Category              domain.Category `json:"category"`
	ProviderName          string          `json:"providerName,omitempty"`
	LoadPackage           string          `json:"loadPackage,omitempty"`
	AccountOrMobileNumber string          `json:"accountOrMobileNumber,omitempty"`
	PayerFullName         string          `json:"payerFullName,omitempty"`
	PayerEmail            string          `json:"payerEmail,omitempty"`
	AmountText            string          `json:"amountText,omitempty"`
	NormalizedAmount      string          `json:"normalizedAmount"`
	FeeRate               string          `json:"feeRate"`
	FeeAmount             string          `json:"feeAmount"`
	TotalAmount           string          `json:"totalAmount"`
}

func viewOf(d *domain.TransactionDraft) DraftView {
	return DraftView{
		OwnerID:               d.OwnerID,
		SourceAccountNumber:   d.SourceAccountNumber,
		Category:              d.Category,
		ProviderName:          d.ProviderName,
		LoadPackage:           d.LoadPackage,
		AccountOrMobileNumber: d.AccountOrMobileNumber,
		PayerFullName:         d.PayerFullName,
		PayerEmail:            d.PayerEmail,
		AmountText:            d.AmountText(),
		NormalizedAmount:      amount.Format(d.NormalizedAmount()),
		FeeRate:               d.FeePolicy().Rate.String(),
		FeeAmount:             amount.Format(d.FeeAmount()),
		TotalAmount:           amount.Format(d.TotalAmount()),
	}
}

func stepFrom(s *workflow.Session) StepResponse {
	resp := StepResponse{
		State:  s.State(),
		Draft:  viewOf(s.Draft()),
		Errors: s.Errors(),
	}
	if env, ok := s.Handoff(); ok {
		resp.Envelope = &env
	}
	if r, ok := s.Receipt(); ok {
		resp.Receipt = &r
	}
	for _, to := range workflow.States() {
		if workflow.CanTransition(s.State(), to) {
			resp.Next = append(resp.Next, to)
		}
	}
	return resp
}

type categoryRequest struct {
	OwnerID             string `json:"ownerId" validate:"required"`
	SourceAccountNumber string `json:"sourceAccountNumber" validate:"required"`
	Category            string `json:"category" validate:"required"`
}

type providerRequest struct {
	Handoff      handoff.Envelope `json:"handoff"`
	ProviderName string           `json:"providerName"`
}

type packageRequest struct {
	Handoff     handoff.Envelope `json:"handoff"`
	PackageCode string           `json:"packageCode" validate:"required"`
}

// detailsRequest edits the fields that are set and submits when Submit is
// true. Without Submit the response only carries the live validation.
type detailsRequest struct {
	Handoff               handoff.Envelope `json:"handoff"`
	AccountOrMobileNumber *string          `json:"accountOrMobileNumber"`
	PayerFullName         *string          `json:"payerFullName"`
	PayerEmail            *string          `json:"payerEmail"`
	Amount                *string          `json:"amount"`
	Submit                bool             `json:"submit"`
}

type confirmRequest struct {
	Handoff handoff.Envelope `json:"handoff"`
}

// SelectCategory opens a session and records the category.
func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.machine.Start(req.OwnerID, req.SourceAccountNumber)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	c, _ := domain.ParseCategory(req.Category)
	if err := s.SelectCategory(c); err != nil {
		h.fail(w, r, err, s)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// SelectProvider resumes a session from the category hop and records the
// provider.
func (h *Handler) SelectProvider(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := h.resume(w, r, req.Handoff)
	if !ok {
		return
	}
	if err := s.SelectProvider(req.ProviderName); err != nil {
		h.fail(w, r, err, s)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// SelectPackage resumes a load session and records the package.
func (h *Handler) SelectPackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := h.resume(w, r, req.Handoff)
	if !ok {
		return
	}
	if err := s.SelectPackage(req.PackageCode); err != nil {
		h.fail(w, r, err, s)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// SubmitDetails resumes a session at details entry, applies the edits and
// optionally submits the draft for confirmation.
func (h *Handler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := h.resume(w, r, req.Handoff)
	if !ok {
		return
	}

	edits := []struct {
		v   *string
		set func(string) error
	}{
		{req.AccountOrMobileNumber, func(v string) error { _, err := s.SetAccountOrMobileNumber(v); return err }},
		{req.PayerFullName, func(v string) error { _, err := s.SetPayerFullName(v); return err }},
		{req.PayerEmail, func(v string) error { _, err := s.SetPayerEmail(v); return err }},
		{req.Amount, func(v string) error { _, err := s.SetAmount(v); return err }},
	}
	for _, e := range edits {
		if e.v == nil {
			continue
		}
		if err := e.set(*e.v); err != nil {
			h.fail(w, r, err, s)
			return
		}
	}

	if req.Submit {
		if _, err := s.Submit(); err != nil {
			h.fail(w, r, err, s)
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// Confirm resumes a submitted draft and hands it to confirmation. A declined
// payment answers 402 with the session back at details entry.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := h.resume(w, r, req.Handoff)
	if !ok {
		return
	}
	if _, err := s.Confirm(r.Context()); err != nil {
		h.fail(w, r, err, s)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stepFrom(s))
}

// resume rebuilds the session an envelope leads to. On failure the
// response has been written.
func (h *Handler) resume(w http.ResponseWriter, r *http.Request, env handoff.Envelope) (*workflow.Session, bool) {
	if err := env.Check(); err != nil {
		if domain.KindOf(err) == "" {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		h.fail(w, r, err, nil)
		return nil, false
	}

	s, err := h.machine.Resume(r.Context(), env.Transition, env.Params)
	if err != nil {
		if s != nil {
			h.fail(w, r, err, s)
			return nil, false
		}
		if domain.KindOf(err) == "" {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		h.fail(w, r, err, nil)
		return nil, false
	}
	return s, true
}
