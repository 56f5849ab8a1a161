package handlers

import (
	"net/http"
	"strings"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/middleware"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/catalog"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
)

// ListCategories handles GET /api/catalog/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.machine.Catalog().Categories())
}

// ListProviders handles GET /api/catalog/providers?category=
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	cat := h.machine.Catalog()

	var categories []domain.Category
	if q := strings.TrimSpace(r.URL.Query().Get("category")); q != "" {
		c, ok := domain.ParseCategory(q)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Unknown category: "+q)
			return
		}
		categories = []domain.Category{c}
	} else {
		categories = cat.Categories()
	}

	providers := []catalog.Provider{}
	for _, c := range categories {
		providers = append(providers, cat.Providers(c)...)
	}
	middleware.WriteJSON(w, http.StatusOK, providers)
}

// ListPackages handles GET /api/catalog/providers/{name}/packages
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := h.machine.Catalog().Provider(name); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Provider not found: "+name)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.machine.Catalog().Packages(name))
}

type quoteRequest struct {
	ProviderName string `json:"providerName"`
	Amount       string `json:"amount"`
}

// QuoteResponse is a fee quote for an amount.
type QuoteResponse struct {
	ProviderName     string `json:"providerName,omitempty"`
	AmountText       string `json:"amountText"`
	NormalizedAmount string `json:"normalizedAmount"`
	FeeRate          string `json:"feeRate"`
	FeeAmount        string `json:"feeAmount"`
	TotalAmount      string `json:"totalAmount"`
}

// Quote handles POST /api/quote. The fee rate is the provider's, or the
// default one for an unknown or empty provider.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	text := amount.Normalize(req.Amount)
	amt, ok := amount.Parse(text)
	if !ok {
		h.fail(w, r, domain.NewError(domain.KindInvalidAmount, handoff.KeyNormalizedAmount, "enter an amount"), nil)
		return
	}

	policy := h.machine.Catalog().FeePolicy(req.ProviderName)
	q, err := fee.Compute(amt, policy)
	if err != nil {
		h.fail(w, r, domain.NewError(domain.KindInvalidAmount, handoff.KeyNormalizedAmount, err.Error()), nil)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, QuoteResponse{
		ProviderName:     strings.TrimSpace(req.ProviderName),
		AmountText:       text,
		NormalizedAmount: amount.Format(q.Amount),
		FeeRate:          policy.Rate.String(),
		FeeAmount:        amount.Format(q.Fee),
		TotalAmount:      amount.Format(q.Total),
	})
}

type validateRequest struct {
	Category              string `json:"category"`
	ProviderName          string `json:"providerName"`
	LoadPackage           string `json:"loadPackage"`
	AccountOrMobileNumber string `json:"accountOrMobileNumber"`
	PayerFullName         string `json:"payerFullName"`
	PayerEmail            string `json:"payerEmail"`
	Amount                string `json:"amount"`
}

// ValidateResponse reports a standalone draft check.
type ValidateResponse struct {
	Valid  bool            `json:"valid"`
	Draft  DraftView       `json:"draft"`
	Errors []*domain.Error `json:"errors,omitempty"`
}

// ValidateDraft handles POST /api/drafts/validate. It builds a draft from
// the body, prices it and reports every rule it breaks without starting a
// session.
func (h *Handler) ValidateDraft(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !h.decode(w, r, &req) {
		return
	}

	cat := h.machine.Catalog()
	d := domain.NewDraft("", "")
	d.Category, _ = domain.ParseCategory(req.Category)
	d.ProviderName = strings.TrimSpace(req.ProviderName)
	if p, ok := cat.Provider(d.ProviderName); ok {
		d.ProviderName = p.Name
		d.Category = p.Category
	}
	d.LoadPackage = req.LoadPackage
	d.AccountOrMobileNumber = req.AccountOrMobileNumber
	d.PayerFullName = req.PayerFullName
	d.PayerEmail = req.PayerEmail
	if err := d.SetFeePolicy(cat.FeePolicy(d.ProviderName)); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	d.SetAmountInput(req.Amount)

	errs := h.machine.Validator().Validate(d)
	middleware.WriteJSON(w, http.StatusOK, ValidateResponse{
		Valid:  len(errs) == 0,
		Draft:  viewOf(d),
		Errors: errs,
	})
}
