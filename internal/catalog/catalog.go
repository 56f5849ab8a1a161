package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
)

// Catalog is the read-only lookup of categories, providers and load
// packages. A snapshot is assumed valid for a whole workflow run.
type Catalog interface {
	// Categories lists the categories that have at least one provider.
	Categories() []domain.Category

	// Providers lists the providers of a category.
	Providers(c domain.Category) []Provider

	// Provider finds a provider by name, case-insensitively.
	Provider(name string) (Provider, bool)

	// Packages lists the load packages a provider sells.
	Packages(providerName string) []LoadPackage

	// Package finds a provider's load package by code.
	Package(providerName, code string) (LoadPackage, bool)

	// FeePolicy returns the policy for paying providerName. Unknown
	// providers get the catalog default.
	FeePolicy(providerName string) fee.Policy
}

// Provider is a biller or load provider.
type Provider struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`

	// Policy overrides the catalog default when set.
	Policy *fee.Policy `json:"policy,omitempty"`
}

// LoadPackage is a fixed-price load product.
type LoadPackage struct {
	Code        string          `json:"code"`
	Provider    string          `json:"provider"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

// Static is an in-memory Catalog snapshot.
type Static struct {
	defaultPolicy fee.Policy
	providers     []Provider
	byName        map[string]Provider
	packages      map[string][]LoadPackage
}

// NewStatic builds a catalog snapshot. Provider names must be unique and
// every package must belong to a known provider.
func NewStatic(defaultPolicy fee.Policy, providers []Provider, packages []LoadPackage) (*Static, error) {
	if err := defaultPolicy.Validate(); err != nil {
		return nil, fmt.Errorf("NewStatic: default policy: %w", err)
	}

	s := &Static{
		defaultPolicy: defaultPolicy,
		byName:        make(map[string]Provider, len(providers)),
		packages:      make(map[string][]LoadPackage),
	}

	for _, p := range providers {
		key := normalizeName(p.Name)
		if key == "" {
			return nil, fmt.Errorf("NewStatic: provider %q has no name", p.ID)
		}
		if _, dup := s.byName[key]; dup {
			return nil, fmt.Errorf("NewStatic: duplicate provider %q", p.Name)
		}
		if p.Policy != nil {
			if err := p.Policy.Validate(); err != nil {
				return nil, fmt.Errorf("NewStatic: provider %q: %w", p.Name, err)
			}
		}
		s.byName[key] = p
		s.providers = append(s.providers, p)
	}

	for _, pkg := range packages {
		key := normalizeName(pkg.Provider)
		if _, ok := s.byName[key]; !ok {
			return nil, fmt.Errorf("NewStatic: package %q: unknown provider %q", pkg.Code, pkg.Provider)
		}
		if !pkg.Price.IsPositive() {
			return nil, fmt.Errorf("NewStatic: package %q: price must be positive", pkg.Code)
		}
		s.packages[key] = append(s.packages[key], pkg)
	}

	sort.SliceStable(s.providers, func(i, j int) bool {
		return s.providers[i].Name < s.providers[j].Name
	})
	for _, pkgs := range s.packages {
		sort.SliceStable(pkgs, func(i, j int) bool {
			return pkgs[i].Price.LessThan(pkgs[j].Price)
		})
	}

	return s, nil
}

func (s *Static) Categories() []domain.Category {
	seen := make(map[domain.Category]bool)
	for _, p := range s.providers {
		seen[p.Category] = true
	}
	var out []domain.Category
	for _, c := range domain.Categories {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Static) Providers(c domain.Category) []Provider {
	var out []Provider
	for _, p := range s.providers {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

func (s *Static) Provider(name string) (Provider, bool) {
	p, ok := s.byName[normalizeName(name)]
	return p, ok
}

func (s *Static) Packages(providerName string) []LoadPackage {
	pkgs := s.packages[normalizeName(providerName)]
	out := make([]LoadPackage, len(pkgs))
	copy(out, pkgs)
	return out
}

func (s *Static) Package(providerName, code string) (LoadPackage, bool) {
	for _, pkg := range s.packages[normalizeName(providerName)] {
		if strings.EqualFold(pkg.Code, strings.TrimSpace(code)) {
			return pkg, true
		}
	}
	return LoadPackage{}, false
}

func (s *Static) FeePolicy(providerName string) fee.Policy {
	if p, ok := s.Provider(providerName); ok && p.Policy != nil {
		return *p.Policy
	}
	return s.defaultPolicy
}

// DefaultPolicy returns the policy applied to providers without an override.
func (s *Static) DefaultPolicy() fee.Policy {
	return s.defaultPolicy
}

// WithDefaultPolicy returns a copy of s that prices providers without an
// override with p.
func (s *Static) WithDefaultPolicy(p fee.Policy) (*Static, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("WithDefaultPolicy: %w", err)
	}
	c := *s
	c.defaultPolicy = p
	return &c, nil
}

// AllProviders lists every provider, sorted by name.
func (s *Static) AllProviders() []Provider {
	out := make([]Provider, len(s.providers))
	copy(out, s.providers)
	return out
}

var _ Catalog = (*Static)(nil)

// normalizeName converts to uppercase and trims whitespace for comparison.
func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
