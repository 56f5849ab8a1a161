package catalog

import (
	"context"
	"fmt"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
	infra "github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/infra/bigquery"
)

// Load reads active billers and load packages once and returns them as a
// snapshot.
func Load(ctx context.Context, repo infra.BillerRepository, defaultPolicy fee.Policy) (*Static, error) {
	billers, err := repo.ListActiveBillers(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	packages, err := repo.ListActiveLoadPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	return FromBillerRows(billers, packages, defaultPolicy)
}

// FromBillerRows converts BigQuery rows into a catalog snapshot. Rows with an
// unknown category are filed under Other.
func FromBillerRows(billers []infra.BillerRow, packages []infra.LoadPackageRow, defaultPolicy fee.Policy) (*Static, error) {
	nameByID := make(map[string]string, len(billers))

	providers := make([]Provider, 0, len(billers))
	for _, b := range billers {
		cat, _ := domain.ParseCategory(b.Category)
		p := Provider{ID: b.BillerID, Name: b.Name, Category: cat}
		if b.FeeRate != nil {
			policy := fee.Policy{Rate: infra.Decimal(b.FeeRate)}
			p.Policy = &policy
		}
		nameByID[b.BillerID] = b.Name
		providers = append(providers, p)
	}

	pkgs := make([]LoadPackage, 0, len(packages))
	for _, r := range packages {
		name, ok := nameByID[r.BillerID]
		if !ok {
			// Package of an inactive biller.
			continue
		}
		if r.Price == nil {
			return nil, fmt.Errorf("FromBillerRows: package %q has no price", r.PackageCode)
		}
		pkg := LoadPackage{
			Code:     r.PackageCode,
			Provider: name,
			Name:     r.Name,
			Price:    infra.Decimal(r.Price),
		}
		if r.Description.Valid {
			pkg.Description = r.Description.StringVal
		}
		pkgs = append(pkgs, pkg)
	}

	return NewStatic(defaultPolicy, providers, pkgs)
}
