package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
)

// File is the YAML layout of a catalog file. Rates and prices are quoted
// strings so they are read as exact decimals.
type File struct {
	DefaultFeeRate string        `yaml:"default_fee_rate"`
	Providers      []fileBiller  `yaml:"providers"`
	Packages       []filePackage `yaml:"packages"`
}

type fileBiller struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	FeeRate  string `yaml:"fee_rate"`
}

type filePackage struct {
	Code        string `yaml:"code"`
	Provider    string `yaml:"provider"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return f.Build()
}

// Build converts the file layout into a Static catalog.
func (f File) Build() (*Static, error) {
	defaultPolicy := fee.DefaultPolicy()
	if f.DefaultFeeRate != "" {
		p, err := fee.NewPolicy(f.DefaultFeeRate)
		if err != nil {
			return nil, fmt.Errorf("catalog: default_fee_rate: %w", err)
		}
		defaultPolicy = p
	}

	providers := make([]Provider, 0, len(f.Providers))
	for _, b := range f.Providers {
		cat, ok := domain.ParseCategory(b.Category)
		if !ok {
			return nil, fmt.Errorf("catalog: provider %q: unknown category %q", b.Name, b.Category)
		}
		p := Provider{ID: b.ID, Name: b.Name, Category: cat}
		if p.ID == "" {
			p.ID = b.Name
		}
		if b.FeeRate != "" {
			policy, err := fee.NewPolicy(b.FeeRate)
			if err != nil {
				return nil, fmt.Errorf("catalog: provider %q: %w", b.Name, err)
			}
			p.Policy = &policy
		}
		providers = append(providers, p)
	}

	packages := make([]LoadPackage, 0, len(f.Packages))
	for _, fp := range f.Packages {
		price, err := decimal.NewFromString(fp.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog: package %q: price %q: %w", fp.Code, fp.Price, err)
		}
		packages = append(packages, LoadPackage{
			Code:        fp.Code,
			Provider:    fp.Provider,
			Name:        fp.Name,
			Price:       price,
			Description: fp.Description,
		})
	}

	return NewStatic(defaultPolicy, providers, packages)
}

// builtin is the catalog used when no file or table is configured.
const builtin = `
default_fee_rate: "0.01"
providers:
  - {id: meralco, name: Meralco, category: Electric}
  - {id: veco, name: VECO, category: Electric}
  - {id: maynilad, name: Maynilad, category: Water}
  - {id: manila-water, name: Manila Water, category: Water}
  - {id: pldt, name: PLDT, category: Telecom}
  - {id: converge, name: Converge, category: Telecom}
  - {id: sss, name: SSS, category: Government, fee_rate: "0"}
  - {id: pag-ibig, name: Pag-IBIG Fund, category: Government, fee_rate: "0"}
  - {id: globe, name: Globe, category: Load}
  - {id: smart, name: Smart, category: Load}
  - {id: dito, name: DITO, category: Load}
packages:
  - {code: LOAD50, provider: Globe, name: Regular Load 50, price: "50.00"}
  - {code: GOSURF99, provider: Globe, name: GoSURF 99, price: "99.00", description: 8GB valid for 7 days}
  - {code: LOAD100, provider: Smart, name: Regular Load 100, price: "100.00"}
  - {code: GIGA99, provider: Smart, name: Giga Video 99, price: "99.00", description: 6GB valid for 7 days}
  - {code: LEVELUP99, provider: DITO, name: Level-Up 99, price: "99.00", description: 7GB valid for 30 days}
`

// Default returns the built-in catalog.
func Default() *Static {
	s, err := Parse([]byte(builtin))
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return s
}
