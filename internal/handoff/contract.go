package handoff

import (
	"slices"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
)

// Keys recognised on the wire.
const (
	KeyOwnerID               = "ownerId"
	KeySourceAccountNumber   = "sourceAccountNumber"
	KeyCategory              = "category"
	KeyProviderName          = "providerName"
	KeyFeeRate               = "feeRate"
	KeyLoadPackage           = "loadPackage"
	KeyAccountOrMobileNumber = "accountOrMobileNumber"
	KeyPayerFullName         = "payerFullName"
	KeyPayerEmail            = "payerEmail"
	KeyNormalizedAmount      = "normalizedAmount"
	KeyFeeAmount             = "feeAmount"
	KeyTotalAmount           = "totalAmount"
	KeyReferenceID           = "referenceId"
)

// Transition names one forward hop between workflow steps.
type Transition string

const (
	CategoryToProvider    Transition = "categoryToProvider"
	ProviderToPackage     Transition = "providerToPackage"
	ProviderToDetails     Transition = "providerToDetails"
	PackageToDetails      Transition = "packageToDetails"
	DetailsToConfirmation Transition = "detailsToConfirmation"
	ConfirmationToSuccess Transition = "confirmationToSuccess"
)

// Contract lists the keys one transition carries. Keys outside the contract
// are never written and are lost to later steps.
type Contract struct {
	Transition Transition
	Required   []string
	Optional   []string
}

// Allows reports whether key belongs to the contract.
func (c Contract) Allows(key string) bool {
	return c.IsRequired(key) || slices.Contains(c.Optional, key)
}

// IsRequired reports whether key must be present on arrival.
func (c Contract) IsRequired(key string) bool {
	return slices.Contains(c.Required, key)
}

// Keys returns required then optional keys.
func (c Contract) Keys() []string {
	keys := make([]string, 0, len(c.Required)+len(c.Optional))
	keys = append(keys, c.Required...)
	return append(keys, c.Optional...)
}

var contracts = map[Transition]Contract{
	CategoryToProvider: {
		Transition: CategoryToProvider,
		Required:   []string{KeyOwnerID, KeySourceAccountNumber},
		Optional:   []string{KeyCategory},
	},
	ProviderToPackage: {
		Transition: ProviderToPackage,
		Required:   []string{KeyOwnerID, KeySourceAccountNumber},
		Optional:   []string{KeyProviderName, KeyCategory, KeyFeeRate},
	},
	ProviderToDetails: {
		Transition: ProviderToDetails,
		Required:   []string{KeyOwnerID, KeySourceAccountNumber},
		Optional:   []string{KeyProviderName, KeyCategory, KeyFeeRate},
	},
	PackageToDetails: {
		Transition: PackageToDetails,
		Required:   []string{KeyOwnerID, KeySourceAccountNumber, KeyLoadPackage},
		Optional:   []string{KeyProviderName, KeyCategory, KeyFeeRate, KeyNormalizedAmount},
	},
	DetailsToConfirmation: {
		Transition: DetailsToConfirmation,
		Required: []string{
			KeyOwnerID,
			KeySourceAccountNumber,
			KeyNormalizedAmount,
			KeyAccountOrMobileNumber,
			KeyReferenceID,
			KeyFeeAmount,
			KeyTotalAmount,
		},
		Optional: []string{
			KeyProviderName,
			KeyPayerFullName,
			KeyPayerEmail,
			KeyCategory,
			KeyLoadPackage,
			KeyFeeRate,
		},
	},
	ConfirmationToSuccess: {
		Transition: ConfirmationToSuccess,
		Required:   []string{KeyTotalAmount, KeyReferenceID, KeyAccountOrMobileNumber, KeyOwnerID},
		Optional:   []string{KeyProviderName},
	},
}

// ContractFor returns the contract of t.
func ContractFor(t Transition) (Contract, bool) {
	c, ok := contracts[t]
	return c, ok
}

// Transitions lists every known transition in workflow order.
func Transitions() []Transition {
	return []Transition{
		CategoryToProvider,
		ProviderToPackage,
		ProviderToDetails,
		PackageToDetails,
		DetailsToConfirmation,
		ConfirmationToSuccess,
	}
}

// DefaultProviderName labels a hop that arrived without a provider.
const DefaultProviderName = "Payment Service Provider"

// Defaults holds the value substituted for each optional key that is
// absent on arrival. Optional keys without an entry default to "".
type Defaults struct {
	ProviderName string          `yaml:"providerName" validate:"required"`
	Category     domain.Category `yaml:"category" validate:"required"`
}

// StandardDefaults returns the built-in defaults.
func StandardDefaults() Defaults {
	return Defaults{
		ProviderName: DefaultProviderName,
		Category:     domain.CategoryOther,
	}
}

// For returns the default for an optional key.
func (d Defaults) For(key string) string {
	switch key {
	case KeyProviderName:
		return d.ProviderName
	case KeyCategory:
		return string(d.Category)
	default:
		return ""
	}
}
