package domain

import "strings"

// Category tags a biller or the load-purchase flow.
type Category string

const (
	CategoryElectric   Category = "Electric"
	CategoryWater      Category = "Water"
	CategoryTelecom    Category = "Telecom"
	CategoryGovernment Category = "Government"
	CategoryLoad       Category = "Load"
	CategoryOther      Category = "Other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryElectric,
	CategoryWater,
	CategoryTelecom,
	CategoryGovernment,
	CategoryLoad,
	CategoryOther,
}

// ParseCategory maps free text onto a known category, case-insensitively.
// Unknown or empty text is reported with ok=false and maps to CategoryOther.
func ParseCategory(s string) (c Category, ok bool) {
	norm := normalizeTag(s)
	for _, c := range Categories {
		if normalizeTag(string(c)) == norm {
			return c, true
		}
	}
	return CategoryOther, false
}

// Path returns which payment path the category follows.
func (c Category) Path() Path {
	if c == CategoryLoad {
		return PathLoad
	}
	return PathBill
}

func (c Category) String() string {
	return string(c)
}

// Path distinguishes bill payments from load purchases; they differ in the
// steps visited and the fields required.
type Path string

const (
	PathBill Path = "bill"
	PathLoad Path = "load"
)

// normalizeTag converts to uppercase and trims whitespace for comparison.
func normalizeTag(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
