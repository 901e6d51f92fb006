package entity

// Category classifies an expense. The set is closed.
type Category string

// Expense categories
const (
	CategoryTravel         Category = "Travel"
	CategoryMeals          Category = "Meals"
	CategoryOfficeSupplies Category = "Office Supplies"
	CategorySoftware       Category = "Software"
	CategoryHardware       Category = "Hardware"
	CategoryTraining       Category = "Training"
	CategoryEntertainment  Category = "Entertainment"
	CategoryUtilities      Category = "Utilities"
	CategoryMarketing      Category = "Marketing"
	CategoryLegalFees      Category = "Legal Fees"
	CategoryConsultingFees Category = "Consulting Fees"
	CategorySubscriptions  Category = "Subscriptions"
	CategoryOther          Category = "Other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryTravel,
	CategoryMeals,
	CategoryOfficeSupplies,
	CategorySoftware,
	CategoryHardware,
	CategoryTraining,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryMarketing,
	CategoryLegalFees,
	CategoryConsultingFees,
	CategorySubscriptions,
	CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RiskLevel is the severity the analysis assigned to an expense
type RiskLevel string

// Risk levels
const (
	RiskLow     RiskLevel = "Low"
	RiskMedium  RiskLevel = "Medium"
	RiskHigh    RiskLevel = "High"
	RiskUnknown RiskLevel = "Unknown"
)

// ParseRiskLevel maps a token to a RiskLevel. Matching is exact; anything
// else is RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown:
		return RiskLevel(s)
	default:
		return RiskUnknown
	}
}

// Theme is the UI colour scheme token
type Theme string

// Themes
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// DefaultCurrency is used when no currency is supplied
const DefaultCurrency = "USD"

// DateLayout is the calendar date format used for expense dates
const DateLayout = "2006-01-02"
