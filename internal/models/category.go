package models

import "strings"

// Category is a STRIDE threat class.
type Category string

// STRIDE categories.
const (
	CategorySpoofing              Category = "Spoofing"
	CategoryTampering             Category = "Tampering"
	CategoryRepudiation           Category = "Repudiation"
	CategoryInformationDisclosure Category = "InformationDisclosure"
	CategoryDenialOfService       Category = "DenialOfService"
	CategoryElevationOfPrivilege  Category = "ElevationOfPrivilege"
	CategoryUnknown               Category = "Unknown"
)

// Categories returns the six STRIDE categories in STRIDE order.
func Categories() []Category {
	return []Category{
		CategorySpoofing,
		CategoryTampering,
		CategoryRepudiation,
		CategoryInformationDisclosure,
		CategoryDenialOfService,
		CategoryElevationOfPrivilege,
	}
}

// NormalizeCategory maps backend spellings such as "Information Disclosure",
// "denial_of_service" or "EoP" onto a Category. Anything else is CategoryUnknown.
func NormalizeCategory(value string) Category {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(value)))

	switch key {
	case "spoofing", "s":
		return CategorySpoofing
	case "tampering", "t":
		return CategoryTampering
	case "repudiation", "r":
		return CategoryRepudiation
	case "informationdisclosure", "disclosure", "i":
		return CategoryInformationDisclosure
	case "denialofservice", "dos", "d":
		return CategoryDenialOfService
	case "elevationofprivilege", "elevationofprivileges", "privilegeescalation", "eop", "e":
		return CategoryElevationOfPrivilege
	default:
		return CategoryUnknown
	}
}

// DisplayName returns the human-readable name of the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryInformationDisclosure:
		return "Information Disclosure"
	case CategoryDenialOfService:
		return "Denial of Service"
	case CategoryElevationOfPrivilege:
		return "Elevation of Privilege"
	default:
		return string(c)
	}
}

// Description explains what the category covers.
func (c Category) Description() string {
	switch c {
	case CategorySpoofing:
		return "Impersonating something or someone else"
	case CategoryTampering:
		return "Modifying data or code"
	case CategoryRepudiation:
		return "Claiming to have not performed an action"
	case CategoryInformationDisclosure:
		return "Exposing information to unauthorized individuals"
	case CategoryDenialOfService:
		return "Denying or degrading service to users"
	case CategoryElevationOfPrivilege:
		return "Gaining capabilities without proper authorization"
	default:
		return "Category reported by the backend could not be classified"
	}
}
