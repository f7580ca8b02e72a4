// Package model holds the catalog entity types shared by every stage of the
// compilation pipeline: variants parsed from input rows, products clustered
// from variants, and the run-wide stats accumulator.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OptionPair is a single variant attribute extracted from a raw product name,
// e.g. {Name: "Color", Value: "Black"}. Extraction never invents attributes;
// it only surfaces what the raw name already contains.
type OptionPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is one input row's worth of product data: a single purchasable unit
// identified by a unique external ID (typically a barcode/UPC).
type Variant struct {
	Brand      string          `json:"brand"`
	ExternalID string          `json:"external_id"`
	RawName    string          `json:"raw_name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TaxInfo    string          `json:"tax_info,omitempty"`

	// Images holds this variant's own image URLs (absolute HTTPS), in input
	// order. May be empty.
	Images []string `json:"images,omitempty"`

	// DetectedOptions is populated by the enrichment collaborator from
	// RawName only.
	DetectedOptions []OptionPair `json:"detected_options,omitempty"`

	// ProductGroupID is a weak back-reference to the owning product's group
	// ID, set when the variant is assigned to a product.
	ProductGroupID string `json:"product_group_id,omitempty"`
}

// Valid reports whether the variant satisfies the entity invariants:
// non-empty external ID and name, quantity >= 1, price >= 0.
func (v *Variant) Valid() bool {
	if strings.TrimSpace(v.ExternalID) == "" {
		return false
	}
	if strings.TrimSpace(v.RawName) == "" {
		return false
	}
	if v.Quantity < 1 {
		return false
	}
	return !v.Price.IsNegative()
}
