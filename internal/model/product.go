package model

import (
	"regexp"
	"strings"
)

var groupIDPattern = regexp.MustCompile(`\s+`)

// Product is a cluster of variants that share one catalog identity. It is
// created by the clustering engine with a single seed variant, grows only via
// AddVariant, is annotated by enrichment, and becomes effectively immutable
// once compiled into output rows.
type Product struct {
	// BaseName may be rewritten by enrichment. The output handle is reserved
	// before enrichment runs, so a rename never changes an issued handle.
	BaseName string `json:"base_name"`

	// Brand is immutable once the product is created.
	Brand string `json:"brand"`

	// Variants in discovery order. Never empty for a valid product; a product
	// exclusively owns its variants for the lifetime of the run.
	Variants []*Variant `json:"variants"`

	// Handle is the unique output slug, assigned exactly once per run.
	Handle string `json:"handle,omitempty"`

	// URL is the product page found by the search collaborator, if any.
	URL string `json:"url,omitempty"`

	// Images is the deduplicated, order-preserving union of variant images,
	// possibly extended by the scrape collaborator.
	Images []string `json:"images,omitempty"`

	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Long-form enrichment fields. All optional.
	Benefits    string `json:"benefits,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	UsageNotes  string `json:"usage_notes,omitempty"`
	SafetyNotes string `json:"safety_notes,omitempty"`
}

// NewProduct creates a product seeded with a single variant.
func NewProduct(brand, baseName string, seed *Variant) *Product {
	p := &Product{
		Brand:    brand,
		BaseName: baseName,
	}
	p.AddVariant(seed)
	return p
}

// AddVariant appends a variant in discovery order and stamps its group
// back-reference.
func (p *Product) AddVariant(v *Variant) {
	p.Variants = append(p.Variants, v)
	v.ProductGroupID = p.GroupID()
}

// GroupID returns a deterministic slug of brand and base name. It identifies
// the group before enrichment renames BaseName; the output handle is reserved
// separately and never recomputed.
func (p *Product) GroupID() string {
	id := strings.ToLower(p.Brand + "_" + p.BaseName)
	return groupIDPattern.ReplaceAllString(id, "_")
}

// PrimaryVariant returns the first variant, or nil for an empty product.
func (p *Product) PrimaryVariant() *Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	return p.Variants[0]
}

// RefreshImages rebuilds Images as the order-preserving, deduplicated union
// of all variant images. Returns the number of images in the union.
func (p *Product) RefreshImages() int {
	seen := make(map[string]struct{})
	var union []string
	for _, v := range p.Variants {
		for _, img := range v.Images {
			if img == "" {
				continue
			}
			if _, ok := seen[img]; ok {
				continue
			}
			seen[img] = struct{}{}
			union = append(union, img)
		}
	}
	p.Images = union
	return len(union)
}
