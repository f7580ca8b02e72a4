// Package options derives a single canonical option schema per product.
// Variant option names come from independent per-variant text extraction and
// rarely agree on naming, so the normalizer maps them into shared categories
// before row compilation.
package options

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/catalog-cli/internal/model"
)

// MaxSlots is how many option columns the output format supports.
const MaxSlots = 3

// supportFraction is the share of a product's variants that must exhibit a
// category for it to earn a schema slot.
const supportFraction = 0.3

// synonyms maps lowercased raw option names to canonical categories.
var synonyms = map[string]string{
	"flavor":    "Flavor",
	"scent":     "Flavor",
	"fragrance": "Flavor",
	"size":      "Size",
	"volume":    "Size",
	"weight":    "Size",
	"color":     "Color",
	"colour":    "Color",
	"shade":     "Color",
	"type":      "Type",
	"formula":   "Type",
	"finish":    "Type",
	"material":  "Material",
	"fabric":    "Material",
	"style":     "Style",
	"design":    "Style",
}

var categoryCaser = cases.Title(language.English)

// Schema is the up-to-3 canonical option names shared by all variants of one
// product. Unused trailing slots are empty strings.
type Schema [MaxSlots]string

// Empty reports whether no slot is occupied.
func (s Schema) Empty() bool {
	return s[0] == "" && s[1] == "" && s[2] == ""
}

// Canonicalize maps a raw option name onto its canonical category. Unknown
// names fall back to their first whitespace- or slash-delimited token,
// capitalized.
func Canonicalize(rawName string) string {
	name := strings.TrimSpace(strings.ToLower(rawName))
	if name == "" {
		return ""
	}
	if canon, ok := synonyms[name]; ok {
		return canon
	}
	token := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '/'
	})
	if len(token) == 0 {
		return ""
	}
	return categoryCaser.String(token[0])
}

// DeriveSchema inspects all variants of a product and returns the canonical
// schema: categories ordered by first appearance, kept only when enough
// distinct variants exhibit them, capped at three slots.
func DeriveSchema(p *model.Product) Schema {
	var schema Schema
	if p == nil || len(p.Variants) == 0 {
		return schema
	}

	support := make(map[string]int)
	var order []string
	for _, v := range p.Variants {
		seen := make(map[string]struct{})
		for _, opt := range v.DetectedOptions {
			canon := Canonicalize(opt.Name)
			if canon == "" {
				continue
			}
			if _, dup := seen[canon]; dup {
				continue
			}
			seen[canon] = struct{}{}
			if support[canon] == 0 {
				order = append(order, canon)
			}
			support[canon]++
		}
	}

	threshold := int(math.Max(1, math.Ceil(supportFraction*float64(len(p.Variants)))))

	slot := 0
	for _, canon := range order {
		if slot == MaxSlots {
			break
		}
		if support[canon] < threshold {
			continue
		}
		schema[slot] = canon
		slot++
	}
	return schema
}

// ProjectValues maps one variant's detected options onto the schema slots.
// When a variant carries multiple raw entries for the same category the last
// one wins. Slots with an empty name always project an empty value.
func ProjectValues(v *model.Variant, schema Schema) [MaxSlots]string {
	var values [MaxSlots]string
	if v == nil {
		return values
	}

	byCategory := make(map[string]string)
	for _, opt := range v.DetectedOptions {
		canon := Canonicalize(opt.Name)
		if canon == "" {
			continue
		}
		byCategory[canon] = strings.TrimSpace(opt.Value)
	}

	for i, name := range schema {
		if name == "" {
			continue
		}
		values[i] = byCategory[name]
	}
	return values
}
