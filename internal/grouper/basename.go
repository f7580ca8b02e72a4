package grouper

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stripRules remove variant indicators from a raw product name, applied in
// order. Order matters: unit sizes must go before the bare-number rule so
// "50ml" is consumed whole.
var stripRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*(ml|g|oz|kg|l|mg|lb|fl\.oz)`),
	regexp.MustCompile(`(?i)\d+\s*pack`),
	regexp.MustCompile(`#?\d+`),
	regexp.MustCompile(`(?i)\b(black|white|red|blue|green|yellow|pink|purple|brown|gray|grey|beige|nude|clear)\b`),
	regexp.MustCompile(`(?i)\b(small|medium|large|xl|xxl|s|m|l)\b`),
	regexp.MustCompile(`(?i)\b(vanilla|chocolate|mint|rose|lavender|coconut|lemon|berry|fruit)\b`),
	regexp.MustCompile(`(?i)\b(light|medium|dark|fair|deep)\b`),
	regexp.MustCompile(`(?i)\b(matte|glossy|shimmer|metallic|satin)\b`),
	regexp.MustCompile(`\([^)]*\)`),
	regexp.MustCompile(`-\s*\w+$`),
}

var (
	collapseSpaces = regexp.MustCompile(`\s+`)
	nonWordChars   = regexp.MustCompile(`[^\w\s]`)
	titleCaser     = cases.Title(language.English)
)

// ExtractBaseName strips variant indicators (sizes, colors, scents, shade
// numbers, finishes, parenthesised suffixes) from a raw name and returns the
// title-cased remainder. If stripping leaves fewer than three characters, the
// first three words of the original name are used instead so a heavily
// attribute-laden name still yields a usable base.
func ExtractBaseName(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	for _, rule := range stripRules {
		base = rule.ReplaceAllString(base, "")
	}
	base = strings.TrimSpace(collapseSpaces.ReplaceAllString(base, " "))
	base = strings.TrimSpace(nonWordChars.ReplaceAllString(base, ""))

	if len(base) < 3 {
		words := strings.Fields(name)
		if len(words) > 3 {
			words = words[:3]
		}
		base = strings.Join(words, " ")
	}

	return titleCaser.String(base)
}
