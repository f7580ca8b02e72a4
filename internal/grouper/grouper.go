// Package grouper clusters catalog variants into products. Variants are
// partitioned by brand, then greedily matched against a seed variant's base
// name using fuzzy similarity, substring containment, and shared-token
// checks.
package grouper

import (
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// DefaultSimilarityThreshold is the minimum fuzzy ratio for two base names
// to be considered the same product.
const DefaultSimilarityThreshold = 0.7

// stopwords are ignored by the shared-token check.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {}, "with": {}, "and": {}, "or": {},
}

var simParams = levenshtein.NewParams()

// Grouper clusters variants into products within brand partitions.
type Grouper struct {
	threshold float64
}

// New creates a grouper. A non-positive threshold falls back to the default.
func New(threshold float64) *Grouper {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Grouper{threshold: threshold}
}

// Group clusters variants into products. Brands are processed in first-seen
// order and variants within a brand keep their input order, so the result is
// deterministic for a given input. Every variant is assigned to exactly one
// product.
func (g *Grouper) Group(variants []*model.Variant) []*model.Product {
	if len(variants) == 0 {
		zap.L().Warn("grouper: no variants to group")
		return nil
	}

	byBrand := make(map[string][]*model.Variant)
	var brandOrder []string
	for _, v := range variants {
		brand := strings.TrimSpace(v.Brand)
		if _, ok := byBrand[brand]; !ok {
			brandOrder = append(brandOrder, brand)
		}
		byBrand[brand] = append(byBrand[brand], v)
	}

	var products []*model.Product
	for _, brand := range brandOrder {
		partition := byBrand[brand]
		groups := g.groupBySimilarity(brand, partition)
		products = append(products, groups...)
		zap.L().Debug("grouper: brand partitioned",
			zap.String("brand", brand),
			zap.Int("variants", len(partition)),
			zap.Int("products", len(groups)))
	}

	zap.L().Info("grouper: clustering complete",
		zap.Int("variants", len(variants)),
		zap.Int("products", len(products)))
	return products
}

// groupBySimilarity greedily pops the first ungrouped variant as a seed,
// then sweeps the remainder for matches against the seed's base name.
func (g *Grouper) groupBySimilarity(brand string, variants []*model.Variant) []*model.Product {
	var products []*model.Product
	ungrouped := make([]*model.Variant, len(variants))
	copy(ungrouped, variants)

	for len(ungrouped) > 0 {
		seed := ungrouped[0]
		ungrouped = ungrouped[1:]
		seedBase := ExtractBaseName(seed.RawName)

		product := model.NewProduct(brand, seedBase, seed)

		remaining := ungrouped[:0]
		for _, v := range ungrouped {
			if g.similar(seedBase, v.RawName) {
				product.AddVariant(v)
			} else {
				remaining = append(remaining, v)
			}
		}
		ungrouped = remaining
		products = append(products, product)
	}

	return products
}

// similar reports whether a raw variant name belongs to the product with the
// given base name. Three checks, any one suffices: fuzzy ratio between base
// names at or above the threshold, the base name contained in the raw name,
// or at least two shared non-stopword tokens with the base's tokens a subset
// of the raw name's.
func (g *Grouper) similar(baseName, rawName string) bool {
	candidateBase := ExtractBaseName(rawName)

	ratio := levenshtein.Similarity(strings.ToLower(baseName), strings.ToLower(candidateBase), simParams)
	if ratio >= g.threshold {
		return true
	}

	if strings.Contains(strings.ToLower(rawName), strings.ToLower(baseName)) {
		return true
	}

	baseTokens := significantTokens(baseName)
	if len(baseTokens) < 2 {
		return false
	}
	rawTokens := significantTokens(rawName)
	for tok := range baseTokens {
		if _, ok := rawTokens[tok]; !ok {
			return false
		}
	}
	return true
}

func significantTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}
