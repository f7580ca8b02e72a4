package enrich

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// DefaultCategories is the product taxonomy the category field is validated
// against. Hierarchical with ">" separators, per the standard product
// taxonomy.
var DefaultCategories = []string{
	"Health & Beauty > Hair Care",
	"Health & Beauty > Skin Care",
	"Health & Beauty > Makeup",
	"Health & Beauty > Bath & Body",
	"Health & Beauty > Oral Care",
	"Health & Beauty > Fragrance",
	"Health & Beauty > Nail Care",
	"Health & Beauty > Personal Care",
	"Home & Garden > Home Decor",
}

const enrichSystemPrompt = `You are a product content specialist for an e-commerce catalog.
You always answer with a single valid JSON object and nothing else: no prose,
no markdown fences, no commentary.`

func buildEnrichPrompt(brand, productName string, price decimal.Decimal, categories []string) string {
	var list strings.Builder
	for i, cat := range categories {
		fmt.Fprintf(&list, "%d. %s\n", i+1, cat)
	}

	return fmt.Sprintf(`Enrich this product for an online store.

Brand: %s
Product: %s
Price: $%s

Return a JSON object with exactly these keys:
{
  "cleaned_name": "human-readable product name, max 5-7 words, no codes or filler tokens",
  "description": "2-3 professional sentences, basic HTML only (<p>, <strong>, <em>), no markdown, no promotional calls to action",
  "category": "ONE category name copied verbatim from the list below",
  "tags": ["6-10 lowercase seo tags, hyphenate multi-word tags"],
  "benefits": "short paragraph of key benefits, or empty string",
  "ingredients": "known key ingredients, or empty string",
  "usage_notes": "how to use, or empty string",
  "safety_notes": "allergy or safety information, or empty string"
}

Available categories:
%s
If unsure about the category, use "Other". Never invent facts; leave the
long-form fields empty when the product name gives no basis for them.`,
		brand, productName, price.StringFixed(2), list.String())
}

func buildOptionsPrompt(rawName string) string {
	return fmt.Sprintf(`Extract ALL product variant attributes from this product name ONLY.

Product Name: %s

Find any of these variant types that exist in the name:
- Color/Shade (e.g., Black, Blue, Red, Pink, Nude)
- Size/Volume (e.g., 50ml, 100g, L, XL)
- Flavor/Scent (e.g., Mint, Rose, Vanilla)
- Type/Formula (e.g., Ammonia-Free, Organic, Matte)
- Strength/Level (e.g., Light, Medium, Heavy)
- Gender/Age (e.g., Men, Women, Unisex)
- Finish (e.g., Glossy, Matte, Shimmer)

Return ONLY a valid JSON array. Example:
[{"name": "Color", "value": "Black"}, {"name": "Size", "value": "50ml"}]

If no variants are found in the name, return: []

Important: Extract ONLY what exists in the product name. Do NOT invent variants.`, rawName)
}

var jsonPayloadPattern = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)

// decodeJSON unmarshals a model response into out, tolerating markdown
// fences or prose around the JSON payload.
func decodeJSON(response string, out any) error {
	response = strings.TrimSpace(response)
	if err := json.Unmarshal([]byte(response), out); err == nil {
		return nil
	}
	if m := jsonPayloadPattern.FindString(response); m != "" {
		return json.Unmarshal([]byte(m), out)
	}
	return eris.New("enrich: no JSON payload in response")
}
