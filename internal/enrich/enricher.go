// Package enrich generates product content (cleaned names, descriptions,
// categories, tags, long-form fields) and extracts variant options from raw
// names, via the Anthropic API. Responses are cached by input so repeated
// runs and resumed runs do not repay for the same answers, and every field
// degrades to a usable fallback when the API misbehaves.
package enrich

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/resilience"
	"github.com/sells-group/catalog-cli/pkg/anthropic"
)

const (
	// DefaultModel balances quality against per-product cost.
	DefaultModel = "claude-haiku-4-5-20251001"

	cacheService = "anthropic"

	maxNameLen        = 100
	maxDescriptionLen = 500
	minTags           = 6
	maxTags           = 10
)

// Result is the enrichment output for one product. Any field may hold a
// fallback value when the API call failed or returned garbage.
type Result struct {
	CleanedName string   `json:"cleaned_name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Benefits    string   `json:"benefits"`
	Ingredients string   `json:"ingredients"`
	UsageNotes  string   `json:"usage_notes"`
	SafetyNotes string   `json:"safety_notes"`
}

// Cache persists responses across runs, keyed by service and input.
type Cache interface {
	GetCache(ctx context.Context, service, key string) (string, bool, error)
	PutCache(ctx context.Context, service, key, value string) error
}

// Option configures the Enricher.
type Option func(*Enricher)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(e *Enricher) { e.model = model }
}

// WithCategories overrides the category taxonomy.
func WithCategories(categories []string) Option {
	return func(e *Enricher) { e.categories = categories }
}

// WithCache enables response caching.
func WithCache(cache Cache) Option {
	return func(e *Enricher) { e.cache = cache }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(e *Enricher) { e.retry = cfg }
}

// Enricher turns raw catalog names into store-ready content.
type Enricher struct {
	client     anthropic.Client
	model      string
	categories []string
	cache      Cache
	retry      resilience.RetryConfig
}

// New creates an enricher backed by the given API client.
func New(client anthropic.Client, opts ...Option) *Enricher {
	e := &Enricher{
		client:     client,
		model:      DefaultModel,
		categories: DefaultCategories,
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich produces content for one product. On API failure it returns the
// fallback result along with the error so the caller can keep the product
// in the run while recording the failure.
func (e *Enricher) Enrich(ctx context.Context, brand, productName string, price decimal.Decimal) (Result, error) {
	key := "enrich|" + strings.ToLower(brand) + "|" + strings.ToLower(productName)
	if cached, ok := e.cacheGet(ctx, key); ok {
		var r Result
		if err := json.Unmarshal([]byte(cached), &r); err == nil {
			return r, nil
		}
	}

	retry := e.retry
	retry.OnRetry = resilience.RetryLogger("anthropic", "enrich")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     e.model,
			MaxTokens: 1024,
			System: []anthropic.SystemBlock{{
				Text:         enrichSystemPrompt,
				CacheControl: &anthropic.CacheControl{},
			}},
			Messages: []anthropic.Message{{
				Role:    "user",
				Content: buildEnrichPrompt(brand, productName, price, e.categories),
			}},
		})
	})
	if err != nil {
		return e.Fallback(brand, productName), eris.Wrap(err, "enrich: generate content")
	}
	resp.Usage.LogCost(e.model, "enrich")

	var r Result
	if err := decodeJSON(resp.Text(), &r); err != nil {
		zap.L().Warn("enrich: unparsable response, using fallback",
			zap.String("product", productName),
			zap.Error(err))
		return e.Fallback(brand, productName), nil
	}

	r = e.normalize(r, brand, productName)
	e.cachePut(ctx, key, r)
	return r, nil
}

// ExtractOptions pulls variant attributes out of a raw product name. It
// never invents attributes; a failure or empty answer yields nil options.
func (e *Enricher) ExtractOptions(ctx context.Context, rawName string) ([]model.OptionPair, error) {
	key := "options|" + strings.ToLower(rawName)
	if cached, ok := e.cacheGet(ctx, key); ok {
		var pairs []model.OptionPair
		if err := json.Unmarshal([]byte(cached), &pairs); err == nil {
			return pairs, nil
		}
	}

	retry := e.retry
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract_options")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     e.model,
			MaxTokens: 500,
			Messages: []anthropic.Message{{
				Role:    "user",
				Content: buildOptionsPrompt(rawName),
			}},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: extract options")
	}
	resp.Usage.LogCost(e.model, "extract_options")

	var raw []model.OptionPair
	if err := decodeJSON(resp.Text(), &raw); err != nil {
		zap.L().Debug("enrich: unparsable options response",
			zap.String("raw_name", rawName),
			zap.Error(err))
		return nil, nil
	}

	var pairs []model.OptionPair
	for _, p := range raw {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Value) == "" {
			continue
		}
		pairs = append(pairs, model.OptionPair{
			Name:  strings.TrimSpace(p.Name),
			Value: strings.TrimSpace(p.Value),
		})
	}
	e.cachePut(ctx, key, pairs)
	return pairs, nil
}

// Fallback builds a result from the inputs alone, used when the API gives
// nothing usable.
func (e *Enricher) Fallback(brand, productName string) Result {
	return Result{
		CleanedName: productName,
		Description: "<p>Premium <strong>" + brand + "</strong> product. " + productName + ".</p>",
		Category:    "Other",
		Tags:        fallbackTags(brand, "Other"),
	}
}

// normalize clamps and validates every field, substituting fallbacks where
// the model strayed from the contract.
func (e *Enricher) normalize(r Result, brand, productName string) Result {
	r.CleanedName = strings.Trim(strings.TrimSpace(r.CleanedName), `"'`)
	if r.CleanedName == "" {
		r.CleanedName = productName
	}
	r.CleanedName = truncate(r.CleanedName, maxNameLen)

	r.Description = cleanMarkdown(r.Description)
	if r.Description == "" {
		r.Description = e.Fallback(brand, productName).Description
	}
	r.Description = truncate(r.Description, maxDescriptionLen)

	r.Category = e.matchCategory(r.Category)
	r.Tags = normalizeTags(r.Tags, brand, r.Category)
	return r
}

// matchCategory maps a free-text category answer onto the taxonomy, falling
// back to "Other".
func (e *Enricher) matchCategory(answer string) string {
	lower := strings.ToLower(strings.TrimSpace(answer))
	if lower == "" {
		return "Other"
	}
	for _, cat := range e.categories {
		if strings.Contains(lower, strings.ToLower(cat)) || strings.Contains(strings.ToLower(cat), lower) {
			return cat
		}
	}
	return "Other"
}

// truncate caps s at max runes, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func cleanMarkdown(s string) string {
	s = strings.NewReplacer("```", "", "**", "", "*", "", "`", "").Replace(s)
	return strings.TrimSpace(s)
}

func normalizeTags(tags []string, brand, category string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if len(tag) < 2 || len(tag) > 50 || !validTag(tag) {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if len(out) < minTags {
		for _, tag := range fallbackTags(brand, category) {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	if len(out) > maxTags {
		out = out[:maxTags]
	}
	return out
}

func fallbackTags(brand, category string) []string {
	return []string{
		strings.ToLower(brand),
		strings.ReplaceAll(strings.ToLower(category), " ", "-"),
		"product",
		"beauty",
	}
}

func validTag(tag string) bool {
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == ' ':
		default:
			return false
		}
	}
	return true
}

func (e *Enricher) cacheGet(ctx context.Context, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	val, ok, err := e.cache.GetCache(ctx, cacheService, key)
	if err != nil {
		zap.L().Debug("enrich: cache read failed", zap.Error(err))
		return "", false
	}
	return val, ok
}

func (e *Enricher) cachePut(ctx context.Context, key string, value any) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := e.cache.PutCache(ctx, cacheService, key, string(data)); err != nil {
		zap.L().Debug("enrich: cache write failed", zap.Error(err))
	}
}
