// Package firecrawl is a client for the Firecrawl scrape API, used to pull
// product images out of a product page.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/resilience"
)

// Default base URL for the Firecrawl v1 API.
const defaultBaseURL = "https://api.firecrawl.dev/v1"

// MaxImages caps how many image URLs ExtractImages returns.
const MaxImages = 3

// Client defines the Firecrawl operations used by the pipeline.
type Client interface {
	ExtractImages(ctx context.Context, pageURL, productName string) ([]string, error)
}

// ScrapeRequest is the body for POST /scrape.
type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
	IncludeTags     []string `json:"includeTags,omitempty"`
	WaitFor         int      `json:"waitFor,omitempty"`
}

// ScrapeResponse is the response from POST /scrape.
type ScrapeResponse struct {
	Success bool     `json:"success"`
	Data    PageData `json:"data"`
}

// PageData is a single scraped page.
type PageData struct {
	URL        string `json:"url"`
	HTML       string `json:"html"`
	Title      string `json:"title"`
	StatusCode int    `json:"statusCode"`
}

// APIError is returned when Firecrawl responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Firecrawl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	imgSrcPattern     = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	imgDataSrcPattern = regexp.MustCompile(`(?i)<img[^>]+data-src=["']([^"']+)["']`)
)

// skipPatterns mark images that are page chrome rather than product shots.
var skipPatterns = []string{
	"logo", "icon", "badge", "button",
	"arrow", "star", "rating", "banner",
	"header", "footer", "nav", "menu",
	"social", "facebook", "twitter", "instagram",
	"checkout", "cart", "search",
}

// ExtractImages scrapes the page and returns up to MaxImages HTTPS image
// URLs, scored for relevance against the product name. A page with no
// usable images returns an empty slice, not an error.
func (c *httpClient) ExtractImages(ctx context.Context, pageURL, productName string) ([]string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return nil, eris.Errorf("firecrawl: invalid page URL %q", pageURL)
	}

	req := ScrapeRequest{
		URL:             pageURL,
		Formats:         []string{"html"},
		OnlyMainContent: true,
		IncludeTags:     []string{"img"},
		WaitFor:         2000,
	}

	var resp ScrapeResponse
	if err := c.post(ctx, "/scrape", req, &resp); err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}
	if !resp.Success {
		return nil, nil
	}

	return selectImages(resp.Data.HTML, productName), nil
}

// selectImages pulls img src and lazy-load data-src URLs out of raw HTML,
// drops chrome and tracking images, scores the rest against the product
// name, and returns the top MaxImages.
func selectImages(html, productName string) []string {
	var candidates []string
	for _, m := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range imgDataSrcPattern.FindAllStringSubmatch(html, -1) {
		candidates = append(candidates, m[1])
	}

	keywords := strings.Fields(strings.ToLower(productName))

	type scored struct {
		url   string
		score int
		order int
	}
	var kept []scored
	seen := make(map[string]struct{})

	for i, src := range candidates {
		src = strings.TrimSpace(src)
		if !strings.HasPrefix(src, "https://") {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}

		lower := strings.ToLower(src)
		if containsAny(lower, skipPatterns) {
			continue
		}
		if strings.HasSuffix(lower, "gif") || strings.HasSuffix(lower, "1x1") || strings.HasSuffix(lower, "pixel") {
			continue
		}

		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 5
			}
		}
		switch {
		case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
			score += 3
		case strings.HasSuffix(lower, ".png"):
			score += 2
		case strings.HasSuffix(lower, ".webp"):
			score++
		}
		if containsAny(lower, []string{"cdn", "images", "assets", "s3", "cloudfront", "media"}) {
			score += 2
		}
		if strings.Contains(lower, "product") {
			score += 3
		}

		seen[src] = struct{}{}
		kept = append(kept, scored{url: src, score: score, order: i})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].order < kept[j].order
	})

	var out []string
	for _, s := range kept {
		if len(out) == MaxImages {
			break
		}
		out = append(out, s.url)
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		if resilience.RetryableStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
