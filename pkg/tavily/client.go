// Package tavily is a minimal client for the Tavily search API, used to
// find a product page URL for a brand and product name.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// skipURLFragments disqualify results that are account flows rather than
// product pages.
var skipURLFragments = []string{"login", "signin", "account", "cart", "checkout", "register"}

// domainPriority lists search domains in preference order; {brand} expands
// to the cleaned brand name.
var domainPriority = []string{
	"{brand}.com",
	"{brand}.sa",
	"{brand}.ae",
	"{brand}.co",
	"iherb.sa",
	"sa.iherb.com",
	"iherb.com",
	"amazon.sa",
	"noon.com",
	"namshi.com",
	"amazon.ae",
}

// Client defines the search operations used by the pipeline.
type Client interface {
	SearchProductURL(ctx context.Context, brand, productName string) (string, error)
}

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is one hit in a search response.
type SearchResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// APIError is returned when Tavily responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tavily: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMaxResults sets how many results to request per query.
func WithMaxResults(n int) Option {
	return func(c *httpClient) {
		c.maxResults = n
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	http       *http.Client
}

// NewClient creates a new Tavily client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: 10,
		http: &http.Client{
			Timeout: 30 * time.Second,
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

// SearchProductURL queries for a buyable product page and returns the best
// result URL, or empty string when nothing usable was found. Results whose
// URLs look like login or checkout flows are passed over in favor of the
// first clean hit; if every result is disqualified the first raw result is
// used as a fallback.
func (c *httpClient) SearchProductURL(ctx context.Context, brand, productName string) (string, error) {
	brand = strings.TrimSpace(brand)
	productName = strings.TrimSpace(productName)
	if brand == "" || productName == "" {
		return "", eris.New("tavily: brand and product name are required")
	}

	req := SearchRequest{
		APIKey:         c.apiKey,
		Query:          fmt.Sprintf("%s %s buy product page", brand, productName),
		MaxResults:     c.maxResults,
		IncludeDomains: priorityDomains(brand),
		SearchDepth:    "advanced",
	}

	var resp SearchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return "", eris.Wrap(err, "tavily: search")
	}

	if len(resp.Results) == 0 {
		return "", nil
	}

	for _, r := range resp.Results {
		if productPageURL(r.URL) {
			return r.URL, nil
		}
	}
	if validURL(resp.Results[0].URL) {
		return resp.Results[0].URL, nil
	}
	return "", nil
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

func priorityDomains(brand string) []string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.ToLower(brand))
	domains := make([]string, len(domainPriority))
	for i, d := range domainPriority {
		domains[i] = strings.ReplaceAll(d, "{brand}", cleaned)
	}
	return domains
}

func productPageURL(raw string) bool {
	if !validURL(raw) {
		return false
	}
	lower := strings.ToLower(raw)
	for _, frag := range skipURLFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}

func validURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
