package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func searchResponse(urls ...string) SearchResponse {
	var resp SearchResponse
	for _, u := range urls {
		resp.Results = append(resp.Results, SearchResult{URL: u})
	}
	return resp
}

func TestSearchProductURLPrefersCleanResult(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "Acme Shampoo buy product page", req.Query)
		assert.Contains(t, req.IncludeDomains, "acme.com")

		json.NewEncoder(w).Encode(searchResponse(
			"https://acme.com/account/login",
			"https://acme.com/cart",
			"https://acme.com/products/shampoo",
		))
	})

	url, err := c.SearchProductURL(context.Background(), "Acme", "Shampoo")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/products/shampoo", url)
}

func TestSearchProductURLFallsBackToFirstResult(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse(
			"https://acme.com/checkout/item",
			"https://acme.com/cart/item",
		))
	})

	url, err := c.SearchProductURL(context.Background(), "Acme", "Shampoo")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/checkout/item", url)
}

func TestSearchProductURLNoResults(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{})
	})

	url, err := c.SearchProductURL(context.Background(), "Acme", "Shampoo")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestSearchProductURLRateLimitIsTransient(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.SearchProductURL(context.Background(), "Acme", "Shampoo")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearchProductURLClientErrorIsPermanent(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.SearchProductURL(context.Background(), "Acme", "Shampoo")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestSearchProductURLRequiresInput(t *testing.T) {
	c := NewClient("key")
	_, err := c.SearchProductURL(context.Background(), "", "Shampoo")
	assert.Error(t, err)
	_, err = c.SearchProductURL(context.Background(), "Acme", "  ")
	assert.Error(t, err)
}

func TestPriorityDomains(t *testing.T) {
	domains := priorityDomains("The Honest-Co")
	assert.Equal(t, "thehonestco.com", domains[0])
	assert.Contains(t, domains, "iherb.com")
}
