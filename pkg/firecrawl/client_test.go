package firecrawl

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
	c := NewClient("test-api-key", WithBaseURL(srv.URL))
	return srv, c
}

func scrapeHandler(t *testing.T, html string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"html"}, req.Formats)

		json.NewEncoder(w).Encode(ScrapeResponse{
			Success: true,
			Data:    PageData{URL: req.URL, HTML: html},
		})
	}
}

func TestExtractImagesScoresAndCaps(t *testing.T) {
	html := `
		<img src="https://cdn.acme.com/products/shampoo-front.jpg" />
		<img src="https://cdn.acme.com/products/shampoo-back.jpg" />
		<img src="https://acme.com/misc/photo.webp" />
		<img src="https://acme.com/extra/other.png" />
		<img src="https://acme.com/assets/logo.png" />
		<img src="http://acme.com/insecure.jpg" />
		<img data-src="https://cdn.acme.com/products/shampoo-side.jpeg" />`
	_, c := newTestServer(t, scrapeHandler(t, html))

	images, err := c.ExtractImages(context.Background(), "https://acme.com/products/shampoo", "Acme Shampoo")
	require.NoError(t, err)
	require.Len(t, images, MaxImages)
	assert.Equal(t, "https://cdn.acme.com/products/shampoo-front.jpg", images[0])
	assert.Equal(t, "https://cdn.acme.com/products/shampoo-back.jpg", images[1])
	assert.Equal(t, "https://cdn.acme.com/products/shampoo-side.jpeg", images[2])
	assert.NotContains(t, images, "https://acme.com/assets/logo.png")
	assert.NotContains(t, images, "http://acme.com/insecure.jpg")
}

func TestExtractImagesNoImages(t *testing.T) {
	_, c := newTestServer(t, scrapeHandler(t, "<p>no pictures here</p>"))

	images, err := c.ExtractImages(context.Background(), "https://acme.com/p", "Acme Shampoo")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestExtractImagesScrapeFailure(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ScrapeResponse{Success: false})
	})

	images, err := c.ExtractImages(context.Background(), "https://acme.com/p", "Acme Shampoo")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestExtractImagesInvalidURL(t *testing.T) {
	c := NewClient("key")
	_, err := c.ExtractImages(context.Background(), "not-a-url", "Acme Shampoo")
	assert.Error(t, err)
}

func TestExtractImagesRateLimitIsTransient(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ExtractImages(context.Background(), "https://acme.com/p", "Acme Shampoo")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSelectImagesDedupes(t *testing.T) {
	html := `
		<img src="https://cdn.acme.com/a.jpg" />
		<img src="https://cdn.acme.com/a.jpg" />`
	images := selectImages(html, "acme")
	assert.Equal(t, []string{"https://cdn.acme.com/a.jpg"}, images)
}
