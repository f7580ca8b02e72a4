package shopify

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxHandleLen = 255

var (
	invalidHandleChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	handleSpaces       = regexp.MustCompile(`\s+`)
	handleHyphenRuns   = regexp.MustCompile(`-+`)
)

// Slugify converts arbitrary text into a handle: lowercase, accents
// stripped, only [a-z0-9-], single hyphens, trimmed, capped at 255 chars.
// Returns "product" when nothing survives.
func Slugify(text string) string {
	s := strings.ToLower(text)

	// Decompose and drop combining marks so "Café" becomes "cafe".
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = invalidHandleChars.ReplaceAllString(s, "")
	s = handleSpaces.ReplaceAllString(s, "-")
	s = handleHyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxHandleLen {
		s = s[:maxHandleLen]
	}
	if s == "" {
		return "product"
	}
	return s
}

// HandleRegistry issues unique handles for one run. Safe for concurrent use.
type HandleRegistry struct {
	mu     sync.Mutex
	issued map[string]struct{}
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{issued: make(map[string]struct{})}
}

// Reserve issues a unique handle for brand and base name. On collision it
// tries suffixing the last four characters of the first variant's external
// ID, then the full ID, then an integer counter from 1. The returned handle
// is reserved immediately and never reissued within the run.
func (r *HandleRegistry) Reserve(brand, baseName, firstExternalID string) string {
	base := Slugify(brand + "-" + baseName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claim(base) {
		return base
	}

	if firstExternalID != "" {
		tail := firstExternalID
		if len(tail) > 4 {
			tail = tail[len(tail)-4:]
		}
		if h := base + "-" + tail; r.claim(h) {
			return h
		}
		if h := base + "-" + firstExternalID; r.claim(h) {
			return h
		}
	}

	for counter := 1; ; counter++ {
		if h := fmt.Sprintf("%s-%d", base, counter); r.claim(h) {
			return h
		}
	}
}

// Count returns how many handles have been issued.
func (r *HandleRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issued)
}

func (r *HandleRegistry) claim(handle string) bool {
	if _, taken := r.issued[handle]; taken {
		return false
	}
	r.issued[handle] = struct{}{}
	return true
}
