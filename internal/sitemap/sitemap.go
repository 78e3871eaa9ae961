package sitemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antchfx/xmlquery"
)

// maxSitemapSize bounds how much of a sitemap response is read.
// The sitemaps.org protocol caps an uncompressed sitemap at 50MB.
const maxSitemapSize = 50 * 1024 * 1024

// locExpr selects <loc> children of <url> elements in any namespace.
const locExpr = "//*[local-name()='url']/*[local-name()='loc']"

var (
	// ErrEmptySitemap is returned when the sitemap response has no body.
	ErrEmptySitemap = errors.New("sitemap is empty")

	// ErrMalformedSitemap is returned when the sitemap is not well-formed XML.
	ErrMalformedSitemap = errors.New("sitemap is not valid XML")

	// ErrUnexpectedStatus is returned when the sitemap request does not answer 200.
	ErrUnexpectedStatus = errors.New("unexpected sitemap response status")
)

// Parse returns the trimmed, non-empty <loc> values in document order.
func Parse(r io.Reader) ([]string, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSitemap, err)
	}

	nodes, err := xmlquery.QueryAll(doc, locExpr)
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemap: %w", err)
	}

	locs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		loc := strings.TrimSpace(n.InnerText())
		if loc == "" {
			continue
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// Fetch downloads the sitemap at sitemapURL with client and parses it.
func Fetch(ctx context.Context, client *http.Client, sitemapURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sitemap request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptySitemap
	}

	return Parse(bytes.NewReader(body))
}
