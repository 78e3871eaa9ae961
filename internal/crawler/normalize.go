package crawler

import (
	"net/url"
	"path"
	"strings"
)

// unfetchableExtensions are path suffixes that are never requested.
// Warming targets HTML pages; images and documents are served by the CDN anyway.
var unfetchableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".tiff": true,
	".ico":  true,
	".pdf":  true,
}

// Normalize returns the identity of rawURL: its escaped path, "?", and the raw query.
// An empty path counts as "/". The query separator is always present, so
// "/a" and "/a?" share an identity while "/a?x=1" does not.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return p + "?" + u.RawQuery
}

// Resolve turns href into an absolute URL using base.
//
// An href with a host is returned unchanged; a protocol-relative one gets the
// scheme of base. A root-relative href ("/about") is joined to the origin of
// base. Any other href is appended to base with exactly one slash between them.
// Fragment-only hrefs and hrefs with a non-HTTP scheme (mailto:, tel:,
// javascript:, data:) cannot be resolved and return false.
func Resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	if u.Host != "" {
		if u.Scheme == "" {
			b, err := url.Parse(base)
			if err != nil || b.Scheme == "" {
				return "", false
			}
			return b.Scheme + ":" + href, true
		}
		return href, true
	}

	if u.Scheme != "" {
		// "http:foo" has a scheme but no host.
		return "", false
	}

	if strings.HasPrefix(href, "/") {
		origin, ok := originOf(base)
		if !ok {
			return "", false
		}
		return origin + href, true
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/"), true
}

// originOf returns "scheme://host" of rawURL.
func originOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// IsSameHost reports whether target has exactly the host of base, port included.
func IsSameHost(base, target string) bool {
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	return t.Host == b.Host
}

// IsFetchable reports whether rawURL should be requested at all.
// URLs whose path ends in an image or PDF extension are not.
func IsFetchable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return !unfetchableExtensions[ext]
}
