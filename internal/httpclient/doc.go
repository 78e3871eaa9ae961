// Package httpclient builds the *http.Client used for every page and sitemap
// request of a warm run.
//
// The client skips TLS verification (staging hosts and origin servers behind
// a CDN commonly carry self-signed or mismatched certificates), follows a
// bounded number of redirects and can route connections through an upstream
// SOCKS5 proxy. Per-host headers, cookies and the User-Agent are injected by
// a RoundTripper so that redirected requests carry them too.
//
// CheckProxy verifies a SOCKS5 proxy before a run starts.
package httpclient
