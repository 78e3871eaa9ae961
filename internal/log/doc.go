// Package log provides slog-based logging with automatic sanitization of
// credentials that tend to leak into cache-warming logs.
//
// The SecureHandler masks:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - values that look like bearer/basic credentials or JWTs
//   - sensitive query parameters inside URL values (signed CDN links,
//     preview tokens) and passwords embedded in URL userinfo
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetched", "url", "https://cdn.example.com/a?token=abc")
//	// url=https://cdn.example.com/a?token=%2A%2A%2AREDACTED%2A%2A%2A
package log
