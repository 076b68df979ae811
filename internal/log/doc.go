// Package log provides the slog logger used by sitemirror, wrapped in a
// handler that masks sensitive values before they reach the output.
//
// Mirroring authenticated areas means cookies and authorization headers
// from the site file flow through the crawler. The SecureHandler masks:
//   - attributes whose key names a secret (cookie, authorization, token...)
//   - values that look like bearer or basic credentials, JWTs or keys
//   - secret-looking query parameters inside logged URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("OK", "url", "https://example.com/a?token=abc", "path", "example.com/a")
//	// url=https://example.com/a?token=***REDACTED*** path=example.com/a
package log
