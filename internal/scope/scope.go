package scope

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned when a start URL is not http or https.
	ErrUnsupportedScheme = errors.New("start URL must be http or https")

	// ErrMissingHost is returned when a start URL has no host component.
	ErrMissingHost = errors.New("start URL has no host")
)

// Normalize trims whitespace and removes the fragment from a URL.
// The query and path are left intact. Normalize is pure: the same input
// always yields the same output.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// IsHTTP reports whether the URL scheme is http or https.
// Other schemes such as mailto:, javascript: and data: return false.
func IsHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Resolve resolves ref against base, normalizes the result and reports
// whether it is an HTTP(S) URL. Unparseable references return false.
func Resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	resolved := Normalize(base.ResolveReference(u).String())
	if !IsHTTP(resolved) {
		return "", false
	}
	return resolved, true
}

// Scope describes the set of hosts eligible for crawling.
type Scope struct {
	// Scheme is the start URL scheme (http or https).
	Scheme string

	// Host is the start URL host including any port, lowercased.
	Host string

	// Hostname is Host without the port.
	Hostname string

	// IncludeSubdomains also accepts strict subdomains of Hostname.
	IncludeSubdomains bool
}

// New derives a Scope from the start URL.
func New(startURL string, includeSubdomains bool) (Scope, error) {
	u, err := url.Parse(Normalize(startURL))
	if err != nil {
		return Scope{}, fmt.Errorf("invalid start URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Scope{}, ErrUnsupportedScheme
	}
	if u.Host == "" {
		return Scope{}, ErrMissingHost
	}

	return Scope{
		Scheme:            scheme,
		Host:              strings.ToLower(u.Host),
		Hostname:          strings.ToLower(u.Hostname()),
		IncludeSubdomains: includeSubdomains,
	}, nil
}

// Contains reports whether the URL is inside the scope.
// The host comparison is case-insensitive. With subdomain inclusion, any
// host ending in "."+Hostname is accepted as well.
func (s Scope) Contains(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, s.Host) {
		return true
	}
	if !s.IncludeSubdomains || s.Hostname == "" {
		return false
	}
	hostname := strings.ToLower(u.Hostname())
	return len(hostname) > len(s.Hostname)+1 && strings.HasSuffix(hostname, "."+s.Hostname)
}

// Origin returns scheme://host of the scope.
func (s Scope) Origin() string {
	return s.Scheme + "://" + s.Host
}

// String returns the scope in display form: the host, or *.hostname when
// subdomains are included.
func (s Scope) String() string {
	if s.IncludeSubdomains {
		return "*." + s.Hostname
	}
	return s.Host
}
