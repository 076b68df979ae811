package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known location of the robots policy.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits how much of robots.txt is read.
const maxRobotsBodyBytes = 512 * 1024

// disallowAllRobots is the policy applied when robots.txt is access controlled.
const disallowAllRobots = "User-agent: *\nDisallow: /\n"

// ErrLoad is wrapped by every error returned from Load.
var ErrLoad = errors.New("robots.txt could not be loaded")

// Policy is a parsed robots.txt file.
type Policy struct {
	data *robotstxt.RobotsData
}

// Parse builds a Policy from an HTTP status code and body.
// 2xx bodies are parsed. 401 and 403 disallow everything, other 4xx
// mean no restrictions. 5xx and parse failures are reported as errors
// so the caller can fail open.
func Parse(statusCode int, body []byte) (*Policy, error) {
	if statusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: server returned %d", ErrLoad, statusCode)
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		statusCode, body = http.StatusOK, []byte(disallowAllRobots)
	}
	data, err := robotstxt.FromStatusAndBytes(statusCode, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return &Policy{data: data}, nil
}

// Load fetches and parses origin/robots.txt.
// origin must be of the form scheme://host. Any failure yields a nil Policy
// and an error wrapping ErrLoad.
func Load(ctx context.Context, client *http.Client, origin, userAgent string) (*Policy, error) {
	robotsURL := origin + robotsTxtPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrLoad, err)
	}

	return Parse(resp.StatusCode, body)
}

// Gate answers whether a URL may be fetched.
type Gate struct {
	policy    *Policy
	userAgent string
	ignore    bool
}

// NewGate creates a Gate for the given policy and user agent.
// A nil policy or ignore=true produces a gate that allows everything.
func NewGate(policy *Policy, userAgent string, ignore bool) *Gate {
	return &Gate{
		policy:    policy,
		userAgent: userAgent,
		ignore:    ignore,
	}
}

// Respected reports whether robots.txt is consulted at all.
func (g *Gate) Respected() bool {
	return g != nil && !g.ignore
}

// Loaded reports whether a policy was successfully loaded.
func (g *Gate) Loaded() bool {
	return g != nil && g.policy != nil && g.policy.data != nil
}

// Active reports whether the gate actually enforces a policy.
func (g *Gate) Active() bool {
	return g.Respected() && g.Loaded()
}

// Allowed reports whether the URL may be fetched by the gate's user agent.
func (g *Gate) Allowed(rawURL string) (allowed bool) {
	if !g.Active() {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			allowed = true
		}
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	return g.policy.data.TestAgent(requestPath(u), g.userAgent)
}

// CrawlDelay returns the Crawl-delay declared for the gate's user agent,
// or zero when none is declared or the gate is inactive.
func (g *Gate) CrawlDelay() time.Duration {
	if !g.Active() {
		return 0
	}
	group := g.policy.data.FindGroup(g.userAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// requestPath returns the path and query used for rule matching.
func requestPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
