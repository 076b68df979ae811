package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// defaultMaxRedirects is how many redirects a request may follow.
	defaultMaxRedirects = 10

	// checkProxyTimeout bounds the SOCKS5 handshake performed by CheckProxy.
	checkProxyTimeout = 2 * time.Second
)

// SOCKS5 greeting bytes.
const (
	socks5Version    = 0x05
	socks5AuthNone   = 0x00
	socks5NumMethods = 0x01
)

// options holds the settings collected from Option values.
type options struct {
	proxyAddress string
	maxRedirects int
	idlePerHost  int
}

// Option configures the client built by New.
type Option func(*options)

// WithProxy routes all connections through the SOCKS5 proxy at address
// ("host:port"). An empty address means direct connections.
func WithProxy(address string) Option {
	return func(o *options) {
		o.proxyAddress = address
	}
}

// WithMaxRedirects sets how many redirects a request may follow.
// Zero disables redirects entirely.
func WithMaxRedirects(n int) Option {
	return func(o *options) {
		o.maxRedirects = max(n, 0)
	}
}

// WithMaxIdleConnsPerHost sizes the keep-alive pool per host. It is usually
// set to the number of crawl workers.
func WithMaxIdleConnsPerHost(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.idlePerHost = n
		}
	}
}

// New creates an HTTP client with the given per-request timeout.
func New(timeout time.Duration, opts ...Option) (*http.Client, error) {
	o := &options{maxRedirects: defaultMaxRedirects}
	for _, opt := range opts {
		opt(o)
	}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
	}
	transport = transport.Clone()
	if o.idlePerHost > 0 {
		transport.MaxIdleConnsPerHost = o.idlePerHost
	}

	if o.proxyAddress != "" {
		if !IsValidProxyAddress(o.proxyAddress) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, o.proxyAddress)
		}
		// No auth: local SOCKS ports (Tor, ssh -D) typically don't require it.
		dialer, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	maxRedirects := o.maxRedirects
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		},
	}, nil
}

// IsValidProxyAddress reports whether address is "host:port" with a
// non-empty host and a port between 1 and 65535.
func IsValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// CheckProxy verifies that a SOCKS5 proxy is listening at address and
// accepts unauthenticated clients. Only the method negotiation is
// performed; no connection to any target is requested.
func CheckProxy(ctx context.Context, address string) error {
	if !IsValidProxyAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // best effort
	}

	if _, err := conn.Write([]byte{socks5Version, socks5NumMethods, socks5AuthNone}); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyNotSOCKS5, err)
	}
	if reply[0] != socks5Version || reply[1] != socks5AuthNone {
		return fmt.Errorf("%w: unexpected reply %#x", ErrProxyNotSOCKS5, reply)
	}

	return nil
}
