package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nao1215/sitemirror/internal/pathmap"
)

const (
	// defaultUserAgent is sent when no user agent is configured.
	defaultUserAgent = "SiteMirrorBot/1.0"

	// defaultMaxBodySize limits response bodies to 50MB.
	defaultMaxBodySize = 50 * 1024 * 1024

	// dirPerm and filePerm are the permissions of mirrored output.
	dirPerm  = 0o750
	filePerm = 0o640
)

// Response is a fully read HTTP response.
type Response struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after redirects were followed.
	FinalURL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// ContentType is the lowercased media type without parameters.
	ContentType string

	// Charset is the charset parameter of the Content-Type header, if any.
	Charset string

	// Body holds the raw response bytes, cut at the fetcher's size limit
	// when Truncated is set.
	Body []byte

	// Truncated is set when the body exceeded the size limit.
	Truncated bool
}

// Fetcher performs GET requests for the crawl.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	cookie      string
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a body are read.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithFetcherLogger sets the logger used for debug output.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher using client.
// Redirect policy and request timeout are properties of the client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UserAgent returns the User-Agent the fetcher sends.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch GETs rawURL and reads the whole body.
// Transport failures are returned as *FetchError. Any HTTP status,
// including errors, is returned as a Response for the caller to judge.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	header := resp.Header.Get("Content-Type")
	out := &Response{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: pathmap.ContentType(header),
		Charset:     charsetParam(header),
		Body:        body,
	}
	if int64(len(body)) > f.maxBodySize {
		out.Body = body[:f.maxBodySize]
		out.Truncated = true
		f.logger.Debug("response body over limit", "url", rawURL, "limit", f.maxBodySize)
	}

	return out, nil
}

// charsetParam returns the charset parameter of a Content-Type value.
func charsetParam(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// Saver writes responses under the mirror directory.
type Saver struct {
	mapper pathmap.Mapper
}

// NewSaver creates a Saver that places files according to mapper.
func NewSaver(mapper pathmap.Mapper) *Saver {
	return &Saver{mapper: mapper}
}

// OutDir returns the root of the mirror.
func (s *Saver) OutDir() string {
	return s.mapper.OutDir()
}

// Save writes resp.Body to the path mapped from rawURL and the response
// content type, creating parent directories as needed. Existing files are
// overwritten. Failures are returned as *SaveError.
func (s *Saver) Save(rawURL string, resp *Response) (string, error) {
	path, err := s.mapper.Map(rawURL, resp.ContentType)
	if err != nil {
		return "", &SaveError{URL: rawURL, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", &SaveError{URL: rawURL, Path: path, Err: err}
	}
	if err := os.WriteFile(path, resp.Body, filePerm); err != nil {
		return "", &SaveError{URL: rawURL, Path: path, Err: err}
	}

	return path, nil
}
