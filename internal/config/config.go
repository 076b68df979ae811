package config

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitemirror"

	// DefaultWorkers is the number of concurrent fetch workers.
	DefaultWorkers = 8

	// DefaultDelay is the pause between two requests of the same worker.
	// With the default worker count this keeps a site below ~40 requests per second.
	DefaultDelay = 200 * time.Millisecond

	// DefaultTimeout bounds a single request including redirects.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxPages is the HTML page cap. 0 means unlimited.
	DefaultMaxPages = 0

	// DefaultUserAgent identifies sitemirror in HTTP requests and is the
	// agent robots.txt rules are evaluated for.
	DefaultUserAgent = "SiteMirrorBot/1.0 (+https://github.com/nao1215/sitemirror)"

	// DefaultMaxBodySize limits the response body size read per URL.
	DefaultMaxBodySize = 50 * 1024 * 1024 // 50MB

	// DefaultMaxRedirects is how many redirects a request may follow.
	DefaultMaxRedirects = 10
)

// Config holds all options for one mirror run.
// It is populated from CLI flags and passed down explicitly rather than
// held in global state.
type Config struct {
	// StartURL is the first URL fetched. Its host defines the crawl scope.
	StartURL string

	// OutDir is the root directory files are mirrored into.
	OutDir string

	// IncludeSubdomains widens the scope to strict subdomains of the
	// start host.
	IncludeSubdomains bool

	// MaxPages caps the number of HTML pages counted. 0 means unlimited.
	MaxPages int

	// Delay is the minimum spacing between requests of one worker.
	Delay time.Duration

	// Workers is the number of concurrent fetch workers.
	Workers int

	// IgnoreRobots disables robots.txt checks entirely.
	IgnoreRobots bool

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is sent with every request. A site file entry may override it.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Larger responses are truncated.
	MaxBodySize int64

	// MaxRedirects is how many redirects a single request may follow.
	MaxRedirects int

	// ProxyAddress routes requests through a SOCKS5 proxy in "host:port"
	// format. Empty means direct connections.
	ProxyAddress string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the site configuration file.
	// If empty, .sitemirror is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport writes the final summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the final summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary.
	// When empty the summary goes to stdout.
	ReportFile string

	// DBDir is the directory of the run history database.
	// Defaults to the XDG data directory (~/.local/share/sitemirror on Linux).
	DBDir string

	// SaveToDB records the run and every URL outcome in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxPages:     DefaultMaxPages,
		Delay:        DefaultDelay,
		Workers:      DefaultWorkers,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		MaxRedirects: DefaultMaxRedirects,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
	}
}

// XDGDataDir returns the XDG data directory for sitemirror.
// On Linux: ~/.local/share/sitemirror
// On macOS: ~/Library/Application Support/sitemirror
// On Windows: %LOCALAPPDATA%\sitemirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitemirror.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StartURL) == "" {
		return ErrNoStartURL
	}

	u, err := url.Parse(strings.TrimSpace(c.StartURL))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedScheme, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return ErrUnsupportedScheme
	}

	if strings.TrimSpace(c.OutDir) == "" {
		return ErrNoOutDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// SiteConfig returns the site file settings that apply to host.
// When no site file is loaded it returns the zero SiteConfig.
func (c *Config) SiteConfig(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// ParseDuration parses a duration flag value. A plain number is taken as
// seconds ("0.2" is 200ms); anything else must be a Go duration ("1m30s").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
	return d, nil
}
