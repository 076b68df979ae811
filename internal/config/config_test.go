package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Workers is 8", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 8 {
			t.Errorf("expected Workers to be 8, got %d", cfg.Workers)
		}
	})

	t.Run("default Delay is 200 milliseconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Delay != 200*time.Millisecond {
			t.Errorf("expected Delay to be 200ms, got %v", cfg.Delay)
		}
	})

	t.Run("default Timeout is 20 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 20*time.Second {
			t.Errorf("expected Timeout to be 20s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxPages is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 {
			t.Errorf("expected MaxPages to be 0, got %d", cfg.MaxPages)
		}
	})

	t.Run("default UserAgent identifies the bot", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("expected UserAgent %q, got %q", DefaultUserAgent, cfg.UserAgent)
		}
	})

	t.Run("robots are respected by default", func(t *testing.T) {
		t.Parallel()
		if cfg.IgnoreRobots {
			t.Error("expected IgnoreRobots to be false")
		}
	})

	t.Run("history is saved to the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || cfg.DBDir != XDGDataDir() {
			t.Errorf("expected history in %q, got %q (save=%v)", XDGDataDir(), cfg.DBDir, cfg.SaveToDB)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.StartURL = "https://example.com/"
		cfg.OutDir = "out"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"zero delay is valid", func(c *Config) { c.Delay = 0 }, nil},
		{"http scheme is valid", func(c *Config) { c.StartURL = "http://example.com" }, nil},
		{"uppercase scheme is valid", func(c *Config) { c.StartURL = "HTTPS://example.com" }, nil},
		{"empty start url returns ErrNoStartURL", func(c *Config) { c.StartURL = "  " }, ErrNoStartURL},
		{"ftp scheme returns ErrUnsupportedScheme", func(c *Config) { c.StartURL = "ftp://example.com/" }, ErrUnsupportedScheme},
		{"missing host returns ErrUnsupportedScheme", func(c *Config) { c.StartURL = "https:///path" }, ErrUnsupportedScheme},
		{"relative url returns ErrUnsupportedScheme", func(c *Config) { c.StartURL = "example.com" }, ErrUnsupportedScheme},
		{"empty out dir returns ErrNoOutDir", func(c *Config) { c.OutDir = "" }, ErrNoOutDir},
		{"zero timeout returns ErrInvalidTimeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero workers returns ErrInvalidWorkers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"negative max pages returns ErrInvalidMaxPages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"negative delay returns ErrInvalidDelay", func(c *Config) { c.Delay = -time.Second }, ErrInvalidDelay},
		{"negative body size returns ErrInvalidMaxBodySize", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"json and markdown returns ErrConflictingReportFormats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestParseDuration tests duration flag parsing.
func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"0.2", 200 * time.Millisecond, false},
		{"0", 0, false},
		{"20", 20 * time.Second, false},
		{"1.5", 1500 * time.Millisecond, false},
		{"500ms", 500 * time.Millisecond, false},
		{"1m30s", 90 * time.Second, false},
		{"", 0, true},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDuration(tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Errorf("expected ErrInvalidDuration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// TestFileGetSiteConfig tests the GetSiteConfig method.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				MaxPages: 50,
				Cookie:   "default_cookie=abc",
			},
			Sites: map[string]SiteConfig{},
		}

		cfg := file.GetSiteConfig("unknown.example")
		if cfg.MaxPages != 50 {
			t.Errorf("expected max pages 50, got %d", cfg.MaxPages)
		}
		if cfg.Cookie != "default_cookie=abc" {
			t.Errorf("expected default cookie, got %q", cfg.Cookie)
		}
	})

	t.Run("returns site-specific config", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				MaxPages:  50,
				Cookie:    "default_cookie=abc",
				UserAgent: "DefaultBot",
			},
			Sites: map[string]SiteConfig{
				"example.com": {
					MaxPages:  100,
					Cookie:    "session=xyz",
					UserAgent: "SiteBot",
				},
			},
		}

		cfg := file.GetSiteConfig("example.com")
		if cfg.MaxPages != 100 {
			t.Errorf("expected max pages 100, got %d", cfg.MaxPages)
		}
		if cfg.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", cfg.Cookie)
		}
		if cfg.UserAgent != "SiteBot" {
			t.Errorf("expected site user agent, got %q", cfg.UserAgent)
		}
	})

	t.Run("matches hosts case-insensitively and without port", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Sites: map[string]SiteConfig{
				"Example.COM":     {Cookie: "bare"},
				"other.test:8080": {Cookie: "with-port"},
			},
		}

		if got := file.GetSiteConfig("example.com:8443").Cookie; got != "bare" {
			t.Errorf("expected hostname entry to match, got %q", got)
		}
		if got := file.GetSiteConfig("other.test:8080").Cookie; got != "with-port" {
			t.Errorf("expected host:port entry to match, got %q", got)
		}
		if got := file.GetSiteConfig("other.test:9090").Cookie; got != "" {
			t.Errorf("expected no match for a different port, got %q", got)
		}
	})

	t.Run("merges headers from defaults and site without mutating defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				Headers: map[string]string{
					"X-Default":     "value1",
					"Authorization": "default-token",
				},
			},
			Sites: map[string]SiteConfig{
				"example.com": {
					Headers: map[string]string{
						"X-Custom":      "value2",
						"Authorization": "site-token",
					},
				},
			},
		}

		cfg := file.GetSiteConfig("example.com")
		if cfg.Headers["X-Default"] != "value1" || cfg.Headers["X-Custom"] != "value2" {
			t.Errorf("expected merged headers, got %v", cfg.Headers)
		}
		if cfg.Headers["Authorization"] != "site-token" {
			t.Errorf("expected site token to override, got %q", cfg.Headers["Authorization"])
		}
		if file.Defaults.Headers["Authorization"] != "default-token" {
			t.Error("expected defaults to be left untouched")
		}
	})

	t.Run("site patterns override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				IgnorePatterns: []string{"/default/*"},
				FollowPatterns: []string{"/docs/*"},
			},
			Sites: map[string]SiteConfig{
				"example.com": {IgnorePatterns: []string{"/logout"}},
			},
		}

		cfg := file.GetSiteConfig("example.com")
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "/logout" {
			t.Errorf("expected site ignore patterns, got %v", cfg.IgnorePatterns)
		}
		if len(cfg.FollowPatterns) != 1 || cfg.FollowPatterns[0] != "/docs/*" {
			t.Errorf("expected default follow patterns, got %v", cfg.FollowPatterns)
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		file := &File{Defaults: SiteConfig{Cookie: "c=1"}}
		if got := file.GetSiteConfig("example.com").Cookie; got != "c=1" {
			t.Errorf("expected default cookie, got %q", got)
		}
	})
}

// TestConfigSiteConfig tests the Config.SiteConfig convenience method.
func TestConfigSiteConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.SiteConfig("example.com"); got.Cookie != "" || got.Headers != nil {
		t.Errorf("expected zero SiteConfig without a file, got %+v", got)
	}

	cfg.SiteConfigs = &File{Sites: map[string]SiteConfig{"example.com": {Cookie: "a=b"}}}
	if got := cfg.SiteConfig("example.com").Cookie; got != "a=b" {
		t.Errorf("expected site cookie, got %q", got)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sitemirror")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitemirror")
		content := `defaults:
  userAgent: "MirrorBot/2.0"
  ignorePatterns:
    - "*.zip"
sites:
  example.com:
    maxPages: 100
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
    ignorePatterns:
      - "/admin/*"
    followPatterns:
      - "/docs/*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.UserAgent != "MirrorBot/2.0" {
			t.Errorf("expected default user agent, got %q", cfg.Defaults.UserAgent)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.MaxPages != 100 {
			t.Errorf("expected site max pages 100, got %d", site.MaxPages)
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header")
		}
		if len(site.IgnorePatterns) != 1 || len(site.FollowPatterns) != 1 {
			t.Errorf("expected one ignore and one follow pattern, got %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitemirror")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".sitemirror")
		if err := os.WriteFile(configPath, []byte("defaults:\n  maxPages: 25\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds the file in the current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		t.Chdir(dir)

		if result := FindConfigFile(""); filepath.Base(result) != DefaultConfigFile {
			t.Errorf("expected %s in current directory, got %q", DefaultConfigFile, result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected data dir ending in %s, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected config dir ending in %s, got %q", AppName, dir)
	}
}
