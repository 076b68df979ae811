package pathmap

import (
	"path/filepath"
	"strings"
	"testing"
)

// TestMapperMap tests URL to local path mapping.
func TestMapperMap(t *testing.T) {
	t.Parallel()

	out := filepath.Join("out")
	m := New(out)
	q1 := Hash8("v=1")

	tests := []struct {
		name        string
		url         string
		contentType string
		want        string
	}{
		{"root html becomes index.html", "https://ex.com/", "text/html", filepath.Join(out, "ex.com", "index.html")},
		{"empty path html becomes index.html", "https://ex.com", "text/html; charset=utf-8", filepath.Join(out, "ex.com", "index.html")},
		{"directory non-html becomes index", "https://ex.com/feed/", "application/json", filepath.Join(out, "ex.com", "feed", "index")},
		{"asset keeps its path", "https://ex.com/img/logo.png", "image/png", filepath.Join(out, "ex.com", "img", "logo.png")},
		{"extensionless html gets .html", "https://ex.com/about", "text/html", filepath.Join(out, "ex.com", "about.html")},
		{"xhtml counts as html", "https://ex.com/about", "application/xhtml+xml", filepath.Join(out, "ex.com", "about.html")},
		{"extensionless non-html stays bare", "https://ex.com/LICENSE", "text/plain", filepath.Join(out, "ex.com", "LICENSE")},
		{"query hash keeps suffix", "https://ex.com/style.css?v=1", "text/css", filepath.Join(out, "ex.com", "style__q="+q1+".css")},
		{"query hash keeps all suffixes", "https://ex.com/a.tar.gz?v=1", "application/gzip", filepath.Join(out, "ex.com", "a__q="+q1+".tar.gz")},
		{"query on directory html", "https://ex.com/?v=1", "text/html", filepath.Join(out, "ex.com", "index__q="+q1+".html")},
		{"query on extensionless html", "https://ex.com/search?v=1", "text/html", filepath.Join(out, "ex.com", "search__q="+q1+".html")},
		{"port is kept portably", "http://ex.com:8080/a.js", "", filepath.Join(out, "ex.com_8080", "a.js")},
		{"host directory is lowercased", "http://EX.com:8080/a.js", "", filepath.Join(out, "ex.com_8080", "a.js")},
		{"fragment is ignored", "https://ex.com/a.js#x", "", filepath.Join(out, "ex.com", "a.js")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := m.Map(tt.url, tt.contentType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Map(%q, %q) = %q, want %q", tt.url, tt.contentType, got, tt.want)
			}
		})
	}
}

// TestMapperProperties tests determinism and query distinctness.
func TestMapperProperties(t *testing.T) {
	t.Parallel()

	m := New("out")

	t.Run("mapping is deterministic", func(t *testing.T) {
		t.Parallel()

		a, err := m.Map("https://ex.com/a/b.js?x=1&y=2", "text/javascript")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := m.Map("https://ex.com/a/b.js?x=1&y=2", "text/javascript")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != b {
			t.Errorf("expected identical paths, got %q and %q", a, b)
		}
	})

	t.Run("different queries map to distinct files with shared stem and suffix", func(t *testing.T) {
		t.Parallel()

		a, err := m.Map("https://ex.com/style.css?v=1", "text/css")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := m.Map("https://ex.com/style.css?v=2", "text/css")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a == b {
			t.Fatalf("expected distinct paths, both were %q", a)
		}
		for _, p := range []string{a, b} {
			base := filepath.Base(p)
			if !strings.HasPrefix(base, "style__q=") || !strings.HasSuffix(base, ".css") {
				t.Errorf("unexpected filename %q", base)
			}
		}
	})

	t.Run("dot segments cannot escape the host directory", func(t *testing.T) {
		t.Parallel()

		for _, u := range []string{
			"https://ex.com/../../etc/passwd",
			"https://ex.com/a/%2e%2e/%2e%2e/%2e%2e/x",
			"https://ex.com/a/..",
		} {
			got, err := m.Map(u, "text/html")
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", u, err)
			}
			hostRoot := filepath.Join("out", "ex.com") + string(filepath.Separator)
			if !strings.HasPrefix(got, hostRoot) {
				t.Errorf("Map(%q) = %q escapes %q", u, got, hostRoot)
			}
		}
	})

	t.Run("url without host is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := m.Map("/relative/path", "text/html"); err == nil {
			t.Error("expected error for url without host")
		}
	})
}

// TestSplitSuffixes tests stem and suffix splitting.
func TestSplitSuffixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stem     string
		suffixes string
	}{
		{"style.css", "style", ".css"},
		{"a.tar.gz", "a", ".tar.gz"},
		{"index", "index", ""},
		{".htaccess", ".htaccess", ""},
		{"trailing.", "trailing.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stem, suffixes := splitSuffixes(tt.name)
			if stem != tt.stem || suffixes != tt.suffixes {
				t.Errorf("splitSuffixes(%q) = (%q, %q), want (%q, %q)", tt.name, stem, suffixes, tt.stem, tt.suffixes)
			}
		})
	}
}

// TestContentType tests Content-Type normalization helpers.
func TestContentType(t *testing.T) {
	t.Parallel()

	if got := ContentType("Text/HTML; charset=UTF-8"); got != "text/html" {
		t.Errorf("expected text/html, got %q", got)
	}
	if got := ContentType(""); got != "" {
		t.Errorf("expected empty content type, got %q", got)
	}
	if !IsCSS(ContentType("text/css;charset=utf-8")) {
		t.Error("expected text/css to be CSS")
	}
	if IsHTML("text/plain") {
		t.Error("expected text/plain not to be HTML")
	}
	if got := Hash8("v=1"); len(got) != 8 || got != strings.ToLower(got) {
		t.Errorf("expected 8 lowercase hex characters, got %q", got)
	}
}
