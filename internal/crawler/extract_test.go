package crawler

import (
	"slices"
	"testing"

	"github.com/nao1215/sitemirror/internal/scope"
)

func mustScope(t *testing.T, startURL string, subdomains bool) scope.Scope {
	t.Helper()
	sc, err := scope.New(startURL, subdomains)
	if err != nil {
		t.Fatalf("failed to create scope: %v", err)
	}
	return sc
}

// TestExtractHTML tests page and asset discovery in HTML documents.
func TestExtractHTML(t *testing.T) {
	t.Parallel()

	t.Run("separates pages from assets", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<html><head>
			<link rel="stylesheet" href="/css/site.css">
			<script src="app.js"></script>
		</head><body>
			<a href="/about">About</a>
			<a href="/about#team">Team</a>
			<img src="/logo.png">
		</body></html>`

		pages, assets := e.ExtractHTML("https://ex.com/docs/", []byte(html))

		wantPages := []string{"https://ex.com/about"}
		wantAssets := []string{
			"https://ex.com/css/site.css",
			"https://ex.com/docs/app.js",
			"https://ex.com/logo.png",
		}
		if !slices.Equal(pages, wantPages) {
			t.Errorf("expected pages %v, got %v", wantPages, pages)
		}
		if !slices.Equal(assets, wantAssets) {
			t.Errorf("expected assets %v, got %v", wantAssets, assets)
		}
	})

	t.Run("drops out of scope and non-http references", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<body>
			<a href="https://other.com/x">Other</a>
			<a href="https://cdn.ex.com/x">Subdomain</a>
			<a href="mailto:me@ex.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="#top">Fragment only</a>
			<img src="data:image/png;base64,AAAA">
			<img src="https://other.com/pixel.gif">
		</body>`

		pages, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		if !slices.Equal(pages, []string{"https://ex.com/"}) {
			t.Errorf("expected only the fragment link resolving to the base, got %v", pages)
		}
		if len(assets) != 0 {
			t.Errorf("expected no assets, got %v", assets)
		}
	})

	t.Run("includes subdomains when enabled", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", true))
		html := `<a href="https://blog.ex.com/post">Blog</a><img src="https://cdn.ex.com/a.png">
			<a href="https://notex.com/">Lookalike</a>`

		pages, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		if !slices.Equal(pages, []string{"https://blog.ex.com/post"}) {
			t.Errorf("unexpected pages: %v", pages)
		}
		if !slices.Equal(assets, []string{"https://cdn.ex.com/a.png"}) {
			t.Errorf("unexpected assets: %v", assets)
		}
	})

	t.Run("splits srcset candidates", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<img srcset="/a-1x.png 1x, /a-2x.png 2x">
			<picture><source srcset="/b.webp 480w"></picture>
			<video src="/v.mp4" poster="/poster.jpg"></video>`

		_, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		want := []string{
			"https://ex.com/a-1x.png",
			"https://ex.com/a-2x.png",
			"https://ex.com/b.webp",
			"https://ex.com/poster.jpg",
			"https://ex.com/v.mp4",
		}
		if !slices.Equal(assets, want) {
			t.Errorf("expected %v, got %v", want, assets)
		}
	})

	t.Run("filters link elements by rel", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<head>
			<link rel="alternate" href="/feed.xml">
			<link rel="canonical" href="/canonical">
			<link rel="alternate" href="/print.css">
			<link rel="Shortcut Icon" href="/favicon">
			<link rel="manifest" href="/site.webmanifest">
			<link href="/bare">
		</head>`

		_, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		want := []string{
			"https://ex.com/bare",
			"https://ex.com/favicon",
			"https://ex.com/print.css",
			"https://ex.com/site.webmanifest",
		}
		if !slices.Equal(assets, want) {
			t.Errorf("expected %v, got %v", want, assets)
		}
	})

	t.Run("honors base href", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<head><base href="/static/"></head><body><img src="x.png"><a href="page">P</a></body>`

		pages, assets := e.ExtractHTML("https://ex.com/deep/path/", []byte(html))

		if !slices.Equal(pages, []string{"https://ex.com/static/page"}) {
			t.Errorf("unexpected pages: %v", pages)
		}
		if !slices.Equal(assets, []string{"https://ex.com/static/x.png"}) {
			t.Errorf("unexpected assets: %v", assets)
		}
	})

	t.Run("reports a url found both ways only as an asset", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<a href="/about">A</a><a href="/logo.png">L</a><img src="/logo.png">`

		pages, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		if !slices.Equal(pages, []string{"https://ex.com/about"}) {
			t.Errorf("unexpected pages: %v", pages)
		}
		if !slices.Equal(assets, []string{"https://ex.com/logo.png"}) {
			t.Errorf("unexpected assets: %v", assets)
		}
	})

	t.Run("scans inline styles", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<head><style>body { background: url('/bg.png') }</style></head>
			<body><div style="background-image: url(/hero.jpg)"></div></body>`

		_, assets := e.ExtractHTML("https://ex.com/", []byte(html))

		want := []string{"https://ex.com/bg.png", "https://ex.com/hero.jpg"}
		if !slices.Equal(assets, want) {
			t.Errorf("expected %v, got %v", want, assets)
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(mustScope(t, "https://ex.com/", false))
		html := `<html><body><a href="/ok">unclosed <div><img src="/i.png" <p>`

		pages, _ := e.ExtractHTML("https://ex.com/", []byte(html))
		if !slices.Equal(pages, []string{"https://ex.com/ok"}) {
			t.Errorf("unexpected pages: %v", pages)
		}
	})
}

// TestExtractCSS tests url() and @import discovery in stylesheets.
func TestExtractCSS(t *testing.T) {
	t.Parallel()

	e := NewExtractor(mustScope(t, "https://ex.com/", false))
	css := `
		@import "reset.css";
		@import url("theme.css");
		.a { background: url(img/a.png); }
		.b { background: URL( '../img/b.png' ); }
		.c { background: url("data:image/png;base64,AAAA"); }
		.d { background: url(https://other.com/d.png); }
		.e { background: url(img/a.png#frag); }
	`

	got := e.ExtractCSS("https://ex.com/css/site.css", []byte(css))

	want := []string{
		"https://ex.com/css/img/a.png",
		"https://ex.com/css/reset.css",
		"https://ex.com/css/theme.css",
		"https://ex.com/img/b.png",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestDecodeText tests charset handling before extraction.
func TestDecodeText(t *testing.T) {
	t.Parallel()

	latin1 := []byte("caf\xe9")

	t.Run("uses declared charset", func(t *testing.T) {
		t.Parallel()

		if got := DecodeText(latin1, "iso-8859-1", "text/html"); got != "café" {
			t.Errorf("expected café, got %q", got)
		}
	})

	t.Run("keeps valid utf-8 when undeclared", func(t *testing.T) {
		t.Parallel()

		if got := DecodeText([]byte("café"), "", "text/html"); got != "café" {
			t.Errorf("expected café, got %q", got)
		}
	})

	t.Run("sniffs meta charset", func(t *testing.T) {
		t.Parallel()

		body := append([]byte(`<meta charset="iso-8859-1"><p>`), latin1...)
		if got := DecodeText(body, "", "text/html"); got != `<meta charset="iso-8859-1"><p>café` {
			t.Errorf("unexpected decode result %q", got)
		}
	})

	t.Run("unknown label returns raw bytes", func(t *testing.T) {
		t.Parallel()

		if got := DecodeText([]byte("plain"), "x-unknown", "text/html"); got != "plain" {
			t.Errorf("expected raw text, got %q", got)
		}
	})
}
