package crawler

import (
	"bytes"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitemirror/internal/scope"
)

// assetAttr is an element/attribute pair whose value references an asset.
type assetAttr struct {
	tag  string
	attr string
}

// assetAttrs lists the element attributes that reference page assets.
var assetAttrs = []assetAttr{
	{"img", "src"},
	{"img", "srcset"},
	{"script", "src"},
	{"link", "href"},
	{"source", "src"},
	{"source", "srcset"},
	{"video", "src"},
	{"video", "poster"},
	{"audio", "src"},
	{"track", "src"},
	{"iframe", "src"},
	{"embed", "src"},
	{"object", "data"},
}

// linkRelsAsAssets are <link rel> values that always denote an asset.
var linkRelsAsAssets = map[string]struct{}{
	"stylesheet":       {},
	"icon":             {},
	"shortcut icon":    {},
	"apple-touch-icon": {},
	"preload":          {},
	"prefetch":         {},
	"manifest":         {},
	"mask-icon":        {},
}

// assetExtensions rescue <link> references whose rel is not a known asset rel.
var assetExtensions = []string{".css", ".ico", ".png", ".svg", ".webmanifest"}

// Extractor discovers in-scope page links and asset references.
// It holds no crawl state and is safe for concurrent use.
type Extractor struct {
	scope scope.Scope
}

// NewExtractor creates an Extractor restricted to sc.
func NewExtractor(sc scope.Scope) *Extractor {
	return &Extractor{scope: sc}
}

// ExtractHTML returns the page links and asset references found in an HTML
// document. body must already be decoded to UTF-8. Both results are
// deduplicated, sorted and disjoint: a URL found both ways is a page.
// Malformed markup is parsed leniently and never causes an error.
func (e *Extractor) ExtractHTML(baseURL string, body []byte) (pages, assets []string) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	pageSet := make(map[string]struct{})
	assetSet := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if u, ok := e.resolve(base, href); ok {
			pageSet[u] = struct{}{}
		}
	})

	for _, aa := range assetAttrs {
		doc.Find(aa.tag + "[" + aa.attr + "]").Each(func(_ int, sel *goquery.Selection) {
			val, _ := sel.Attr(aa.attr)
			if strings.TrimSpace(val) == "" {
				return
			}

			candidates := []string{val}
			if aa.attr == "srcset" {
				candidates = splitSrcset(val)
			}

			for _, candidate := range candidates {
				if aa.tag == "link" && !isAssetLink(sel, candidate) {
					continue
				}
				if u, ok := e.resolve(base, candidate); ok {
					assetSet[u] = struct{}{}
				}
			}
		})
	}

	// Inline styles load assets the same way stylesheets do.
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		e.addCSSRefs(base, style, assetSet)
	})
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		e.addCSSRefs(base, sel.Text(), assetSet)
	})

	// A URL referenced both ways is downloaded as an asset so the page
	// cap never drops it.
	for u := range assetSet {
		delete(pageSet, u)
	}

	return sortedKeys(pageSet), sortedKeys(assetSet)
}

// resolve turns a raw reference into a normalized in-scope URL.
func (e *Extractor) resolve(base *url.URL, ref string) (string, bool) {
	u, ok := scope.Resolve(base, ref)
	if !ok || !e.scope.Contains(u) {
		return "", false
	}
	return u, true
}

// isAssetLink reports whether a <link> element references a downloadable
// asset. An empty rel is treated as an asset.
func isAssetLink(sel *goquery.Selection, ref string) bool {
	relAttr, _ := sel.Attr("rel")
	rel := strings.ToLower(strings.Join(strings.Fields(relAttr), " "))
	if rel == "" {
		return true
	}
	if _, ok := linkRelsAsAssets[rel]; ok {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(ref))
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// splitSrcset returns the URL of every candidate in a srcset value:
// the first whitespace-separated token of each comma-separated entry.
func splitSrcset(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
