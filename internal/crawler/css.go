package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// cssURLPattern matches url(...) references with optional quotes.
	// data: URIs are filtered after matching.
	cssURLPattern = regexp.MustCompile(`(?i)url\(\s*['"]?([^)'"]+)['"]?\s*\)`)

	// cssImportPattern matches the string form of @import.
	// The url() form is already covered by cssURLPattern.
	cssImportPattern = regexp.MustCompile(`(?i)@import\s+['"]([^'"]+)['"]`)
)

// ExtractCSS returns the in-scope URLs referenced by a stylesheet through
// url(...) or @import, resolved against cssURL, deduplicated and sorted.
func (e *Extractor) ExtractCSS(cssURL string, css []byte) []string {
	base, err := url.Parse(cssURL)
	if err != nil {
		return nil
	}
	set := make(map[string]struct{})
	e.addCSSRefs(base, string(css), set)
	return sortedKeys(set)
}

// addCSSRefs adds every in-scope reference found in css to set.
func (e *Extractor) addCSSRefs(base *url.URL, css string, set map[string]struct{}) {
	if css == "" {
		return
	}
	for _, pattern := range []*regexp.Regexp{cssURLPattern, cssImportPattern} {
		for _, m := range pattern.FindAllStringSubmatch(css, -1) {
			ref := strings.TrimSpace(m[1])
			if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
				continue
			}
			if u, ok := e.resolve(base, ref); ok {
				set[u] = struct{}{}
			}
		}
	}
}
