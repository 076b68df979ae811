package pathmap

import (
	"crypto/sha1" //nolint:gosec // used only for stable short filenames
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const (
	// indexHTML is the filename used for directory URLs serving HTML.
	indexHTML = "index.html"
	// indexPlain is the filename used for directory URLs serving anything else.
	indexPlain = "index"
	// fallbackStem replaces an empty filename stem when a query hash is added.
	fallbackStem = "file"
	// querySeparator joins the stem and the query hash.
	querySeparator = "__q="
	// htmlSuffix is appended to extensionless HTML files.
	htmlSuffix = ".html"
)

// ErrNoHost is returned when a URL without a host is mapped.
var ErrNoHost = errors.New("url has no host")

// Mapper computes local paths rooted at an output directory.
type Mapper struct {
	outDir string
}

// New creates a Mapper rooted at outDir.
func New(outDir string) Mapper {
	return Mapper{outDir: outDir}
}

// OutDir returns the root directory of the mapper.
func (m Mapper) OutDir() string {
	return m.outDir
}

// Map returns the local path for rawURL served with contentType.
// contentType may be a full header value; parameters are ignored.
func (m Mapper) Map(rawURL, contentType string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoHost, rawURL)
	}

	html := IsHTML(ContentType(contentType))

	p := u.EscapedPath()
	var dir, name string
	if p == "" || strings.HasSuffix(p, "/") {
		dir, name = p, indexName(html)
	} else {
		dir, name = path.Split(p)
		if name == "." || name == ".." {
			dir, name = path.Join(dir, name), indexName(html)
		}
	}
	// Rooting at "/" before cleaning drops any ".." that would climb out of
	// the host directory.
	dir = path.Clean("/" + dir)

	if u.RawQuery != "" {
		stem, suffixes := splitSuffixes(name)
		if stem == "" {
			stem = fallbackStem
		}
		name = stem + querySeparator + Hash8(u.RawQuery) + suffixes
	}

	if _, suffixes := splitSuffixes(name); suffixes == "" && html {
		name += htmlSuffix
	}

	return filepath.Join(m.outDir, hostDir(u.Host), filepath.FromSlash(dir), name), nil
}

// ContentType returns the media type of a Content-Type header value,
// lowercased and without parameters.
func ContentType(header string) string {
	mediaType, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// IsHTML reports whether a media type is an HTML document.
func IsHTML(contentType string) bool {
	return contentType == "text/html" || contentType == "application/xhtml+xml"
}

// IsCSS reports whether a media type is a stylesheet.
func IsCSS(contentType string) bool {
	return contentType == "text/css"
}

// Hash8 returns the first eight hex characters of the SHA-1 of s.
func Hash8(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // not a security boundary
	return hex.EncodeToString(sum[:])[:8]
}

func indexName(html bool) string {
	if html {
		return indexHTML
	}
	return indexPlain
}

// splitSuffixes splits a filename into its stem and all of its dotted
// suffixes: "a.tar.gz" yields ("a", ".tar.gz"). Leading dots belong to the
// stem and a trailing dot means there is no suffix.
func splitSuffixes(name string) (string, string) {
	if strings.HasSuffix(name, ".") {
		return name, ""
	}
	body := strings.TrimLeft(name, ".")
	lead := name[:len(name)-len(body)]
	i := strings.IndexByte(body, '.')
	if i < 0 {
		return name, ""
	}
	return lead + body[:i], body[i:]
}

// hostDir turns a URL host into a portable directory name.
func hostDir(host string) string {
	return strings.ReplaceAll(strings.ToLower(host), ":", "_")
}
