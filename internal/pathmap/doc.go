// Package pathmap maps fetched URLs to files under the mirror output directory.
//
// The mapping is a pure function of the URL and the response content type:
//
//	https://ex.com/                 -> out/ex.com/index.html
//	https://ex.com/docs/api         -> out/ex.com/docs/api.html   (HTML)
//	https://ex.com/style.css?v=2    -> out/ex.com/style__q=<hash8>.css
//	https://ex.com:8443/feed/       -> out/ex.com_8443/feed/index (non-HTML)
//
// Query strings are folded into the filename as an 8 character SHA-1 prefix
// so that two URLs differing only in their query never share a file.
package pathmap
