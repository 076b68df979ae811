package crawler

import (
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// sniffWindow is how much of a document is examined for <meta charset>.
const sniffWindow = 1024

// DecodeText converts body to UTF-8 for link extraction.
// A charset declared in the Content-Type header wins. Without one, valid
// UTF-8 is used as is and anything else is sniffed for a BOM or
// <meta charset>. Saved files always keep the original bytes.
func DecodeText(body []byte, declared, contentType string) string {
	if declared != "" {
		if enc, err := htmlindex.Get(declared); err == nil {
			if out, err := enc.NewDecoder().Bytes(body); err == nil {
				return string(out)
			}
		}
		return string(body)
	}

	if utf8.Valid(body) {
		return string(body)
	}

	head := body
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	enc, _, _ := charset.DetermineEncoding(head, contentType)
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}
