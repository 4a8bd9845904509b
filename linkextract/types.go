// Package linkextract implements §4.6: MIME-dispatched link harvesting.
// HTML bodies are walked as a DOM to enumerate <a href> attributes
// verbatim; JavaScript bodies are scanned with a small regex family for
// quoted paths and full URLs. Every other content type yields an empty
// list without error, per §4.6's explicit non-goal for SWF and friends.
package linkextract

import "strings"

// contentTypeKind classifies a Content-Type header value by the §4.6
// prefix table, ignoring any ";charset=..." suffix and case.
type contentTypeKind int

const (
	kindOther contentTypeKind = iota
	kindHTML
	kindJS
)

func classify(contentType string) contentTypeKind {
	ct := contentType
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))

	switch {
	case strings.HasPrefix(ct, "text/html"):
		return kindHTML
	case ct == "application/javascript",
		ct == "application/x-javascript",
		ct == "text/javascript":
		return kindJS
	default:
		return kindOther
	}
}

// Extract dispatches body to the right harvester for contentType and
// resolves against baseURL's authority where §4.6 requires it (the JS
// full-URL in-domain filter, and path-combining). HTML hrefs are returned
// verbatim — the caller (the crawl scheduler) resolves them to absolute
// form per §4.5.
func Extract(contentType string, body []byte, baseURL string) ([]string, error) {
	switch classify(contentType) {
	case kindHTML:
		return extractHTML(body)
	case kindJS:
		return extractJS(body, baseURL)
	default:
		return nil, nil
	}
}
