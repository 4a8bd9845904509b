// Package urlutil implements §4.5: host extraction, first-level-domain
// extraction, and base+relative resolution, plus the canonical-form
// comparison §3 requires for the visited set.
package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Canonicalize parses raw and returns its canonical byte form, used by the
// visited set per §3: "two URLs are equal iff their canonical byte form is
// equal". It rejects non-http(s) schemes and empty hosts.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return canonicalizeURL(u)
}

func canonicalizeURL(u *url.URL) (string, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errBadScheme
	}
	if u.Host == "" {
		return "", errEmptyHost
	}

	host, err := normalizeHost(u.Host)
	if err != nil {
		return "", err
	}

	out := *u
	out.Host = host
	out.Fragment = ""
	out.RawFragment = ""
	if out.Path == "" {
		out.Path = "/"
	}
	return out.String(), nil
}

// normalizeHost lower-cases the hostname and applies IDNA ToASCII for
// non-ASCII labels, exactly as badu-http's request path does before
// dialing. Any port is kept as given; a default port (80 for http, 443 for
// https) is not stripped, so "http://h:80/" and "http://h/" canonicalize
// differently.
func normalizeHost(host string) (string, error) {
	h := strings.ToLower(host)
	hostname, port := splitHostPort(h)
	if !isASCII(hostname) {
		ascii, err := idna.Lookup.ToASCII(hostname)
		if err != nil {
			return "", err
		}
		hostname = ascii
	}
	if port != "" {
		return hostname + ":" + port, nil
	}
	return hostname, nil
}

func splitHostPort(host string) (hostname, port string) {
	if strings.HasPrefix(host, "[") {
		// IPv6 literal, optionally with ]:port.
		if i := strings.LastIndex(host, "]"); i != -1 {
			if i+1 < len(host) && host[i+1] == ':' {
				return host[:i+1], host[i+2:]
			}
			return host, ""
		}
		return host, ""
	}
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i], host[i+1:]
	}
	return host, ""
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Host returns the URL's hostname (no port), following §4.5's "host
// extraction (returns an owned string)" — in Go terms, a plain string.
func Host(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

// Scheme returns the URL's scheme.
func Scheme(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Scheme, nil
}

// Port returns the URL's port, defaulting to 80/443 by scheme per §6
// ("Ports default to 80/443 by scheme").
func Port(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if p := u.Port(); p != "" {
		return p, nil
	}
	switch u.Scheme {
	case "https":
		return "443", nil
	default:
		return "80", nil
	}
}

// FLD returns a best-effort first-level (registrable) domain for host,
// e.g. "www.example.com" -> "example.com", "a.b.co.uk" -> "b.co.uk".
// §9's open question on FLD extraction is resolved in this implementation
// by delegating to golang.org/x/net/publicsuffix instead of the
// acknowledged-incorrect two-label heuristic the original used (see
// DESIGN.md/SPEC_FULL.md §D.3).
func FLD(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

// Resolve yields an absolute URL by resolving relative against base,
// delegating to a permissive URL parser per §4.5: if relative already has a
// scheme or begins with "//", it is returned verbatim; otherwise it is
// resolved against base.
func Resolve(base, relative string) (string, error) {
	trimmed := strings.TrimSpace(relative)
	if trimmed == "" {
		return "", errEmptyRelative
	}
	if hasScheme(trimmed) || strings.HasPrefix(trimmed, "//") {
		return trimmed, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(encodeSpaces(trimmed))
	if err != nil {
		return "", err
	}
	resolved := baseURL.ResolveReference(refURL)
	return resolved.String(), nil
}

// hasScheme reports whether s begins with "scheme:" per RFC 3986's scheme
// grammar (ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )).
func hasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return false
	}
	for j := 0; j < i; j++ {
		c := s[j]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if j == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !isDigit && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// encodeSpaces matches badu-http's permissive resolve option "encode
// spaces": literal spaces in a relative link (common in hand-authored HTML)
// are percent-encoded rather than rejected by the parser.
func encodeSpaces(s string) string {
	if !strings.Contains(s, " ") {
		return s
	}
	return strings.ReplaceAll(s, " ", "%20")
}
