package linkextract

import (
	"net/url"
	"regexp"
	"strings"
)

// Three quoted-path regex families plus one full-URL regex, per §4.6:
// "run three path-regex families and one full-URL regex against the
// body". Bounded capture length keeps a pathological body from producing
// unbounded backtracking or unbounded match strings.
var (
	reAbsolutePathDouble = regexp.MustCompile(`"(/[^"'\s<>]{1,2048})"`)
	reAbsolutePathSingle = regexp.MustCompile(`'(/[^"'\s<>]{1,2048})'`)
	reRelativePath       = regexp.MustCompile(`["'](\.{1,2}/[^"'\s<>]{1,2048})["']`)
	reFullURL            = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
)

// extractJS scans body for quoted path literals and full URLs, combining
// paths with baseURL's scheme+authority and discarding out-of-domain full
// URLs, per §4.6.
func extractJS(body []byte, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	authority := base.Scheme + "://" + base.Host

	var out []string
	seenFull := make(map[string]bool)

	for _, re := range []*regexp.Regexp{reAbsolutePathDouble, reAbsolutePathSingle, reRelativePath} {
		for _, m := range re.FindAllStringSubmatch(string(body), -1) {
			path := m[1]
			combined, ok := combinePath(authority, base, path)
			if ok {
				out = append(out, combined)
			}
		}
	}

	for _, full := range reFullURL.FindAllString(string(body), -1) {
		full = strings.TrimRight(full, `.,;:)]}'"`)
		u, err := url.Parse(full)
		if err != nil || u.Host == "" {
			continue
		}
		if !strings.EqualFold(u.Host, base.Host) {
			continue // out-of-domain full URLs are discarded
		}
		if seenFull[full] {
			continue
		}
		seenFull[full] = true
		out = append(out, full)
	}

	return out, nil
}

// combinePath joins an absolute path literal directly onto authority, and
// resolves a relative ("./" or "../") path literal against base.
func combinePath(authority string, base *url.URL, path string) (string, bool) {
	if strings.HasPrefix(path, "/") {
		return authority + path, true
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
