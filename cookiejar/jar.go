package cookiejar

import (
	"strings"
	"time"
)

// SetCookie parses a single Set-Cookie header value received from
// requestHost/requestPath (requestIsHTTPS reports the scheme the response
// arrived over) and stores it if it passes §4.4's scope validation. It
// returns false if the header was unparseable or dropped by scoping —
// both cases are non-fatal per §7 (ParseError class: discarded, never
// propagated). SetCookie itself does not log; httpclient logs each
// header it reports as discarded.
func (j *Jar) SetCookie(requestHost, requestPath string, requestIsHTTPS bool, header string) bool {
	c, ok := ParseSetCookie(header, requestHost, requestPath, time.Now())
	if !ok {
		return false
	}
	if !validScope(c, requestHost, requestIsHTTPS) {
		return false
	}
	j.mu.Lock()
	j.insert(c)
	j.mu.Unlock()
	return true
}

// validScope implements §4.4's "Scope validation on store": drop when the
// request host neither equals the cookie's domain nor ends with
// "."+domain (case-insensitive), or when Secure is set but the response
// was not HTTPS.
func validScope(c *Cookie, requestHost string, requestIsHTTPS bool) bool {
	if c.Name == "" || c.Domain == "" || c.Path == "" || c.Path[0] != '/' {
		return false
	}
	host := strings.ToLower(requestHost)
	if !domainMatch(host, c.Domain) {
		return false
	}
	if c.Secure && !requestIsHTTPS {
		return false
	}
	return true
}

// domainMatch implements §4.4/§4.6's "Domain match": equality, or domain is
// a strict suffix of host preceded by '.', case-insensitive. Both inputs
// must already be lower-cased by the caller.
func domainMatch(host, domain string) bool {
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// pathMatch implements §4.4/§4.6's "Path match": equality, cookie path is
// "/", or cookie path is a prefix of the request path followed by '/'.
func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if cookiePath == "/" {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	if cookiePath != "" && cookiePath[len(cookiePath)-1] == '/' {
		return true
	}
	return len(requestPath) > len(cookiePath) && requestPath[len(cookiePath)] == '/'
}

// insert implements §4.4's "Insert": find-or-create the domain entry,
// find-or-create the path entry, remove any existing cookie with a
// matching case-insensitive name, and append at the tail.
func (j *Jar) insert(c *Cookie) {
	domainKey := strings.ToLower(c.Domain)
	paths, ok := j.domains[domainKey]
	if !ok {
		paths = make(map[string]*pathEntry)
		j.domains[domainKey] = paths
	}
	pe, ok := paths[c.Path]
	if !ok {
		pe = &pathEntry{}
		paths[c.Path] = pe
	}

	lowerName := strings.ToLower(c.Name)
	filtered := pe.cookies[:0]
	for _, existing := range pe.cookies {
		if strings.ToLower(existing.Name) != lowerName {
			filtered = append(filtered, existing)
		}
	}
	pe.cookies = append(filtered, c)
}

// Cookies implements §4.4's "Emit": returns the Cookie header value for an
// outgoing (host, path, isHTTPS) triple, or "" if nothing survives.
// Expired cookies encountered along the way are purged in place.
func (j *Jar) Cookies(host, path string, isHTTPS bool) string {
	host = strings.ToLower(host)
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var b strings.Builder
	for domain, paths := range j.domains {
		if !domainMatch(host, domain) {
			continue
		}
		for p, pe := range paths {
			if !pathMatch(path, p) {
				continue
			}
			live := pe.cookies[:0]
			for _, c := range pe.cookies {
				if c.expired(now) {
					continue
				}
				live = append(live, c)
				if c.Secure && !isHTTPS {
					continue
				}
				if b.Len() > 0 {
					b.WriteString("; ")
				}
				b.WriteString(c.Name)
				b.WriteByte('=')
				b.WriteString(c.Value)
			}
			pe.cookies = live
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String()
}

// Count returns the total number of stored cookies across all domains and
// paths, including cookies not yet lazily purged. Exposed for tests and
// observability, not part of §4.4's contract.
func (j *Jar) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := 0
	for _, paths := range j.domains {
		for _, pe := range paths {
			n += len(pe.cookies)
		}
	}
	return n
}
