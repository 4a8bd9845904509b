// Package cookiejar implements §4.4: parsing Set-Cookie headers, RFC 6265
// domain/path/secure scoping, storage, and Cookie-header emission.
//
// Grounded on badu-http/cli (cookie.go, cookie_entry.go, types_cookie.go,
// utils.go), itself a relicensed copy of net/http/cookiejar and
// net/http/cookie.go. §5 specifies a single dispatching thread touching
// the jar; this implementation's HTTP client instead runs one goroutine
// per in-flight transfer (see httpclient's DESIGN.md entry), so two
// transfers against different hosts can call SetCookie/Cookies
// concurrently. Jar carries its own mutex for exactly that reason. It is
// not the only lock in the repo: reactor and httpclient also guard their
// registries with mutexes.
package cookiejar

import (
	"sync"
	"time"
)

// Cookie is the §3 data model: name, value, normalized domain (leading '.'
// stripped), path, absolute expiry (zero time means session cookie), and
// the Secure/HttpOnly flags.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HttpOnly bool
}

// expired reports whether c's expiry has passed. A zero Expires means a
// session cookie, which never expires for the life of the jar.
func (c *Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// pathEntry is the inner, per-path ordered list of cookies, uniquified by
// case-insensitive name per §3's "CookieJar (logical shape)".
type pathEntry struct {
	cookies []*Cookie
}

// Jar is the two-level map described in §3: domain (case-insensitive) ->
// path (case-sensitive) -> ordered cookie list.
type Jar struct {
	mu      sync.Mutex
	domains map[string]map[string]*pathEntry
}

// New constructs an empty jar.
func New() *Jar {
	return &Jar{domains: make(map[string]map[string]*pathEntry)}
}
