package cookiejar

import (
	"strconv"
	"strings"
	"time"
)

// cookieDateFormats are the three formats §4.4 requires Expires to be
// parsed against, all interpreted in UTC: RFC 1123, RFC 850, and ANSI C
// asctime — the same trio badu-http/hdr.timeFormats tries for HTTP dates.
var cookieDateFormats = []string{
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

func parseCookieDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, f := range cookieDateFormats {
		if t, err := time.ParseInLocation(f, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseSetCookie parses one Set-Cookie header value per §4.4. requestHost
// and requestPath supply the defaults for an absent Domain/Path attribute.
// now is the reference time for Expires/Max-Age resolution (callers pass
// time.Now(); a parameter keeps the function deterministically testable).
//
// The first "name=value" pair is mandatory; a missing '=' drops the
// cookie (ok=false). Unknown attributes are ignored. Max-Age wins over
// Expires when both are present.
func ParseSetCookie(header, requestHost, requestPath string, now time.Time) (*Cookie, bool) {
	parts := strings.Split(header, ";")
	if len(parts) == 0 {
		return nil, false
	}

	nameValue := strings.TrimSpace(parts[0])
	eq := strings.IndexByte(nameValue, '=')
	if eq < 0 {
		return nil, false
	}
	name := strings.TrimSpace(nameValue[:eq])
	value := strings.TrimSpace(nameValue[eq+1:])
	if name == "" {
		return nil, false
	}
	value = unquote(value)

	c := &Cookie{Name: name, Value: value}

	var (
		haveExpires bool
		expiresAt   time.Time
		haveMaxAge  bool
		maxAge      int
	)

	for _, raw := range parts[1:] {
		attr := strings.TrimSpace(raw)
		if attr == "" {
			continue
		}
		var key, val string
		if i := strings.IndexByte(attr, '='); i >= 0 {
			key = strings.TrimSpace(attr[:i])
			val = strings.TrimSpace(attr[i+1:])
		} else {
			key = attr
		}

		switch strings.ToLower(key) {
		case "domain":
			d := strings.TrimPrefix(val, ".")
			c.Domain = strings.ToLower(d)
		case "path":
			c.Path = val
		case "secure":
			c.Secure = true
		case "httponly":
			c.HttpOnly = true
		case "expires":
			if t, ok := parseCookieDate(val); ok {
				haveExpires = true
				expiresAt = t
			}
		case "max-age":
			if n, err := strconv.Atoi(val); err == nil {
				haveMaxAge = true
				maxAge = n
			}
		}
	}

	switch {
	case haveMaxAge:
		if maxAge <= 0 {
			c.Expires = now.Add(-time.Hour) // definitely in the past
		} else {
			c.Expires = now.Add(time.Duration(maxAge) * time.Second)
		}
	case haveExpires:
		c.Expires = expiresAt
	default:
		c.Expires = time.Time{} // session cookie
	}

	if c.Domain == "" {
		c.Domain = strings.ToLower(requestHost)
	}
	if c.Path == "" || c.Path[0] != '/' {
		c.Path = defaultPath(requestPath)
	}

	return c, true
}

// defaultPath implements RFC 6265 §5.1.4's default-path algorithm: the
// request path up to (not including) its last '/', or "/" if the request
// path is empty, does not start with '/', or has no '/' besides the
// leading one.
func defaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndexByte(requestPath, '/')
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
