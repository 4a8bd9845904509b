// Package httpclient implements §4.2: a single multiplexing context that
// accepts asynchronous GET/POST/PUT/HEAD/DELETE requests and drives each
// to completion through a shared *reactor.Reactor, delivering exactly one
// completion event per accepted request.
//
// Grounded on badu-http's request/response field shape and
// cli/utils.go's redirect-following rules, generalized from
// blocking-per-call to a goroutine-per-transfer design that hands results
// back to the reactor's dispatching goroutine — see DESIGN.md.
package httpclient

import (
	"log/slog"
	"time"

	"github.com/yanrbts/wscan/cookiejar"
	"github.com/yanrbts/wscan/hdrutil"
)

// Method is an HTTP request method. Only the methods a crawler plausibly
// issues are named; any non-empty string may be used with Do.
type Method string

const (
	MethodGet    Method = "GET"
	MethodHead   Method = "HEAD"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// FormField is one field of a multipart/form-data body, per §3's request
// body shape. A field with FileName set is encoded as a file part; all
// other fields are encoded as ordinary form values.
type FormField struct {
	Name        string
	Value       string
	FileName    string
	ContentType string
	FileContent []byte
}

// Request is the §3 request data model: method, target URL, header list,
// and an in-memory body.
type Request struct {
	Method   Method
	URL      string
	Header   *hdrutil.Header
	Body     []byte
	Fields   []FormField // non-nil switches the body to multipart/form-data
	Timeout  time.Duration
	Redirect bool // defaults to true via NewRequest; false returns a 3xx response as-is
}

// NewRequest builds a Request with default header list and redirect
// following enabled.
func NewRequest(method Method, url string) *Request {
	return &Request{
		Method:   method,
		URL:      url,
		Header:   hdrutil.New(),
		Redirect: true,
	}
}

// HeaderCallback is invoked once per received header line, exactly as the
// origin server emitted it, in order. It may never be invoked on a hard
// pre-connect failure.
type HeaderCallback func(line string, user any)

// DataCallback is invoked in order for body chunks. This implementation
// delivers the whole body in a single call, and makes no call for an
// empty body.
type DataCallback func(data []byte, user any)

// CompleteCallback is invoked exactly once per accepted request, on any
// outcome other than cancellation. transportResult is zero on success, a
// positive errtax transport code on transport-layer failure.
type CompleteCallback func(handle *RequestHandle, httpStatus int, transportResult int, user any)

// RequestHandle is the opaque token returned by Get/Post/Do. It must not
// be used after CompleteCallback returns.
type RequestHandle struct {
	id uint64
}

// config holds the functional-options-configured state of a Client,
// following the pack's Option idiom (zkit/rt/task.Option).
type config struct {
	logger        *slog.Logger
	jar           *cookiejar.Jar
	userAgent     string
	maxRedirects  int
	dialTimeout   time.Duration
	tlsSkipVerify bool
}

// Option configures a New(...) call.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger:       slog.Default(),
		userAgent:    "wscan/1.0",
		maxRedirects: 10,
		dialTimeout:  30 * time.Second,
	}
}

// WithLogger sets the structured logger. The client uses it to report
// Set-Cookie headers the cookie jar discards; transport failures are
// reported through CompleteCallback, not logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCookieJar attaches a cookiejar.Jar: Set-Cookie headers on every
// response populate it, and outgoing requests carry a Cookie header built
// from it. Nil (the default) disables cookie handling entirely.
func WithCookieJar(j *cookiejar.Jar) Option {
	return func(c *config) { c.jar = j }
}

// WithUserAgent overrides the default User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxRedirects sets the engine-configured redirect cap referenced by
// §4.2's "Retries and redirects". Zero disables redirect following
// entirely.
func WithMaxRedirects(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithDialTimeout sets the TCP connect timeout applied to every hop.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Intended
// for tests against self-signed fixtures only.
func WithInsecureSkipVerify() Option {
	return func(c *config) { c.tlsSkipVerify = true }
}
