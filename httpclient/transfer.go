//go:build unix

package httpclient

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http/httputil"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanrbts/wscan/errtax"
	"github.com/yanrbts/wscan/hdrutil"
	"github.com/yanrbts/wscan/urlutil"
)

// hopResult is the outcome of performing one HTTP/1.1 exchange against a
// single connection, before redirect-following decides whether to stop.
type hopResult struct {
	status      int
	headerLines []string
	header      *hdrutil.Header
	body        []byte
}

// runTransfer performs the entire request, following redirects up to the
// client's configured cap, then hands a single transferResult back to the
// dispatching goroutine. It never touches c.transfers directly; Cancel and
// deliver own that map.
func (c *Client) runTransfer(id uint64, t *transfer) {
	res := &transferResult{id: id}

	currentURL := t.req.URL
	method := t.req.Method
	body := t.req.Body
	fields := t.req.Fields
	redirects := 0

	for {
		if t.cancelled.Load() {
			return
		}

		hop, _, transportCode, err := c.doHop(t, currentURL, method, body, fields)
		if err != nil {
			res.transportResult = transportCode
			c.finish(t, res)
			return
		}

		if t.req.Redirect && isRedirectStatus(hop.status) && redirects < c.cfg.maxRedirects {
			loc := hop.header.Get("Location")
			if loc != "" {
				next, err := urlutil.Resolve(currentURL, loc)
				if err == nil {
					redirects++
					currentURL = next
					method, body, fields = redirectMethod(method, hop.status), redirectBody(method, hop.status, body), redirectFields(method, hop.status, fields)
					continue
				}
			}
		}
		if t.req.Redirect && c.cfg.maxRedirects > 0 && isRedirectStatus(hop.status) && redirects >= c.cfg.maxRedirects {
			res.transportResult = errtax.CodeTooManyRedir
			c.finish(t, res)
			return
		}

		res.headerLines = hop.headerLines
		res.body = hop.body
		res.httpStatus = hop.status
		res.transportResult = errtax.CodeOK
		c.finish(t, res)
		return
	}
}

func (c *Client) finish(t *transfer, res *transferResult) {
	if t.cancelled.Load() {
		return
	}
	select {
	case c.resultCh <- res:
	default:
		// resultCh is sized generously; a full channel means the
		// dispatcher is badly behind. Block rather than drop a result.
		c.resultCh <- res
	}
	c.wake()
}

// doHop dials, writes one HTTP/1.1 request, and reads the full response
// for a single (possibly redirected-to) URL.
func (c *Client) doHop(t *transfer, rawURL string, method Method, body []byte, fields []FormField) (*hopResult, errtax.Kind, int, error) {
	host, err := urlutil.Host(rawURL)
	if err != nil {
		return nil, errtax.Transport, errtax.CodeUnknownNetwork, err
	}
	scheme, err := urlutil.Scheme(rawURL)
	if err != nil {
		return nil, errtax.Transport, errtax.CodeUnknownNetwork, err
	}
	port, err := urlutil.Port(rawURL)
	if err != nil {
		return nil, errtax.Transport, errtax.CodeUnknownNetwork, err
	}

	conn, err := c.dial(scheme, host, port)
	if err != nil {
		kind, code := errtax.Classify(err)
		return nil, kind, code, err
	}
	t.setConn(conn)
	defer t.closeConn()

	if t.req.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.req.Timeout))
	}

	reqBody, contentType, err := encodeBody(body, fields)
	if err != nil {
		kind, code := errtax.Classify(err)
		return nil, kind, code, err
	}

	wire, err := c.buildRequest(rawURL, host, method, reqBody, contentType, t.req.Header)
	if err != nil {
		kind, code := errtax.Classify(err)
		return nil, kind, code, err
	}
	if _, err := conn.Write(wire); err != nil {
		kind, code := errtax.Classify(err)
		return nil, kind, code, err
	}

	hop, err := readHopResponse(conn)
	if err != nil {
		kind, code := errtax.Classify(err)
		return nil, kind, code, err
	}

	if c.cfg.jar != nil {
		for _, sc := range hop.header.Values("Set-Cookie") {
			path, _ := cookiePath(rawURL)
			if !c.cfg.jar.SetCookie(host, path, scheme == "https", sc) {
				c.cfg.logger.Warn("httpclient: Set-Cookie discarded", "host", host, "path", path)
			}
		}
	}

	return hop, 0, errtax.CodeOK, nil
}

func (c *Client) dial(scheme, host, port string) (net.Conn, error) {
	addr := net.JoinHostPort(host, port)
	dialer := &net.Dialer{Timeout: c.cfg.dialTimeout}
	if scheme == "https" {
		return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			ServerName:         host,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.cfg.tlsSkipVerify,
		})
	}
	return dialer.Dial("tcp", addr)
}

// buildRequest renders the request line, headers, and body into the wire
// bytes written to conn. Host, Connection: close, User-Agent, and Cookie
// are supplied by the client unless the caller already set them.
func (c *Client) buildRequest(rawURL, host string, method Method, body []byte, contentType string, header *hdrutil.Header) ([]byte, error) {
	reqPath, err := requestURI(rawURL)
	if err != nil {
		return nil, err
	}

	h := header.Clone()
	if !h.Has("Host") {
		h.Set("Host", host)
	}
	if !h.Has("Connection") {
		h.Set("Connection", "close")
	}
	if !h.Has("User-Agent") {
		h.Set("User-Agent", c.cfg.userAgent)
	}
	if !h.Has("Accept") {
		h.Set("Accept", "*/*")
	}
	if len(body) > 0 {
		if !h.Has("Content-Type") {
			if contentType == "" {
				contentType = "application/x-www-form-urlencoded"
			}
			h.Set("Content-Type", contentType)
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	if c.cfg.jar != nil {
		scheme, _ := urlutil.Scheme(rawURL)
		path, _ := cookiePath(rawURL)
		if cookie := c.cfg.jar.Cookies(host, path, scheme == "https"); cookie != "" && !h.Has("Cookie") {
			h.Set("Cookie", cookie)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, reqPath)
	h.WriteLines(&b)
	b.WriteString("\r\n")

	out := make([]byte, 0, b.Len()+len(body))
	out = append(out, b.String()...)
	out = append(out, body...)
	return out, nil
}

// readHopResponse reads the status line and raw header lines itself, to
// preserve header_cb's exact-order contract, then delegates body framing
// to stdlib helpers (see DESIGN.md's standard-library justification).
func readHopResponse(conn net.Conn) (*hopResult, error) {
	br := bufio.NewReader(conn)
	tp := textproto.NewReader(br)

	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, err
	}
	status := parseStatusCode(statusLine)

	var rawLines []string
	h := hdrutil.New()
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		rawLines = append(rawLines, line)
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	body, err := readBody(br, h)
	if err != nil {
		return nil, err
	}

	return &hopResult{status: status, headerLines: rawLines, header: h, body: body}, nil
}

func readBody(br *bufio.Reader, h *hdrutil.Header) ([]byte, error) {
	if strings.EqualFold(h.Get("Transfer-Encoding"), "chunked") {
		return io.ReadAll(httputil.NewChunkedReader(br))
	}
	if cl := h.Get("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("httpclient: bad Content-Length %q", cl)
		}
		return io.ReadAll(io.LimitReader(br, n))
	}
	return io.ReadAll(br)
}

func parseStatusCode(statusLine string) int {
	fields := strings.SplitN(statusLine, " ", 3)
	if len(fields) < 2 {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

// requestURI renders the request-target (path + query, per RFC 7230
// §5.3.1) sent on the request line.
func requestURI(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}

// cookiePath returns the path component alone (no query), the §4.4
// "default-path" the jar scopes Set-Cookie/Cookie against.
func cookiePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return path, nil
}
