//go:build unix

package httpclient

import (
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/yanrbts/wscan/hdrutil"
	"github.com/yanrbts/wscan/reactor"
)

// transfer is the per-request state the §4.2 state machine tracks: INIT is
// implicit (the struct exists but no goroutine has been spawned yet);
// ACTIVE is the window during which the worker goroutine owns conn;
// COMPLETING/FREED is the drain of a transferResult in onSignal; CANCELLED
// is recorded by cancelled and checked before any callback fires.
type transfer struct {
	handle *RequestHandle
	req    *Request

	headerCB   HeaderCallback
	dataCB     DataCallback
	completeCB CompleteCallback
	user       any

	cancelled atomic.Bool

	connMu sync.Mutex
	conn   net.Conn
}

func (t *transfer) setConn(c net.Conn) {
	t.connMu.Lock()
	t.conn = c
	closed := t.cancelled.Load()
	t.connMu.Unlock()
	if closed {
		_ = c.Close()
	}
}

func (t *transfer) closeConn() {
	t.connMu.Lock()
	c := t.conn
	t.connMu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// transferResult is what a worker goroutine hands back to the dispatching
// goroutine through Client.resultCh.
type transferResult struct {
	id              uint64
	headerLines     []string
	body            []byte
	httpStatus      int
	transportResult int
}

// Client is the §4.2 async HTTP client. The zero value is not usable;
// construct with New.
type Client struct {
	cfg config
	r   *reactor.Reactor

	mu        sync.Mutex
	transfers map[uint64]*transfer
	nextID    uint64

	resultCh chan *transferResult

	sigR, sigW int
	sigHandle  *reactor.Handle

	closed atomic.Bool
}

// New constructs a client bound to r. It fails with Resource if the
// completion-signal pipe cannot be allocated or registered.
func New(r *reactor.Reactor, opts ...Option) (*Client, error) {
	if r == nil {
		return nil, errInvalidArg("httpclient.New")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, errResource("httpclient.New", err)
	}

	c := &Client{
		cfg:       cfg,
		r:         r,
		transfers: make(map[uint64]*transfer),
		resultCh:  make(chan *transferResult, 256),
		sigR:      fds[0],
		sigW:      fds[1],
	}

	h, err := r.AddIO(c.sigR, reactor.Read|reactor.Persist, c.onSignal, nil)
	if err != nil {
		_ = unix.Close(c.sigR)
		_ = unix.Close(c.sigW)
		return nil, errResource("httpclient.New", err)
	}
	c.sigHandle = h

	return c, nil
}

// Close cancels every in-flight transfer without invoking their completion
// callbacks, and releases the client's resources. It does not close the
// reactor, which the client does not own.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	for id, t := range c.transfers {
		t.cancelled.Store(true)
		t.closeConn()
		delete(c.transfers, id)
	}
	c.mu.Unlock()

	if c.sigHandle != nil {
		_ = c.r.Del(c.sigHandle)
	}
	_ = unix.Close(c.sigR)
	_ = unix.Close(c.sigW)
}

// Get issues an asynchronous GET. headerCB and dataCB may be nil.
func (c *Client) Get(url string, headerCB HeaderCallback, dataCB DataCallback, completeCB CompleteCallback, user any) (*RequestHandle, error) {
	return c.Do(NewRequest(MethodGet, url), headerCB, dataCB, completeCB, user)
}

// Post issues an asynchronous POST with body as the request payload.
func (c *Client) Post(url string, body []byte, headerCB HeaderCallback, dataCB DataCallback, completeCB CompleteCallback, user any) (*RequestHandle, error) {
	req := NewRequest(MethodPost, url)
	req.Body = body
	return c.Do(req, headerCB, dataCB, completeCB, user)
}

// Do issues an asynchronous request built by the caller, e.g. for PUT,
// HEAD, DELETE, or a multipart POST.
func (c *Client) Do(req *Request, headerCB HeaderCallback, dataCB DataCallback, completeCB CompleteCallback, user any) (*RequestHandle, error) {
	if c.closed.Load() {
		return nil, errInvalidArg("httpclient.Do")
	}
	if req == nil || req.URL == "" || completeCB == nil {
		return nil, errInvalidArg("httpclient.Do")
	}
	if req.Header == nil {
		req.Header = hdrutil.New()
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	handle := &RequestHandle{id: id}
	t := &transfer{
		handle:     handle,
		req:        req,
		headerCB:   headerCB,
		dataCB:     dataCB,
		completeCB: completeCB,
		user:       user,
	}
	c.transfers[id] = t
	c.mu.Unlock()

	go c.runTransfer(id, t)

	return handle, nil
}

// Cancel marks handle's transfer cancelled, removes it from the multiplexer,
// and frees it immediately. Any in-flight completion is suppressed. It
// returns false if handle is unknown (already completed, cancelled, or
// invalid).
func (c *Client) Cancel(handle *RequestHandle) bool {
	if handle == nil {
		return false
	}
	c.mu.Lock()
	t, ok := c.transfers[handle.id]
	if ok {
		delete(c.transfers, handle.id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	t.cancelled.Store(true)
	t.closeConn()
	return true
}

// onSignal drains c.resultCh on the reactor's dispatching goroutine,
// replaying each finished transfer's header/data/complete callbacks in
// order, and discards any result whose transfer was cancelled or already
// removed.
func (c *Client) onSignal(fd int, flags reactor.IOFlag, user any) {
	var buf [64]byte
	for {
		n, err := unix.Read(c.sigR, buf[:])
		if n <= 0 || err != nil {
			break
		}
	}

	for {
		select {
		case res := <-c.resultCh:
			c.deliver(res)
		default:
			return
		}
	}
}

func (c *Client) deliver(res *transferResult) {
	c.mu.Lock()
	t, ok := c.transfers[res.id]
	if ok {
		delete(c.transfers, res.id)
	}
	c.mu.Unlock()

	if !ok || t.cancelled.Load() {
		return
	}

	if t.headerCB != nil {
		for _, line := range res.headerLines {
			t.headerCB(line, t.user)
		}
	}
	if t.dataCB != nil && len(res.body) > 0 {
		t.dataCB(res.body, t.user)
	}
	t.completeCB(t.handle, res.httpStatus, res.transportResult, t.user)
}

// wake signals the dispatching goroutine that resultCh has new data. A
// full or already-closed pipe is not an error: the reactor drains
// whatever is queued the next time it wakes for any reason.
func (c *Client) wake() {
	_, _ = unix.Write(c.sigW, []byte{0})
}
