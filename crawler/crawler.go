package crawler

import (
	"log/slog"
	"time"

	"github.com/yanrbts/wscan/cookiejar"
	"github.com/yanrbts/wscan/errtax"
	"github.com/yanrbts/wscan/httpclient"
	"github.com/yanrbts/wscan/linkextract"
	"github.com/yanrbts/wscan/reactor"
	"github.com/yanrbts/wscan/urlutil"
)

// Crawler is the §4.3 scheduler. Per §5's concurrency model it carries no
// locks: every exported method is expected to run on the reactor's
// dispatching goroutine, the same thread every httpclient completion
// callback and reactor timer callback fires on. The zero value is not
// usable; construct with New.
type Crawler struct {
	cfg    Config
	r      *reactor.Reactor
	client *httpclient.Client
	jar    *cookiejar.Jar
	logger *slog.Logger

	pageCB  PageCallback
	errorCB ErrorCallback
	user    any

	frontier []frontierItem
	visited  map[string]bool

	active          int
	pendingDispatch bool
	pendingDelayed  int
	dispatchTimer   *reactor.Handle

	lastHostFetch map[string]time.Time

	stats Stats
}

// Option configures a New(...) call, following the pack's functional
// options idiom.
type Option func(*Crawler)

// WithLogger sets the structured logger used for allocator-failure and
// drop diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs the scheduler: instantiates an HTTP client (with its own
// cookie jar) bound to r, and arms a dispatch timer with zero delay, per
// §4.3's new(reactor, config, callbacks, user).
func New(r *reactor.Reactor, cfg Config, pageCB PageCallback, errorCB ErrorCallback, user any, opts ...Option) (*Crawler, error) {
	if cfg.MaxConcurrent <= 0 || cfg.MaxDepth < 0 {
		return nil, errtax.New(errtax.InvalidArg, "crawler.New", nil)
	}

	jar := cookiejar.New()
	client, err := httpclient.New(r, httpclient.WithCookieJar(jar))
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		cfg:           cfg,
		r:             r,
		client:        client,
		jar:           jar,
		logger:        slog.Default(),
		pageCB:        pageCB,
		errorCB:       errorCB,
		user:          user,
		visited:       make(map[string]bool),
		lastHostFetch: make(map[string]time.Time),
	}
	for _, o := range opts {
		o(c)
	}

	c.rearmDispatch()
	return c, nil
}

// AddURL canonicalizes url and, if it is not already visited and the
// frontier has room, appends it at depth 0. It returns whether the URL was
// enqueued, not whether it was ever fetched.
func (c *Crawler) AddURL(url string) bool {
	return c.addURLAtDepth(url, 0)
}

func (c *Crawler) addURLAtDepth(raw string, depth int) bool {
	canon, err := urlutil.Canonicalize(raw)
	if err != nil || canon == "" {
		return false
	}
	if depth > c.cfg.MaxDepth {
		return false
	}
	if c.visited[canon] {
		return false
	}
	if c.cfg.MaxFrontier > 0 && len(c.frontier) >= c.cfg.MaxFrontier {
		c.stats.Dropped++
		return false
	}
	c.frontier = append(c.frontier, frontierItem{url: canon, depth: depth})
	c.rearmDispatch()
	return true
}

// Start arms the dispatch timer; the reactor's Dispatch loop is expected
// to be driven externally from here on.
func (c *Crawler) Start() {
	c.rearmDispatch()
}

// Free drains the frontier, removes the dispatch timer, frees the HTTP
// client (cancelling pending transfers without invoking their
// callbacks), and frees the visited set, per §4.3's teardown order.
func (c *Crawler) Free() {
	c.frontier = nil
	if c.dispatchTimer != nil {
		_ = c.r.Del(c.dispatchTimer)
		c.dispatchTimer = nil
	}
	c.client.Close()
	c.visited = make(map[string]bool)
}

// Stats returns a point-in-time snapshot of the crawl.
func (c *Crawler) Stats() Stats {
	s := c.stats
	s.FrontierLen = len(c.frontier)
	s.VisitedLen = len(c.visited)
	return s
}

// rearmDispatch schedules a single zero-delay, one-shot dispatch-timer
// firing if one is not already pending. The reactor has no "re-arm an
// existing handle" primitive, so each firing is a fresh one-shot timer —
// the pendingDispatch flag keeps repeated AddURL/completion calls from
// stacking redundant timers ahead of the one already scheduled.
func (c *Crawler) rearmDispatch() {
	if c.pendingDispatch {
		return
	}
	h, err := c.r.AddTimer(0, false, c.onDispatchTimer, nil)
	if err != nil {
		c.logger.Error("crawler: failed to arm dispatch timer", "err", err)
		return
	}
	c.pendingDispatch = true
	c.dispatchTimer = h
}

func (c *Crawler) onDispatchTimer(user any) {
	c.pendingDispatch = false
	c.dispatchOnce()
}

// dispatchOnce implements §4.3's dispatch loop: pop from the frontier
// while active < MaxConcurrent, skipping already-visited URLs and
// deferring hosts still inside their politeness window.
func (c *Crawler) dispatchOnce() {
	for c.active < c.cfg.MaxConcurrent && len(c.frontier) > 0 {
		item := c.frontier[0]
		c.frontier = c.frontier[1:]

		if c.visited[item.url] {
			continue
		}

		if c.cfg.MinHostInterval > 0 {
			host, err := urlutil.Host(item.url)
			if err == nil {
				if last, ok := c.lastHostFetch[host]; ok {
					if wait := c.cfg.MinHostInterval - time.Since(last); wait > 0 {
						c.deferForPoliteness(item, wait)
						continue
					}
				}
			}
		}

		c.dispatchItem(item)
	}

	if c.active == 0 && len(c.frontier) == 0 && c.pendingDelayed == 0 {
		c.r.Stop()
	}
}

// deferForPoliteness removes item from this pass and re-enqueues it via a
// one-shot timer once wait has elapsed, per SPEC_FULL.md §C's per-host
// politeness delay.
func (c *Crawler) deferForPoliteness(item frontierItem, wait time.Duration) {
	c.pendingDelayed++
	_, err := c.r.AddTimer(wait.Milliseconds(), false, func(user any) {
		c.pendingDelayed--
		c.frontier = append(c.frontier, item)
		c.rearmDispatch()
	}, nil)
	if err != nil {
		c.pendingDelayed--
		// Can't schedule the retry; drop the item rather than wedge the
		// crawl. Logged, never propagated (errtax's ParseError-class
		// handling per §7).
		c.logger.Warn("crawler: failed to arm politeness timer, dropping URL", "url", item.url, "err", err)
	}
}

func (c *Crawler) dispatchItem(item frontierItem) {
	c.visited[item.url] = true
	c.stats.Dispatched++

	task := &taskState{cr: c, url: item.url, depth: item.depth}
	_, err := c.client.Get(item.url, task.onHeader, task.onData, task.onComplete, task)
	if err != nil {
		c.logger.Error("crawler: failed to submit request", "url", item.url, "err", err)
		return
	}

	c.active++
	if c.cfg.MinHostInterval > 0 {
		if host, err := urlutil.Host(item.url); err == nil {
			c.lastHostFetch[host] = time.Now()
		}
	}
}

// completeTask implements §4.3's complete_cb.
func (c *Crawler) completeTask(t *taskState, httpStatus, transportResult int) {
	c.active--
	c.stats.Completed++

	if transportResult == 0 && httpStatus >= 200 && httpStatus < 300 {
		c.stats.Succeeded++
		if c.pageCB != nil {
			c.pageCB(c, t.url, httpStatus, t.buf, c.user)
		}
		c.extractAndEnqueue(t)
	} else {
		c.stats.Failed++
		if c.errorCB != nil {
			c.errorCB(c, t.url, transportResult, c.user)
		}
	}

	c.rearmDispatch()
}

func (c *Crawler) extractAndEnqueue(t *taskState) {
	links, err := linkextract.Extract(t.contentType, t.buf, t.url)
	if err != nil {
		c.logger.Debug("crawler: link extraction failed", "url", t.url, "err", err)
		return
	}
	for _, link := range links {
		abs, err := urlutil.Resolve(t.url, link)
		if err != nil {
			continue
		}
		c.addURLAtDepth(abs, t.depth+1)
	}
}
