// Package crawler implements §4.3: the frontier, visited set, parallelism
// gate, extraction stage, and completion pipeline that turns a seed URL
// into a breadth-first crawl driven entirely by the reactor's dispatch
// timer.
//
// Grounded on cametumbling-web-crawler's coordinator (frontier/active-count
// shape and Stats counters) and rohmanhakim-docs-crawler's scheduler
// (per-host cooldown map), generalized onto this repo's reactor and
// httpclient packages — see DESIGN.md.
package crawler

import "time"

// PageCallback is invoked once per successfully completed page (HTTP 2xx,
// zero transport result), after the page's own state has been recorded but
// before its outbound links are dispatched for extraction.
type PageCallback func(cr *Crawler, url string, httpStatus int, body []byte, user any)

// ErrorCallback is invoked once per page whose transfer failed transport,
// or completed with a non-2xx status.
type ErrorCallback func(cr *Crawler, url string, transportCode int, user any)

// Config is §4.3's scheduler configuration, plus SPEC_FULL.md §C's
// supplemented bounded-frontier and per-host politeness knobs.
type Config struct {
	// MaxConcurrent is the maximum number of HTTP transfers simultaneously
	// handed to the HTTP client. Must be positive; New rejects other values
	// with an InvalidArg error.
	MaxConcurrent int
	// MaxDepth is the maximum link depth from every seed URL (depth 0).
	// Must not be negative; New rejects a negative value with InvalidArg.
	// Links that would land beyond it are discarded before being enqueued.
	MaxDepth int
	// MaxPageSize is an advisory byte ceiling on a response body; bytes
	// beyond it are dropped rather than buffered.
	MaxPageSize int
	// MaxFrontier bounds the frontier queue; add_url past the cap is
	// rejected silently and Stats.Dropped is incremented. Zero (the
	// default) means unbounded, matching §4.3's base contract.
	MaxFrontier int
	// MinHostInterval enforces a minimum gap between two dispatches to the
	// same host. Zero (the default) disables the delay.
	MinHostInterval time.Duration
}

// Stats is a point-in-time snapshot of the crawl, per SPEC_FULL.md §C.
type Stats struct {
	Dispatched  int
	Completed   int
	Succeeded   int
	Failed      int
	Dropped     int
	FrontierLen int
	VisitedLen  int
}

// frontierItem is one pending URL, already canonicalized, paired with its
// link depth from the nearest seed.
type frontierItem struct {
	url   string
	depth int
}
