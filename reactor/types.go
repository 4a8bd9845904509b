//go:build unix

// Package reactor implements the §4.1 event-driven dispatcher: a
// single-threaded cooperative scheduler over OS readiness notifications and
// a monotonic timer list. All callbacks run on the goroutine that calls
// Dispatch.
//
// The readiness multiplexer is built on golang.org/x/sys/unix's poll(2)
// binding, so this package is unix-only (Linux/Darwin); there is no
// Windows IOCP backend (see DESIGN.md).
package reactor

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// IOFlag selects the interest set for an I/O registration.
type IOFlag int

const (
	Read IOFlag = 1 << iota
	Write
	// Persist keeps the handle registered after it fires. Without it the
	// handle is deleted from the registry before its callback runs.
	Persist
)

// IOCallback is invoked when fd becomes ready for the flags it was
// registered with that actually fired. user is the opaque argument passed
// to AddIO.
type IOCallback func(fd int, flags IOFlag, user any)

// TimerCallback is invoked when a timer fires. user is the opaque argument
// passed to AddTimer.
type TimerCallback func(user any)

// kind distinguishes what a Handle was registered for.
type kind int

const (
	kindIO kind = iota
	kindTimer
)

// Handle is the opaque record returned by AddIO/AddTimer, per §3's "Reactor
// handle" data model: a tagged record with a back-pointer to the reactor, a
// monotonically increasing id, a persistence flag, and the callback plus its
// opaque argument.
type Handle struct {
	id         uint64
	r          *Reactor
	kind       kind
	fd         int
	ioFlags    IOFlag
	persistent bool

	ioCB    IOCallback
	timerCB TimerCallback
	user    any

	deadline time.Time
	period   time.Duration

	deleted atomic.Bool
}

// ID returns the handle's monotonically increasing event id. Ids are never
// reused within a Reactor's lifetime, which makes reuse-of-pointer hazards
// impossible (§4.1).
func (h *Handle) ID() uint64 { return h.id }

// config holds the functional-options-configured state of a Reactor,
// following the pack's Option idiom (zkit/rt/task.Option,
// zkit/httpx/client.Option).
type config struct {
	logger   *slog.Logger
	pollSize int
}

// Option configures a New(...) call.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger:   slog.Default(),
		pollSize: 256,
	}
}

// WithLogger sets the reactor's structured logger (§A.1 of SPEC_FULL.md).
// Defaults to slog.Default(). The reactor reports failures through
// returned errors and writes no log records itself.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPollBatchSize records a poll(2) batch-size hint. Advisory only: the
// readiness buffer is sized from the registered fds on every wait, and the
// hint does not change its capacity.
func WithPollBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.pollSize = n
		}
	}
}

// DispatchResult reports how Dispatch returned.
type DispatchResult int

const (
	// Normal means Dispatch returned because no registered events remain.
	Normal DispatchResult = iota
	// Stopped means Dispatch returned because Stop was called.
	Stopped
)

func (r DispatchResult) String() string {
	if r == Stopped {
		return "Stopped"
	}
	return "Normal"
}
