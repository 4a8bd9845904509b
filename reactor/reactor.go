//go:build unix

package reactor

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// ioEntry tracks every Handle registered against a single fd so the
// reactor can OR their interest sets together for a single poll(2) slot.
type ioEntry struct {
	fd      int
	handles []*Handle
}

// Reactor is the §4.1 single-threaded event loop. The zero value is not
// usable; construct with New.
type Reactor struct {
	cfg config

	mu      sync.Mutex
	handles map[uint64]*Handle
	nextID  uint64
	timers  []*Handle
	ioByFD  map[int]*ioEntry

	wakeR, wakeW int
	stopped      atomic.Bool
	running      atomic.Bool
	closed       atomic.Bool
}

// New creates a reactor instance. It fails with a Resource error if the
// wakeup pipe cannot be allocated.
func New(opts ...Option) (*Reactor, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	r, w, err := newWakePipe()
	if err != nil {
		return nil, errResource("reactor.New", err)
	}

	return &Reactor{
		cfg:     cfg,
		handles: make(map[uint64]*Handle),
		ioByFD:  make(map[int]*ioEntry),
		wakeR:   r,
		wakeW:   w,
	}, nil
}

// Close tears the reactor down: every remaining handle is dropped without
// its callback firing, and the wakeup pipe is released. Close is not
// safe to call concurrently with Dispatch.
func (r *Reactor) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.handles {
		delete(r.handles, id)
	}
	r.ioByFD = make(map[int]*ioEntry)
	r.timers = nil
	closeFD(r.wakeR)
	closeFD(r.wakeW)
}

func (r *Reactor) newHandle() uint64 {
	r.nextID++
	return r.nextID
}

// AddIO registers fd for the given interest flags. It fails with
// InvalidArg if neither Read nor Write is set.
func (r *Reactor) AddIO(fd int, flags IOFlag, cb IOCallback, user any) (*Handle, error) {
	if fd < 0 {
		return nil, errInvalidArg("reactor.AddIO")
	}
	if flags&(Read|Write) == 0 {
		return nil, errInvalidArg("reactor.AddIO")
	}
	if cb == nil {
		return nil, errInvalidArg("reactor.AddIO")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Handle{
		r:          r,
		kind:       kindIO,
		fd:         fd,
		ioFlags:    flags,
		persistent: flags&Persist != 0,
		ioCB:       cb,
		user:       user,
	}
	h.id = r.newHandle()
	r.handles[h.id] = h

	e, ok := r.ioByFD[fd]
	if !ok {
		e = &ioEntry{fd: fd}
		r.ioByFD[fd] = e
	}
	e.handles = append(e.handles, h)

	return h, nil
}

// AddTimer arms a one-shot or persistent timer. It fails with InvalidArg
// if millis < 0.
func (r *Reactor) AddTimer(millis int64, persistent bool, cb TimerCallback, user any) (*Handle, error) {
	if millis < 0 {
		return nil, errInvalidArg("reactor.AddTimer")
	}
	if cb == nil {
		return nil, errInvalidArg("reactor.AddTimer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	period := time.Duration(millis) * time.Millisecond
	h := &Handle{
		r:          r,
		kind:       kindTimer,
		persistent: persistent,
		timerCB:    cb,
		user:       user,
		deadline:   time.Now().Add(period),
		period:     period,
	}
	h.id = r.newHandle()
	r.handles[h.id] = h
	r.timers = append(r.timers, h)

	return h, nil
}

// Del detaches h. After Del returns, h's callback is guaranteed not to fire
// again.
func (r *Reactor) Del(h *Handle) error {
	if h == nil {
		return errInvalidArg("reactor.Del")
	}
	if !h.deleted.CompareAndSwap(false, true) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.handles, h.id)

	switch h.kind {
	case kindIO:
		if e, ok := r.ioByFD[h.fd]; ok {
			e.handles = removeHandle(e.handles, h)
			if len(e.handles) == 0 {
				delete(r.ioByFD, h.fd)
			}
		}
	case kindTimer:
		r.timers = removeHandle(r.timers, h)
	}
	return nil
}

func removeHandle(s []*Handle, h *Handle) []*Handle {
	for i, x := range s {
		if x == h {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Running reports whether a goroutine is currently blocked inside Dispatch.
func (r *Reactor) Running() bool { return r.running.Load() }

// Stop is the only thread-safe operation: it may be called from a signal
// handler or another goroutine to break a blocked Dispatch. It touches
// nothing but an atomic flag and a self-pipe write.
func (r *Reactor) Stop() {
	if r.stopped.CompareAndSwap(false, true) {
		_, _ = unix.Write(r.wakeW, []byte{0})
	}
}

// firedEvent is a snapshot of one callback to run, captured under the lock
// before any callback executes so Dispatch never calls back into the map
// while unlocked pointers could still be mutating.
type firedEvent struct {
	handle *Handle
	flags  IOFlag
}

// Dispatch runs until no registered handle remains or Stop is called.
func (r *Reactor) Dispatch() (DispatchResult, error) {
	r.running.Store(true)
	defer r.running.Store(false)

	drainWake := make([]byte, 64)

	for {
		if r.stopped.Load() {
			r.drainWakePipe(drainWake)
			r.stopped.Store(false)
			return Stopped, nil
		}

		r.mu.Lock()
		if len(r.handles) == 0 {
			r.mu.Unlock()
			return Normal, nil
		}
		pollFDs, index := r.snapshotPollFDs()
		timeoutMillis := r.nextTimeoutMillis()
		r.mu.Unlock()

		n, err := pollWait(pollFDs, timeoutMillis)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return Normal, errResource("reactor.Dispatch", err)
		}

		now := time.Now()
		r.mu.Lock()
		fired := r.collectFired(pollFDs, index, n, now)
		r.mu.Unlock()

		for _, fe := range fired {
			if fe.handle.deleted.Load() {
				continue
			}
			switch fe.handle.kind {
			case kindTimer:
				fe.handle.timerCB(fe.handle.user)
			case kindIO:
				fe.handle.ioCB(fe.handle.fd, fe.flags, fe.handle.user)
			}
		}
	}
}

// drainWakePipe empties the self-pipe so a subsequent Stop's write does not
// accumulate stale wakeups across Dispatch calls.
func (r *Reactor) drainWakePipe(buf []byte) {
	for {
		n, err := unix.Read(r.wakeR, buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

// snapshotPollFDs builds the unix.PollFd slice to pass to poll(2): one
// entry per distinct fd (interest OR'd across its handles) plus the wakeup
// read end. index[i] maps pollFDs[i] back to the ioEntry it represents, or
// nil for the wakeup slot.
func (r *Reactor) snapshotPollFDs() ([]unix.PollFd, []*ioEntry) {
	fds := make([]unix.PollFd, 0, len(r.ioByFD)+1)
	index := make([]*ioEntry, 0, len(r.ioByFD)+1)

	fds = append(fds, unix.PollFd{Fd: int32(r.wakeR), Events: unix.POLLIN})
	index = append(index, nil)

	for _, e := range r.ioByFD {
		var events int16
		for _, h := range e.handles {
			if h.deleted.Load() {
				continue
			}
			if h.ioFlags&Read != 0 {
				events |= pollIn
			}
			if h.ioFlags&Write != 0 {
				events |= pollOut
			}
		}
		if events == 0 {
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(e.fd), Events: events})
		index = append(index, e)
	}
	return fds, index
}

// nextTimeoutMillis returns the poll(2) timeout: milliseconds until the
// earliest timer deadline, 0 if one is already due, or -1 (block
// indefinitely) if there are no timers.
func (r *Reactor) nextTimeoutMillis() int {
	if len(r.timers) == 0 {
		return -1
	}
	earliest := r.timers[0].deadline
	for _, t := range r.timers[1:] {
		if t.deadline.Before(earliest) {
			earliest = t.deadline
		}
	}
	d := time.Until(earliest)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > int64(int(^uint(0)>>1)) {
		return int(^uint(0) >> 1)
	}
	return int(ms)
}

// collectFired removes non-persistent handles from the registry (per the
// callback contract in §4.1) and returns the callbacks to run outside the
// lock. Persistent I/O handles stay registered; persistent timers are
// rearmed for their next deadline.
func (r *Reactor) collectFired(fds []unix.PollFd, index []*ioEntry, n int, now time.Time) []firedEvent {
	var fired []firedEvent
	if n <= 0 {
		return r.collectDueTimers(now)
	}

	if fds[0].Revents != 0 {
		// wakeup pipe readiness is handled by the Stop()/stopped flag path
		// in Dispatch, nothing to deliver to user code.
	}

	for i := 1; i < len(fds); i++ {
		pf := fds[i]
		if pf.Revents == 0 {
			continue
		}
		e := index[i]
		if e == nil {
			continue
		}
		var readyFlags IOFlag
		if pf.Revents&(pollIn|pollErr) != 0 {
			readyFlags |= Read
		}
		if pf.Revents&(pollOut|pollErr) != 0 {
			readyFlags |= Write
		}
		for _, h := range append([]*Handle(nil), e.handles...) {
			if h.deleted.Load() {
				continue
			}
			got := h.ioFlags & readyFlags & (Read | Write)
			if got == 0 {
				continue
			}
			fired = append(fired, firedEvent{handle: h, flags: got})
			if !h.persistent {
				h.deleted.Store(true)
				delete(r.handles, h.id)
				e.handles = removeHandle(e.handles, h)
			}
		}
		if len(e.handles) == 0 {
			delete(r.ioByFD, e.fd)
		}
	}

	fired = append(fired, r.collectDueTimers(now)...)
	return fired
}

func (r *Reactor) collectDueTimers(now time.Time) []firedEvent {
	var fired []firedEvent
	remaining := r.timers[:0]
	for _, t := range r.timers {
		if t.deleted.Load() {
			continue
		}
		if now.Before(t.deadline) {
			remaining = append(remaining, t)
			continue
		}
		fired = append(fired, firedEvent{handle: t})
		if t.persistent {
			t.deadline = now.Add(t.period)
			remaining = append(remaining, t)
		} else {
			t.deleted.Store(true)
			delete(r.handles, t.id)
		}
	}
	r.timers = remaining
	return fired
}
