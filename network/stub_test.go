package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"mqttnet/timer"
)

// fakeStream is a scripted Stream.  Every Read or Write costs a fixed
// amount of simulated time on clock and moves at most chunk bytes.  When
// there is nothing to move it reports a deadline timeout, like a socket
// with no data.
type fakeStream struct {
	mu    sync.Mutex
	clock *timer.ManualClock
	cost  uint32 // ms advanced per call
	chunk int    // max bytes per call (0 = unlimited)

	incoming []byte       // data Read hands out
	written  bytes.Buffer // data Write accepted
	capacity int          // Write accepts at most this many bytes in total (0 = unlimited)

	failAt      int   // 1-based call number that fails with failErr (0 = never)
	failErr     error // error returned at failAt
	deadlineErr error // returned from Set*Deadline

	calls     int
	deadlines []time.Time
	closed    int
	noDelay   error // returned from SetNoDelay when hasNoDelay
}

func (f *fakeStream) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step(); err != nil {
		return 0, err
	}
	if len(f.incoming) == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	n := copy(p[:f.limit(len(p))], f.incoming)
	f.incoming = f.incoming[n:]
	return n, nil
}

func (f *fakeStream) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step(); err != nil {
		return 0, err
	}
	n := f.limit(len(p))
	if f.capacity > 0 {
		room := f.capacity - f.written.Len()
		if n > room {
			n = room
		}
	}
	if n == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	f.written.Write(p[:n])
	return n, nil
}

func (f *fakeStream) step() error {
	f.calls++
	if f.clock != nil && f.cost > 0 {
		f.clock.AdvanceMS(f.cost)
	}
	if f.failAt > 0 && f.calls == f.failAt {
		return f.failErr
	}
	return nil
}

func (f *fakeStream) limit(n int) int {
	if f.chunk > 0 && n > f.chunk {
		return f.chunk
	}
	return n
}

func (f *fakeStream) SetReadDeadline(t time.Time) error  { return f.setDeadline(t) }
func (f *fakeStream) SetWriteDeadline(t time.Time) error { return f.setDeadline(t) }

func (f *fakeStream) setDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deadlineErr != nil {
		return f.deadlineErr
	}
	f.deadlines = append(f.deadlines, t)
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// noDelayStream is a fakeStream that also exposes SetNoDelay.
type noDelayStream struct{ *fakeStream }

func (s noDelayStream) SetNoDelay(bool) error { return s.noDelay }

// fakeDialer hands out streams per candidate address and records the
// order of attempts.
type fakeDialer struct {
	mu       sync.Mutex
	results  map[string]dialResult
	attempts []string
	opened   []*fakeStream
	closed   int
}

type dialResult struct {
	stream Stream
	err    error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(map[string]dialResult)}
}

func (d *fakeDialer) succeed(addr string, s *fakeStream) { d.results[addr] = dialResult{stream: s} }
func (d *fakeDialer) refuse(addr string, err error)      { d.results[addr] = dialResult{err: err} }

func (d *fakeDialer) DialCandidate(_ context.Context, c Candidate) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts = append(d.attempts, c.String())
	r, ok := d.results[c.String()]
	if !ok {
		return nil, fmt.Errorf("no route to %s", c)
	}
	if fs, ok := streamOf(r.stream); ok {
		d.opened = append(d.opened, fs)
	}
	return r.stream, r.err
}

func (d *fakeDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// openStreams counts streams handed out and never closed.
func (d *fakeDialer) openStreams() int {
	open := 0
	for _, s := range d.opened {
		if s.closed == 0 {
			open++
		}
	}
	return open
}

func streamOf(s Stream) (*fakeStream, bool) {
	switch v := s.(type) {
	case *fakeStream:
		return v, true
	case noDelayStream:
		return v.fakeStream, true
	}
	return nil, false
}

// staticResolver returns the given addresses in order.
func staticResolver(addrs ...string) Resolver {
	return ResolverFunc(func(context.Context, string, string) ([]Candidate, error) {
		out := make([]Candidate, 0, len(addrs))
		for _, a := range addrs {
			ap := netip.MustParseAddrPort(a)
			out = append(out, NewCandidate(ap.Addr(), ap.Port()))
		}
		return out, nil
	})
}

var errRefused = errors.New("connection refused")

// connectedFake returns a Connection already connected to s on clk.
func connectedFake(s *fakeStream, clk timer.Clock) (*Connection, error) {
	d := newFakeDialer()
	d.succeed("10.0.0.1:1883", s)
	c, err := New(&Params{Host: "broker", Port: "1883", Timeout: time.Second},
		WithResolver(staticResolver("10.0.0.1:1883")),
		WithDialer(d),
		WithClock(clk),
	)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}
