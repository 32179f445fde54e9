// Package network is the transport adapter a message-queue protocol
// client uses to reach its broker.
//
// A [Connection] resolves the broker's host and port into ordered
// candidates, connects to the first one that accepts, and then offers
// [Connection.Read] and [Connection.Write]: bounded transfers that
// return when the buffer is done or the timeout runs out, whichever
// comes first.  A short transfer is a normal result, not an error.
//
// A Connection is not safe for concurrent use.  When a protocol loop and
// a keepalive path share one, the caller serializes access.
package network

import (
	"context"
	"time"

	"github.com/google/uuid"

	ncerr "mqttnet/internal/errors"
	"mqttnet/internal/metrics"
	"mqttnet/timer"
	"mqttnet/util"
)

// Error kinds returned by Connection.  Match them with errors.Is.
var (
	ErrResolutionFailed = ncerr.ErrResolutionFailed
	ErrNoCandidates     = ncerr.ErrNoCandidates
	ErrConnectionFailed = ncerr.ErrConnectionFailed
	ErrNotConnected     = ncerr.ErrNotConnected
	ErrAlreadyConnected = ncerr.ErrAlreadyConnected
	ErrDestroyed        = ncerr.ErrDestroyed
	ErrConnectionClosed = ncerr.ErrConnectionClosed
)

// Params describes the broker endpoint.  It is owned by the caller and
// borrowed, not copied, by the Connection.
type Params struct {
	Host string
	// Port is decimal or a service name.
	Port string
	// Timeout is the default budget for ReadDefault and WriteDefault.
	Timeout time.Duration
}

// socket is the connected state.  A Connection holding no socket is
// unconnected; there is no sentinel handle.
type socket struct {
	stream Stream
	remote Candidate
}

// Connection is a single logical stream to the broker.
type Connection struct {
	id       string
	params   *Params
	resolver Resolver
	dialer   Dialer
	clock    timer.Clock
	logger   *util.Logger
	metrics  *metrics.Collector

	sock      *socket
	destroyed bool
}

// Option configures a Connection.
type Option func(*Connection)

// WithResolver replaces the platform resolver.
func WithResolver(r Resolver) Option { return func(c *Connection) { c.resolver = r } }

// WithDialer replaces the plain TCP dialer.
func WithDialer(d Dialer) Option { return func(c *Connection) { c.dialer = d } }

// WithClock sets the tick clock behind every timeout.
func WithClock(clk timer.Clock) Option { return func(c *Connection) { c.clock = clk } }

// WithLogger enables logging of connection attempts.
func WithLogger(l *util.Logger) Option { return func(c *Connection) { c.logger = l } }

// WithMetrics records lifecycle and I/O counters into m.
func WithMetrics(m *metrics.Collector) Option { return func(c *Connection) { c.metrics = m } }

// New initializes an unconnected Connection for params.
func New(params *Params, opts ...Option) (*Connection, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	c := &Connection{
		id:     uuid.NewString(),
		params: params,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = &NetResolver{}
	}
	if c.dialer == nil {
		c.dialer = &TCPDialer{}
	}
	if c.clock == nil {
		c.clock = timer.NewSystemClock(timer.DefaultPeriod)
	}
	return c, nil
}

func validateParams(p *Params) error {
	switch {
	case p == nil:
		return &ncerr.ConfigError{Field: "params", Message: "required"}
	case p.Host == "":
		return &ncerr.ConfigError{Field: "host", Message: "required"}
	case !util.ValidPort(p.Port):
		return &ncerr.ConfigError{Field: "port", Value: p.Port,
			Message: "must be 1-65535 or a service name"}
	case p.Timeout < 0:
		return &ncerr.ConfigError{Field: "timeout", Value: p.Timeout,
			Message: "must not be negative"}
	}
	return nil
}

// ID identifies the Connection in logs.
func (c *Connection) ID() string { return c.id }

// Params returns the borrowed endpoint parameters.
func (c *Connection) Params() *Params { return c.params }

// Connected reports whether a stream is established.
func (c *Connection) Connected() bool { return c.sock != nil }

// Remote returns the candidate the Connection is connected to.
func (c *Connection) Remote() (Candidate, bool) {
	if c.sock == nil {
		return Candidate{}, false
	}
	return c.sock.remote, true
}

// NewTimer returns an unarmed timer on the Connection's clock, for
// bounding protocol-level waits with the same time base as I/O.
func (c *Connection) NewTimer() *timer.Timer { return timer.New(c.clock) }

// Connect resolves the endpoint and connects to the first candidate
// that accepts, trying them strictly in resolver order.  Each
// candidate's connect is bounded by the dialer, not by a Countdown.
//
// Resolution failures match ErrResolutionFailed; exhausting every
// candidate matches ErrConnectionFailed.  Either way the Connection
// stays unconnected.
func (c *Connection) Connect(ctx context.Context) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.sock != nil {
		return ErrAlreadyConnected
	}

	host, port := c.params.Host, c.params.Port
	cands, err := c.resolver.Resolve(ctx, host, port)
	if err == nil && len(cands) == 0 {
		err = ncerr.ErrNoCandidates
	}
	if err != nil {
		rerr := &ncerr.ResolveError{Host: host, Port: port, Err: err}
		c.metrics.ResolutionFailed()
		c.metrics.RecordError(rerr.Error())
		return rerr
	}

	var (
		attempts []ncerr.Attempt
		stopped  error
	)
	for _, cand := range cands {
		if stopped = ctx.Err(); stopped != nil {
			break
		}

		c.logger.Debug("[%s] trying %s", c.id, cand)
		c.metrics.CandidateAttempted()

		s, err := c.open(ctx, cand)
		if err != nil {
			c.logger.Debug("[%s] %s: %v", c.id, cand, err)
			attempts = append(attempts, ncerr.Attempt{Addr: cand.String(), Err: err})
			continue
		}

		c.sock = &socket{stream: s, remote: cand}
		c.logger.Verbose("[%s] connected to %s", c.id, cand)
		c.metrics.Connected(cand.String())
		return nil
	}

	cerr := &ncerr.ConnectError{Host: host, Port: port, Attempts: attempts, Err: stopped}
	c.metrics.ConnectFailed()
	c.metrics.RecordError(cerr.Error())
	return cerr
}

// open dials one candidate and prepares the stream.  The stream is
// closed on every failing path.
func (c *Connection) open(ctx context.Context, cand Candidate) (s Stream, err error) {
	s, err = c.dialer.DialCandidate(ctx, cand)
	if err != nil {
		if s != nil {
			s.Close() //nolint:errcheck
		}
		return nil, err
	}
	defer func() {
		if err != nil {
			s.Close() //nolint:errcheck
			s = nil
		}
	}()

	if nd, ok := s.(interface{ SetNoDelay(bool) error }); ok {
		if err = nd.SetNoDelay(true); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Disconnect closes the stream.  On an unconnected Connection it
// returns ErrNotConnected and changes nothing; Connect may be called
// again afterwards.
func (c *Connection) Disconnect() error {
	if c.sock == nil {
		return ErrNotConnected
	}
	sock := c.sock
	c.sock = nil
	c.metrics.Disconnected()

	if err := sock.stream.Close(); err != nil {
		return ncerr.WrapIO("close", sock.remote.String(), err)
	}
	c.logger.Verbose("[%s] disconnected from %s", c.id, sock.remote)
	return nil
}

// Destroy closes the stream, if any, and releases the dialer.  It is
// safe to call repeatedly; after it, Connect fails with ErrDestroyed.
func (c *Connection) Destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true

	var errs []error
	if c.sock != nil {
		errs = append(errs, c.Disconnect())
	}
	errs = append(errs, c.dialer.Close())
	return ncerr.Join(errs...)
}
