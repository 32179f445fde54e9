package network

import (
	"time"

	ncerr "mqttnet/internal/errors"
	"mqttnet/timer"
)

// direction binds the deadline setter and transfer primitive of one
// side of the stream.
type direction struct {
	op       string
	deadline func(Stream, time.Time) error
	move     func(Stream, []byte) (int, error)
}

var (
	inbound  = direction{op: "read", deadline: Stream.SetReadDeadline, move: Stream.Read}
	outbound = direction{op: "write", deadline: Stream.SetWriteDeadline, move: Stream.Write}
)

// Read fills p from the stream until it is full or timeout elapses.
//
// It returns the bytes read.  n < len(p) with a nil error is a short
// read: the timeout ran out first.  A non-nil error is a hard failure
// (reset, peer close, deadline configuration) and n is the progress
// made before it.  Read never blocks much longer than timeout plus one
// tick period.
func (c *Connection) Read(p []byte, timeout time.Duration) (int, error) {
	n, err := c.transfer(inbound, p, timeout)
	c.metrics.Read(n, len(p))
	return n, err
}

// Write sends p until all of it is written or timeout elapses, with the
// same result contract as [Connection.Read].
func (c *Connection) Write(p []byte, timeout time.Duration) (int, error) {
	n, err := c.transfer(outbound, p, timeout)
	c.metrics.Wrote(n, len(p))
	return n, err
}

// ReadDefault is Read bounded by Params.Timeout.
func (c *Connection) ReadDefault(p []byte) (int, error) {
	return c.Read(p, c.params.Timeout)
}

// WriteDefault is Write bounded by Params.Timeout.
func (c *Connection) WriteDefault(p []byte) (int, error) {
	return c.Write(p, c.params.Timeout)
}

// transfer runs the bounded loop shared by Read and Write.  Each round
// sets the per-call deadline to whatever the countdown has left, so no
// single call outlives the overall budget.  Rounds that time out with no
// progress are retried; the countdown alone decides when to stop.
func (c *Connection) transfer(d direction, p []byte, timeout time.Duration) (int, error) {
	if c.sock == nil {
		return 0, ncerr.WrapIO(d.op, "", ErrNotConnected)
	}
	if len(p) == 0 {
		return 0, nil
	}
	s, addr := c.sock.stream, c.sock.remote.String()

	tm := timer.New(c.clock)
	tm.Countdown(timeout)

	done := 0
	for {
		if err := d.deadline(s, time.Now().Add(tm.Left())); err != nil {
			return done, c.fail("set deadline", addr, err)
		}

		n, err := d.move(s, p[done:])
		if n > len(p)-done {
			n = len(p) - done
		}
		if n > 0 {
			done += n
		}
		if err != nil && !ncerr.IsWouldBlock(err) {
			return done, c.fail(d.op, addr, err)
		}

		if done == len(p) || tm.IsExpired() {
			return done, nil
		}
	}
}

func (c *Connection) fail(op, addr string, err error) error {
	ioErr := ncerr.WrapIO(op, addr, err)
	c.logger.Debug("[%s] %v", c.id, ioErr)
	c.metrics.RecordError(ioErr.Error())
	return ioErr
}
