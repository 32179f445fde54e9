package network

import (
	"context"
	"io"
	"net"
	"syscall"
	"time"
)

// Stream is the byte stream a Connection drives.  Deadlines bound each
// individual Read or Write; a call that hits its deadline returns an
// error satisfying net.Error.Timeout.  Every net.Conn is a Stream.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens a stream to a single candidate.  On error the dialer
// must not leave an open stream behind.
type Dialer interface {
	DialCandidate(ctx context.Context, c Candidate) (Stream, error)

	// Close releases long-lived resources held by the dialer (e.g. an
	// SSH gateway).  Stateless dialers return nil.
	Close() error
}

// TCPDialer dials candidates with plain TCP.
type TCPDialer struct {
	// Timeout bounds each candidate's connect.  Zero leaves it to the
	// platform.
	Timeout time.Duration
	// KeepAlive is the TCP keepalive period; zero uses the Go default,
	// negative disables keepalives.
	KeepAlive time.Duration

	// Socket options applied after the socket is created and before it
	// connects.  Zero leaves the platform value.  Only honoured on Linux.
	SendBuffer  int
	RecvBuffer  int
	UserTimeout time.Duration // TCP_USER_TIMEOUT
}

// DialCandidate connects to c.
func (d *TCPDialer) DialCandidate(ctx context.Context, c Candidate) (Stream, error) {
	nd := net.Dialer{
		Timeout:   d.Timeout,
		KeepAlive: d.KeepAlive,
		Control:   d.control,
	}
	conn, err := nd.DialContext(ctx, c.Network(), c.Addr.String())
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close is a no-op for TCP dialers.
func (d *TCPDialer) Close() error { return nil }

func (d *TCPDialer) control(_, _ string, rc syscall.RawConn) error {
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = d.applySockopts(fd)
	}); err != nil {
		return err
	}
	return serr
}
