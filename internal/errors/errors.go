// Package errors provides the error kinds of the network adapter.
//
// Resolution failures, exhausted connection attempts, and hard I/O
// errors are distinct types carrying structured context (host, port,
// per-candidate causes, platform error codes).  Each type matches its
// sentinel through errors.Is, so callers can branch on the kind without
// type assertions.  A timed-out read or write is not an error at all.
package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrResolutionFailed = errors.New("address resolution failed")
	ErrNoCandidates     = errors.New("no candidate addresses")
	ErrConnectionFailed = errors.New("connection failed")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrDestroyed        = errors.New("connection destroyed")
	ErrConnectionClosed = errors.New("connection closed by peer")
	ErrTunnelClosed     = errors.New("tunnel is closed")
	ErrAuthFailed       = errors.New("authentication failed")
)

// ── Structured error types ───────────────────────────────────────────

// ResolveError reports that a host/port pair produced no candidates.
type ResolveError struct {
	Host string
	Port string
	Err  error // resolver error, or ErrNoCandidates
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", net.JoinHostPort(e.Host, e.Port), e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Is matches [ErrResolutionFailed].
func (e *ResolveError) Is(target error) bool { return target == ErrResolutionFailed }

// Attempt records one failed candidate during connection establishment.
type Attempt struct {
	Addr string
	Err  error
}

// ConnectError reports that no candidate accepted a connection.  Err,
// when set, is why the remaining candidates were never tried.
type ConnectError struct {
	Host     string
	Port     string
	Attempts []Attempt
	Err      error
}

func (e *ConnectError) Error() string {
	target := net.JoinHostPort(e.Host, e.Port)
	var msg string
	switch len(e.Attempts) {
	case 0:
		if e.Err != nil {
			return fmt.Sprintf("connect %s: %v", target, e.Err)
		}
		return fmt.Sprintf("connect %s: %v", target, ErrConnectionFailed)
	case 1:
		msg = fmt.Sprintf("connect %s: %s: %v", target, e.Attempts[0].Addr, e.Attempts[0].Err)
	default:
		parts := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			parts[i] = fmt.Sprintf("%s: %v", a.Addr, a.Err)
		}
		msg = fmt.Sprintf("connect %s: all %d candidates failed: %s",
			target, len(e.Attempts), strings.Join(parts, "; "))
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (stopped: %v)", e.Err)
	}
	return msg
}

// Unwrap exposes every per-candidate cause and the stop reason.
func (e *ConnectError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts)+1)
	for _, a := range e.Attempts {
		out = append(out, a.Err)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Is matches [ErrConnectionFailed].
func (e *ConnectError) Is(target error) bool { return target == ErrConnectionFailed }

// IOError represents a hard failure of an underlying read, write, or
// per-call timeout configuration.
type IOError struct {
	Op   string // "read", "write", "set deadline"
	Addr string // remote address, when connected
	Err  error  // underlying error
}

func (e *IOError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Errno returns the platform error code behind the failure, if any.
func (e *IOError) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// SSHError represents an SSH gateway failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "channel"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// WrapIO creates an IOError.  Peer close is reported as
// [ErrConnectionClosed] while keeping the cause in the chain: io.EOF
// from a socket, or io.ErrClosedPipe from an in-process pipe whose far
// end has gone away.
func WrapIO(op, addr string, err error) *IOError {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		err = fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
	return &IOError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsWouldBlock reports whether err means "no progress before the per-call
// timeout" rather than a failure.
func IsWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsRetryable reports whether re-running connection establishment may
// succeed.  Exhausted candidates are retryable (the broker may come
// back); a name that does not exist, rejected gateway credentials, and
// cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, context.Canceled) {
		return false
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return true
	}
	var re *ResolveError
	if errors.As(err, &re) {
		var dnsErr *net.DNSError
		if errors.As(re.Err, &dnsErr) {
			return !dnsErr.IsNotFound
		}
		return false
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
