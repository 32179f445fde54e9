package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestResolveError(t *testing.T) {
	err := &ResolveError{Host: "broker.local", Port: "1883", Err: ErrNoCandidates}

	if got, want := err.Error(), "resolve broker.local:1883: no candidate addresses"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !stderrors.Is(err, ErrResolutionFailed) {
		t.Error("should match ErrResolutionFailed")
	}
	if !stderrors.Is(err, ErrNoCandidates) {
		t.Error("should unwrap to ErrNoCandidates")
	}
	if stderrors.Is(err, ErrConnectionFailed) {
		t.Error("must not match ErrConnectionFailed")
	}
}

func TestConnectError_Format(t *testing.T) {
	refused := fmt.Errorf("connection refused")
	tests := []struct {
		name string
		err  ConnectError
		want string
	}{
		{
			name: "no attempts",
			err:  ConnectError{Host: "h", Port: "1883"},
			want: "connect h:1883: connection failed",
		},
		{
			name: "single",
			err: ConnectError{Host: "h", Port: "1883", Attempts: []Attempt{
				{Addr: "10.0.0.1:1883", Err: refused},
			}},
			want: "connect h:1883: 10.0.0.1:1883: connection refused",
		},
		{
			name: "several",
			err: ConnectError{Host: "h", Port: "mqtt", Attempts: []Attempt{
				{Addr: "10.0.0.1:1883", Err: refused},
				{Addr: "[::1]:1883", Err: io.EOF},
			}},
			want: "connect h:mqtt: all 2 candidates failed: 10.0.0.1:1883: connection refused; [::1]:1883: EOF",
		},
		{
			name: "cancelled before any dial",
			err:  ConnectError{Host: "h", Port: "1883", Err: context.Canceled},
			want: "connect h:1883: context canceled",
		},
		{
			name: "cancelled after one dial",
			err: ConnectError{Host: "h", Port: "1883", Err: context.Canceled, Attempts: []Attempt{
				{Addr: "10.0.0.1:1883", Err: refused},
			}},
			want: "connect h:1883: 10.0.0.1:1883: connection refused (stopped: context canceled)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectError_Unwrap(t *testing.T) {
	err := &ConnectError{Host: "h", Port: "1", Attempts: []Attempt{
		{Addr: "a", Err: syscall.ECONNREFUSED},
		{Addr: "b", Err: io.EOF},
	}}
	if !stderrors.Is(err, ErrConnectionFailed) {
		t.Error("should match ErrConnectionFailed")
	}
	if !stderrors.Is(err, syscall.ECONNREFUSED) || !stderrors.Is(err, io.EOF) {
		t.Error("should unwrap to every attempt cause")
	}
	if stderrors.Is(err, ErrResolutionFailed) {
		t.Error("must not match ErrResolutionFailed")
	}
}

func TestWrapIO(t *testing.T) {
	err := WrapIO("write", "127.0.0.1:1883", syscall.ECONNRESET)

	if got, want := err.Error(), "write 127.0.0.1:1883: "+syscall.ECONNRESET.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	errno, ok := err.Errno()
	if !ok || errno != syscall.ECONNRESET {
		t.Errorf("Errno() = %v, %v; want ECONNRESET, true", errno, ok)
	}
}

func TestWrapIO_EOF(t *testing.T) {
	err := WrapIO("read", "", io.EOF)
	if !stderrors.Is(err, ErrConnectionClosed) {
		t.Error("EOF should be reported as ErrConnectionClosed")
	}
	if !stderrors.Is(err, io.EOF) {
		t.Error("io.EOF should stay in the chain")
	}
	if _, ok := err.Errno(); ok {
		t.Error("EOF carries no errno")
	}
}

func TestConnectError_UnwrapStopReason(t *testing.T) {
	err := &ConnectError{Host: "h", Port: "1", Err: context.DeadlineExceeded}
	if !stderrors.Is(err, ErrConnectionFailed) || !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("%v should match ErrConnectionFailed and its stop reason", err)
	}
}

func TestWrapIO_ClosedPipe(t *testing.T) {
	err := WrapIO("set deadline", "127.0.0.1:1883", io.ErrClosedPipe)
	if !stderrors.Is(err, ErrConnectionClosed) {
		t.Errorf("%v should be reported as ErrConnectionClosed", err)
	}
	if !stderrors.Is(err, io.ErrClosedPipe) {
		t.Error("io.ErrClosedPipe should stay in the chain")
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "timeout",
				Value:   "-1s",
				Message: "must not be negative",
				Hint:    "use 0 for an immediate timeout",
			},
			want: "config: --timeout=-1s: must not be negative\n  hint: use 0 for an immediate timeout",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "host",
				Message: "required",
			},
			want: "config: --host: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestIsWouldBlock(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", os.ErrDeadlineExceeded, true},
		{"wrapped deadline", &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, true},
		{"eagain", syscall.EAGAIN, true},
		{"reset", syscall.ECONNRESET, false},
		{"eof", io.EOF, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWouldBlock(tt.err); got != tt.want {
				t.Errorf("IsWouldBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connect", &ConnectError{Host: "h", Port: "1"}, true},
		{"wrapped connect", fmt.Errorf("dial: %w", &ConnectError{Host: "h", Port: "1"}), true},
		{"no such host", &ResolveError{Host: "h", Port: "1", Err: &net.DNSError{IsNotFound: true}}, false},
		{"dns timeout", &ResolveError{Host: "h", Port: "1", Err: &net.DNSError{IsTimeout: true}}, true},
		{"no candidates", &ResolveError{Host: "h", Port: "1", Err: ErrNoCandidates}, false},
		{"temporary op", &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{IsTemporary: true}}, true},
		{"plain error", fmt.Errorf("boom"), false},
		{"gateway auth", &ConnectError{Host: "h", Port: "1", Attempts: []Attempt{
			{Addr: "10.0.0.1:1", Err: WrapSSH("auth", "gw", 22, ErrAuthFailed)}}}, false},
		{"cancelled", &ConnectError{Host: "h", Port: "1", Attempts: []Attempt{
			{Addr: "10.0.0.1:1", Err: context.Canceled}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrResolutionFailed, ErrNoCandidates, ErrConnectionFailed,
		ErrNotConnected, ErrAlreadyConnected, ErrDestroyed,
		ErrConnectionClosed, ErrTunnelClosed, ErrAuthFailed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && stderrors.Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
