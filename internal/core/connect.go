package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"mqttnet/internal/metrics"
	"mqttnet/internal/retry"
	"mqttnet/network"
	"mqttnet/util"
)

// ProbeMode connects to the broker, sends an optional payload with one
// bounded write, then drains the stream with bounded reads until the
// broker stays idle for a whole read timeout or closes.
type ProbeMode struct {
	Conn     *network.Connection
	Backoff  *retry.Backoff
	Payload  []byte
	ReadSize int
	Metrics  *metrics.Collector
	Logger   *util.Logger

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *ProbeMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run executes the probe.  The Connection is destroyed when Run
// returns.
func (m *ProbeMode) Run(ctx context.Context) error {
	defer func() {
		if err := m.Conn.Destroy(); err != nil {
			m.Logger.Error("teardown: %v", err)
		}
	}()

	p := m.Conn.Params()
	m.Logger.Verbose("connecting to %s", util.FormatAddr(p.Host, p.Port))

	backoff := m.Backoff
	if backoff == nil {
		backoff = retry.Once()
	}
	if err := backoff.Do(ctx, func(int) error { return m.Conn.Connect(ctx) }); err != nil {
		return err
	}
	if remote, ok := m.Conn.Remote(); ok {
		m.Logger.Info("connected to %s", remote)
	}

	if len(m.Payload) > 0 {
		n, err := m.Conn.WriteDefault(m.Payload)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if n < len(m.Payload) {
			m.Logger.Warn("short write: %d of %d bytes sent before timeout", n, len(m.Payload))
		} else {
			m.Logger.Verbose("sent %d bytes", n)
		}
	}

	if err := m.drain(ctx); err != nil {
		return err
	}
	return nil
}

// drain copies bounded reads to stdout until a read makes no progress.
func (m *ProbeMode) drain(ctx context.Context) error {
	bp := util.GetBuf()
	defer util.PutBuf(bp)

	size := m.ReadSize
	if size <= 0 || size > len(*bp) {
		size = len(*bp)
	}
	buf := (*bp)[:size]
	out := m.stdout()

	for ctx.Err() == nil {
		n, err := m.Conn.ReadDefault(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("stdout: %w", werr)
			}
		}
		switch {
		case errors.Is(err, network.ErrConnectionClosed):
			m.Logger.Verbose("broker closed the connection")
			return nil
		case err != nil:
			return fmt.Errorf("receive: %w", err)
		case n == 0:
			m.Logger.Verbose("no data for %v, done", m.Conn.Params().Timeout)
			return nil
		}
	}
	return ctx.Err()
}
