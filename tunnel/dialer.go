package tunnel

import (
	"context"
	"io"
	"net"
	"sync"

	"mqttnet/network"
	"mqttnet/util"
)

// Dialer opens broker candidates through a [Tunnel].  The tunnel is
// connected lazily on the first dial and reconnected if it drops
// between dials.
type Dialer struct {
	tunnel Tunnel
	logger *util.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDialer returns a Dialer over t.
func NewDialer(t Tunnel, logger *util.Logger) *Dialer {
	return &Dialer{tunnel: t, logger: logger}
}

// DialCandidate implements network.Dialer.
func (d *Dialer) DialCandidate(ctx context.Context, c network.Candidate) (network.Stream, error) {
	if err := d.ensure(ctx); err != nil {
		return nil, err
	}

	remote, err := d.tunnel.Dial(ctx, "tcp", c.String())
	if err != nil {
		return nil, err
	}

	local, far := net.Pipe()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		in, out := bridgeConns(far, remote)
		d.logger.Debug("tunnel: %s closed (%d bytes in, %d bytes out)", c, in, out)
	}()
	return local, nil
}

func (d *Dialer) ensure(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return network.ErrDestroyed
	}
	if d.tunnel.IsAlive() {
		return nil
	}
	return d.tunnel.Connect(ctx)
}

// Close tears down the tunnel and waits for open bridges to drain.
func (d *Dialer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := d.tunnel.Close()
	d.wg.Wait()
	return err
}

// bridgeConns copies between the pipe end and the tunnelled conn until
// either side closes, then closes both.  It returns the bytes delivered
// to the pipe (in) and sent to the tunnel (out).
func bridgeConns(pipe, remote net.Conn) (in, out int64) {
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			pipe.Close()
			remote.Close()
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		out, _ = io.Copy(remote, pipe)
		closeBoth()
	}()

	go func() {
		defer wg.Done()
		in, _ = io.Copy(pipe, remote)
		closeBoth()
	}()

	wg.Wait()
	return in, out
}
