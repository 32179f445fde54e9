package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultPort is the IANA port for MQTT over TCP.
	DefaultPort = "1883"

	// DefaultTimeout bounds each read or write of the probe session.
	DefaultTimeout = 5 * time.Second

	// DefaultConnectTimeout bounds each candidate's TCP connect.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultTickPeriod is the resolution of the tick clock behind
	// every timeout.
	DefaultTickPeriod = 10 * time.Millisecond

	// DefaultReadSize is the buffer handed to each bounded read.
	DefaultReadSize = 4096

	// MaxReadSize caps ReadSize at the pooled buffer size.
	MaxReadSize = 32 * 1024

	// DefaultRetries is how many extra connect attempts follow a
	// failed establishment.
	DefaultRetries = 0

	// DefaultRetryDelay is the first backoff delay between connect
	// attempts.
	DefaultRetryDelay = time.Second

	// DefaultMaxRetryDelay caps the exponential backoff.
	DefaultMaxRetryDelay = 30 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHTimeout bounds the gateway dial and handshake.
	DefaultSSHTimeout = 30 * time.Second
)
