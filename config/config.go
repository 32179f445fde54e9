// Package config defines the runtime configuration for an mqttnet
// probe and helpers for parsing gateway specifications.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	ncerr "mqttnet/internal/errors"
	"mqttnet/network"
	"mqttnet/util"
)

// Config holds every tuneable for a single probe session.  Field tags
// name the keys accepted in a YAML config file.
type Config struct {
	// ── Broker ───────────────────────────────────────────────────────
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`         // read/write budget
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // per candidate
	TickPeriod     time.Duration `yaml:"tick_period"`
	Family         string        `yaml:"family"`
	NoDNS          bool          `yaml:"no_dns"`

	// ── Socket options ───────────────────────────────────────────────
	SendBuffer  int           `yaml:"send_buffer"`
	RecvBuffer  int           `yaml:"recv_buffer"`
	UserTimeout time.Duration `yaml:"user_timeout"`

	// ── Session ──────────────────────────────────────────────────────
	Send       string        `yaml:"send"`
	Payload    []byte        `yaml:"-"`
	ReadSize   int           `yaml:"read_size"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string `yaml:"ssh_gateway"` // raw [user@]host[:port]
	TunnelEnabled  bool   `yaml:"-"`
	TunnelUser     string `yaml:"-"`
	TunnelHost     string `yaml:"-"`
	TunnelPort     int    `yaml:"-"`
	SSHKeyPath     string `yaml:"ssh_key"`
	SSHPassword    bool   `yaml:"ssh_password"` // true → prompt interactively
	UseSSHAgent    bool   `yaml:"ssh_agent"`
	StrictHostKey  bool   `yaml:"strict_hostkey"`
	KnownHostsPath string `yaml:"known_hosts"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int  `yaml:"verbose"`
	Stats   bool `yaml:"stats"`
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		TickPeriod:     DefaultTickPeriod,
		ReadSize:       DefaultReadSize,
		Retries:        DefaultRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

// ApplyTunnelSpec parses TunnelSpec into the Tunnel* fields.  A spec
// without a user falls back to defUser.
func (c *Config) ApplyTunnelSpec(defUser string) error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "ssh-gateway", Value: c.TunnelSpec,
			Message: err.Error(), Hint: "expected [user@]host[:port]"}
	}
	if user == "" {
		user = defUser
	}
	c.TunnelEnabled = true
	c.TunnelUser, c.TunnelHost, c.TunnelPort = user, host, port
	return nil
}

// ── Gateway-spec parser ──────────────────────────────────────────────

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222" or "ops@[2001:db8::1]:22".  Port
// defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	hostport := spec
	if i := strings.LastIndexByte(spec, '@'); i >= 0 {
		user, hostport = spec[:i], spec[i+1:]
		if user == "" {
			return "", "", 0, fmt.Errorf("empty user in %q", spec)
		}
	}

	host, port = hostport, DefaultSSHPort
	if h, p, serr := net.SplitHostPort(hostport); serr == nil {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid gateway port %q", p)
		}
		host = h
	} else if strings.Contains(hostport, ":") && !strings.Contains(hostport, "::") {
		return "", "", 0, fmt.Errorf("invalid gateway address %q", hostport)
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("gateway host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.  The
// returned error is a *errors.ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.Host == "":
		return &ncerr.ConfigError{Field: "host", Message: "broker host is required",
			Hint: "mqttnet [flags] <host> <port>"}
	case !util.ValidPort(c.Port):
		return &ncerr.ConfigError{Field: "port", Value: c.Port,
			Message: "must be 1-65535 or a service name"}
	case c.Timeout < 0:
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	case c.ConnectTimeout < 0:
		return &ncerr.ConfigError{Field: "connect-timeout", Value: c.ConnectTimeout,
			Message: "must not be negative"}
	case c.TickPeriod < time.Millisecond:
		return &ncerr.ConfigError{Field: "tick", Value: c.TickPeriod,
			Message: "must be at least 1ms"}
	case c.ReadSize < 1 || c.ReadSize > MaxReadSize:
		return &ncerr.ConfigError{Field: "read-size", Value: c.ReadSize,
			Message: fmt.Sprintf("must be between 1 and %d", MaxReadSize)}
	case c.Retries < 0:
		return &ncerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	case c.RetryDelay < 0:
		return &ncerr.ConfigError{Field: "retry-delay", Value: c.RetryDelay,
			Message: "must not be negative"}
	case c.SendBuffer < 0 || c.RecvBuffer < 0:
		return &ncerr.ConfigError{Field: "sndbuf/rcvbuf", Message: "must not be negative"}
	}

	if _, err := network.ParseFamily(c.Family); err != nil {
		return &ncerr.ConfigError{Field: "family", Value: c.Family, Message: err.Error(),
			Hint: "use -4, -6, or leave unset"}
	}
	if c.NoDNS && !isIPLiteral(c.Host) {
		return &ncerr.ConfigError{Field: "no-dns", Value: c.Host,
			Message: "host must be a numeric address when DNS is disabled"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ConfigError{Field: "ssh-gateway", Message: "gateway host is required"}
	}
	return nil
}

// PayloadBytes returns the bytes to send after connecting.
func (c *Config) PayloadBytes() []byte {
	if len(c.Payload) > 0 {
		return c.Payload
	}
	if c.Send != "" {
		return []byte(c.Send)
	}
	return nil
}

func isIPLiteral(host string) bool {
	return net.ParseIP(host) != nil
}
