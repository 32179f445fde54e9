package util

import (
	"fmt"
	"net"
	"strconv"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host, port string) string {
	return net.JoinHostPort(host, port)
}

// SplitAddr splits "host:port" into its parts.  The port is kept as
// text, so service names such as "mqtt" survive.
func SplitAddr(addr string) (host, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return host, port, nil
}

// ValidPort reports whether port is a decimal port in 1-65535 or a
// plausible service name.
func ValidPort(port string) bool {
	if port == "" {
		return false
	}
	if n, err := strconv.Atoi(port); err == nil {
		return n >= 1 && n <= 65535
	}
	for _, r := range port {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
