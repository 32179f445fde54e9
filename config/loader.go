package config

// loader.go - configuration loading from files and environment
// variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables
//   3. YAML config file
//   4. Defaults   (defaults.go)

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML document at path onto cfg.  Keys absent
// from the file leave cfg untouched; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the MQTTNET_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("750ms") or whole seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed values override the existing value.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MQTTNET_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("MQTTNET_PORT"); v != "" {
		cfg.Port = v
	}
	if v, ok := envDuration("MQTTNET_TIMEOUT"); ok {
		cfg.Timeout = v
	}
	if v, ok := envDuration("MQTTNET_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = v
	}
	if v, ok := envDuration("MQTTNET_TICK"); ok {
		cfg.TickPeriod = v
	}
	if v := os.Getenv("MQTTNET_FAMILY"); v != "" {
		cfg.Family = v
	}
	if envBool("MQTTNET_NO_DNS") {
		cfg.NoDNS = true
	}

	// Session
	if v := os.Getenv("MQTTNET_SEND"); v != "" {
		cfg.Send = v
	}
	if v := envInt("MQTTNET_READ_SIZE"); v > 0 {
		cfg.ReadSize = v
	}
	if v := envInt("MQTTNET_RETRIES"); v > 0 {
		cfg.Retries = v
	}
	if v, ok := envDuration("MQTTNET_RETRY_DELAY"); ok {
		cfg.RetryDelay = v
	}

	// SSH gateway
	if v := os.Getenv("MQTTNET_SSH_GATEWAY"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("MQTTNET_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("MQTTNET_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("MQTTNET_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("MQTTNET_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("MQTTNET_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("MQTTNET_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("MQTTNET_STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if sec, err := strconv.Atoi(v); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
