// Package core is the orchestration layer.  It turns a Config into a
// ready-to-run probe session over a network.Connection.
//
// Architecture layers (bottom → top):
//
//	timer  →  network (+ tunnel)  →  core  →  cmd (CLI)
package core

import (
	"fmt"
	"time"

	"mqttnet/config"
	ncerr "mqttnet/internal/errors"
	"mqttnet/internal/metrics"
	"mqttnet/internal/retry"
	"mqttnet/network"
	"mqttnet/timer"
	"mqttnet/tunnel"
	"mqttnet/util"
)

// Build constructs the probe session for cfg.  cfg must already be
// validated.
func Build(cfg *config.Config, logger *util.Logger) (*ProbeMode, error) {
	family, err := network.ParseFamily(cfg.Family)
	if err != nil {
		return nil, fmt.Errorf("family: %w", err)
	}

	m := metrics.New()
	conn, err := network.New(
		&network.Params{Host: cfg.Host, Port: cfg.Port, Timeout: cfg.Timeout},
		network.WithResolver(&network.NetResolver{Family: family, NoDNS: cfg.NoDNS}),
		network.WithDialer(buildDialer(cfg, logger)),
		network.WithClock(timer.NewSystemClock(cfg.TickPeriod)),
		network.WithLogger(logger),
		network.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	return &ProbeMode{
		Conn:     conn,
		Backoff:  buildBackoff(cfg, logger),
		Payload:  cfg.PayloadBytes(),
		ReadSize: cfg.ReadSize,
		Metrics:  m,
		Logger:   logger,
	}, nil
}

// buildDialer picks plain TCP or the SSH gateway.
func buildDialer(cfg *config.Config, logger *util.Logger) network.Dialer {
	if cfg.TunnelEnabled {
		gw := tunnel.NewGateway(&tunnel.GatewayConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   config.DefaultSSHTimeout,
		}, logger)
		return tunnel.NewDialer(gw, logger)
	}

	return &network.TCPDialer{
		Timeout:     cfg.ConnectTimeout,
		SendBuffer:  cfg.SendBuffer,
		RecvBuffer:  cfg.RecvBuffer,
		UserTimeout: cfg.UserTimeout,
	}
}

// buildBackoff retries connect failures cfg.Retries times.
func buildBackoff(cfg *config.Config, logger *util.Logger) *retry.Backoff {
	if cfg.Retries == 0 {
		return retry.Once()
	}
	b := retry.DefaultBackoff()
	b.InitialDelay = cfg.RetryDelay
	b.MaxDelay = config.DefaultMaxRetryDelay
	b.MaxAttempts = cfg.Retries + 1
	b.Retryable = ncerr.IsRetryable
	b.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("attempt %d failed: %v (retrying in %v)", attempt, err, wait.Round(time.Millisecond))
	}
	return b
}
