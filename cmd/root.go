// Package cmd wires up the CLI flags and runs the probe session.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"mqttnet/config"
	"mqttnet/internal/core"
	"mqttnet/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X mqttnet/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Streams are the process's standard streams.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute parses args and runs a probe against the broker they name.
func Execute(ctx context.Context, args []string) error {
	return Run(ctx, args, Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr})
}

// Run is Execute with explicit streams.
func Run(ctx context.Context, args []string, std Streams) error {
	// Defaults < config file < environment < flags.
	cfg := config.Default()
	if path := configPath(args); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("mqttnet", flag.ContinueOnError)
	fs.SetOutput(std.Stderr)

	// ── broker ───────────────────────────────────────────────────
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Budget for each read and write")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "Per-address connect timeout")
	fs.DurationVar(&cfg.TickPeriod, "tick", cfg.TickPeriod, "Tick clock resolution")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")
	var only4, only6 bool
	fs.BoolVarP(&only4, "ipv4", "4", false, "Use IPv4 addresses only")
	fs.BoolVarP(&only6, "ipv6", "6", false, "Use IPv6 addresses only")

	// ── socket ───────────────────────────────────────────────────
	fs.IntVar(&cfg.SendBuffer, "sndbuf", cfg.SendBuffer, "SO_SNDBUF in bytes (0 = system default)")
	fs.IntVar(&cfg.RecvBuffer, "rcvbuf", cfg.RecvBuffer, "SO_RCVBUF in bytes (0 = system default)")
	fs.DurationVar(&cfg.UserTimeout, "user-timeout", cfg.UserTimeout, "TCP_USER_TIMEOUT (Linux)")

	// ── session ──────────────────────────────────────────────────
	fs.StringVarP(&cfg.Send, "send", "s", cfg.Send, "Payload to send after connecting (default: piped stdin)")
	fs.IntVar(&cfg.ReadSize, "read-size", cfg.ReadSize, "Bytes requested by each bounded read")
	fs.IntVarP(&cfg.Retries, "retries", "r", cfg.Retries, "Extra connect attempts after a failure")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Initial delay between connect attempts")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "ssh-gateway", "T", cfg.TunnelSpec, "Reach the broker via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print connection metrics as JSON on exit")

	var showVersion, showHelp, dryRun bool
	var cfgFile string
	fs.StringVar(&cfgFile, "config", "", "YAML config file")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate and print the effective config, then exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(std.Stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(std.Stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(std.Stdout, "mqttnet %s\n", version)
		return nil
	}

	switch {
	case only4 && only6:
		return fmt.Errorf("-4 and -6 are mutually exclusive")
	case only4:
		cfg.Family = "ipv4"
	case only6:
		cfg.Family = "ipv6"
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	if err := cfg.ApplyTunnelSpec(currentUser()); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = std.Stdout.Write(out)
		return err
	}

	// ── payload ──────────────────────────────────────────────────
	if cfg.Send == "" && std.Stdin != nil && !isTerminal(std.Stdin) {
		payload, err := io.ReadAll(std.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		cfg.Payload = payload
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(std.Stderr)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	mode.Stdout = std.Stdout

	runErr := mode.Run(ctx)
	if cfg.Stats {
		fmt.Fprintln(std.Stderr, mode.Metrics.JSON())
	}
	return runErr
}

// ── helpers ──────────────────────────────────────────────────────────

// configPath finds --config before the full flag set exists, so the
// file can seed the flag defaults.
func configPath(args []string) string {
	pre := flag.NewFlagSet("mqttnet", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	pre.ParseErrorsWhitelist.UnknownFlags = true
	path := pre.String("config", "", "")
	pre.BoolP("help", "h", false, "")
	_ = pre.Parse(args)
	return *path
}

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		if cfg.Host == "" {
			return fmt.Errorf("broker host required (use --help for usage)")
		}
	case 1:
		// "host:port" or a bare host.
		if host, port, err := util.SplitAddr(remaining[0]); err == nil {
			cfg.Host, cfg.Port = host, port
		} else {
			cfg.Host = remaining[0]
		}
	case 2:
		cfg.Host, cfg.Port = remaining[0], remaining[1]
	default:
		return fmt.Errorf("too many arguments: expected <host> [port]")
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `mqttnet v%s

Probe an MQTT broker over a bounded-timeout TCP connection.

Usage:
  mqttnet [options] <host> [port]              Connect (port defaults to 1883)
  mqttnet [options] <host:port>                Same, joined
  mqttnet -T user@gateway <host> [port]        Connect through an SSH gateway

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  mqttnet broker.example.com                   Connect and print what the broker sends
  mqttnet -s $'\xc0\x00' -w 2s 10.0.0.5 1883   Send a PINGREQ, wait 2s per read
  printf '\x10...' | mqttnet broker mqtt       Pipe a CONNECT packet
  mqttnet -T ops@bastion -r 3 broker 1883      Via SSH, retrying 3 times
`)
}
