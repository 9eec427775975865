// Package netprobe performs the cheap network-level checks that gate the
// database probe: one ICMP echo via the OS ping binary and one TCP connect.
// Absence of connectivity is a value, not a fault — every failure mode
// (non-zero exit, timeout, missing binary, DNS error, malformed host) is
// reported as false, and no error ever reaches the caller.
package netprobe

import (
	"context"
	"log/slog"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

const defaultTimeout = 5 * time.Second

// NetworkStatus is the outcome of one reachability probe. Both fields are
// always measured; the caller decides which one to branch on first.
type NetworkStatus struct {
	IPReachable bool
	PortOpen    bool
}

// Config holds the per-check timeouts and the ping executable override.
type Config struct {
	PingTimeout time.Duration
	DialTimeout time.Duration

	// PingBinary is the executable used for the ICMP check. Defaults to
	// "ping"; tests substitute a stub.
	PingBinary string
}

// Prober issues ICMP and TCP probes against a single host:port target.
type Prober struct {
	cfg Config
}

// New creates a Prober, filling in 5s defaults for unset timeouts.
func New(cfg Config) *Prober {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = defaultTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultTimeout
	}
	if cfg.PingBinary == "" {
		cfg.PingBinary = "ping"
	}
	return &Prober{cfg: cfg}
}

// Probe measures ICMP and TCP reachability of host:port. Both sub-checks run
// regardless of each other's outcome, with exactly one echo sent and one
// connection attempted.
func (p *Prober) Probe(ctx context.Context, host string, port int) NetworkStatus {
	status := NetworkStatus{
		IPReachable: p.ping(ctx, host),
		PortOpen:    p.dial(host, port),
	}
	slog.Debug("network probe",
		"host", host,
		"port", port,
		"ip_reachable", status.IPReachable,
		"port_open", status.PortOpen,
	)
	return status
}

// ping sends a single ICMP echo through the system ping binary and waits up
// to the configured timeout. Running the OS binary avoids the raw-socket
// privileges an in-process ICMP implementation would need.
func (p *Prober) ping(ctx context.Context, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PingTimeout)
	defer cancel()

	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}

	cmd := exec.CommandContext(ctx, p.cfg.PingBinary, countFlag, "1", host)
	return cmd.Run() == nil
}

// dial opens one TCP connection to host:port and closes it immediately.
func (p *Prober) dial(host string, port int) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, p.cfg.DialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
