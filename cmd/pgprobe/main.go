// Command pgprobe is a one-shot health probe for a single PostgreSQL
// instance. It runs three escalating checks — ICMP reachability, TCP port
// availability, and a database-level check that distinguishes primary from
// standby and write-probes a primary — then prints a report and exits.
//
// Usage:
//
//	pgprobe [flags] <user> <password> <dbname> <host> <port>
//
// Flags:
//
//	-config path   optional YAML settings file
//	-json          emit the result as JSON instead of the console report
//	-v             debug logging on stderr
//
// Exit codes: 0 the target is healthy (writable primary or connected
// standby), 1 usage error, 2 the health check failed or was inconclusive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"pgprobe/internal/config"
	"pgprobe/internal/health"
	"pgprobe/internal/netprobe"
	"pgprobe/internal/report"
)

const (
	exitOK        = 0
	exitUsage     = 1
	exitUnhealthy = 2
)

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	fs := flag.NewFlagSet("pgprobe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to optional pgprobe.yaml")
	jsonOut := fs.Bool("json", false, "emit JSON instead of the console report")
	verbose := fs.Bool("v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: pgprobe [flags] <user> <password> <dbname> <host> <port>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	target, ok := parseTarget(fs.Args())
	if !ok {
		fs.Usage()
		return exitUsage
	}

	cfg := loadConfig(*configPath)
	setupLogging(cfg.LogLevel, *verbose)

	checker := health.New(
		netprobe.New(netprobe.Config{
			PingTimeout: cfg.ParsedPingTimeout(),
			DialTimeout: cfg.ParsedDialTimeout(),
		}),
		health.NewPGConnector(health.PGConfig{
			ConnectTimeout: cfg.ParsedConnectTimeout(),
			SSLMode:        cfg.SSLMode,
			ProbeTable:     cfg.ProbeTable,
		}),
	)

	res := checker.Check(context.Background(), target)

	rec := report.New(target, res)
	if *jsonOut {
		if err := rec.RenderJSON(os.Stdout); err != nil {
			slog.Error("encoding result", "error", err)
			return exitUnhealthy
		}
	} else {
		rec.Render(os.Stdout)
	}

	if res.Healthy() {
		return exitOK
	}
	return exitUnhealthy
}

// parseTarget validates the five positional arguments:
// user password dbname host port.
func parseTarget(args []string) (health.Target, bool) {
	if len(args) != 5 {
		return health.Target{}, false
	}
	port, err := strconv.Atoi(args[4])
	if err != nil || port < 1 || port > 65535 {
		return health.Target{}, false
	}
	return health.Target{
		User:     args[0],
		Password: args[1],
		Database: args[2],
		Host:     args[3],
		Port:     port,
	}, true
}

// loadConfig falls back to defaults when no file is given or the file cannot
// be read; the probe itself must still run.
func loadConfig(path string) config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Warn("could not load config file, using defaults", "path", path, "error", err)
		return config.Default()
	}
	return cfg
}

// setupLogging routes structured logs to stderr so stdout stays reserved for
// the report.
func setupLogging(level string, verbose bool) {
	lvl := slog.LevelWarn
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
}
