// Package health implements the layered health check for a single PostgreSQL
// instance: network reachability gate, connection, primary/standby role
// query, and a write-verification probe on primaries.
//
// The check is an ordered sequence of fallible stages; the first failure
// terminates it with a stage-specific outcome. No error ever escapes Check —
// every failure is folded into the Result, so a misbehaving target can only
// ever produce a report, never a crash.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pgprobe/internal/netprobe"
)

// netProber is the reachability gate consulted before any database work.
type netProber interface {
	Probe(ctx context.Context, host string, port int) netprobe.NetworkStatus
}

// Conn is one established database session. Implementations must tolerate
// Close after a failed operation.
type Conn interface {
	// IsStandby reports whether the instance is currently in recovery,
	// i.e. replicating from a primary.
	IsStandby(ctx context.Context) (bool, error)

	// WriteProbe ensures the probe table exists, inserts one row holding
	// the current server time, commits, and returns the inserted timestamp.
	WriteProbe(ctx context.Context) (time.Time, error)

	Close(ctx context.Context) error
}

// Connector opens database sessions for the checker.
type Connector interface {
	Connect(ctx context.Context, t Target) (Conn, error)
}

// Checker runs the full check sequence against one target. It performs no
// retries and probes exactly one target per Check call.
type Checker struct {
	prober    netProber
	connector Connector
}

// New creates a Checker from a reachability prober and a database connector.
func New(prober netProber, connector Connector) *Checker {
	return &Checker{prober: prober, connector: connector}
}

// Check executes the state machine: network gate, connect, role query, then
// the standby / write-probe branch. The connection is released on every path
// past a successful connect.
func (c *Checker) Check(ctx context.Context, t Target) Result {
	res := Result{Conn: ConnUnknown}

	// The prober measures both sub-checks, but the gate branches on ICMP
	// reachability first.
	res.Network = c.prober.Probe(ctx, t.Host, t.Port)
	if !res.Network.IPReachable {
		res.Err = fmt.Sprintf("IP地址 %s 不可达", t.Host)
		return res
	}
	if !res.Network.PortOpen {
		res.Err = fmt.Sprintf("端口 %d 未开放", t.Port)
		return res
	}

	conn, err := c.connector.Connect(ctx, t)
	if err != nil {
		res.Conn = ConnFailed
		res.Err = fmt.Sprintf("PostgreSQL连接失败: %v", err)
		return res
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			slog.Debug("closing connection", "host", t.Host, "error", cerr)
		}
	}()

	standby, err := conn.IsStandby(ctx)
	if err != nil {
		if isServerError(err) {
			res.Conn = ConnFailed
			res.Err = fmt.Sprintf("PostgreSQL连接失败: %v", err)
		} else {
			res.Err = fmt.Sprintf("发生未知错误: %v", err)
		}
		return res
	}

	if standby {
		// Standbys are read-only; a write probe would be rejected or
		// meaningless. Reaching the role query is proof enough.
		res.Conn = ConnOK
		res.Standby = true
		slog.Debug("standby instance, skipping write probe", "host", t.Host)
		return res
	}

	inserted, err := conn.WriteProbe(ctx)
	if err != nil {
		if isServerError(err) {
			res.Conn = ConnFailed
			res.Err = fmt.Sprintf("无法插入数据，请手动检查数据库状态: %v", err)
		} else {
			res.Err = fmt.Sprintf("发生未知错误: %v", err)
		}
		return res
	}

	res.Conn = ConnOK
	res.InsertedTime = inserted
	return res
}

// isServerError reports whether err is a PostgreSQL protocol-level error, as
// opposed to an unrelated runtime failure. Server errors mean the database
// was reached and answered; anything else leaves the check inconclusive.
func isServerError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
