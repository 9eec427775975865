package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const defaultConnectTimeout = 5 * time.Second

// PGConfig carries the connection knobs for the pgx-backed connector.
type PGConfig struct {
	ConnectTimeout time.Duration
	SSLMode        string

	// ProbeTable is the append-only table the write probe inserts into.
	ProbeTable string
}

// PGConnector opens one plain pgx connection per check. A pool would be
// wasted on a one-shot probe.
type PGConnector struct {
	cfg PGConfig
}

// NewPGConnector creates a connector, filling in defaults for unset fields
// (5s connect timeout, sslmode=disable, table "login").
func NewPGConnector(cfg PGConfig) *PGConnector {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.ProbeTable == "" {
		cfg.ProbeTable = "login"
	}
	return &PGConnector{cfg: cfg}
}

// Connect establishes a session with a bounded connect timeout. Credentials
// are set on the parsed config rather than interpolated into a DSN, so
// passwords may contain any character.
func (c *PGConnector) Connect(ctx context.Context, t Target) (Conn, error) {
	cfg, err := pgx.ParseConfig("sslmode=" + c.cfg.SSLMode)
	if err != nil {
		return nil, err
	}
	cfg.Host = t.Host
	cfg.Port = uint16(t.Port)
	cfg.Database = t.Database
	cfg.User = t.User
	cfg.Password = t.Password
	cfg.ConnectTimeout = c.cfg.ConnectTimeout

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgConn{conn: conn, table: c.cfg.ProbeTable}, nil
}

// pgConn adapts a *pgx.Conn to the Conn interface.
type pgConn struct {
	conn  *pgx.Conn
	table string
}

func (p *pgConn) IsStandby(ctx context.Context) (bool, error) {
	var standby bool
	if err := p.conn.QueryRow(ctx, "SELECT pg_is_in_recovery()").Scan(&standby); err != nil {
		return false, err
	}
	return standby, nil
}

// WriteProbe ensures the probe table exists, then inserts and commits one row
// holding the current server time. The create is idempotent, and the table
// has no keys or constraints, so concurrent invocations interleave freely —
// each one appends its own row.
func (p *pgConn) WriteProbe(ctx context.Context) (time.Time, error) {
	table := pgx.Identifier{p.table}.Sanitize()

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (login_time TIMESTAMP NOT NULL)", table)
	if _, err := p.conn.Exec(ctx, ddl); err != nil {
		return time.Time{}, err
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op once committed

	var inserted time.Time
	insert := fmt.Sprintf("INSERT INTO %s (login_time) VALUES (NOW()) RETURNING login_time", table)
	if err := tx.QueryRow(ctx, insert).Scan(&inserted); err != nil {
		return time.Time{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, err
	}
	return inserted, nil
}

func (p *pgConn) Close(ctx context.Context) error { return p.conn.Close(ctx) }
