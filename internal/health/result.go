package health

import (
	"time"

	"pgprobe/internal/netprobe"
)

// ConnState is the tri-state outcome of the database stage of a check.
// ConnUnknown means the connection was never attempted (the network gate
// failed) or an unclassified error occurred; ConnFailed means an attempt was
// made and proven broken. Inconclusive and proven-broken drive different
// operator responses, so this is a real enumeration rather than a nullable
// bool.
type ConnState int

const (
	ConnUnknown ConnState = iota
	ConnFailed
	ConnOK
)

func (s ConnState) String() string {
	switch s {
	case ConnOK:
		return "true"
	case ConnFailed:
		return "false"
	default:
		return "unknown"
	}
}

// Target identifies the single database instance under test.
type Target struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Result is the outcome of one layered health check. Exactly one terminal
// state holds: short-circuited on the network gate, connected standby,
// connected primary with a successful or failed write probe, connection
// failure, or an unknown error.
type Result struct {
	Network netprobe.NetworkStatus

	Conn ConnState

	// Standby is meaningful only when Conn is ConnOK.
	Standby bool

	// InsertedTime is the server-reported timestamp of the probe row. Zero
	// unless a primary write probe succeeded.
	InsertedTime time.Time

	// Err holds the first failure encountered; empty on success.
	Err string
}

// Healthy reports whether the target passed the full check: a writable
// primary or a connected standby.
func (r Result) Healthy() bool { return r.Conn == ConnOK }
