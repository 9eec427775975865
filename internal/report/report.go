// Package report renders a health check outcome for the operator: a fixed
// human-readable console block, or a machine-readable JSON record when
// requested. The console format, Chinese labels included, matches the
// established operator tooling so existing log scrapes keep working.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"pgprobe/internal/health"
)

const timeLayout = "2006-01-02 15:04:05"

// NetworkRecord is the JSON view of the reachability sub-checks.
type NetworkRecord struct {
	IPReachable bool `json:"ip_reachable"`
	PortOpen    bool `json:"port_open"`
}

// Record is the structured view of one probe outcome. It backs both output
// formats.
type Record struct {
	IP            string        `json:"ip"`
	Port          int           `json:"port"`
	Status        string        `json:"status"`       // "success" | "failed"
	DBConnected   string        `json:"db_connected"` // "true" | "false" | "unknown"
	IsStandby     bool          `json:"is_standby"`
	NetworkStatus NetworkRecord `json:"network_status"`
	InsertedTime  string        `json:"inserted_time,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// New builds the record for a target and its check result.
func New(t health.Target, res health.Result) Record {
	rec := Record{
		IP:          t.Host,
		Port:        t.Port,
		Status:      "failed",
		DBConnected: res.Conn.String(),
		IsStandby:   res.Standby,
		NetworkStatus: NetworkRecord{
			IPReachable: res.Network.IPReachable,
			PortOpen:    res.Network.PortOpen,
		},
		Error: res.Err,
	}
	if res.Conn == health.ConnOK {
		rec.Status = "success"
	}
	if res.Conn == health.ConnOK && !res.Standby && !res.InsertedTime.IsZero() {
		rec.InsertedTime = res.InsertedTime.Format(timeLayout)
	}
	return rec
}

// Render writes the human-readable console block. The inserted-time line
// appears only after a successful primary write probe, the error line only
// when an error is set.
func (r Record) Render(w io.Writer) {
	fmt.Fprintln(w, "PostgreSQL IP、端口检查结果:")
	fmt.Fprintf(w, "IP地址: %s\n", r.IP)
	fmt.Fprintf(w, "端口: %d\n", r.Port)
	fmt.Fprintf(w, "数据库连接状态: %s\n", label(r.Status == "success", "成功", "失败"))
	fmt.Fprintf(w, "是否为备库: %s\n", label(r.IsStandby, "是", "否"))
	fmt.Fprintln(w, "网络状态:")
	fmt.Fprintf(w, "  IP可达: %s\n", label(r.NetworkStatus.IPReachable, "是", "否"))
	fmt.Fprintf(w, "  端口状态: %s\n", label(r.NetworkStatus.PortOpen, "开放", "否"))
	if r.InsertedTime != "" {
		fmt.Fprintf(w, "测试数据插入时间: %s\n", r.InsertedTime)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "错误信息: %s\n", r.Error)
	}
}

// RenderJSON writes the record as indented JSON.
func (r Record) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func label(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
