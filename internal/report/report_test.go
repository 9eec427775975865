package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgprobe/internal/health"
	"pgprobe/internal/netprobe"
	"pgprobe/internal/report"
)

var target = health.Target{Host: "192.0.2.1", Port: 5432, Database: "postgres", User: "probe"}

func render(t *testing.T, rec report.Record) string {
	t.Helper()
	var sb strings.Builder
	rec.Render(&sb)
	return sb.String()
}

func TestRender_UnreachableHost(t *testing.T) {
	res := health.Result{
		Network: netprobe.NetworkStatus{IPReachable: false, PortOpen: false},
		Conn:    health.ConnUnknown,
		Err:     "IP地址 192.0.2.1 不可达",
	}
	out := render(t, report.New(target, res))

	assert.Contains(t, out, "PostgreSQL IP、端口检查结果:")
	assert.Contains(t, out, "IP地址: 192.0.2.1")
	assert.Contains(t, out, "端口: 5432")
	assert.Contains(t, out, "数据库连接状态: 失败")
	assert.Contains(t, out, "IP可达: 否")
	assert.Contains(t, out, "端口状态: 否")
	assert.Contains(t, out, "错误信息: IP地址 192.0.2.1 不可达")
	assert.NotContains(t, out, "测试数据插入时间", "no insert line without a successful write probe")
}

func TestRender_PrimaryWriteSuccess(t *testing.T) {
	res := health.Result{
		Network:      netprobe.NetworkStatus{IPReachable: true, PortOpen: true},
		Conn:         health.ConnOK,
		InsertedTime: time.Date(2026, 8, 27, 10, 30, 15, 0, time.UTC),
	}
	out := render(t, report.New(target, res))

	assert.Contains(t, out, "数据库连接状态: 成功")
	assert.Contains(t, out, "是否为备库: 否")
	assert.Contains(t, out, "IP可达: 是")
	assert.Contains(t, out, "端口状态: 开放")
	assert.Contains(t, out, "测试数据插入时间: 2026-08-27 10:30:15")
	assert.NotContains(t, out, "错误信息")
}

func TestRender_Standby(t *testing.T) {
	res := health.Result{
		Network: netprobe.NetworkStatus{IPReachable: true, PortOpen: true},
		Conn:    health.ConnOK,
		Standby: true,
	}
	out := render(t, report.New(target, res))

	assert.Contains(t, out, "数据库连接状态: 成功")
	assert.Contains(t, out, "是否为备库: 是")
	assert.NotContains(t, out, "测试数据插入时间", "standbys never carry an inserted timestamp")
}

func TestRender_ConnFailed_PrintsFailure(t *testing.T) {
	res := health.Result{
		Network: netprobe.NetworkStatus{IPReachable: true, PortOpen: true},
		Conn:    health.ConnFailed,
		Err:     "PostgreSQL连接失败: password authentication failed",
	}
	out := render(t, report.New(target, res))

	assert.Contains(t, out, "数据库连接状态: 失败")
	assert.Contains(t, out, "错误信息: PostgreSQL连接失败")
}

func TestNew_TriStateDistinguishesFailedFromUnknown(t *testing.T) {
	failed := report.New(target, health.Result{Conn: health.ConnFailed})
	unknown := report.New(target, health.Result{Conn: health.ConnUnknown})

	// Both print 失败 on the console, but the structured record keeps the
	// proven-broken / inconclusive distinction.
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "failed", unknown.Status)
	assert.Equal(t, "false", failed.DBConnected)
	assert.Equal(t, "unknown", unknown.DBConnected)
}

func TestRenderJSON_Shape(t *testing.T) {
	res := health.Result{
		Network:      netprobe.NetworkStatus{IPReachable: true, PortOpen: true},
		Conn:         health.ConnOK,
		InsertedTime: time.Date(2026, 8, 27, 10, 30, 15, 0, time.UTC),
	}

	var sb strings.Builder
	require.NoError(t, report.New(target, res).RenderJSON(&sb))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &decoded))

	assert.Equal(t, "192.0.2.1", decoded["ip"])
	assert.Equal(t, float64(5432), decoded["port"])
	assert.Equal(t, "success", decoded["status"])
	assert.Equal(t, "true", decoded["db_connected"])
	assert.Equal(t, false, decoded["is_standby"])
	assert.Equal(t, "2026-08-27 10:30:15", decoded["inserted_time"])

	network, ok := decoded["network_status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, network["ip_reachable"])
	assert.Equal(t, true, network["port_open"])

	_, hasErr := decoded["error"]
	assert.False(t, hasErr, "error key should be omitted when empty")
}
