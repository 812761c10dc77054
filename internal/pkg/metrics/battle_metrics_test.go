package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBattleMetrics_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.BattleStarted("battle")
	m.BattleStarted("battle")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ActiveBattles.WithLabelValues("battle")))

	m.RecordBattle("victory", 42*time.Second, "battle")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveBattles.WithLabelValues("battle")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BattlesTotal.WithLabelValues("victory", "battle")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BattleDuration))
}

func TestBattleMetrics_TurnsAndActions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.RecordTurn("submit", 3*time.Millisecond, "battle")
	m.RecordTurn("timeout", time.Millisecond, "battle")
	m.RecordTurn("timeout", time.Millisecond, "battle")
	m.RecordAction("attack", "battle")
	m.RecordCapture("success", "battle")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsResolvedTotal.WithLabelValues("submit", "battle")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TurnsResolvedTotal.WithLabelValues("timeout", "battle")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionsTotal.WithLabelValues("attack", "battle")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CaptureAttemptsTotal.WithLabelValues("success", "battle")))
}

func TestBattleMetrics_EmptyServiceFallsBack(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.RecordAction("defend", "")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionsTotal.WithLabelValues("defend", GetServiceName())))
}

func TestStoreMetrics_Redis(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetricsWithRegistry("test", reg)

	m.RecordRedis("battle", "GET", "success", time.Millisecond)
	m.RecordRedis("battle", "GET", "miss", time.Millisecond)
	m.RecordRedis("", "EVAL", "error", time.Millisecond)
	m.RecordNatsPublish("battle", "battle.room", true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisCommands.WithLabelValues("battle", "GET", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisCommands.WithLabelValues("battle", "GET", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RedisCommands.WithLabelValues(GetServiceName(), "EVAL", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NatsPublished.WithLabelValues("battle", "battle.room", "success")))
}

func TestStoreMetrics_DBPoolStatsAreGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetricsWithRegistry("test", reg)

	m.RecordDBPool("battle", "postgres", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 10, InUse: 4, Idle: 6, WaitCount: 100, WaitDuration: time.Second})
	m.RecordDBPool("battle", "postgres", sql.DBStats{MaxOpenConnections: 25, OpenConnections: 10, InUse: 4, Idle: 6, WaitCount: 120, WaitDuration: 2 * time.Second})

	assert.Equal(t, float64(120), testutil.ToFloat64(m.DBWaitCount.WithLabelValues("battle", "postgres")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DBWaitDuration.WithLabelValues("battle", "postgres")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.DBConnections.WithLabelValues("battle", "postgres", "in_use")))
	assert.Equal(t, float64(25), testutil.ToFloat64(m.DBConnections.WithLabelValues("battle", "postgres", "max")))
}
