package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics 战斗存储与广播依赖的指标：Postgres 连接池、Redis、NATS
type StoreMetrics struct {
	DBConnections  *prometheus.GaugeVec
	DBWaitCount    *prometheus.GaugeVec
	DBWaitDuration *prometheus.GaugeVec

	RedisCommands *prometheus.CounterVec
	RedisLatency  *prometheus.HistogramVec

	NatsPublished *prometheus.CounterVec
}

// DefaultStoreMetrics 注册在默认 Registerer 上的实例
var DefaultStoreMetrics = NewStoreMetricsWithRegistry(Namespace, prometheus.DefaultRegisterer)

// RedisBuckets 单位：秒
var RedisBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

func NewStoreMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *StoreMetrics {
	f := promauto.With(registerer)
	return &StoreMetrics{
		DBConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db", Name: "connections",
			Help: "Database connections by state (open/in_use/idle/max)",
		}, []string{"service", "database", "state"}),
		DBWaitCount: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db", Name: "wait_count",
			Help: "Cumulative number of waits for a connection",
		}, []string{"service", "database"}),
		DBWaitDuration: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db", Name: "wait_duration_seconds",
			Help: "Cumulative time spent waiting for a connection",
		}, []string{"service", "database"}),
		RedisCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "redis", Name: "commands_total",
			Help: "Redis commands by name and outcome (success/miss/error)",
		}, []string{"service", "command", "outcome"}),
		RedisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "redis", Name: "command_duration_seconds",
			Help:    "Redis command latency",
			Buckets: RedisBuckets,
		}, []string{"service", "command"}),
		NatsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "nats", Name: "published_total",
			Help: "NATS publishes by subject prefix and result",
		}, []string{"service", "subject", "result"}),
	}
}

// RecordDBPool 连接池快照；sql.DBStats 的等待统计是累计值，直接 Set
func (m *StoreMetrics) RecordDBPool(service, database string, st sql.DBStats) {
	service = serviceOr(service)
	m.DBConnections.WithLabelValues(service, database, "open").Set(float64(st.OpenConnections))
	m.DBConnections.WithLabelValues(service, database, "in_use").Set(float64(st.InUse))
	m.DBConnections.WithLabelValues(service, database, "idle").Set(float64(st.Idle))
	m.DBConnections.WithLabelValues(service, database, "max").Set(float64(st.MaxOpenConnections))
	m.DBWaitCount.WithLabelValues(service, database).Set(float64(st.WaitCount))
	m.DBWaitDuration.WithLabelValues(service, database).Set(st.WaitDuration.Seconds())
}

// RecordRedis outcome 取 success / miss / error
func (m *StoreMetrics) RecordRedis(service, command, outcome string, d time.Duration) {
	service = serviceOr(service)
	m.RedisCommands.WithLabelValues(service, command, outcome).Inc()
	m.RedisLatency.WithLabelValues(service, command).Observe(d.Seconds())
}

func (m *StoreMetrics) RecordNatsPublish(service, subject string, ok bool) {
	m.NatsPublished.WithLabelValues(serviceOr(service), subject, resultLabel(ok)).Inc()
}
