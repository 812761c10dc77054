package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BattleMetrics 战斗业务指标收集器
type BattleMetrics struct {
	// 进行中的战斗数
	ActiveBattles *prometheus.GaugeVec

	// 结束的战斗（按结果分组：victory/defeat/fled）
	BattlesTotal *prometheus.CounterVec

	// 战斗从开始到结束的耗时
	BattleDuration *prometheus.HistogramVec

	// 结算的回合数（按触发方式：submit/timeout/manual）
	TurnsResolvedTotal *prometheus.CounterVec

	// 单回合结算耗时
	TurnResolveDuration *prometheus.HistogramVec

	// 执行的行动（按行动类型）
	ActionsTotal *prometheus.CounterVec

	// 捕获尝试（按结果：success/failure/ineligible）
	CaptureAttemptsTotal *prometheus.CounterVec
}

// DefaultBattleMetrics 默认的战斗指标实例
var DefaultBattleMetrics *BattleMetrics

// BattleBuckets 战斗时长 buckets，单位：秒
// 回合制战斗通常持续数十秒到数分钟
var BattleBuckets = []float64{5, 15, 30, 60, 120, 300, 600, 1800}

// TurnBuckets 单回合结算耗时，单位：秒
var TurnBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1}

func init() {
	DefaultBattleMetrics = NewBattleMetricsWithRegistry(Namespace, prometheus.DefaultRegisterer)
}

// NewBattleMetricsWithRegistry 创建战斗指标收集器（使用自定义注册表）
func NewBattleMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BattleMetrics {
	factory := promauto.With(registerer)

	return &BattleMetrics{
		ActiveBattles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "active",
				Help:      "Number of battles currently in progress on this instance",
			},
			[]string{"service"},
		),
		BattlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "finished_total",
				Help:      "Total number of finished battles by result (victory/defeat/fled)",
			},
			[]string{"result", "service"},
		),
		BattleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "duration_seconds",
				Help:      "Battle duration in seconds",
				Buckets:   BattleBuckets,
			},
			[]string{"service"},
		),
		TurnsResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "turns_resolved_total",
				Help:      "Total number of resolved turns by trigger",
			},
			[]string{"trigger", "service"},
		),
		TurnResolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "turn_resolve_seconds",
				Help:      "Time spent resolving a single turn",
				Buckets:   TurnBuckets,
			},
			[]string{"service"},
		),
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "actions_total",
				Help:      "Total number of executed unit actions by action type",
			},
			[]string{"action", "service"},
		),
		CaptureAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "capture_attempts_total",
				Help:      "Total number of capture attempts by outcome",
			},
			[]string{"outcome", "service"},
		),
	}
}

// BattleStarted 战斗开始
func (m *BattleMetrics) BattleStarted(service string) {
	m.ActiveBattles.WithLabelValues(serviceOr(service)).Inc()
}

// RecordBattle 记录战斗结束
//
// 参数:
//   - result: 战斗结果 ("victory", "defeat", "fled")
//   - duration: 战斗耗时
func (m *BattleMetrics) RecordBattle(result string, duration time.Duration, service string) {
	service = serviceOr(service)
	m.ActiveBattles.WithLabelValues(service).Dec()
	m.BattlesTotal.WithLabelValues(result, service).Inc()
	m.BattleDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordTurn 记录一次回合结算
func (m *BattleMetrics) RecordTurn(trigger string, duration time.Duration, service string) {
	service = serviceOr(service)
	m.TurnsResolvedTotal.WithLabelValues(trigger, service).Inc()
	m.TurnResolveDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordAction 记录执行的行动
func (m *BattleMetrics) RecordAction(action, service string) {
	m.ActionsTotal.WithLabelValues(action, serviceOr(service)).Inc()
}

// RecordCapture 记录捕获尝试
func (m *BattleMetrics) RecordCapture(outcome, service string) {
	m.CaptureAttemptsTotal.WithLabelValues(outcome, serviceOr(service)).Inc()
}
