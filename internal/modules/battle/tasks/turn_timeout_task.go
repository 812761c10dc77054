package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
)

// DefaultSweepSpec 每 5 秒扫描一次（秒级 cron 表达式）
const DefaultSweepSpec = "*/5 * * * * *"

// TimeoutResolver 超时扫描依赖的战斗操作
type TimeoutResolver interface {
	ListActive(ctx context.Context) ([]string, error)
	ResolveIfExpired(ctx context.Context, battleID string, now time.Time) (*battle.TurnReport, bool, error)
}

// TurnTimeoutTask 回合超时扫描任务
// 对进行中战斗逐个检查，超时的回合以等待补齐后结算
type TurnTimeoutTask struct {
	battles TimeoutResolver
	spec    string
	logger  log.Logger
	cron    *cron.Cron
	now     func() time.Time
}

// NewTurnTimeoutTask 创建回合超时扫描任务
func NewTurnTimeoutTask(battles TimeoutResolver, spec string, logger log.Logger) *TurnTimeoutTask {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &TurnTimeoutTask{
		battles: battles,
		spec:    spec,
		logger:  logger,
		now:     time.Now,
	}
}

// Start 启动定时任务
func (t *TurnTimeoutTask) Start() error {
	// 上一轮未结束时跳过本轮
	t.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	_, err := t.cron.AddFunc(t.spec, func() {
		t.Sweep(context.Background())
	})
	if err != nil {
		t.logger.Error("【定时任务】添加回合超时扫描任务失败", err, log.String("spec", t.spec))
		return err
	}

	t.cron.Start()
	t.logger.Info("【定时任务】已启动 - 回合超时扫描", log.String("spec", t.spec))
	return nil
}

// Sweep 执行一轮扫描，返回被结算的战斗数
func (t *TurnTimeoutTask) Sweep(ctx context.Context) int {
	ctx = trace.EnsureTraceID(ctx)
	ids, err := t.battles.ListActive(ctx)
	if err != nil {
		t.logger.Error("【定时任务】读取进行中战斗失败", err)
		return 0
	}

	now := t.now()
	resolved := 0
	for _, id := range ids {
		report, expired, err := t.battles.ResolveIfExpired(ctx, id, now)
		if err != nil {
			// 锁被占用说明有请求正在结算，下一轮再看
			t.logger.Warn("【定时任务】超时结算失败", log.String("battle_id", id), log.Any("error", err))
			continue
		}
		if !expired {
			continue
		}
		resolved++
		if report != nil && report.BattleEnded {
			t.logger.Info("【定时任务】超时回合结算后战斗结束",
				log.String("battle_id", id),
				log.String("result", string(report.Result)),
			)
		}
	}

	if resolved > 0 {
		t.logger.Info("【定时任务】回合超时扫描完成", log.Int("active", len(ids)), log.Int("resolved", resolved))
	}
	return resolved
}

// Stop 停止定时任务（优雅关闭）
func (t *TurnTimeoutTask) Stop() {
	if t.cron != nil {
		t.logger.Info("【定时任务】正在停止回合超时扫描...")
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【定时任务】回合超时扫描已停止")
	}
}
