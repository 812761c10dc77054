package service

import (
	"database/sql"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/config"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"
	pkgredis "github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/redis"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/impl"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// ServiceContainer 战斗服务容器 - 统一创建 Repository 和 Service
type ServiceContainer struct {
	stateRepo    interfaces.BattleStateRepository
	templateRepo interfaces.TemplateRepository
	rosterRepo   interfaces.RosterRepository
	reportRepo   interfaces.BattleReportRepository

	BattleService *BattleService
}

// NewServiceContainer 创建服务容器
// templates 为空时使用 Postgres 模板表
func NewServiceContainer(db *sql.DB, redisClient *pkgredis.Client, templates interfaces.TemplateRepository, cfg *config.BattleConfig, logger log.Logger) *ServiceContainer {
	c := &ServiceContainer{}

	c.stateRepo = impl.NewBattleStateRepository(redisClient, cfg.PersistRetries)
	c.templateRepo = templates
	if c.templateRepo == nil {
		c.templateRepo = impl.NewTemplateRepository(db)
	}
	c.rosterRepo = impl.NewRosterRepository(db)
	c.reportRepo = impl.NewBattleReportRepository(db)

	c.BattleService = NewBattleService(Dependencies{
		States:    c.stateRepo,
		Templates: c.templateRepo,
		Roster:    c.rosterRepo,
		Reports:   c.reportRepo,
		Logger:    logger,
		Metrics:   metrics.DefaultBattleMetrics,
	}, Options{
		TurnTimeout:      cfg.TurnTimeout,
		StateTTL:         cfg.StateTTL,
		FinishedStateTTL: cfg.FinishedStateTTL,
		LockTTL:          cfg.LockTTL,
		RarePercent:      cfg.RareSpawnPercent,
		ServiceName:      metrics.GetServiceName(),
	})
	return c
}

// Templates 模板仓储
func (c *ServiceContainer) Templates() interfaces.TemplateRepository {
	return c.templateRepo
}

// States 战斗状态仓储
func (c *ServiceContainer) States() interfaces.BattleStateRepository {
	return c.stateRepo
}
