package battle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/liangdas/mqant/conf"
	"github.com/liangdas/mqant/module"
	basemodule "github.com/liangdas/mqant/module/base"
	"github.com/liangdas/mqant/server"
	_ "github.com/lib/pq"

	custommiddleware "github.com/LEE00-KR/uglynos-v1-sub000/internal/middleware"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/handler"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/realtime"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/tasks"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/auth"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/config"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/i18n"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/notify"
	pkgredis "github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/redis"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/validator"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/impl"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

const maxOpenConns = 25

type BattleModule struct {
	basemodule.BaseModule
	cfg              *config.BattleConfig
	db               *sql.DB
	redis            *pkgredis.Client
	httpServer       *echo.Echo
	serviceContainer *service.ServiceContainer
	hub              *realtime.Hub
	tokens           *auth.TokenManager
	battleHandler    *handler.BattleHandler
	wsHandler        *handler.WSHandler
	battleRPCHandler *handler.BattleRPCHandler
	turnTimeoutTask  *tasks.TurnTimeoutTask
	respWriter       response.Writer
	stopMonitor      chan struct{}
}

// GetType returns module type
func (m *BattleModule) GetType() string {
	return "battle"
}

// Version returns module version
func (m *BattleModule) Version() string {
	return "1.0.0"
}

// OnAppConfigurationLoaded 当App初始化时调用
func (m *BattleModule) OnAppConfigurationLoaded(app module.App) {
	m.BaseModule.OnAppConfigurationLoaded(app)
}

// OnInit module initialization
func (m *BattleModule) OnInit(app module.App, settings *conf.ModuleSettings) {
	metrics.SetServiceName("battle")
	// TTL = 30s, 心跳间隔 = 15s
	m.BaseModule.OnInit(m, app, settings,
		server.RegisterInterval(15*time.Second),
		server.RegisterTTL(30*time.Second),
	)

	// 1. 加载配置
	if err := m.loadConfig(settings); err != nil {
		panic(fmt.Sprintf("Failed to load battle config: %v", err))
	}

	// 2. 数据库（角色/宠物/模板/战报）
	if err := m.initDatabase(); err != nil {
		panic(fmt.Sprintf("Failed to initialize database: %v", err))
	}

	// 3. Redis（战斗状态与回合锁）
	if err := m.initRedis(); err != nil {
		panic(fmt.Sprintf("Failed to initialize Redis: %v", err))
	}

	// 4. Response writer
	m.initResponseWriter()

	// 5. HTTP server
	m.initHTTPServer()

	// 6. Services / Handlers / 实时通道
	if err := m.initServicesAndHandlers(); err != nil {
		panic(fmt.Sprintf("Failed to initialize services: %v", err))
	}

	// 7. Routes
	m.setupRoutes()

	// 8. RPC methods
	m.setupRPCMethods()

	// 9. Cron tasks
	if err := m.startCronTasks(); err != nil {
		panic(fmt.Sprintf("Failed to start cron tasks: %v", err))
	}

	// 10. HTTP server in background
	go m.startHTTPServer()

	m.GetServer().Options()
}

func (m *BattleModule) loadConfig(settings *conf.ModuleSettings) error {
	var raw map[string]interface{}
	if settings != nil {
		raw = settings.Settings
	}
	cfg, err := config.Load(raw)
	if err != nil {
		return err
	}
	m.cfg = cfg

	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	log.Init(level, cfg.Environment)
	log.Info("[Battle Module] 配置已加载", log.Any("config", cfg.LogFields()))
	return nil
}

// initDatabase initializes database connection
func (m *BattleModule) initDatabase() error {
	if m.cfg.DatabaseURL == "" {
		return fmt.Errorf("BATTLE_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.db = db
	fmt.Println("[Battle Module] Database initialized successfully")

	m.stopMonitor = make(chan struct{})
	go m.startDBPoolMonitoring(db)
	return nil
}

// initRedis initializes Redis client for battle state
func (m *BattleModule) initRedis() error {
	client, err := pkgredis.NewClient(m.cfg.Redis, metrics.GetServiceName())
	if err != nil {
		return err
	}
	m.redis = client
	fmt.Printf("[Battle Module] Redis initialized (%s:%d)\n", m.cfg.Redis.Host, m.cfg.Redis.Port)
	return nil
}

func (m *BattleModule) initResponseWriter() {
	m.respWriter = response.NewResponseHandler(log.GetLogger(), m.cfg.Environment)
	fmt.Println("[Battle Module] Response writer initialized")
}

// initHTTPServer initializes HTTP server
func (m *BattleModule) initHTTPServer() {
	m.httpServer = echo.New()
	m.httpServer.HideBanner = true
	m.httpServer.HidePort = true
	m.httpServer.Validator = validator.New()

	logger := log.GetLogger()

	// ========== 中间件配置（顺序很重要！） ==========
	m.httpServer.Use(trace.Middleware())
	m.httpServer.Use(metrics.Middleware())
	m.httpServer.Use(i18n.Middleware())

	loggingConfig := custommiddleware.DefaultLoggingConfig()
	if !m.cfg.IsProduction() {
		loggingConfig.DetailedLog = true
		loggingConfig.LogRequestBody = true
	}
	m.httpServer.Use(custommiddleware.LoggingMiddlewareWithConfig(logger, loggingConfig))
	m.httpServer.Use(custommiddleware.RecoveryMiddleware(m.respWriter, logger))
	m.httpServer.Use(custommiddleware.ErrorMiddleware(m.respWriter, logger))
	m.httpServer.Use(middleware.CORS())

	fmt.Println("[Battle Module] HTTP middlewares configured:")
	fmt.Println("  ✓ TraceID")
	fmt.Println("  ✓ Metrics")
	fmt.Println("  ✓ i18n")
	fmt.Println("  ✓ Logging")
	fmt.Println("  ✓ Recovery")
	fmt.Println("  ✓ Error")
	fmt.Println("  ✓ CORS")
}

func (m *BattleModule) initServicesAndHandlers() error {
	logger := log.GetLogger()

	// 配置了模板文件时优先使用文件，否则读 Postgres 模板表
	var templates interfaces.TemplateRepository
	if m.cfg.CatalogFile != "" {
		repo, err := impl.NewFileTemplateRepository(m.cfg.CatalogFile)
		if err != nil {
			return err
		}
		templates = repo
		fmt.Printf("[Battle Module] Templates loaded from %s\n", m.cfg.CatalogFile)
	}

	m.serviceContainer = service.NewServiceContainer(m.db, m.redis, templates, m.cfg, logger)

	m.hub = realtime.NewHub(logger)
	if err := m.hub.Start(); err != nil {
		return fmt.Errorf("start realtime hub: %w", err)
	}
	m.serviceContainer.BattleService.SetBroadcaster(m.hub)
	if notify.Healthy() {
		fmt.Println("[Battle Module] Realtime hub relaying via NATS")
	} else {
		fmt.Println("[Battle Module] Realtime hub running in local mode (NATS unavailable)")
	}

	if m.cfg.JWTSecret != "" {
		m.tokens = auth.NewTokenManager(m.cfg.JWTSecret, 0)
	} else {
		fmt.Println("[Battle Module] BATTLE_JWT_SECRET not set, bearer tokens and /ws/battle disabled")
	}

	m.battleHandler = handler.NewBattleHandler(m.serviceContainer.BattleService, m.respWriter)
	m.wsHandler = handler.NewWSHandler(m.serviceContainer.BattleService, m.hub, m.tokens, m.respWriter, logger)
	m.battleRPCHandler = handler.NewBattleRPCHandler(m.serviceContainer.BattleService)

	fmt.Println("[Battle Module] Handlers initialized successfully")
	return nil
}

// startCronTasks 启动定时任务
func (m *BattleModule) startCronTasks() error {
	m.turnTimeoutTask = tasks.NewTurnTimeoutTask(m.serviceContainer.BattleService, m.cfg.TimeoutSweepSpec, log.GetLogger())
	if err := m.turnTimeoutTask.Start(); err != nil {
		return err
	}
	fmt.Println("[Battle Module] Cron tasks started successfully:")
	fmt.Printf("  ✓ Turn Timeout Task (%s)\n", m.cfg.TimeoutSweepSpec)
	return nil
}

func (m *BattleModule) setupRoutes() {
	logger := log.GetLogger()

	m.httpServer.GET("/health", m.health)
	m.httpServer.GET("/metrics", metrics.EchoHandler())
	m.httpServer.GET("/ws/battle", m.wsHandler.Handle)

	v1 := m.httpServer.Group("/api/v1/battle")
	v1.Use(custommiddleware.AuthMiddleware(m.respWriter, logger, m.tokens))
	{
		v1.POST("/battles", m.battleHandler.StartBattle)
		v1.GET("/battles/:battle_id", m.battleHandler.GetBattle)
		v1.POST("/battles/:battle_id/actions", m.battleHandler.SubmitActions)
		v1.POST("/battles/:battle_id/resolve", m.battleHandler.ResolveTurn)
		v1.POST("/battles/:battle_id/flee", m.battleHandler.Flee)
	}

	fmt.Println("[Battle Module] Routes configured successfully")
	fmt.Println("[Battle Module] Battle API routes: /api/v1/battle/*")
	fmt.Printf("[Battle Module] Realtime endpoint: ws://localhost:%s/ws/battle\n", m.cfg.HTTPPort)
	fmt.Printf("[Battle Module] Prometheus metrics available at http://localhost:%s/metrics\n", m.cfg.HTTPPort)
}

// health 依赖探活：数据库与 Redis 必须可用，NATS 仅作报告
func (m *BattleModule) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"service": "battle", "nats": "down"}
	code := http.StatusOK
	if err := m.db.PingContext(ctx); err != nil {
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	} else {
		status["database"] = "up"
	}
	if err := m.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "down"
		code = http.StatusServiceUnavailable
	} else {
		status["redis"] = "up"
	}
	if notify.Healthy() {
		status["nats"] = "up"
	}
	return c.JSON(code, status)
}

func (m *BattleModule) startHTTPServer() {
	fmt.Printf("[Battle Module] Starting HTTP server on port %s\n", m.cfg.HTTPPort)
	if err := m.httpServer.Start(":" + m.cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[Battle Module] HTTP server error: %v\n", err)
	}
}

// Run module run
func (m *BattleModule) Run(closeSig chan bool) {
	fmt.Println("[Battle Module] Started successfully")
	<-closeSig
}

// OnDestroy module destroy
func (m *BattleModule) OnDestroy() {
	if m.turnTimeoutTask != nil {
		m.turnTimeoutTask.Stop()
		fmt.Println("[Battle Module] Cron tasks stopped")
	}

	if m.httpServer != nil {
		if err := m.httpServer.Close(); err != nil {
			fmt.Printf("[Battle Module] Failed to close HTTP server: %v\n", err)
		} else {
			fmt.Println("[Battle Module] HTTP server closed")
		}
	}

	if m.hub != nil {
		m.hub.Stop()
		fmt.Println("[Battle Module] Realtime hub stopped")
	}

	if m.stopMonitor != nil {
		close(m.stopMonitor)
	}

	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			fmt.Printf("[Battle Module] Failed to close Redis: %v\n", err)
		}
	}

	if m.db != nil {
		if err := m.db.Close(); err != nil {
			fmt.Printf("[Battle Module] Failed to close database: %v\n", err)
		} else {
			fmt.Println("[Battle Module] Database connection closed")
		}
	}

	m.BaseModule.OnDestroy()
	fmt.Println("[Battle Module] Destroyed")
}

// Module creates Battle module instance
func Module() module.Module {
	return new(BattleModule)
}

// startDBPoolMonitoring 每 30 秒报告一次连接池统计信息到 Prometheus
func (m *BattleModule) startDBPoolMonitoring(db *sql.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopMonitor:
			return
		case <-ticker.C:
		}
		metrics.DefaultStoreMetrics.RecordDBPool(metrics.GetServiceName(), "postgres", db.Stats())
	}
}

// setupRPCMethods 注册 RPC 方法，供其他模块查询战斗
func (m *BattleModule) setupRPCMethods() {
	m.GetServer().RegisterGO("GetBattleState", m.battleRPCHandler.GetBattleState)
	m.GetServer().RegisterGO("ListActiveBattles", m.battleRPCHandler.ListActiveBattles)

	fmt.Println("[Battle Module] RPC methods registered:")
	fmt.Println("  ✓ GetBattleState - 查询战斗状态")
	fmt.Println("  ✓ ListActiveBattles - 进行中战斗列表")
}
