package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/redis"
)

// BattleConfig 战斗服务配置
// 优先级：环境变量 > mqant 模块配置 > 默认值
type BattleConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    string `env:"BATTLE_HTTP_PORT" envDefault:"8074"`

	DatabaseURL string `env:"BATTLE_DATABASE_URL"`
	CatalogFile string `env:"BATTLE_CATALOG_FILE" envDefault:"./configs/battle/catalog.json"`

	Redis redis.Config `envPrefix:"REDIS_"`

	// JWTSecret 实时通道令牌签名密钥
	JWTSecret string `env:"BATTLE_JWT_SECRET"`

	TurnTimeout      time.Duration `env:"BATTLE_TURN_TIMEOUT" envDefault:"30s"`
	StateTTL         time.Duration `env:"BATTLE_STATE_TTL" envDefault:"1h"`
	FinishedStateTTL time.Duration `env:"BATTLE_FINISHED_STATE_TTL" envDefault:"5m"`
	TimeoutSweepSpec string        `env:"BATTLE_TIMEOUT_SWEEP" envDefault:"*/5 * * * * *"`
	PersistRetries   uint          `env:"BATTLE_PERSIST_RETRIES" envDefault:"3"`
	LockTTL          time.Duration `env:"BATTLE_LOCK_TTL" envDefault:"10s"`
	RareSpawnPercent float64       `env:"BATTLE_RARE_SPAWN_PERCENT" envDefault:"1"`
}

// Load 从环境变量加载配置，settings 为 mqant 模块配置中的可选覆盖项
func Load(settings map[string]interface{}) (*BattleConfig, error) {
	cfg := &BattleConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applySettings(cfg, settings)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySettings 仅在环境变量缺失时使用配置文件中的值
func applySettings(cfg *BattleConfig, settings map[string]interface{}) {
	if settings == nil {
		return
	}
	if cfg.DatabaseURL == "" {
		if v, ok := settings["database_url"].(string); ok {
			cfg.DatabaseURL = v
		}
	}
	if v, ok := settings["http_port"].(string); ok && v != "" && cfg.HTTPPort == "8074" {
		cfg.HTTPPort = v
	}
	if cfg.JWTSecret == "" {
		if v, ok := settings["jwt_secret"].(string); ok {
			cfg.JWTSecret = v
		}
	}
}

// Validate 校验配置
func (c *BattleConfig) Validate() error {
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("BATTLE_TURN_TIMEOUT 必须大于 0")
	}
	if c.StateTTL < c.TurnTimeout {
		return fmt.Errorf("BATTLE_STATE_TTL (%s) 不能小于回合超时 (%s)", c.StateTTL, c.TurnTimeout)
	}
	if c.PersistRetries == 0 {
		c.PersistRetries = 1
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("生产环境必须设置 BATTLE_JWT_SECRET")
	}
	return nil
}

// IsProduction 是否生产环境
func (c *BattleConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LogFields 用于启动日志的脱敏配置
func (c *BattleConfig) LogFields() map[string]any {
	return SanitizeConfigForLog(map[string]any{
		"environment":     c.Environment,
		"http_port":       c.HTTPPort,
		"database_url":    c.DatabaseURL,
		"catalog_file":    c.CatalogFile,
		"redis_addr":      fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port),
		"redis_password":  c.Redis.Password,
		"jwt_secret":      c.JWTSecret,
		"turn_timeout":    c.TurnTimeout.String(),
		"state_ttl":       c.StateTTL.String(),
		"persist_retries": c.PersistRetries,
	})
}

// SanitizeConfigForLog 清理配置中的敏感信息，用于日志输出
func SanitizeConfigForLog(config map[string]any) map[string]any {
	sanitized := make(map[string]any, len(config))
	for k, v := range config {
		if isSensitiveKey(k) {
			sanitized[k] = "***REDACTED***"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

// isSensitiveKey 判断是否是敏感配置项
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range []string{"password", "secret", "token", "database_url", "credential"} {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
