package apitest

import "github.com/caarlos0/env/v11"

// Config 冒烟测试的运行参数，默认指向本地 docker 环境
type Config struct {
	BaseURL     string `env:"BATTLE_BASE_URL" envDefault:"http://localhost:8074"`
	UserID      string `env:"BATTLE_SMOKE_USER_ID"`
	CharacterID string `env:"BATTLE_SMOKE_CHARACTER_ID"`
	StageID     string `env:"BATTLE_SMOKE_STAGE_ID" envDefault:"meadow-1"`
}

func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
