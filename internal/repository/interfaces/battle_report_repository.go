package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// BattleReport 战斗结束后归档的战报
type BattleReport struct {
	BattleID     string          // 战斗 ID
	StageID      string          // 关卡
	ResultStatus string          // victory/defeat/fled
	TurnCount    int             // 结束时的回合数
	Stars        int             // 星级评价
	LootGold     int64           // 奖励金币
	LootItems    json.RawMessage // 掉落 JSON
	ExpGains     json.RawMessage // 每个参与者获得的经验
	Participants json.RawMessage // 参与者 JSON
	Captured     json.RawMessage // 捕捉到的宠物
	RawPayload   json.RawMessage // 结束时的完整状态
	StartedAt    time.Time
	EndedAt      time.Time
}

// BattleReportRepository 负责战报的持久化。
type BattleReportRepository interface {
	Create(ctx context.Context, report *BattleReport) error
}
