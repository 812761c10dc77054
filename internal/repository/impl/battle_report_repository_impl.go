package impl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// 同一场战斗重复归档时覆盖结果列，started_at 保持首次写入的值
const upsertBattleReport = `
INSERT INTO game_runtime.battle_reports (
	battle_id, stage_id, result_status, turn_count, stars,
	loot_gold, loot_items, exp_gains, participants, captured,
	raw_payload, started_at, ended_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (battle_id) DO UPDATE SET
	result_status = EXCLUDED.result_status,
	turn_count    = EXCLUDED.turn_count,
	stars         = EXCLUDED.stars,
	loot_gold     = EXCLUDED.loot_gold,
	loot_items    = EXCLUDED.loot_items,
	exp_gains     = EXCLUDED.exp_gains,
	participants  = EXCLUDED.participants,
	captured      = EXCLUDED.captured,
	raw_payload   = EXCLUDED.raw_payload,
	ended_at      = EXCLUDED.ended_at,
	updated_at    = NOW()`

type battleReportRepositoryImpl struct {
	db *sql.DB
}

func NewBattleReportRepository(db *sql.DB) interfaces.BattleReportRepository {
	return &battleReportRepositoryImpl{db: db}
}

func (r *battleReportRepositoryImpl) Create(ctx context.Context, report *interfaces.BattleReport) error {
	if report == nil {
		return errors.New("battle report is nil")
	}
	if _, err := r.db.ExecContext(ctx, upsertBattleReport, reportArgs(report)...); err != nil {
		return fmt.Errorf("写入战报 %s 失败: %w", report.BattleID, err)
	}
	return nil
}

func reportArgs(rp *interfaces.BattleReport) []any {
	return []any{
		rp.BattleID,
		null.NewString(rp.StageID, rp.StageID != ""),
		rp.ResultStatus,
		rp.TurnCount,
		rp.Stars,
		rp.LootGold,
		jsonColumn(rp.LootItems),
		jsonColumn(rp.ExpGains),
		jsonColumn(rp.Participants),
		jsonColumn(rp.Captured),
		jsonColumn(rp.RawPayload),
		rp.StartedAt,
		rp.EndedAt,
	}
}

// jsonColumn 空内容写 NULL 而不是空字节
func jsonColumn(raw []byte) null.JSON {
	return null.NewJSON(raw, len(raw) > 0)
}
