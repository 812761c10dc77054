package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// finalize 战斗进入终态：短 TTL 保存、移出进行中索引、回写宠物、归档战报、记录指标
// 只有保存失败会中断，其余步骤失败记录日志
func (s *BattleService) finalize(ctx context.Context, state *battle.BattleState, report *battle.TurnReport) error {
	if err := s.save(ctx, state); err != nil {
		return err
	}
	if err := s.states.ClearActive(ctx, state.BattleID); err != nil {
		s.logger.ErrorContext(ctx, "移除进行中战斗失败", log.String("battle_id", state.BattleID), log.Any("error", err))
	}

	s.persistRoster(ctx, state)

	if err := s.archiveReport(ctx, state); err != nil {
		var appErr *xerrors.AppError
		if errors.As(err, &appErr) {
			log.LogAppError(ctx, "归档战报失败", appErr)
		} else {
			s.logger.ErrorContext(ctx, "归档战报失败", log.String("battle_id", state.BattleID), log.Any("error", err))
		}
	}

	ended := s.opts.Now()
	if state.EndedAt != nil {
		ended = *state.EndedAt
	}
	s.metrics.RecordBattle(string(state.Phase), ended.Sub(state.StartedAt), s.opts.ServiceName)
	log.LogBattleEvent(ctx, "ended", state.BattleID, state.TurnNumber,
		log.String("result", string(state.Phase)),
		log.Bool("captured", report != nil && report.CapturedPet != nil),
	)
	return nil
}

// persistRoster 保存捕捉到的宠物并回写忠诚度变化
func (s *BattleService) persistRoster(ctx context.Context, state *battle.BattleState) {
	if s.roster == nil {
		return
	}
	for i := range state.Captured {
		pet := state.Captured[i]
		if err := s.roster.AddCompanion(ctx, &pet); err != nil {
			s.logger.ErrorContext(ctx, "保存捕捉宠物失败",
				log.String("battle_id", state.BattleID),
				log.String("companion_id", pet.ID),
				log.Any("error", err),
			)
		}
	}
	for id := range state.LoyaltyChanges {
		u, ok := state.Units[id]
		if !ok {
			continue
		}
		if err := s.roster.UpdateLoyalty(ctx, id, u.Loyalty); err != nil {
			s.logger.ErrorContext(ctx, "回写宠物忠诚度失败",
				log.String("battle_id", state.BattleID),
				log.String("companion_id", id),
				log.Any("error", err),
			)
		}
	}
}

// archiveReport 将终局写入战报表
func (s *BattleService) archiveReport(ctx context.Context, state *battle.BattleState) error {
	if s.reports == nil {
		return nil
	}

	report := &interfaces.BattleReport{
		BattleID:     state.BattleID,
		StageID:      state.StageID,
		ResultStatus: string(state.Phase),
		TurnCount:    state.TurnNumber,
		StartedAt:    state.StartedAt,
		EndedAt:      s.opts.Now(),
	}
	if state.EndedAt != nil {
		report.EndedAt = *state.EndedAt
	}

	var err error
	if report.Participants, err = json.Marshal(state.Participants); err != nil {
		return xerrors.Wrap(err, xerrors.CodeInvalidParams, "解析参与者失败")
	}
	if len(state.Captured) > 0 {
		if report.Captured, err = json.Marshal(state.Captured); err != nil {
			return xerrors.Wrap(err, xerrors.CodeInvalidParams, "解析捕捉结果失败")
		}
	}
	if r := state.Rewards; r != nil {
		report.Stars = r.Stars
		report.LootGold = int64(r.Gold)
		if report.ExpGains, err = json.Marshal(r.Exp); err != nil {
			return xerrors.Wrap(err, xerrors.CodeInvalidParams, "解析经验失败")
		}
		if report.LootItems, err = json.Marshal(r.Drops); err != nil {
			return xerrors.Wrap(err, xerrors.CodeInvalidParams, "解析掉落失败")
		}
	}
	if report.RawPayload, err = json.Marshal(state); err != nil {
		return xerrors.Wrap(err, xerrors.CodeInvalidParams, "序列化战斗状态失败")
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.reports.Create(archiveCtx, report); err != nil {
		return xerrors.NewDatabaseError("create_report", "battle_reports", err)
	}
	return nil
}
