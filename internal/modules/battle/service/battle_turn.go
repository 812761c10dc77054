package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// SubmitAction 提交单个行动
func (s *BattleService) SubmitAction(ctx context.Context, controllerID, battleID string, action battle.BattleAction) (*SubmitResult, error) {
	return s.SubmitActions(ctx, controllerID, battleID, []battle.BattleAction{action})
}

// SubmitActions 批量提交行动：全部校验通过才写入，同一单位后写覆盖
func (s *BattleService) SubmitActions(ctx context.Context, controllerID, battleID string, actions []battle.BattleAction) (*SubmitResult, error) {
	ctx = log.WithBattle(ctx, battleID)
	if len(actions) == 0 {
		return nil, xerrors.NewValidationError("actions", "至少提交一个行动")
	}

	var result *SubmitResult
	err := s.withBattle(ctx, battleID, func(state *battle.BattleState) error {
		if !state.IsParticipant(controllerID) {
			return xerrors.NewNotParticipantError(battleID, controllerID)
		}
		if state.Phase.IsTerminal() {
			return xerrors.NewBattleEndedError(battleID, string(state.Phase))
		}
		for _, a := range actions {
			if err := s.validateAction(ctx, state, controllerID, a); err != nil {
				return err
			}
		}

		for _, a := range actions {
			state.UpsertAction(a)
		}
		if err := s.save(ctx, state); err != nil {
			return err
		}
		result = submitResultOf(state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitAndResolve 提交行动，所有单位就绪后立即结算本回合
// 并发提交时另一方已结算则返回 nil 战报
func (s *BattleService) SubmitAndResolve(ctx context.Context, controllerID, battleID string, actions []battle.BattleAction) (*SubmitResult, *battle.TurnReport, error) {
	result, err := s.SubmitActions(ctx, controllerID, battleID, actions)
	if err != nil {
		return nil, nil, err
	}
	if !result.AllSubmitted {
		return result, nil, nil
	}

	report, err := s.resolve(ctx, battleID, result.TurnNumber, triggerSubmit)
	if xerrors.HasCode(err, xerrors.CodeBattleTurnResolved) || xerrors.HasCode(err, xerrors.CodeBattleAlreadyEnded) {
		return result, nil, nil
	}
	if err != nil {
		return result, nil, err
	}
	return result, report, nil
}

// validateAction 提交时的同步校验，失败不修改状态
func (s *BattleService) validateAction(ctx context.Context, state *battle.BattleState, controllerID string, a battle.BattleAction) error {
	if !a.Type.Valid() {
		return xerrors.NewInvalidActionError(a.ActorID, fmt.Sprintf("未知的行动类型 %q", a.Type))
	}
	actor, ok := state.Unit(a.ActorID)
	if !ok {
		return xerrors.NewInvalidActionError(a.ActorID, "单位不存在")
	}
	if actor.IsOpponent() || actor.OwnerID != controllerID {
		return xerrors.NewNotOwnerError(state.BattleID, a.ActorID)
	}
	if !actor.IsAlive {
		return xerrors.NewInvalidActionError(a.ActorID, "单位已倒下")
	}
	if a.TargetID != "" {
		if _, ok := state.Unit(a.TargetID); !ok {
			return xerrors.NewInvalidActionError(a.ActorID, "目标不存在")
		}
	}

	switch a.Type {
	case battle.ActionSkill:
		if a.SkillID == "" || !actor.HasSkill(a.SkillID) {
			return xerrors.NewInvalidActionError(a.ActorID, "未掌握该技能")
		}
	case battle.ActionCapture:
		if actor.Type != battle.UnitCharacter {
			return xerrors.NewInvalidActionError(a.ActorID, "只有角色可以捕捉")
		}
		target, ok := state.Unit(a.TargetID)
		if !ok || !target.IsOpponent() {
			return xerrors.NewInvalidActionError(a.ActorID, "捕捉目标必须是敌方单位")
		}
		if a.ItemID != "" {
			if _, err := s.templates.GetCaptureItem(ctx, a.ItemID); err != nil {
				if errors.Is(err, interfaces.ErrTemplateNotFound) {
					return xerrors.NewInvalidActionError(a.ActorID, "捕捉道具不存在")
				}
				return xerrors.NewDatabaseError("get_capture_item", "capture_items", err)
			}
		}
	}
	return nil
}

// ResolveTurn 结算 expectedTurn 指定的回合，与当前回合不一致视为已结算
func (s *BattleService) ResolveTurn(ctx context.Context, battleID string, expectedTurn int) (*battle.TurnReport, error) {
	if expectedTurn < 1 {
		return nil, xerrors.NewValidationError("expected_turn", "必须指定要结算的回合")
	}
	return s.resolve(ctx, battleID, expectedTurn, triggerManual)
}

// ResolveIfExpired 回合超时则以等待补齐未提交的行动并结算，供超时扫描调用
func (s *BattleService) ResolveIfExpired(ctx context.Context, battleID string, now time.Time) (*battle.TurnReport, bool, error) {
	ctx = log.WithBattle(ctx, battleID)
	var (
		report  *battle.TurnReport
		expired bool
	)
	err := s.withBattle(ctx, battleID, func(state *battle.BattleState) error {
		if state.Phase.IsTerminal() {
			if err := s.states.ClearActive(ctx, battleID); err != nil {
				return xerrors.NewCacheError("clear_active", err)
			}
			return nil
		}
		if !state.TurnExpired(now) {
			return nil
		}
		expired = true
		var err error
		report, err = s.resolveLocked(ctx, state, triggerTimeout)
		return err
	})
	if xerrors.HasCode(err, xerrors.CodeBattleNotFound) {
		// 状态已过期，索引残留
		if clearErr := s.states.ClearActive(ctx, battleID); clearErr != nil {
			return nil, false, xerrors.NewCacheError("clear_active", clearErr)
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if report != nil {
		s.publish(ctx, report)
	}
	return report, expired, nil
}

// AttemptFlee 立即尝试逃跑，成功则战斗结束且没有奖励
func (s *BattleService) AttemptFlee(ctx context.Context, controllerID, battleID, actorID string) (*FleeResult, error) {
	ctx = log.WithBattle(ctx, battleID)
	var report *battle.TurnReport
	var phase battle.Phase
	err := s.withBattle(ctx, battleID, func(state *battle.BattleState) error {
		if !state.IsParticipant(controllerID) {
			return xerrors.NewNotParticipantError(battleID, controllerID)
		}
		if state.Phase.IsTerminal() {
			return xerrors.NewBattleEndedError(battleID, string(state.Phase))
		}
		if err := s.validateAction(ctx, state, controllerID, battle.BattleAction{ActorID: actorID, Type: battle.ActionFlee}); err != nil {
			return err
		}

		var err error
		report, err = battle.AttemptFlee(ctx, state, actorID, battle.ResolveEnv{
			Rand:  s.opts.Rand,
			Now:   s.opts.Now(),
			NewID: s.opts.NewID,
		})
		if err != nil {
			return xerrors.NewWithError(xerrors.CodeInternalError, "逃跑结算失败", err)
		}
		s.metrics.RecordAction(string(battle.ActionFlee), s.opts.ServiceName)
		phase = state.Phase

		if state.Phase.IsTerminal() {
			return s.finalize(ctx, state, report)
		}
		return s.save(ctx, state)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, report)
	result := &FleeResult{Phase: phase, Report: report, Success: phase == battle.PhaseFled}
	if len(report.Actions) > 0 {
		result.Chance = report.Actions[0].FleeChance
	}
	return result, nil
}

func (s *BattleService) resolve(ctx context.Context, battleID string, expectedTurn int, trigger string) (*battle.TurnReport, error) {
	ctx = log.WithBattle(ctx, battleID)
	var report *battle.TurnReport
	err := s.withBattle(ctx, battleID, func(state *battle.BattleState) error {
		if state.Phase.IsTerminal() {
			return xerrors.NewBattleEndedError(battleID, string(state.Phase))
		}
		if expectedTurn != state.TurnNumber {
			return xerrors.NewTurnResolvedError(battleID, expectedTurn, state.TurnNumber)
		}
		var err error
		report, err = s.resolveLocked(ctx, state, trigger)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, report)
	return report, nil
}

// resolveLocked 持锁状态下结算一回合并保存
func (s *BattleService) resolveLocked(ctx context.Context, state *battle.BattleState, trigger string) (*battle.TurnReport, error) {
	start := time.Now()

	catalog, err := s.buildCatalog(ctx, state)
	if err != nil {
		return nil, err
	}
	stage, err := s.templates.GetStage(ctx, state.StageID)
	if err != nil {
		if errors.Is(err, interfaces.ErrTemplateNotFound) {
			return nil, xerrors.NewStageNotFoundError(state.StageID)
		}
		return nil, xerrors.NewDatabaseError("get_stage", "battle_stages", err)
	}

	report, err := battle.ResolveTurn(ctx, state, battle.ResolveEnv{
		Rand:    s.opts.Rand,
		Now:     s.opts.Now(),
		Catalog: catalog,
		Stage:   stage,
		NewID:   s.opts.NewID,
	})
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeInternalError, "回合结算失败", err)
	}
	s.recordActions(report)

	if state.Phase.IsTerminal() {
		err = s.finalize(ctx, state, report)
	} else {
		err = s.save(ctx, state)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTurn(trigger, time.Since(start), s.opts.ServiceName)
	log.LogBattleEvent(ctx, "turn_resolved", state.BattleID, report.TurnNumber,
		log.String("trigger", trigger),
		log.Int("actions", len(report.Actions)),
		log.Int("defeated", len(report.DefeatedUnits)),
		log.Elapsed("duration", start),
	)
	return report, nil
}

// buildCatalog 预先加载本回合可能用到的技能、捕捉道具和种族模板
func (s *BattleService) buildCatalog(ctx context.Context, state *battle.BattleState) (*battle.StaticCatalog, error) {
	catalog := battle.NewStaticCatalog()

	skillIDs := map[string]struct{}{}
	for _, u := range state.Units {
		for _, id := range u.SkillIDs {
			skillIDs[id] = struct{}{}
		}
		if u.IsOpponent() && u.TemplateID != "" {
			if _, ok := catalog.SpeciesByID[u.TemplateID]; ok {
				continue
			}
			species, err := s.templates.GetSpecies(ctx, u.TemplateID)
			if err == nil {
				catalog.SpeciesByID[u.TemplateID] = species
			} else if !errors.Is(err, interfaces.ErrTemplateNotFound) {
				return nil, xerrors.NewDatabaseError("get_species", "battle_species", err)
			}
		}
	}

	for _, a := range state.PendingActions {
		if a.SkillID != "" {
			skillIDs[a.SkillID] = struct{}{}
		}
		if a.ItemID == "" {
			continue
		}
		if _, ok := catalog.CaptureItems[a.ItemID]; ok {
			continue
		}
		item, err := s.templates.GetCaptureItem(ctx, a.ItemID)
		if err == nil {
			catalog.CaptureItems[a.ItemID] = item
		} else if !errors.Is(err, interfaces.ErrTemplateNotFound) {
			return nil, xerrors.NewDatabaseError("get_capture_item", "capture_items", err)
		}
	}

	for id := range skillIDs {
		skill, err := s.templates.GetSkill(ctx, id)
		if errors.Is(err, interfaces.ErrTemplateNotFound) {
			s.logger.WarnContext(ctx, "技能模板不存在", log.String("skill_id", id), log.String("battle_id", state.BattleID))
			continue
		}
		if err != nil {
			return nil, xerrors.NewDatabaseError("get_skill", "battle_skills", err)
		}
		catalog.Skills[id] = skill
	}
	return catalog, nil
}

func (s *BattleService) recordActions(report *battle.TurnReport) {
	for _, a := range report.Actions {
		s.metrics.RecordAction(string(a.Action), s.opts.ServiceName)
		if a.Action != battle.ActionCapture {
			continue
		}
		switch a.Outcome {
		case battle.OutcomeCaptured:
			s.metrics.RecordCapture("success", s.opts.ServiceName)
		case battle.OutcomeCaptureFailed:
			if a.CatchRate > 0 {
				s.metrics.RecordCapture("failure", s.opts.ServiceName)
			} else {
				s.metrics.RecordCapture("ineligible", s.opts.ServiceName)
			}
		default:
			s.metrics.RecordCapture("ineligible", s.opts.ServiceName)
		}
	}
}

// publish 推送回合结果，战斗结束时追加 battle:ended
func (s *BattleService) publish(ctx context.Context, report *battle.TurnReport) {
	if report == nil {
		return
	}
	s.broadcaster.Broadcast(ctx, report.BattleID, EventTurnResult, report)
	if report.BattleEnded {
		s.broadcaster.Broadcast(ctx, report.BattleID, EventBattleEnded, EndedPayload{
			BattleID: report.BattleID,
			Result:   report.Result,
			Rewards:  report.Rewards,
		})
	}
}
