package service

import (
	"sort"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
)

// BattleView 返回给客户端的战斗视图
type BattleView struct {
	BattleID     string                `json:"battleId"`
	StageID      string                `json:"stageId"`
	Phase        battle.Phase          `json:"phase"`
	TurnNumber   int                   `json:"turnNumber"`
	TurnOrder    []string              `json:"turnOrder"`
	Units        []*battle.BattleUnit  `json:"units"`
	Participants []string              `json:"participants"`
	Submitted    []string              `json:"submitted"`
	TurnDeadline time.Time             `json:"turnDeadline"`
	Rewards      *battle.BattleRewards `json:"rewards,omitempty"`
	Version      int64                 `json:"version"`
}

// EndedPayload battle:ended 事件内容
type EndedPayload struct {
	BattleID string                `json:"battleId"`
	Result   battle.Phase          `json:"result"`
	Rewards  *battle.BattleRewards `json:"rewards,omitempty"`
}

// ErrorPayload battle:error 事件内容
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SubmitResult 提交行动的结果
type SubmitResult struct {
	BattleID     string   `json:"battleId"`
	TurnNumber   int      `json:"turnNumber"`
	AllSubmitted bool     `json:"allSubmitted"`
	Waiting      []string `json:"waiting"`
}

// FleeResult 逃跑结果
type FleeResult struct {
	Success bool               `json:"success"`
	Chance  int                `json:"chance"`
	Phase   battle.Phase       `json:"phase"`
	Report  *battle.TurnReport `json:"report"`
}

func viewOf(s *battle.BattleState) *BattleView {
	units := make([]*battle.BattleUnit, 0, len(s.Units))
	for _, u := range s.Units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	submitted := make([]string, 0, len(s.PendingActions))
	for id := range s.PendingActions {
		submitted = append(submitted, id)
	}
	sort.Strings(submitted)

	return &BattleView{
		BattleID:     s.BattleID,
		StageID:      s.StageID,
		Phase:        s.Phase,
		TurnNumber:   s.TurnNumber,
		TurnOrder:    append([]string(nil), s.TurnOrder...),
		Units:        units,
		Participants: append([]string(nil), s.Participants...),
		Submitted:    submitted,
		TurnDeadline: s.TurnStartedAt.Add(s.TurnTimeout),
		Rewards:      s.Rewards,
		Version:      s.Version,
	}
}

func submitResultOf(s *battle.BattleState) *SubmitResult {
	waiting := []string{}
	for _, id := range s.RequiredActors() {
		if _, ok := s.PendingActions[id]; !ok {
			waiting = append(waiting, id)
		}
	}
	return &SubmitResult{
		BattleID:     s.BattleID,
		TurnNumber:   s.TurnNumber,
		AllSubmitted: len(waiting) == 0,
		Waiting:      waiting,
	}
}
