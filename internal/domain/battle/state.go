package battle

import (
	"sort"
	"time"
)

// BattleState 单场战斗的聚合根
type BattleState struct {
	BattleID         string                  `json:"battleId"`
	StageID          string                  `json:"stageId"`
	Phase            Phase                   `json:"phase"`
	TurnNumber       int                     `json:"turnNumber"`
	CurrentTurnIndex int                     `json:"currentTurnIndex"`
	Units            map[string]*BattleUnit  `json:"units"`
	TurnOrder        []string                `json:"turnOrder"`
	PendingActions   map[string]BattleAction `json:"pendingActions"`
	Participants     []string                `json:"participants"`
	CharacterLevels  map[string]int          `json:"characterLevels,omitempty"`
	StartedAt        time.Time               `json:"startedAt"`
	TurnStartedAt    time.Time               `json:"turnStartedAt"`
	TurnTimeout      time.Duration           `json:"turnTimeout"`
	EndedAt          *time.Time              `json:"endedAt,omitempty"`
	Captured         []CapturedCompanion     `json:"captured,omitempty"`
	AlliesLost       int                     `json:"alliesLost,omitempty"`
	PartySize        int                     `json:"partySize,omitempty"` // 开战时的己方单位数
	LoyaltyChanges   map[string]int          `json:"loyaltyChanges,omitempty"`
	Rewards          *BattleRewards          `json:"rewards,omitempty"`
	Version          int64                   `json:"version"`
}

// NewBattleState 创建处于进行中阶段的战斗
func NewBattleState(battleID, stageID string, participants []string, timeout time.Duration, now time.Time) *BattleState {
	return &BattleState{
		BattleID:        battleID,
		StageID:         stageID,
		Phase:           PhaseInProgress,
		TurnNumber:      1,
		Units:           map[string]*BattleUnit{},
		PendingActions:  map[string]BattleAction{},
		Participants:    append([]string(nil), participants...),
		CharacterLevels: map[string]int{},
		StartedAt:       now,
		TurnStartedAt:   now,
		TurnTimeout:     timeout,
	}
}

// AddUnit 加入单位
func (s *BattleState) AddUnit(u *BattleUnit) {
	if _, exists := s.Units[u.ID]; !exists && !u.IsOpponent() {
		s.PartySize++
	}
	s.Units[u.ID] = u
	if u.Type == UnitCharacter && u.OwnerID != "" {
		if s.CharacterLevels == nil {
			s.CharacterLevels = map[string]int{}
		}
		s.CharacterLevels[u.OwnerID] = u.Level
	}
}

// RemoveUnit 将单位移出战斗（被捕捉或逃走）
func (s *BattleState) RemoveUnit(id string) {
	delete(s.Units, id)
	delete(s.PendingActions, id)
}

// IsParticipant 控制者是否参与该战斗
func (s *BattleState) IsParticipant(controllerID string) bool {
	for _, p := range s.Participants {
		if p == controllerID {
			return true
		}
	}
	return false
}

// Unit 按 ID 获取单位
func (s *BattleState) Unit(id string) (*BattleUnit, bool) {
	u, ok := s.Units[id]
	return u, ok
}

// ControllableUnits 控制者可操作的存活单位（按 ID 排序）
func (s *BattleState) ControllableUnits(controllerID string) []*BattleUnit {
	var out []*BattleUnit
	for _, u := range s.sortedUnits() {
		if u.IsAlive && !u.IsOpponent() && u.OwnerID == controllerID {
			out = append(out, u)
		}
	}
	return out
}

// RequiredActors 本回合需要玩家提交行动的单位
func (s *BattleState) RequiredActors() []string {
	var ids []string
	for _, u := range s.sortedUnits() {
		if u.IsAlive && !u.IsOpponent() {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// AllSubmitted 所有需要提交的单位是否都已提交
func (s *BattleState) AllSubmitted() bool {
	for _, id := range s.RequiredActors() {
		if _, ok := s.PendingActions[id]; !ok {
			return false
		}
	}
	return true
}

// UpsertAction 写入待执行行动，同一单位后写覆盖
func (s *BattleState) UpsertAction(a BattleAction) {
	if s.PendingActions == nil {
		s.PendingActions = map[string]BattleAction{}
	}
	s.PendingActions[a.ActorID] = a
}

// TurnExpired 当前回合是否超时
func (s *BattleState) TurnExpired(now time.Time) bool {
	if s.Phase.IsTerminal() || s.TurnTimeout <= 0 {
		return false
	}
	return !now.Before(s.TurnStartedAt.Add(s.TurnTimeout))
}

// Opponents 敌方单位（按 ID 排序）
func (s *BattleState) Opponents() []*BattleUnit {
	var out []*BattleUnit
	for _, u := range s.sortedUnits() {
		if u.IsOpponent() {
			out = append(out, u)
		}
	}
	return out
}

// Allies 我方单位（按 ID 排序）
func (s *BattleState) Allies() []*BattleUnit {
	var out []*BattleUnit
	for _, u := range s.sortedUnits() {
		if !u.IsOpponent() {
			out = append(out, u)
		}
	}
	return out
}

// Snapshots 全部单位的当前快照
func (s *BattleState) Snapshots() []UnitSnapshot {
	units := s.sortedUnits()
	out := make([]UnitSnapshot, 0, len(units))
	for _, u := range units {
		out = append(out, snapshotOf(u))
	}
	return out
}

func (s *BattleState) sortedUnits() []*BattleUnit {
	ids := make([]string, 0, len(s.Units))
	for id := range s.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*BattleUnit, len(ids))
	for i, id := range ids {
		out[i] = s.Units[id]
	}
	return out
}

func (s *BattleState) livingIDs(filter func(*BattleUnit) bool) []string {
	var ids []string
	for _, u := range s.sortedUnits() {
		if u.IsAlive && filter(u) {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func (s *BattleState) participantLevel(controllerID string) int {
	if level, ok := s.CharacterLevels[controllerID]; ok {
		return level
	}
	for _, u := range s.Units {
		if u.Type == UnitCharacter && u.OwnerID == controllerID {
			return u.Level
		}
	}
	return 1
}
