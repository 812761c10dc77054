package battle

import (
	"sort"
	"time"
)

const (
	GangUpSpeedBand    = 0.10
	GangUpBonusPerUnit = 10
	MaxGangUpBonus     = 50
)

// ComputeTurnOrder 存活单位按有效速度降序，速度相同按 ID 升序
func ComputeTurnOrder(units map[string]*BattleUnit) []string {
	alive := make([]*BattleUnit, 0, len(units))
	for _, u := range units {
		if u.IsAlive {
			alive = append(alive, u)
		}
	}
	sort.Slice(alive, func(i, j int) bool {
		si, sj := EffectiveSpeed(alive[i]), EffectiveSpeed(alive[j])
		if si != sj {
			return si > sj
		}
		return alive[i].ID < alive[j].ID
	})

	order := make([]string, len(alive))
	for i, u := range alive {
		order[i] = u.ID
	}
	return order
}

// FindGangUpGroup 从行动者开始沿回合顺序向后收集同阵营、存活且速度在 ±10% 内的连续单位
func FindGangUpGroup(actorID string, turnOrder []string, units map[string]*BattleUnit) []string {
	actor, ok := units[actorID]
	if !ok || !actor.IsAlive {
		return nil
	}
	if actor.IsOpponent() {
		return []string{actorID}
	}

	start := -1
	for i, id := range turnOrder {
		if id == actorID {
			start = i
			break
		}
	}
	if start < 0 {
		return []string{actorID}
	}

	speed := float64(EffectiveSpeed(actor))
	low, high := speed*(1-GangUpSpeedBand), speed*(1+GangUpSpeedBand)

	group := []string{actorID}
	for _, id := range turnOrder[start+1:] {
		u, ok := units[id]
		if !ok {
			continue
		}
		if !u.SameSide(actor) {
			break
		}
		if !u.IsAlive {
			continue
		}
		s := float64(EffectiveSpeed(u))
		if s < low || s > high {
			break
		}
		group = append(group, id)
	}
	return group
}

// GangUpCriticalBonus 围攻暴击加成 min((n-1)*10, 50)
func GangUpCriticalBonus(participants int) int {
	if participants <= 1 {
		return 0
	}
	bonus := (participants - 1) * GangUpBonusPerUnit
	if bonus > MaxGangUpBonus {
		return MaxGangUpBonus
	}
	return bonus
}

// AdvanceTurn 推进回合内索引；到达末尾时开始新回合
func AdvanceTurn(s *BattleState, now time.Time) {
	s.CurrentTurnIndex++
	if s.CurrentTurnIndex < len(s.TurnOrder) {
		return
	}
	s.TurnNumber++
	s.CurrentTurnIndex = 0
	s.TurnOrder = ComputeTurnOrder(s.Units)
	s.PendingActions = map[string]BattleAction{}
	s.TurnStartedAt = now
}

// CheckBattleEnd 敌方全灭为胜利，我方全灭为失败，否则仍在进行
func CheckBattleEnd(s *BattleState) Phase {
	opponentsAlive, alliesAlive := false, false
	for _, u := range s.Units {
		if !u.IsAlive {
			continue
		}
		if u.IsOpponent() {
			opponentsAlive = true
		} else {
			alliesAlive = true
		}
	}
	switch {
	case !opponentsAlive:
		return PhaseVictory
	case !alliesAlive:
		return PhaseDefeat
	default:
		return PhaseInProgress
	}
}
