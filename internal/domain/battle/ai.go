package battle

const (
	MinFleeChance  = 10
	MaxFleeChance  = 90
	BaseFleeChance = 30
)

// GenerateOpponentActions 为没有行动的敌人生成普通攻击，目标在我方存活单位中均匀随机
func GenerateOpponentActions(r Rand, s *BattleState) {
	targets := s.livingIDs(func(u *BattleUnit) bool { return !u.IsOpponent() })
	if len(targets) == 0 {
		return
	}
	for _, u := range s.Opponents() {
		if !u.IsAlive {
			continue
		}
		if _, ok := s.PendingActions[u.ID]; ok {
			continue
		}
		s.UpsertAction(BattleAction{ActorID: u.ID, Type: ActionAttack, TargetID: pickOne(r, targets)})
	}
}

// FleeChance 逃跑成功率 30 + (行动者速度 - 敌方平均速度)，限制在 [10, 90]
func FleeChance(actor *BattleUnit, opponents []*BattleUnit) int {
	sum, n := 0, 0
	for _, o := range opponents {
		if o.IsAlive {
			sum += EffectiveSpeed(o)
			n++
		}
	}
	avg := 0
	if n > 0 {
		avg = sum / n
	}
	return clampInt(BaseFleeChance+EffectiveSpeed(actor)-avg, MinFleeChance, MaxFleeChance)
}
