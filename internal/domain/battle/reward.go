package battle

import (
	"math"
	"sort"
)

const (
	MaxPartySize    = 5
	BossExpModifier = 1.1
)

// 1~4 级升级所需经验
var requiredExpTable = [...]int{10, 25, 45, 70}

var partyMultiplier = [...]int{100, 103, 106, 109, 120}

// MonsterExp 单个敌人经验 floor(level × (2 + level/20))，Boss ×1.1，可捕捉的 1 级敌人固定为 1
func MonsterExp(level int, isBoss, isCapturable bool) int {
	if level < 1 {
		level = 1
	}
	if isCapturable && level == 1 {
		return 1
	}
	exp := float64(level) * (2 + float64(level)/20)
	if isBoss {
		exp *= BossExpModifier
	}
	return int(math.Floor(exp))
}

// RequiredExp 从 level 升到 level+1 所需经验
func RequiredExp(level int) int {
	if level < 1 {
		level = 1
	}
	if level <= len(requiredExpTable) {
		return requiredExpTable[level-1]
	}
	return 4*level*level + 6*level
}

// PartyMultiplier 队伍人数加成（百分比）
func PartyMultiplier(size int) int {
	if size < 1 {
		size = 1
	}
	if size > MaxPartySize {
		size = MaxPartySize
	}
	return partyMultiplier[size-1]
}

// LevelGapPenalty 等级差惩罚（百分比）：≤10 无；11-20 每级 0.5；21-30 再每级 1.4；>30 固定 50
func LevelGapPenalty(gap int) float64 {
	switch {
	case gap <= 10:
		return 0
	case gap <= 20:
		return float64(gap-10) * 0.5
	case gap <= 30:
		return 5 + float64(gap-20)*1.4
	default:
		return 50
	}
}

// ParticipantExp 单个参与者实际获得的经验
func ParticipantExp(total, partySize int, participantLevel int, avgOpponentLevel float64) int {
	exp := float64(total) * float64(PartyMultiplier(partySize)) / 100
	gap := int(math.Floor(float64(participantLevel) - avgOpponentLevel))
	exp *= (100 - LevelGapPenalty(gap)) / 100
	return int(math.Floor(exp))
}

// RollDrops 逐条独立判定掉落
func RollDrops(r Rand, entries []DropEntry) []Drop {
	drops := make([]Drop, 0, len(entries))
	for _, entry := range entries {
		if !(r.Float64()*100 < entry.Rate) {
			continue
		}
		qty := randRange(r, entry.Quantity.Min, entry.Quantity.Max)
		if qty <= 0 {
			continue
		}
		drops = append(drops, Drop{Kind: entry.Kind, ItemID: entry.ItemID, Quantity: qty})
	}
	return drops
}

// StarRating 星级：我方全员存活 +1，回合数不超过关卡阈值 +1，第三颗星见 thirdStarEarned
func StarRating(allSurvived bool, turns, threshold int) int {
	withinTurns := threshold > 0 && turns <= threshold
	stars := 0
	if allSurvived {
		stars++
	}
	if withinTurns {
		stars++
	}
	if thirdStarEarned(allSurvived, withinTurns) {
		stars++
	}
	return stars
}

// thirdStarEarned 第三颗星暂定为前两颗都拿到时获得
// TODO: 接入关卡配置的第三星条件后替换
func thirdStarEarned(allSurvived, withinTurns bool) bool {
	return allSurvived && withinTurns
}

// CalculateRewards 胜利结算：经验分配给参与者（不含宠物），金币、掉落与星级
func CalculateRewards(r Rand, s *BattleState, stage *StageTemplate) *BattleRewards {
	rewards := &BattleRewards{
		Exp:   map[string]int{},
		Drops: []Drop{},
	}

	total := 0
	levelSum, defeated := 0, 0
	allSurvived := true
	partySize := 0
	for _, u := range s.sortedUnits() {
		if u.IsOpponent() {
			if !u.IsAlive {
				total += MonsterExp(u.Level, u.IsBoss, u.IsCapturable)
				levelSum += u.Level
				defeated++
			}
			continue
		}
		partySize++
		if !u.IsAlive {
			allSurvived = false
		}
	}
	if s.AlliesLost > 0 {
		allSurvived = false
	}
	// 逃走或被移出的宠物仍计入队伍人数
	if s.PartySize > partySize {
		partySize = s.PartySize
	}

	turns := s.TurnNumber
	if stage != nil {
		total += stage.BonusExp
		rewards.Gold = stage.Gold
		rewards.Drops = RollDrops(r, stage.Drops)
		rewards.Stars = StarRating(allSurvived, turns, stage.StarTurnThreshold)
	} else {
		rewards.Stars = StarRating(allSurvived, turns, 0)
	}

	participants := append([]string(nil), s.Participants...)
	sort.Strings(participants)
	for _, participant := range participants {
		level := s.participantLevel(participant)
		avg := float64(level)
		if defeated > 0 {
			avg = float64(levelSum) / float64(defeated)
		}
		rewards.Exp[participant] = ParticipantExp(total, partySize, level, avg)
	}

	rewards.CapturedPets = append(rewards.CapturedPets, s.Captured...)
	return rewards
}
