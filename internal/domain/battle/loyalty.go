package battle

import "math"

const (
	MinLoyalty            = 0
	MaxLoyalty            = 100
	RunawayThreshold      = 30
	MaxRunawayChance      = 60
	KnockedOutLoyaltyLoss = 5
	CapturedLoyalty       = 60
)

// DisobeyChoice 不听指挥时的替代行为
type DisobeyChoice string

const (
	DisobeyIdle   DisobeyChoice = "idle"
	DisobeyAttack DisobeyChoice = "attack"
	DisobeyDefend DisobeyChoice = "defend"
)

var disobeyChoices = []DisobeyChoice{DisobeyIdle, DisobeyAttack, DisobeyDefend}

// DisobeyChance 不听指挥概率（百分比）
func DisobeyChance(loyalty int) int {
	switch {
	case loyalty >= 100:
		return 0
	case loyalty >= 70:
		return 5
	case loyalty >= 50:
		return 15
	case loyalty >= 30:
		return 30
	default:
		return 50
	}
}

// CheckDisobedience 判定宠物是否不听指挥，返回替代行为
func CheckDisobedience(r Rand, u *BattleUnit) (bool, DisobeyChoice) {
	if !u.IsCompanion() {
		return false, ""
	}
	if !rollPercent(r, float64(DisobeyChance(u.Loyalty))) {
		return false, ""
	}
	return true, disobeyChoices[r.IntN(len(disobeyChoices))]
}

// RunawayChance 逃离战斗的概率（百分比）
func RunawayChance(loyalty int) int {
	if loyalty > RunawayThreshold {
		return 0
	}
	chance := (RunawayThreshold - loyalty) * 2
	if chance > MaxRunawayChance {
		return MaxRunawayChance
	}
	return chance
}

// CheckRunaway 判定低忠诚宠物是否逃走
func CheckRunaway(r Rand, u *BattleUnit) bool {
	if !u.IsCompanion() {
		return false
	}
	return rollPercent(r, float64(RunawayChance(u.Loyalty)))
}

// CombatBonus 忠诚度带来的伤害/命中修正（百分点）
func CombatBonus(loyalty int) (damage, accuracy int) {
	switch {
	case loyalty >= 100:
		return 10, 5
	case loyalty >= 70:
		return 5, 2
	case loyalty >= 50:
		return 0, 0
	case loyalty >= 30:
		return -10, -5
	default:
		return -20, -10
	}
}

// ClampLoyalty 限制在 [0,100]
func ClampLoyalty(v int) int {
	return clampInt(v, MinLoyalty, MaxLoyalty)
}

// ApplyBattleLoyalty 战后忠诚度变化：胜利 +1~2，曾被击倒 -5；返回变化量
func ApplyBattleLoyalty(r Rand, u *BattleUnit, victory bool) int {
	if !u.IsCompanion() {
		return 0
	}
	delta := 0
	if victory {
		delta += randRange(r, 1, 2)
	}
	if u.WasKnockedOut {
		delta -= KnockedOutLoyaltyLoss
	}
	before := u.Loyalty
	u.Loyalty = ClampLoyalty(u.Loyalty + delta)
	return u.Loyalty - before
}

// LevelGapDecay 宠物等级高于主人时的忠诚度衰减，返回衰减后的忠诚度
func LevelGapDecay(companionLevel, ownerLevel, loyalty int) int {
	gap := companionLevel - ownerLevel
	var pct float64
	switch {
	case gap >= 20:
		pct = 0.5
	case gap >= 10:
		pct = 0.2
	case gap >= 5:
		pct = 0.1
	default:
		return loyalty
	}
	return ClampLoyalty(loyalty - int(math.Floor(float64(loyalty)*pct)))
}
