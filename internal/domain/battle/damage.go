package battle

import "math"

const (
	BaseCriticalChance = 5
	DefaultAccuracy    = 95
	MinAccuracy        = 5
	MaxEvasion         = 75
	DefendMultiplier   = 0.5
)

// HitResult 命中判定结果
type HitResult string

const (
	HitLanded HitResult = "hit"
	HitMissed HitResult = "miss"
	HitEvaded HitResult = "evaded"
)

// DamageOptions 伤害计算参数
type DamageOptions struct {
	SkillRatio     int             // 技能伤害倍率（百分比），0 表示普通攻击
	Element        *ElementProfile // 技能元素覆盖攻击者元素
	GangUpBonus    int             // 围攻暴击加成（百分点）
	CriticalChance *int            // 覆盖基础暴击率
}

// WeaponAccuracy 单位武器命中率，未装备时为默认值
func WeaponAccuracy(u *BattleUnit) int {
	if u.Weapon != nil && u.Weapon.Accuracy > 0 {
		return u.Weapon.Accuracy
	}
	return DefaultAccuracy
}

// CalculateHit 两次独立判定：先判命中，再判闪避
func CalculateHit(r Rand, attacker, defender *BattleUnit, weaponAccuracy int) HitResult {
	accuracy := float64(weaponAccuracy) * (1 - accuracyReduction(attacker))
	if attacker.IsCompanion() {
		_, accBonus := CombatBonus(attacker.Loyalty)
		accuracy += float64(accBonus)
	}
	accuracy = math.Max(MinAccuracy, math.Min(100, accuracy))
	if !rollPercent(r, accuracy) {
		return HitMissed
	}

	evasion := clampInt(defender.Stats.Evasion, 0, MaxEvasion)
	if rollPercent(r, float64(evasion)) {
		return HitEvaded
	}
	return HitLanded
}

// attackElement 本次攻击使用的元素构成
func attackElement(attacker *BattleUnit, opts DamageOptions) ElementProfile {
	if opts.Element != nil {
		return *opts.Element
	}
	return attacker.Element
}

// Calculate 伤害计算流水线
func Calculate(r Rand, attacker, defender *BattleUnit, opts DamageOptions) DamageResult {
	result := DamageResult{WasDefending: defender.IsDefending}

	// 1. 基础伤害
	base := float64(attacker.Stats.Attack)
	if opts.SkillRatio > 0 {
		base = base * float64(opts.SkillRatio) / 100
	}
	if attacker.Weapon != nil && attacker.Weapon.AttackRatio > 0 {
		base = base * float64(attacker.Weapon.AttackRatio) / 100
	}
	base *= 1 - attackReduction(attacker)
	if attacker.IsCompanion() {
		dmgBonus, _ := CombatBonus(attacker.Loyalty)
		base *= 1 + float64(dmgBonus)/100
	}

	// 2. 元素倍率
	profile := attackElement(attacker, opts)
	result.ElementMultiplier = ProfileMultiplier(profile, defender.Element)
	base *= result.ElementMultiplier

	// 3. 暴击无视防御，4. 否则减防御
	critChance := BaseCriticalChance
	if opts.CriticalChance != nil {
		critChance = *opts.CriticalChance
	}
	critChance += opts.GangUpBonus
	damage := base
	if rollPercent(r, float64(critChance)) {
		result.IsCritical = true
	} else {
		damage = math.Max(base-float64(defender.Stats.Defense), 1)
	}

	// 5. 防御减半
	if defender.IsDefending {
		damage *= DefendMultiplier
	}
	damage *= 1 - damageReduction(defender)

	// 6. 状态弱点
	result.StatusWeaknessMultiplier = StatusWeaknessMultiplier(defender, profile.Dominant())
	damage *= result.StatusWeaknessMultiplier

	// 7. 取整且至少 1
	result.Damage = int(math.Max(math.Round(damage), 1))
	return result
}

// CalculateHeal 治疗量 = floor(攻击 × 倍率 / 100)
func CalculateHeal(healer *BattleUnit, healRatio int) int {
	return int(math.Floor(float64(healer.Stats.Attack) * float64(healRatio) / 100))
}
