package battle

import (
	"math"
	"time"
)

// StatusType 异常状态类型
type StatusType string

const (
	StatusPoison    StatusType = "poison"
	StatusPetrify   StatusType = "petrify"
	StatusConfusion StatusType = "confusion"
	StatusFreeze    StatusType = "freeze"
	StatusParalysis StatusType = "paralysis"
	StatusBlind     StatusType = "blind"
	StatusSilence   StatusType = "silence"
	StatusFear      StatusType = "fear"
	StatusBurn      StatusType = "burn"
)

const (
	SingleTargetApplyChance = 90
	AreaApplyChance         = 80
	MinStatusDuration       = 3
	MaxStatusDuration       = 5
	StatusWeaknessBonus     = 1.2
)

// StatusEffect 单位身上的异常状态
type StatusEffect struct {
	Type           StatusType `json:"type"`
	RemainingTurns int        `json:"remainingTurns"`
	AppliedAt      time.Time  `json:"appliedAt"`
}

// StatusConfig 状态配置
type StatusConfig struct {
	PreventsAction    bool
	ActionFailChance  float64 // 行动失败概率（百分比）
	SpeedReduction    float64
	AttackReduction   float64
	AccuracyReduction float64
	DamageReduction   float64 // 受到伤害减免
	AllowedActions    []ActionType
	BlocksSkills      bool
	Retargets         bool
	CureElement       Element
	WeaknessElement   Element
	TickMinPercent    float64 // 回合开始伤害（最大生命百分比）
	TickMaxPercent    float64
}

var statusTable = map[StatusType]StatusConfig{
	StatusPoison: {
		TickMinPercent:  5,
		TickMaxPercent:  10,
		WeaknessElement: ElementFire,
	},
	StatusPetrify: {
		PreventsAction:  true,
		DamageReduction: 0.5,
		WeaknessElement: ElementWater,
	},
	StatusConfusion: {
		Retargets:       true,
		WeaknessElement: ElementEarth,
	},
	StatusFreeze: {
		PreventsAction:  true,
		CureElement:     ElementFire,
		WeaknessElement: ElementFire,
	},
	StatusParalysis: {
		ActionFailChance: 50,
		SpeedReduction:   0.5,
		WeaknessElement:  ElementEarth,
	},
	StatusBlind: {
		AccuracyReduction: 0.5,
		WeaknessElement:   ElementWind,
	},
	StatusSilence: {
		BlocksSkills:    true,
		WeaknessElement: ElementWind,
	},
	StatusFear: {
		AllowedActions:  []ActionType{ActionDefend, ActionFlee},
		AttackReduction: 0.3,
		WeaknessElement: ElementWater,
	},
	StatusBurn: {
		TickMinPercent:  3,
		TickMaxPercent:  5,
		AttackReduction: 0.1,
		WeaknessElement: ElementWater,
	},
}

// StatusConfigFor 查询状态配置
func StatusConfigFor(kind StatusType) (StatusConfig, bool) {
	cfg, ok := statusTable[kind]
	return cfg, ok
}

// activeConfig 单位当前状态的配置，无状态返回零值
func activeConfig(u *BattleUnit) (StatusConfig, bool) {
	active := u.ActiveStatus()
	if active == nil {
		return StatusConfig{}, false
	}
	return StatusConfigFor(active.Type)
}

// TryApply 尝试施加状态：同类已存在时拒绝；否则按概率替换现有状态
func TryApply(r Rand, target *BattleUnit, kind StatusType, isAoE bool, now time.Time) bool {
	if target == nil || !target.IsAlive {
		return false
	}
	if _, ok := statusTable[kind]; !ok {
		return false
	}
	if target.HasStatus(kind) {
		return false
	}

	chance := float64(SingleTargetApplyChance)
	if isAoE {
		chance = AreaApplyChance
	}
	if !rollPercent(r, chance) {
		return false
	}

	target.StatusEffects = []StatusEffect{{
		Type:           kind,
		RemainingTurns: randRange(r, MinStatusDuration, MaxStatusDuration),
		AppliedAt:      now,
	}}
	return true
}

// ProcessTurnStart 执行回合开始的持续伤害
func ProcessTurnStart(r Rand, u *BattleUnit) []StatusTick {
	if !u.IsAlive {
		return nil
	}
	var ticks []StatusTick
	for _, effect := range append([]StatusEffect(nil), u.StatusEffects...) {
		cfg, ok := statusTable[effect.Type]
		if !ok || cfg.TickMaxPercent <= 0 {
			continue
		}
		pct := randFloatRange(r, cfg.TickMinPercent, cfg.TickMaxPercent)
		damage := int(math.Floor(float64(u.MaxHP) * pct / 100))
		if damage < 1 {
			damage = 1
		}
		applied, died := u.TakeDamage(damage)
		ticks = append(ticks, StatusTick{UnitID: u.ID, Status: effect.Type, Damage: applied, Died: died})
		if died {
			break
		}
	}
	return ticks
}

// ProcessTurnEnd 递减剩余回合，返回本回合解除的状态
func ProcessTurnEnd(u *BattleUnit) []StatusType {
	var expired []StatusType
	kept := u.StatusEffects[:0]
	for _, effect := range u.StatusEffects {
		effect.RemainingTurns--
		if effect.RemainingTurns <= 0 {
			expired = append(expired, effect.Type)
			continue
		}
		kept = append(kept, effect)
	}
	if len(kept) == 0 {
		u.StatusEffects = nil
	} else {
		u.StatusEffects = kept
	}
	return expired
}

// CanAct 状态是否允许本回合行动，不允许时返回阻止的状态
func CanAct(r Rand, u *BattleUnit) (bool, StatusType) {
	for _, effect := range u.StatusEffects {
		cfg, ok := statusTable[effect.Type]
		if !ok {
			continue
		}
		if cfg.PreventsAction {
			return false, effect.Type
		}
		if cfg.ActionFailChance > 0 && rollPercent(r, cfg.ActionFailChance) {
			return false, effect.Type
		}
	}
	return true, ""
}

// IsActionAllowed 状态对行动类型的限制，等待总是允许
func IsActionAllowed(u *BattleUnit, action ActionType) bool {
	if action == ActionWait {
		return true
	}
	for _, effect := range u.StatusEffects {
		cfg, ok := statusTable[effect.Type]
		if !ok {
			continue
		}
		if cfg.BlocksSkills && action == ActionSkill {
			return false
		}
		if len(cfg.AllowedActions) > 0 {
			allowed := false
			for _, a := range cfg.AllowedActions {
				if a == action {
					allowed = true
					break
				}
			}
			if !allowed {
				return false
			}
		}
	}
	return true
}

// IsConfused 是否处于混乱
func IsConfused(u *BattleUnit) bool {
	cfg, ok := activeConfig(u)
	return ok && cfg.Retargets
}

// ConfusedTarget 混乱时在 {自己, 随机敌人, 随机队友} 中均匀选择目标
func ConfusedTarget(r Rand, actor *BattleUnit, s *BattleState) string {
	switch r.IntN(3) {
	case 1:
		if id := pickOne(r, s.livingIDs(func(u *BattleUnit) bool { return !u.SameSide(actor) })); id != "" {
			return id
		}
	case 2:
		if id := pickOne(r, s.livingIDs(func(u *BattleUnit) bool { return u.SameSide(actor) && u.ID != actor.ID })); id != "" {
			return id
		}
	}
	return actor.ID
}

// CheckElementCure 攻击元素为状态的解除元素时立即解除，返回被解除的状态
func CheckElementCure(target *BattleUnit, element Element) (StatusType, bool) {
	if element == ElementNone {
		return "", false
	}
	for i, effect := range target.StatusEffects {
		cfg, ok := statusTable[effect.Type]
		if ok && cfg.CureElement == element {
			target.StatusEffects = append(target.StatusEffects[:i], target.StatusEffects[i+1:]...)
			if len(target.StatusEffects) == 0 {
				target.StatusEffects = nil
			}
			return effect.Type, true
		}
	}
	return "", false
}

// StatusWeaknessMultiplier 攻击元素命中目标状态弱点时为 1.2
func StatusWeaknessMultiplier(target *BattleUnit, element Element) float64 {
	if element == ElementNone {
		return 1.0
	}
	cfg, ok := activeConfig(target)
	if ok && cfg.WeaknessElement == element {
		return StatusWeaknessBonus
	}
	return 1.0
}

// EffectiveSpeed 计入状态减速后的速度
func EffectiveSpeed(u *BattleUnit) int {
	speed := float64(u.Stats.Speed)
	if cfg, ok := activeConfig(u); ok && cfg.SpeedReduction > 0 {
		speed *= 1 - cfg.SpeedReduction
	}
	return int(math.Floor(speed))
}

func attackReduction(u *BattleUnit) float64 {
	cfg, _ := activeConfig(u)
	return cfg.AttackReduction
}

func accuracyReduction(u *BattleUnit) float64 {
	cfg, _ := activeConfig(u)
	return cfg.AccuracyReduction
}

func damageReduction(u *BattleUnit) float64 {
	cfg, _ := activeConfig(u)
	return cfg.DamageReduction
}
