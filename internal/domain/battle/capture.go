package battle

import "math"

const MaxCatchRate = 95

// GrowthGroup 成长档位
type GrowthGroup string

const (
	GrowthS GrowthGroup = "S"
	GrowthA GrowthGroup = "A"
	GrowthB GrowthGroup = "B"
	GrowthC GrowthGroup = "C"
	GrowthD GrowthGroup = "D"
)

// CapturedCompanion 捕捉成功后生成的新宠物
type CapturedCompanion struct {
	ID          string         `json:"id"`
	SpeciesID   string         `json:"speciesId"`
	Name        string         `json:"name"`
	OwnerID     string         `json:"ownerId"`
	Level       int            `json:"level"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"maxHp"`
	MP          int            `json:"mp"`
	MaxMP       int            `json:"maxMp"`
	Stats       Stats          `json:"stats"`
	Element     ElementProfile `json:"element"`
	Growth      GrowthRates    `json:"growth"`
	GrowthGroup GrowthGroup    `json:"growthGroup"`
	IsRare      bool           `json:"isRare"`
	Loyalty     int            `json:"loyalty"`
	SkillIDs    []string       `json:"skillIds,omitempty"`
}

// IsCapturable 仅可捕捉且等级为 1 的存活敌人
func IsCapturable(target *BattleUnit) bool {
	return target != nil && target.IsOpponent() && target.IsCapturable && target.Level == 1 && target.IsAlive
}

// CalculateCatchRate 捕捉率 = 血量档位 + 捕捉者等级加成 + 道具加成，上限 95
func CalculateCatchRate(hpRatio float64, captorLevel, itemBonus int) int {
	rate := 5
	switch {
	case hpRatio <= 0.1:
		rate = 30
	case hpRatio <= 0.5:
		rate = 20
	case hpRatio <= 0.8:
		rate = 10
	}

	switch {
	case captorLevel >= 80:
		rate += 30
	case captorLevel >= 50:
		rate += 20
	case captorLevel >= 30:
		rate += 10
	}

	rate += itemBonus
	if rate > MaxCatchRate {
		return MaxCatchRate
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// AttemptCapture 掷骰判定捕捉
func AttemptCapture(r Rand, rate int) bool {
	return r.Float64()*100 < float64(rate)
}

// GrowthGroupFor 根据属性在种族区间内的位置确定成长档位
func GrowthGroupFor(quality float64) GrowthGroup {
	switch {
	case quality >= 0.9:
		return GrowthS
	case quality >= 0.75:
		return GrowthA
	case quality >= 0.5:
		return GrowthB
	case quality >= 0.25:
		return GrowthC
	default:
		return GrowthD
	}
}

// rollGrowth 在种族成长区间内随机
func rollGrowth(r Rand, g GrowthRanges) GrowthRates {
	return GrowthRates{
		HP:      roundTo2(randFloatRange(r, g.HP.Min, g.HP.Max)),
		MP:      roundTo2(randFloatRange(r, g.MP.Min, g.MP.Max)),
		Attack:  roundTo2(randFloatRange(r, g.Attack.Min, g.Attack.Max)),
		Defense: roundTo2(randFloatRange(r, g.Defense.Min, g.Defense.Max)),
		Speed:   roundTo2(randFloatRange(r, g.Speed.Min, g.Speed.Max)),
	}
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SynthesizeCompanion 用敌人当前属性生成新宠物；成长率沿用敌人生成时的值，没有时在种族区间内随机
func SynthesizeCompanion(r Rand, target *BattleUnit, species *SpeciesTemplate, ownerID, id string) CapturedCompanion {
	c := CapturedCompanion{
		ID:          id,
		SpeciesID:   target.TemplateID,
		Name:        target.Name,
		OwnerID:     ownerID,
		Level:       target.Level,
		HP:          target.MaxHP,
		MaxHP:       target.MaxHP,
		MP:          target.MaxMP,
		MaxMP:       target.MaxMP,
		Stats:       target.Stats,
		Element:     target.Element,
		GrowthGroup: GrowthGroupFor(target.StatQuality),
		IsRare:      target.IsRare,
		Loyalty:     CapturedLoyalty,
		SkillIDs:    append([]string(nil), target.SkillIDs...),
	}

	switch {
	case target.Growth != nil:
		c.Growth = *target.Growth
	case species != nil:
		c.Growth = rollGrowth(r, species.Growth)
	}
	if species != nil {
		c.GrowthGroup = GrowthGroupFor(StatQuality(species, target))
		if c.Name == "" {
			c.Name = species.Name
		}
		if species.ID != "" {
			c.SpeciesID = species.ID
		}
	}
	return c
}
