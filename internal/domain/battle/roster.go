package battle

import (
	"errors"
	"fmt"
	"math"
)

// ErrSpeciesNotFound 关卡引用了不存在的种族
var ErrSpeciesNotFound = errors.New("species not found")

// CharacterProfile 出战角色资料（来自角色服务）
type CharacterProfile struct {
	ID       string         `json:"id"`
	OwnerID  string         `json:"ownerId"`
	Name     string         `json:"name"`
	Level    int            `json:"level"`
	HP       int            `json:"hp"`
	MaxHP    int            `json:"maxHp"`
	MP       int            `json:"mp"`
	MaxMP    int            `json:"maxMp"`
	Stats    Stats          `json:"stats"`
	Element  ElementProfile `json:"element"`
	Weapon   *Weapon        `json:"weapon,omitempty"`
	SkillIDs []string       `json:"skillIds,omitempty"`
}

// CompanionProfile 出战宠物资料
type CompanionProfile struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	SpeciesID        string         `json:"speciesId"`
	Name             string         `json:"name"`
	Level            int            `json:"level"`
	HP               int            `json:"hp"`
	MaxHP            int            `json:"maxHp"`
	MP               int            `json:"mp"`
	MaxMP            int            `json:"maxMp"`
	Stats            Stats          `json:"stats"`
	Element          ElementProfile `json:"element"`
	Loyalty          int            `json:"loyalty"`
	IsRiding         bool           `json:"isRiding,omitempty"`
	IsRepresentative bool           `json:"isRepresentative,omitempty"`
	SkillIDs         []string       `json:"skillIds,omitempty"`
}

// normalizePool 生命/法力不合法时补满
func normalizePool(cur, max int) (int, int) {
	if max < 1 {
		max = 1
	}
	if cur <= 0 || cur > max {
		cur = max
	}
	return cur, max
}

// NewCharacterUnit 角色转换为战斗单位
func NewCharacterUnit(p CharacterProfile) *BattleUnit {
	hp, maxHP := normalizePool(p.HP, p.MaxHP)
	mp, maxMP := p.MP, p.MaxMP
	if mp < 0 || mp > maxMP {
		mp = maxMP
	}
	u := &BattleUnit{
		ID:       p.ID,
		Type:     UnitCharacter,
		Name:     p.Name,
		OwnerID:  p.OwnerID,
		Level:    max(p.Level, 1),
		HP:       hp,
		MaxHP:    maxHP,
		MP:       mp,
		MaxMP:    maxMP,
		Stats:    p.Stats,
		Element:  p.Element,
		IsAlive:  true,
		SkillIDs: append([]string(nil), p.SkillIDs...),
	}
	if p.Weapon != nil {
		w := *p.Weapon
		u.Weapon = &w
	}
	return u
}

// NewCompanionUnit 宠物转换为战斗单位
func NewCompanionUnit(p CompanionProfile) *BattleUnit {
	hp, maxHP := normalizePool(p.HP, p.MaxHP)
	mp, maxMP := p.MP, p.MaxMP
	if mp < 0 || mp > maxMP {
		mp = maxMP
	}
	return &BattleUnit{
		ID:               p.ID,
		Type:             UnitPet,
		Name:             p.Name,
		OwnerID:          p.OwnerID,
		TemplateID:       p.SpeciesID,
		Level:            max(p.Level, 1),
		HP:               hp,
		MaxHP:            maxHP,
		MP:               mp,
		MaxMP:            maxMP,
		Stats:            p.Stats,
		Element:          p.Element,
		IsAlive:          true,
		Loyalty:          ClampLoyalty(p.Loyalty),
		IsRiding:         p.IsRiding,
		IsRepresentative: p.IsRepresentative,
		SkillIDs:         append([]string(nil), p.SkillIDs...),
	}
}

// SpawnConfig 生成敌人的参数
type SpawnConfig struct {
	RarePercent float64
	NewID       func() string
	Species     func(id string) (*SpeciesTemplate, bool)
}

// SpawnOpponents 按关卡配置随机生成敌人：数量与等级在区间内均匀随机，每只有小概率为稀有色
func SpawnOpponents(r Rand, stage *StageTemplate, cfg SpawnConfig) ([]*BattleUnit, error) {
	if len(stage.Opponents) == 0 {
		return nil, fmt.Errorf("stage %s has no opponents", stage.ID)
	}
	count := randRange(r, max(stage.OpponentCount.Min, 1), max(stage.OpponentCount.Max, 1))

	units := make([]*BattleUnit, 0, count)
	for i := 0; i < count; i++ {
		entry := stage.Opponents[r.IntN(len(stage.Opponents))]
		species, ok := cfg.Species(entry.SpeciesID)
		if !ok {
			return nil, fmt.Errorf("stage %s opponent %s: %w", stage.ID, entry.SpeciesID, ErrSpeciesNotFound)
		}
		level := randRange(r, max(entry.Level.Min, 1), max(entry.Level.Max, 1))
		u := spawnUnit(r, species, level, cfg.NewID())
		u.IsBoss = entry.IsBoss
		u.IsRare = rollPercent(r, cfg.RarePercent)
		units = append(units, u)
	}
	return units, nil
}

func spawnUnit(r Rand, species *SpeciesTemplate, level int, id string) *BattleUnit {
	growth := rollGrowth(r, species.Growth)
	levels := float64(level - 1)

	hp := randRange(r, species.HP.Min, species.HP.Max)
	mp := randRange(r, species.MP.Min, species.MP.Max)
	base := Stats{
		Attack:  randRange(r, species.Attack.Min, species.Attack.Max),
		Defense: randRange(r, species.Defense.Min, species.Defense.Max),
		Speed:   randRange(r, species.Speed.Min, species.Speed.Max),
		Evasion: randRange(r, species.Evasion.Min, species.Evasion.Max),
	}

	u := &BattleUnit{
		ID:         id,
		Type:       UnitMonster,
		Name:       species.Name,
		TemplateID: species.ID,
		Level:      level,
		MaxHP:      max(hp+int(math.Floor(growth.HP*levels)), 1),
		MaxMP:      max(mp+int(math.Floor(growth.MP*levels)), 0),
		Stats: Stats{
			Attack:  base.Attack + int(math.Floor(growth.Attack*levels)),
			Defense: base.Defense + int(math.Floor(growth.Defense*levels)),
			Speed:   base.Speed + int(math.Floor(growth.Speed*levels)),
			Evasion: base.Evasion,
		},
		Element:      species.Element,
		IsAlive:      true,
		IsCapturable: species.Capturable && level == 1,
		Growth:       &growth,
		SkillIDs:     append([]string(nil), species.SkillIDs...),
	}
	u.HP = u.MaxHP
	u.MP = u.MaxMP
	u.StatQuality = qualityOf(species, hp, base)
	return u
}

// StatQuality 单位属性在种族区间内的平均相对位置 [0,1]
func StatQuality(species *SpeciesTemplate, u *BattleUnit) float64 {
	if u.Level > 1 && u.StatQuality > 0 {
		return u.StatQuality
	}
	return qualityOf(species, u.MaxHP, u.Stats)
}

func qualityOf(species *SpeciesTemplate, hp int, s Stats) float64 {
	parts := []float64{
		rangePosition(hp, species.HP),
		rangePosition(s.Attack, species.Attack),
		rangePosition(s.Defense, species.Defense),
		rangePosition(s.Speed, species.Speed),
	}
	sum := 0.0
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

func rangePosition(v int, rg IntRange) float64 {
	if rg.Max <= rg.Min {
		return 1
	}
	pos := float64(v-rg.Min) / float64(rg.Max-rg.Min)
	return math.Max(0, math.Min(1, pos))
}
