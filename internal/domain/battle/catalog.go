package battle

// IntRange 整数区间 [Min, Max]
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FloatRange 浮点区间 [Min, Max]
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SpeciesTemplate 种族模板
type SpeciesTemplate struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Element    ElementProfile `json:"element"`
	HP         IntRange       `json:"hp"`
	MP         IntRange       `json:"mp"`
	Attack     IntRange       `json:"attack"`
	Defense    IntRange       `json:"defense"`
	Speed      IntRange       `json:"speed"`
	Evasion    IntRange       `json:"evasion"`
	Growth     GrowthRanges   `json:"growth"`
	Capturable bool           `json:"capturable"`
	SkillIDs   []string       `json:"skillIds,omitempty"`
}

// GrowthRanges 成长率区间
type GrowthRanges struct {
	HP      FloatRange `json:"hp"`
	MP      FloatRange `json:"mp"`
	Attack  FloatRange `json:"attack"`
	Defense FloatRange `json:"defense"`
	Speed   FloatRange `json:"speed"`
}

// StageOpponent 关卡可出现的敌人
type StageOpponent struct {
	SpeciesID string   `json:"speciesId"`
	Level     IntRange `json:"level"`
	IsBoss    bool     `json:"isBoss,omitempty"`
}

// DropEntry 掉落表条目
type DropEntry struct {
	Kind     string   `json:"kind"`
	ItemID   string   `json:"itemId"`
	Rate     float64  `json:"rate"` // 百分比
	Quantity IntRange `json:"quantity"`
}

// StageTemplate 关卡模板
type StageTemplate struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Opponents         []StageOpponent `json:"opponents"`
	OpponentCount     IntRange        `json:"opponentCount"`
	Gold              int             `json:"gold"`
	BonusExp          int             `json:"bonusExp,omitempty"`
	Drops             []DropEntry     `json:"drops,omitempty"`
	StarTurnThreshold int             `json:"starTurnThreshold"`
}

// SkillTarget 技能目标
type SkillTarget string

const (
	TargetEnemy    SkillTarget = "enemy"
	TargetAllEnemy SkillTarget = "all_enemies"
	TargetAlly     SkillTarget = "ally"
	TargetSelf     SkillTarget = "self"
)

// SkillTemplate 技能模板
type SkillTemplate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Element     Element     `json:"element,omitempty"`
	DamageRatio int         `json:"damageRatio,omitempty"` // 百分比
	HealRatio   int         `json:"healRatio,omitempty"`   // 百分比
	MPCost      int         `json:"mpCost"`
	Target      SkillTarget `json:"target"`
	Status      StatusType  `json:"status,omitempty"`
}

// IsArea 是否群体技能
func (s *SkillTemplate) IsArea() bool {
	return s.Target == TargetAllEnemy
}

// CaptureItem 捕捉道具
type CaptureItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Bonus int    `json:"bonus"`
}

// Catalog 回合结算所需的模板查询（调用方预先加载）
type Catalog interface {
	Skill(id string) (*SkillTemplate, bool)
	CaptureItem(id string) (*CaptureItem, bool)
	Species(id string) (*SpeciesTemplate, bool)
}

// StaticCatalog 基于 map 的 Catalog
type StaticCatalog struct {
	Skills       map[string]*SkillTemplate
	CaptureItems map[string]*CaptureItem
	SpeciesByID  map[string]*SpeciesTemplate
}

// NewStaticCatalog 创建空目录
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		Skills:       map[string]*SkillTemplate{},
		CaptureItems: map[string]*CaptureItem{},
		SpeciesByID:  map[string]*SpeciesTemplate{},
	}
}

func (c *StaticCatalog) Skill(id string) (*SkillTemplate, bool) {
	s, ok := c.Skills[id]
	return s, ok
}

func (c *StaticCatalog) CaptureItem(id string) (*CaptureItem, bool) {
	i, ok := c.CaptureItems[id]
	return i, ok
}

func (c *StaticCatalog) Species(id string) (*SpeciesTemplate, bool) {
	s, ok := c.SpeciesByID[id]
	return s, ok
}
