// Package battle 回合制宠物战斗的纯领域逻辑：单位、回合顺序、伤害、状态、忠诚度、捕捉与结算。
// 本包不做任何 IO，随机性全部来自注入的 Rand。
package battle

// UnitType 单位类别
type UnitType string

const (
	UnitCharacter UnitType = "character" // 玩家角色
	UnitPet       UnitType = "pet"       // 玩家宠物（伙伴）
	UnitMonster   UnitType = "monster"   // 敌方单位
)

// Stats 战斗属性
type Stats struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	Evasion int `json:"evasion"`
}

// Weapon 装备武器
type Weapon struct {
	AttackRatio int `json:"attackRatio"` // 攻击倍率（百分比，100 为原值）
	Accuracy    int `json:"accuracy"`    // 命中率（百分比）
}

// GrowthRates 每级成长率
type GrowthRates struct {
	HP      float64 `json:"hp"`
	MP      float64 `json:"mp"`
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
	Speed   float64 `json:"speed"`
}

// BattleUnit 战斗单位
type BattleUnit struct {
	ID            string         `json:"id"`
	Type          UnitType       `json:"type"`
	Name          string         `json:"name"`
	OwnerID       string         `json:"ownerId,omitempty"`
	TemplateID    string         `json:"templateId,omitempty"`
	Level         int            `json:"level"`
	HP            int            `json:"hp"`
	MaxHP         int            `json:"maxHp"`
	MP            int            `json:"mp"`
	MaxMP         int            `json:"maxMp"`
	Stats         Stats          `json:"stats"`
	Element       ElementProfile `json:"element"`
	StatusEffects []StatusEffect `json:"statusEffects"`
	IsAlive       bool           `json:"isAlive"`
	IsDefending   bool           `json:"isDefending"`

	Loyalty          int  `json:"loyalty,omitempty"`
	IsRiding         bool `json:"isRiding,omitempty"`
	IsRepresentative bool `json:"isRepresentative,omitempty"`
	WasKnockedOut    bool `json:"wasKnockedOut,omitempty"`

	IsCapturable bool         `json:"isCapturable,omitempty"`
	IsRare       bool         `json:"isRare,omitempty"`
	IsBoss       bool         `json:"isBoss,omitempty"`
	StatQuality  float64      `json:"statQuality,omitempty"` // 生成时属性在种族区间内的相对位置 [0,1]
	Growth       *GrowthRates `json:"growth,omitempty"`

	Weapon   *Weapon  `json:"weapon,omitempty"`
	SkillIDs []string `json:"skillIds,omitempty"`
}

// IsOpponent 是否敌方单位
func (u *BattleUnit) IsOpponent() bool {
	return u.Type == UnitMonster
}

// IsCompanion 是否玩家宠物
func (u *BattleUnit) IsCompanion() bool {
	return u.Type == UnitPet
}

// SameSide 两个单位是否同一阵营
func (u *BattleUnit) SameSide(other *BattleUnit) bool {
	return u.IsOpponent() == other.IsOpponent()
}

// HPRatio 当前生命比例
func (u *BattleUnit) HPRatio() float64 {
	if u.MaxHP <= 0 {
		return 0
	}
	return float64(u.HP) / float64(u.MaxHP)
}

// TakeDamage 扣除生命（下限 0），返回实际扣除值以及是否因此阵亡
func (u *BattleUnit) TakeDamage(amount int) (int, bool) {
	if !u.IsAlive || amount <= 0 {
		return 0, false
	}
	if amount > u.HP {
		amount = u.HP
	}
	u.HP -= amount
	if u.HP == 0 {
		u.IsAlive = false
		u.IsDefending = false
		u.StatusEffects = nil
		u.WasKnockedOut = true
		return amount, true
	}
	return amount, false
}

// Heal 恢复生命（上限 MaxHP），返回实际恢复值
func (u *BattleUnit) Heal(amount int) int {
	if !u.IsAlive || amount <= 0 {
		return 0
	}
	if u.HP+amount > u.MaxHP {
		amount = u.MaxHP - u.HP
	}
	u.HP += amount
	return amount
}

// ActiveStatus 当前生效的异常状态
func (u *BattleUnit) ActiveStatus() *StatusEffect {
	if len(u.StatusEffects) == 0 {
		return nil
	}
	return &u.StatusEffects[0]
}

// HasStatus 是否带有指定状态
func (u *BattleUnit) HasStatus(kind StatusType) bool {
	for _, effect := range u.StatusEffects {
		if effect.Type == kind {
			return true
		}
	}
	return false
}

// HasSkill 单位是否掌握技能
func (u *BattleUnit) HasSkill(skillID string) bool {
	for _, id := range u.SkillIDs {
		if id == skillID {
			return true
		}
	}
	return false
}

// Clone 深拷贝，用于快照
func (u *BattleUnit) Clone() *BattleUnit {
	c := *u
	c.StatusEffects = append([]StatusEffect(nil), u.StatusEffects...)
	c.SkillIDs = append([]string(nil), u.SkillIDs...)
	if u.Weapon != nil {
		w := *u.Weapon
		c.Weapon = &w
	}
	if u.Growth != nil {
		g := *u.Growth
		c.Growth = &g
	}
	return &c
}

// ActionType 行动类型
type ActionType string

const (
	ActionAttack  ActionType = "attack"
	ActionDefend  ActionType = "defend"
	ActionCapture ActionType = "capture"
	ActionFlee    ActionType = "flee"
	ActionWait    ActionType = "wait"
	ActionSkill   ActionType = "skill"
)

// Valid 是否为已知行动类型
func (a ActionType) Valid() bool {
	switch a {
	case ActionAttack, ActionDefend, ActionCapture, ActionFlee, ActionWait, ActionSkill:
		return true
	}
	return false
}

// BattleAction 玩家提交的行动意图
type BattleAction struct {
	ActorID  string     `json:"actorId"`
	Type     ActionType `json:"type"`
	TargetID string     `json:"targetId,omitempty"`
	SkillID  string     `json:"skillId,omitempty"`
	ItemID   string     `json:"itemId,omitempty"`
}

// Phase 战斗阶段
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseVictory    Phase = "victory"
	PhaseDefeat     Phase = "defeat"
	PhaseFled       Phase = "fled"
)

// IsTerminal 是否已结束
func (p Phase) IsTerminal() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseFled
}

// DamageResult 伤害计算结果，保留各个倍率便于展示和断言
type DamageResult struct {
	Damage                   int     `json:"damage"`
	IsCritical               bool    `json:"isCritical"`
	ElementMultiplier        float64 `json:"elementMultiplier"`
	StatusWeaknessMultiplier float64 `json:"statusWeaknessMultiplier"`
	WasDefending             bool    `json:"wasDefending"`
}

// Drop 掉落物
type Drop struct {
	Kind     string `json:"kind"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// BattleRewards 胜利结算
type BattleRewards struct {
	Exp            map[string]int      `json:"exp"`
	Gold           int                 `json:"gold"`
	Drops          []Drop              `json:"drops"`
	Stars          int                 `json:"stars"`
	LoyaltyChanges map[string]int      `json:"loyaltyChanges,omitempty"`
	CapturedPets   []CapturedCompanion `json:"capturedPets,omitempty"`
}

// StatusTick 回合开始时状态造成的伤害
type StatusTick struct {
	UnitID string     `json:"unitId"`
	Status StatusType `json:"status"`
	Damage int        `json:"damage"`
	Died   bool       `json:"died"`
}

// StatusExpiry 回合结束时解除的状态
type StatusExpiry struct {
	UnitID string     `json:"unitId"`
	Status StatusType `json:"status"`
}

// UnitSnapshot 回合结束后的单位变化
type UnitSnapshot struct {
	ID          string        `json:"id"`
	HP          int           `json:"hp"`
	MaxHP       int           `json:"maxHp"`
	MP          int           `json:"mp"`
	MaxMP       int           `json:"maxMp"`
	IsAlive     bool          `json:"isAlive"`
	IsDefending bool          `json:"isDefending"`
	Status      *StatusEffect `json:"status,omitempty"`
	Loyalty     int           `json:"loyalty,omitempty"`
}

func snapshotOf(u *BattleUnit) UnitSnapshot {
	s := UnitSnapshot{
		ID:          u.ID,
		HP:          u.HP,
		MaxHP:       u.MaxHP,
		MP:          u.MP,
		MaxMP:       u.MaxMP,
		IsAlive:     u.IsAlive,
		IsDefending: u.IsDefending,
		Loyalty:     u.Loyalty,
	}
	if active := u.ActiveStatus(); active != nil {
		copied := *active
		s.Status = &copied
	}
	return s
}
