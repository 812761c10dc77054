package battle

import (
	"context"
	"fmt"
	"time"
)

// Outcome 单个行动的结算结果
type Outcome string

const (
	OutcomeHit           Outcome = "hit"
	OutcomeMiss          Outcome = "miss"
	OutcomeEvaded        Outcome = "evaded"
	OutcomeHealed        Outcome = "healed"
	OutcomeDefended      Outcome = "defended"
	OutcomeWaited        Outcome = "waited"
	OutcomeCaptured      Outcome = "captured"
	OutcomeCaptureFailed Outcome = "capture_failed"
	OutcomeFled          Outcome = "fled"
	OutcomeFleeFailed    Outcome = "flee_failed"
	OutcomeSkipped       Outcome = "skipped"  // 状态阻止行动
	OutcomeRanAway       Outcome = "ran_away" // 低忠诚宠物逃走
	OutcomeNoTarget      Outcome = "no_target"
	OutcomeRejected      Outcome = "rejected" // 状态限制或行动不合法
)

// ActionResult 行动结算记录
type ActionResult struct {
	ActorID       string        `json:"actorId"`
	Action        ActionType    `json:"action"`
	TargetID      string        `json:"targetId,omitempty"`
	SkillID       string        `json:"skillId,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	Damage        *DamageResult `json:"damage,omitempty"`
	Heal          int           `json:"heal,omitempty"`
	StatusApplied StatusType    `json:"statusApplied,omitempty"`
	StatusCured   StatusType    `json:"statusCured,omitempty"`
	BlockedBy     StatusType    `json:"blockedBy,omitempty"`
	TargetDied    bool          `json:"targetDied,omitempty"`
	CatchRate     int           `json:"catchRate,omitempty"`
	FleeChance    int           `json:"fleeChance,omitempty"`
	GangUpSize    int           `json:"gangUpSize,omitempty"`
	Confused      bool          `json:"confused,omitempty"`
	Disobeyed     bool          `json:"disobeyed,omitempty"`
	DisobeyChoice DisobeyChoice `json:"disobeyChoice,omitempty"`
	Message       string        `json:"message,omitempty"`
}

// TurnReport 一个回合的结算报告
type TurnReport struct {
	BattleID       string             `json:"battleId"`
	TurnNumber     int                `json:"turnNumber"`
	Actions        []ActionResult     `json:"actions"`
	StatusTicks    []StatusTick       `json:"statusTicks,omitempty"`
	ExpiredEffects []StatusExpiry     `json:"expiredEffects,omitempty"`
	UnitUpdates    []UnitSnapshot     `json:"unitUpdates"`
	DefeatedUnits  []string           `json:"defeatedUnits"`
	RanAway        []string           `json:"ranAway,omitempty"`
	CapturedPet    *CapturedCompanion `json:"capturedPet,omitempty"`
	BattleEnded    bool               `json:"battleEnded"`
	Result         Phase              `json:"result,omitempty"`
	Rewards        *BattleRewards     `json:"rewards,omitempty"`
	LoyaltyChanges map[string]int     `json:"loyaltyChanges,omitempty"`
	NextTurn       int                `json:"nextTurn"`
}

// ResolveEnv 回合结算依赖
type ResolveEnv struct {
	Rand    Rand
	Now     time.Time
	Catalog Catalog
	Stage   *StageTemplate
	NewID   func() string
}

type resolver struct {
	ctx    context.Context
	s      *BattleState
	env    ResolveEnv
	report *TurnReport
	dead   map[string]bool
}

// ResolveTurn 结算当前回合：回合开始状态、敌方行动生成、按顺序执行、回合结束状态、胜负判定与结算
func ResolveTurn(ctx context.Context, s *BattleState, env ResolveEnv) (*TurnReport, error) {
	if s.Phase != PhaseInProgress {
		return nil, fmt.Errorf("battle %s already ended with %s", s.BattleID, s.Phase)
	}
	if env.Now.IsZero() {
		env.Now = time.Now()
	}

	rv := &resolver{
		ctx: ctx,
		s:   s,
		env: env,
		report: &TurnReport{
			BattleID:      s.BattleID,
			TurnNumber:    s.TurnNumber,
			Actions:       []ActionResult{},
			DefeatedUnits: []string{},
		},
		dead: map[string]bool{},
	}

	// 上回合的防御姿态到本回合开始失效
	for _, u := range s.Units {
		u.IsDefending = false
	}

	order := append([]string(nil), s.TurnOrder...)
	for _, id := range order {
		u, ok := s.Units[id]
		if !ok || !u.IsAlive {
			continue
		}
		for _, tick := range ProcessTurnStart(env.Rand, u) {
			rv.report.StatusTicks = append(rv.report.StatusTicks, tick)
			if tick.Died {
				rv.markDead(u.ID)
			}
		}
	}

	if CheckBattleEnd(s) == PhaseInProgress {
		GenerateOpponentActions(env.Rand, s)

		for i, id := range order {
			s.CurrentTurnIndex = i
			u, ok := s.Units[id]
			if !ok || !u.IsAlive {
				continue
			}
			if err := rv.resolveUnit(u); err != nil {
				return nil, err
			}
			if s.Phase.IsTerminal() || CheckBattleEnd(s) != PhaseInProgress {
				break
			}
		}
	}

	if s.Phase == PhaseInProgress {
		for _, u := range s.sortedUnits() {
			if !u.IsAlive {
				continue
			}
			for _, kind := range ProcessTurnEnd(u) {
				rv.report.ExpiredEffects = append(rv.report.ExpiredEffects, StatusExpiry{UnitID: u.ID, Status: kind})
			}
		}
		if end := CheckBattleEnd(s); end != PhaseInProgress {
			if err := s.TransitionTo(ctx, end, env.Now); err != nil {
				return nil, err
			}
		}
	}

	if s.Phase.IsTerminal() {
		rv.finish()
	} else {
		s.CurrentTurnIndex = len(s.TurnOrder) - 1
		AdvanceTurn(s, env.Now)
	}

	rv.report.UnitUpdates = s.Snapshots()
	rv.report.NextTurn = s.TurnNumber
	return rv.report, nil
}

func (rv *resolver) markDead(id string) {
	if rv.dead[id] {
		return
	}
	rv.dead[id] = true
	rv.report.DefeatedUnits = append(rv.report.DefeatedUnits, id)
}

func (rv *resolver) finish() {
	s := rv.s
	victory := s.Phase == PhaseVictory

	changes := map[string]int{}
	for _, u := range s.Allies() {
		if !u.IsCompanion() {
			continue
		}
		before := u.Loyalty
		ApplyBattleLoyalty(rv.env.Rand, u, victory)
		u.Loyalty = LevelGapDecay(u.Level, s.participantLevel(u.OwnerID), u.Loyalty)
		if delta := u.Loyalty - before; delta != 0 {
			changes[u.ID] = delta
		}
	}
	if len(changes) > 0 {
		s.LoyaltyChanges = changes
		rv.report.LoyaltyChanges = changes
	}

	if victory {
		rewards := CalculateRewards(rv.env.Rand, s, rv.env.Stage)
		if len(changes) > 0 {
			rewards.LoyaltyChanges = changes
		}
		s.Rewards = rewards
		rv.report.Rewards = rewards
	}
	rv.report.BattleEnded = true
	rv.report.Result = s.Phase
}

func (rv *resolver) resolveUnit(u *BattleUnit) error {
	s := rv.s
	r := rv.env.Rand

	action, ok := s.PendingActions[u.ID]
	if !ok {
		action = BattleAction{ActorID: u.ID, Type: ActionWait}
	}

	// 无法行动的宠物也无法逃走
	if can, blockedBy := CanAct(r, u); !can {
		rv.push(ActionResult{ActorID: u.ID, Action: action.Type, Outcome: OutcomeSkipped, BlockedBy: blockedBy})
		return nil
	}

	if u.IsCompanion() && CheckRunaway(r, u) {
		s.RemoveUnit(u.ID)
		s.AlliesLost++
		rv.report.RanAway = append(rv.report.RanAway, u.ID)
		rv.push(ActionResult{ActorID: u.ID, Action: ActionWait, Outcome: OutcomeRanAway})
		return nil
	}

	base := ActionResult{ActorID: u.ID}
	if disobeyed, choice := CheckDisobedience(r, u); disobeyed {
		base.Disobeyed = true
		base.DisobeyChoice = choice
		action = disobeyedAction(r, s, u, choice)
	}
	base.Action = action.Type

	if !IsActionAllowed(u, action.Type) {
		base.Outcome = OutcomeRejected
		if active := u.ActiveStatus(); active != nil {
			base.BlockedBy = active.Type
		}
		rv.push(base)
		return nil
	}

	switch action.Type {
	case ActionAttack:
		rv.attack(u, action, base)
	case ActionSkill:
		rv.skill(u, action, base)
	case ActionDefend:
		u.IsDefending = true
		base.Outcome = OutcomeDefended
		rv.push(base)
	case ActionCapture:
		rv.capture(u, action, base)
	case ActionFlee:
		return rv.flee(u, base)
	default:
		base.Outcome = OutcomeWaited
		rv.push(base)
	}
	return nil
}

func (rv *resolver) push(res ActionResult) {
	rv.report.Actions = append(rv.report.Actions, res)
}

// disobeyedAction 不听指挥时替换的行动；攻击目标在全体其他存活单位中随机
func disobeyedAction(r Rand, s *BattleState, u *BattleUnit, choice DisobeyChoice) BattleAction {
	switch choice {
	case DisobeyAttack:
		target := pickOne(r, s.livingIDs(func(o *BattleUnit) bool { return o.ID != u.ID }))
		return BattleAction{ActorID: u.ID, Type: ActionAttack, TargetID: target}
	case DisobeyDefend:
		return BattleAction{ActorID: u.ID, Type: ActionDefend}
	default:
		return BattleAction{ActorID: u.ID, Type: ActionWait}
	}
}

// pickTarget 混乱时随机改选目标；指定目标失效时改为随机存活的敌方（或我方）单位
func (rv *resolver) pickTarget(u *BattleUnit, requested string, hostile bool, res *ActionResult) *BattleUnit {
	s := rv.s
	if IsConfused(u) {
		res.Confused = true
		if t, ok := s.Units[ConfusedTarget(rv.env.Rand, u, s)]; ok && t.IsAlive {
			return t
		}
	}
	if t, ok := s.Units[requested]; ok && t.IsAlive {
		return t
	}
	id := pickOne(rv.env.Rand, s.livingIDs(func(o *BattleUnit) bool {
		if hostile {
			return !o.SameSide(u)
		}
		return o.SameSide(u)
	}))
	if id == "" {
		return nil
	}
	return s.Units[id]
}

// strike 命中判定与伤害结算，返回是否命中
func (rv *resolver) strike(u, target *BattleUnit, opts DamageOptions, res *ActionResult) bool {
	r := rv.env.Rand
	switch CalculateHit(r, u, target, WeaponAccuracy(u)) {
	case HitMissed:
		res.Outcome = OutcomeMiss
		return false
	case HitEvaded:
		res.Outcome = OutcomeEvaded
		return false
	}

	dmg := Calculate(r, u, target, opts)
	res.Damage = &dmg
	res.Outcome = OutcomeHit
	if _, died := target.TakeDamage(dmg.Damage); died {
		res.TargetDied = true
		rv.markDead(target.ID)
		return true
	}
	if cured, ok := CheckElementCure(target, attackElement(u, opts).Dominant()); ok {
		res.StatusCured = cured
	}
	return true
}

func (rv *resolver) attack(u *BattleUnit, action BattleAction, res ActionResult) {
	target := rv.pickTarget(u, action.TargetID, true, &res)
	if target == nil {
		res.Outcome = OutcomeNoTarget
		rv.push(res)
		return
	}
	res.TargetID = target.ID

	group := FindGangUpGroup(u.ID, rv.s.TurnOrder, rv.s.Units)
	opts := DamageOptions{}
	if target.ID != u.ID && !target.SameSide(u) {
		res.GangUpSize = len(group)
		opts.GangUpBonus = GangUpCriticalBonus(len(group))
	}
	rv.strike(u, target, opts, &res)
	rv.push(res)
}

func (rv *resolver) skill(u *BattleUnit, action BattleAction, res ActionResult) {
	res.SkillID = action.SkillID
	sk, ok := rv.lookupSkill(action.SkillID)
	if !ok || !u.HasSkill(action.SkillID) {
		res.Outcome = OutcomeRejected
		res.Message = "unknown skill"
		rv.push(res)
		return
	}
	if u.MP < sk.MPCost {
		res.Outcome = OutcomeRejected
		res.Message = "insufficient mp"
		rv.push(res)
		return
	}
	u.MP -= sk.MPCost

	var targets []*BattleUnit
	switch sk.Target {
	case TargetAllEnemy:
		for _, id := range rv.s.livingIDs(func(o *BattleUnit) bool { return !o.SameSide(u) }) {
			targets = append(targets, rv.s.Units[id])
		}
	case TargetSelf:
		targets = []*BattleUnit{u}
	case TargetAlly:
		if t := rv.pickTarget(u, action.TargetID, false, &res); t != nil {
			targets = []*BattleUnit{t}
		}
	default:
		if t := rv.pickTarget(u, action.TargetID, true, &res); t != nil {
			targets = []*BattleUnit{t}
		}
	}
	if len(targets) == 0 {
		res.Outcome = OutcomeNoTarget
		rv.push(res)
		return
	}

	opts := DamageOptions{SkillRatio: sk.DamageRatio}
	if sk.Element != ElementNone {
		profile := Single(sk.Element)
		opts.Element = &profile
	}

	for _, target := range targets {
		hit := res
		hit.TargetID = target.ID
		landed := true
		if sk.DamageRatio > 0 {
			landed = rv.strike(u, target, opts, &hit)
		}
		if sk.HealRatio > 0 && target.IsAlive {
			hit.Heal = target.Heal(CalculateHeal(u, sk.HealRatio))
			if sk.DamageRatio == 0 {
				hit.Outcome = OutcomeHealed
			}
		}
		if hit.Outcome == "" {
			hit.Outcome = OutcomeHit
		}
		if landed && sk.Status != "" && TryApply(rv.env.Rand, target, sk.Status, sk.IsArea(), rv.env.Now) {
			hit.StatusApplied = sk.Status
		}
		rv.push(hit)
	}
}

func (rv *resolver) capture(u *BattleUnit, action BattleAction, res ActionResult) {
	if u.Type != UnitCharacter {
		res.Outcome = OutcomeRejected
		res.Message = "only characters can capture"
		rv.push(res)
		return
	}
	target, ok := rv.s.Units[action.TargetID]
	if !ok || !target.IsAlive {
		res.Outcome = OutcomeNoTarget
		rv.push(res)
		return
	}
	res.TargetID = target.ID
	if !IsCapturable(target) {
		res.Outcome = OutcomeCaptureFailed
		res.Message = "target is not capturable"
		rv.push(res)
		return
	}

	bonus := 0
	if item, ok := rv.lookupCaptureItem(action.ItemID); ok {
		bonus = item.Bonus
	}
	res.CatchRate = CalculateCatchRate(target.HPRatio(), u.Level, bonus)
	if !AttemptCapture(rv.env.Rand, res.CatchRate) {
		res.Outcome = OutcomeCaptureFailed
		rv.push(res)
		return
	}

	species, _ := rv.lookupSpecies(target.TemplateID)
	pet := SynthesizeCompanion(rv.env.Rand, target, species, u.OwnerID, rv.newID())
	rv.s.RemoveUnit(target.ID)
	rv.s.Captured = append(rv.s.Captured, pet)
	if rv.report.CapturedPet == nil {
		rv.report.CapturedPet = &pet
	}
	res.Outcome = OutcomeCaptured
	rv.push(res)
}

func (rv *resolver) flee(u *BattleUnit, res ActionResult) error {
	if u.IsOpponent() {
		res.Outcome = OutcomeRejected
		rv.push(res)
		return nil
	}
	res.FleeChance = FleeChance(u, rv.s.Opponents())
	if !rollPercent(rv.env.Rand, float64(res.FleeChance)) {
		res.Outcome = OutcomeFleeFailed
		rv.push(res)
		return nil
	}
	res.Outcome = OutcomeFled
	rv.push(res)
	return rv.s.TransitionTo(rv.ctx, PhaseFled, rv.env.Now)
}

func (rv *resolver) lookupSkill(id string) (*SkillTemplate, bool) {
	if rv.env.Catalog == nil || id == "" {
		return nil, false
	}
	return rv.env.Catalog.Skill(id)
}

func (rv *resolver) lookupCaptureItem(id string) (*CaptureItem, bool) {
	if rv.env.Catalog == nil || id == "" {
		return nil, false
	}
	return rv.env.Catalog.CaptureItem(id)
}

func (rv *resolver) lookupSpecies(id string) (*SpeciesTemplate, bool) {
	if rv.env.Catalog == nil || id == "" {
		return nil, false
	}
	return rv.env.Catalog.Species(id)
}

func (rv *resolver) newID() string {
	if rv.env.NewID != nil {
		return rv.env.NewID()
	}
	return fmt.Sprintf("%s-captured-%d", rv.s.BattleID, len(rv.s.Captured)+1)
}

// AttemptFlee 回合外的立即逃跑：成功则战斗以 fled 结束，失败时该单位本回合改为等待
func AttemptFlee(ctx context.Context, s *BattleState, actorID string, env ResolveEnv) (*TurnReport, error) {
	if s.Phase != PhaseInProgress {
		return nil, fmt.Errorf("battle %s already ended with %s", s.BattleID, s.Phase)
	}
	u, ok := s.Units[actorID]
	if !ok || !u.IsAlive {
		return nil, fmt.Errorf("battle %s: actor %s is not available", s.BattleID, actorID)
	}
	if env.Now.IsZero() {
		env.Now = time.Now()
	}

	rv := &resolver{
		ctx: ctx,
		s:   s,
		env: env,
		report: &TurnReport{
			BattleID:      s.BattleID,
			TurnNumber:    s.TurnNumber,
			Actions:       []ActionResult{},
			DefeatedUnits: []string{},
		},
		dead: map[string]bool{},
	}
	if err := rv.flee(u, ActionResult{ActorID: u.ID, Action: ActionFlee}); err != nil {
		return nil, err
	}

	if s.Phase.IsTerminal() {
		rv.finish()
	} else {
		s.UpsertAction(BattleAction{ActorID: u.ID, Type: ActionWait})
	}
	rv.report.UnitUpdates = s.Snapshots()
	rv.report.NextTurn = s.TurnNumber
	return rv.report, nil
}
