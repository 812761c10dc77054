// Package service 战斗编排：开战、提交行动、回合结算、逃跑与战后归档
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// 回合结算的触发方式（指标标签）
const (
	triggerSubmit  = "submit"
	triggerTimeout = "timeout"
	triggerManual  = "manual"
)

// Options 战斗服务参数
type Options struct {
	TurnTimeout      time.Duration
	StateTTL         time.Duration
	FinishedStateTTL time.Duration
	LockTTL          time.Duration
	RarePercent      float64
	ServiceName      string

	// 测试中注入
	Rand  battle.Rand
	Now   func() time.Time
	NewID func() string
}

func (o *Options) applyDefaults() {
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = 30 * time.Second
	}
	if o.StateTTL <= 0 {
		o.StateTTL = time.Hour
	}
	if o.FinishedStateTTL <= 0 {
		o.FinishedStateTTL = 5 * time.Minute
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 10 * time.Second
	}
	if o.Rand == nil {
		o.Rand = battle.NewTimeSeededRand()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

// Dependencies 战斗服务依赖，Reports / Broadcaster / Logger / Metrics 可为空
type Dependencies struct {
	States      interfaces.BattleStateRepository
	Templates   interfaces.TemplateRepository
	Roster      interfaces.RosterRepository
	Reports     interfaces.BattleReportRepository
	Broadcaster Broadcaster
	Logger      log.Logger
	Metrics     *metrics.BattleMetrics
}

// BattleService 战斗编排服务
type BattleService struct {
	states      interfaces.BattleStateRepository
	templates   interfaces.TemplateRepository
	roster      interfaces.RosterRepository
	reports     interfaces.BattleReportRepository
	broadcaster Broadcaster
	logger      log.Logger
	metrics     *metrics.BattleMetrics
	locker      *keyedLocker
	opts        Options
}

// NewBattleService 创建战斗服务
func NewBattleService(deps Dependencies, opts Options) *BattleService {
	opts.applyDefaults()
	if deps.Broadcaster == nil {
		deps.Broadcaster = nopBroadcaster{}
	}
	if deps.Logger == nil {
		deps.Logger = log.GetLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultBattleMetrics
	}
	return &BattleService{
		states:      deps.States,
		templates:   deps.Templates,
		roster:      deps.Roster,
		reports:     deps.Reports,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger.With("component", "battle_service"),
		metrics:     deps.Metrics,
		locker:      newKeyedLocker(),
		opts:        opts,
	}
}

// SetBroadcaster 替换广播器（实时通道在服务之后创建）
func (s *BattleService) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = nopBroadcaster{}
	}
	s.broadcaster = b
}

// StartBattleInput 开战参数
type StartBattleInput struct {
	ControllerID string   `json:"-"`
	CharacterID  string   `json:"characterId"`
	StageID      string   `json:"stageId" validate:"required,max=64"`
	CompanionIDs []string `json:"companionIds" validate:"max=5,dive,required"`
}

// StartBattle 组建双方单位、计算初始行动顺序并保存
func (s *BattleService) StartBattle(ctx context.Context, input *StartBattleInput) (*BattleView, error) {
	if input == nil || input.ControllerID == "" {
		return nil, xerrors.NewValidationError("controller_id", "不能为空")
	}
	if input.StageID == "" {
		return nil, xerrors.NewValidationError("stage_id", "不能为空")
	}

	stage, err := s.templates.GetStage(ctx, input.StageID)
	if err != nil {
		if errors.Is(err, interfaces.ErrTemplateNotFound) {
			return nil, xerrors.NewStageNotFoundError(input.StageID)
		}
		return nil, xerrors.NewDatabaseError("get_stage", "battle_stages", err)
	}

	speciesByID := make(map[string]*battle.SpeciesTemplate, len(stage.Opponents))
	for _, o := range stage.Opponents {
		if _, ok := speciesByID[o.SpeciesID]; ok {
			continue
		}
		species, err := s.templates.GetSpecies(ctx, o.SpeciesID)
		if err != nil {
			if errors.Is(err, interfaces.ErrTemplateNotFound) {
				return nil, xerrors.NewSpeciesNotFoundError(o.SpeciesID)
			}
			return nil, xerrors.NewDatabaseError("get_species", "battle_species", err)
		}
		speciesByID[o.SpeciesID] = species
	}

	character, err := s.roster.GetCharacter(ctx, input.ControllerID, input.CharacterID)
	if err != nil {
		if errors.Is(err, interfaces.ErrCharacterNotFound) {
			return nil, xerrors.NewCharacterNotFoundError(input.CharacterID)
		}
		return nil, xerrors.NewDatabaseError("get_character", "characters", err)
	}
	if character.OwnerID != input.ControllerID {
		return nil, xerrors.NewPermissionError("character", "battle")
	}

	var companions []*battle.CompanionProfile
	if ids := dedupe(input.CompanionIDs); len(ids) > 0 {
		companions, err = s.roster.GetCompanions(ctx, input.ControllerID, ids)
		if err != nil {
			if errors.Is(err, interfaces.ErrCompanionNotFound) {
				return nil, xerrors.New(xerrors.CodeCompanionNotFound, "宠物不存在").
					WithMetadata("companion_ids", ids)
			}
			return nil, xerrors.NewDatabaseError("get_companions", "companions", err)
		}
	}

	now := s.opts.Now()
	state := battle.NewBattleState(s.opts.NewID(), stage.ID, []string{input.ControllerID}, s.opts.TurnTimeout, now)
	state.AddUnit(battle.NewCharacterUnit(*character))
	for _, c := range companions {
		if c.OwnerID != input.ControllerID {
			return nil, xerrors.NewNotOwnerError(state.BattleID, c.ID)
		}
		state.AddUnit(battle.NewCompanionUnit(*c))
	}

	opponents, err := battle.SpawnOpponents(s.opts.Rand, stage, battle.SpawnConfig{
		RarePercent: s.opts.RarePercent,
		NewID:       s.opts.NewID,
		Species: func(id string) (*battle.SpeciesTemplate, bool) {
			sp, ok := speciesByID[id]
			return sp, ok
		},
	})
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeDataIntegrityError, "关卡配置无效", err)
	}
	for _, u := range opponents {
		state.AddUnit(u)
	}
	state.TurnOrder = battle.ComputeTurnOrder(state.Units)

	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	if err := s.states.MarkActive(ctx, state.BattleID); err != nil {
		// 未登记只影响超时扫描，战斗本身可继续
		s.logger.ErrorContext(ctx, "登记进行中战斗失败", log.String("battle_id", state.BattleID), log.Any("error", err))
	}

	s.metrics.BattleStarted(s.opts.ServiceName)
	log.LogBattleEvent(ctx, "started", state.BattleID, state.TurnNumber,
		log.String("stage_id", stage.ID),
		log.String("controller_id", input.ControllerID),
		log.Int("opponents", len(opponents)),
	)

	view := viewOf(state)
	s.broadcaster.Broadcast(ctx, state.BattleID, EventBattleStarted, view)
	return view, nil
}

// GetState 参与者读取战斗状态
func (s *BattleService) GetState(ctx context.Context, controllerID, battleID string) (*BattleView, error) {
	ctx = log.WithBattle(ctx, battleID)
	state, err := s.load(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !state.IsParticipant(controllerID) {
		return nil, xerrors.NewNotParticipantError(battleID, controllerID)
	}
	return viewOf(state), nil
}

// ListActive 进行中的战斗 ID
func (s *BattleService) ListActive(ctx context.Context) ([]string, error) {
	ids, err := s.states.ListActive(ctx)
	if err != nil {
		return nil, xerrors.NewCacheError("list_active", err)
	}
	return ids, nil
}

func (s *BattleService) load(ctx context.Context, battleID string) (*battle.BattleState, error) {
	if battleID == "" {
		return nil, xerrors.NewValidationError("battle_id", "不能为空")
	}
	state, err := s.states.Load(ctx, battleID)
	if errors.Is(err, interfaces.ErrBattleStateNotFound) {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	if err != nil {
		return nil, xerrors.NewCacheError("load_battle", err)
	}
	return state, nil
}

func (s *BattleService) save(ctx context.Context, state *battle.BattleState) error {
	ttl := s.opts.StateTTL
	if state.Phase.IsTerminal() {
		ttl = s.opts.FinishedStateTTL
	}
	if err := s.states.Save(ctx, state, ttl); err != nil {
		return xerrors.NewCacheError("save_battle", err)
	}
	return nil
}

// withBattle 在进程内锁与跨实例锁下读取状态并执行 fn
func (s *BattleService) withBattle(ctx context.Context, battleID string, fn func(state *battle.BattleState) error) error {
	release := s.locker.Lock(battleID)
	defer release()

	unlock, err := s.states.Lock(ctx, battleID, s.opts.LockTTL)
	if errors.Is(err, interfaces.ErrBattleLocked) {
		return xerrors.New(xerrors.CodeResourceLocked, "战斗正在结算，请稍后重试").
			WithMetadata("battle_id", battleID)
	}
	if err != nil {
		return xerrors.NewCacheError("lock_battle", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "释放战斗锁失败", log.String("battle_id", battleID), log.Any("error", err))
		}
	}()

	state, err := s.load(ctx, battleID)
	if err != nil {
		return err
	}
	return fn(state)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
