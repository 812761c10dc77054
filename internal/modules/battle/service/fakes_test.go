package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// fixedRand Float64 恒定返回 f，IntN 恒定返回 0
type fixedRand struct{ f float64 }

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) IntN(int) int     { return 0 }

type fakeStateRepo struct {
	mu       sync.Mutex
	states   map[string][]byte
	ttls     map[string]time.Duration
	active   map[string]bool
	locked   map[string]bool
	saves    int
	saveErr  error
	lockHeld bool // 模拟其他实例持有锁
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{
		states: map[string][]byte{},
		ttls:   map[string]time.Duration{},
		active: map[string]bool{},
		locked: map[string]bool{},
	}
}

func (f *fakeStateRepo) Save(_ context.Context, state *battle.BattleState, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	state.Version++
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	f.states[state.BattleID] = data
	f.ttls[state.BattleID] = ttl
	f.saves++
	return nil
}

func (f *fakeStateRepo) Load(_ context.Context, battleID string) (*battle.BattleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.states[battleID]
	if !ok {
		return nil, interfaces.ErrBattleStateNotFound
	}
	var state battle.BattleState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (f *fakeStateRepo) Delete(_ context.Context, battleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, battleID)
	return nil
}

func (f *fakeStateRepo) MarkActive(_ context.Context, battleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[battleID] = true
	return nil
}

func (f *fakeStateRepo) ClearActive(_ context.Context, battleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, battleID)
	return nil
}

func (f *fakeStateRepo) ListActive(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.active))
	for id := range f.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStateRepo) Lock(_ context.Context, battleID string, _ time.Duration) (interfaces.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockHeld || f.locked[battleID] {
		return nil, interfaces.ErrBattleLocked
	}
	f.locked[battleID] = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.locked, battleID)
		return nil
	}, nil
}

func (f *fakeStateRepo) isActive(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[id]
}

type fakeTemplateRepo struct {
	stages  map[string]*battle.StageTemplate
	catalog *battle.StaticCatalog
}

func (f *fakeTemplateRepo) GetStage(_ context.Context, id string) (*battle.StageTemplate, error) {
	if s, ok := f.stages[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("stage %s: %w", id, interfaces.ErrTemplateNotFound)
}

func (f *fakeTemplateRepo) GetSpecies(_ context.Context, id string) (*battle.SpeciesTemplate, error) {
	if s, ok := f.catalog.Species(id); ok {
		return s, nil
	}
	return nil, interfaces.ErrTemplateNotFound
}

func (f *fakeTemplateRepo) GetSkill(_ context.Context, id string) (*battle.SkillTemplate, error) {
	if s, ok := f.catalog.Skill(id); ok {
		return s, nil
	}
	return nil, interfaces.ErrTemplateNotFound
}

func (f *fakeTemplateRepo) GetCaptureItem(_ context.Context, id string) (*battle.CaptureItem, error) {
	if i, ok := f.catalog.CaptureItem(id); ok {
		return i, nil
	}
	return nil, interfaces.ErrTemplateNotFound
}

type fakeRosterRepo struct {
	mu         sync.Mutex
	characters map[string]*battle.CharacterProfile
	companions map[string]*battle.CompanionProfile
	added      []*battle.CapturedCompanion
	loyalty    map[string]int
}

func (f *fakeRosterRepo) GetCharacter(_ context.Context, controllerID, characterID string) (*battle.CharacterProfile, error) {
	for _, c := range f.characters {
		if c.OwnerID == controllerID && (characterID == "" || c.ID == characterID) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, interfaces.ErrCharacterNotFound
}

func (f *fakeRosterRepo) GetCompanions(_ context.Context, controllerID string, ids []string) ([]*battle.CompanionProfile, error) {
	var out []*battle.CompanionProfile
	for _, id := range ids {
		c, ok := f.companions[id]
		if !ok || c.OwnerID != controllerID {
			return nil, interfaces.ErrCompanionNotFound
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRosterRepo) AddCompanion(_ context.Context, c *battle.CapturedCompanion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, c)
	return nil
}

func (f *fakeRosterRepo) UpdateLoyalty(_ context.Context, id string, loyalty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loyalty == nil {
		f.loyalty = map[string]int{}
	}
	f.loyalty[id] = loyalty
	return nil
}

type fakeBattleReportRepo struct {
	reports []*interfaces.BattleReport
	err     error
}

func (f *fakeBattleReportRepo) Create(_ context.Context, report *interfaces.BattleReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

type sentEvent struct {
	battleID string
	event    string
	payload  any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, battleID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{battleID: battleID, event: event, payload: payload})
}

func (f *fakeBroadcaster) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.event)
	}
	return out
}

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// testEnv 一名角色（速度 20）+ 一只宠物对阵固定属性的史莱姆
type testEnv struct {
	svc         *BattleService
	states      *fakeStateRepo
	templates   *fakeTemplateRepo
	roster      *fakeRosterRepo
	reports     *fakeBattleReportRepo
	broadcaster *fakeBroadcaster
	metrics     *metrics.BattleMetrics
	now         time.Time
}

func newTestEnv(slimeHP int, r battle.Rand) *testEnv {
	catalog := battle.NewStaticCatalog()
	catalog.SpeciesByID["slime"] = &battle.SpeciesTemplate{
		ID: "slime", Name: "史莱姆",
		Element:    battle.Single(battle.ElementWater),
		HP:         battle.IntRange{Min: slimeHP, Max: slimeHP},
		Attack:     battle.IntRange{Min: 12, Max: 12},
		Defense:    battle.IntRange{Min: 20, Max: 20},
		Speed:      battle.IntRange{Min: 10, Max: 10},
		Capturable: true,
	}
	catalog.CaptureItems["silk_net"] = &battle.CaptureItem{ID: "silk_net", Bonus: 15}
	catalog.Skills["gale"] = &battle.SkillTemplate{ID: "gale", DamageRatio: 100, MPCost: 5, Target: battle.TargetAllEnemy}

	env := &testEnv{
		states: newFakeStateRepo(),
		templates: &fakeTemplateRepo{
			stages: map[string]*battle.StageTemplate{
				"meadow-1": {
					ID:                "meadow-1",
					Opponents:         []battle.StageOpponent{{SpeciesID: "slime", Level: battle.IntRange{Min: 1, Max: 1}}},
					OpponentCount:     battle.IntRange{Min: 1, Max: 1},
					Gold:              15,
					StarTurnThreshold: 5,
				},
			},
			catalog: catalog,
		},
		roster: &fakeRosterRepo{
			characters: map[string]*battle.CharacterProfile{
				"hero-1": {
					ID: "hero-1", OwnerID: "player-1", Name: "勇者", Level: 1,
					HP: 100, MaxHP: 100, MP: 20, MaxMP: 20,
					Stats:    battle.Stats{Attack: 50, Defense: 5, Speed: 20},
					SkillIDs: []string{"gale"},
				},
			},
			companions: map[string]*battle.CompanionProfile{
				"pet-1": {
					ID: "pet-1", OwnerID: "player-1", SpeciesID: "slime", Name: "小史", Level: 1,
					HP: 40, MaxHP: 40, Stats: battle.Stats{Attack: 10, Defense: 5, Speed: 5},
					Loyalty: 80,
				},
				"pet-x": {ID: "pet-x", OwnerID: "player-2", Name: "别人的宠物", Level: 1, HP: 10, MaxHP: 10},
			},
		},
		reports:     &fakeBattleReportRepo{},
		broadcaster: &fakeBroadcaster{},
		metrics:     metrics.NewBattleMetricsWithRegistry("test", prometheus.NewRegistry()),
		now:         testNow,
	}

	ids := 0
	env.svc = NewBattleService(Dependencies{
		States:      env.states,
		Templates:   env.templates,
		Roster:      env.roster,
		Reports:     env.reports,
		Broadcaster: env.broadcaster,
		Logger:      log.NewNopLogger(),
		Metrics:     env.metrics,
	}, Options{
		TurnTimeout: 30 * time.Second,
		Rand:        r,
		Now:         func() time.Time { return env.now },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
	return env
}

// start 开战并返回战斗 ID 和生成的敌人 ID
func (e *testEnv) start(companions ...string) (string, string) {
	view, err := e.svc.StartBattle(context.Background(), &StartBattleInput{
		ControllerID: "player-1",
		StageID:      "meadow-1",
		CompanionIDs: companions,
	})
	if err != nil {
		panic(err)
	}
	for _, u := range view.Units {
		if u.Type == battle.UnitMonster {
			return view.BattleID, u.ID
		}
	}
	panic("no opponent spawned")
}
