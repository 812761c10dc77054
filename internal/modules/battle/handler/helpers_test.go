package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	custommiddleware "github.com/LEE00-KR/uglynos-v1-sub000/internal/middleware"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/validator"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// fakeOperator 记录调用参数并返回预设结果
type fakeOperator struct {
	mu sync.Mutex

	view   *service.BattleView
	report *battle.TurnReport
	flee   *service.FleeResult
	active []string
	err    error

	startInput   *service.StartBattleInput
	submitted    []battle.BattleAction
	resolvedTurn int
	fleeActor    string
}

func newFakeOperator() *fakeOperator {
	return &fakeOperator{
		view: &service.BattleView{
			BattleID:     "b-1",
			StageID:      "meadow-1",
			Phase:        battle.PhaseInProgress,
			TurnNumber:   1,
			Participants: []string{"player-1"},
			Units: []*battle.BattleUnit{
				{ID: "hero-1", Type: battle.UnitCharacter, OwnerID: "player-1", IsAlive: true},
				{ID: "slime-1", Type: battle.UnitMonster, IsAlive: true},
			},
		},
	}
}

func (f *fakeOperator) StartBattle(_ context.Context, input *service.StartBattleInput) (*service.BattleView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeOperator) GetState(_ context.Context, controllerID, battleID string) (*service.BattleView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if battleID != f.view.BattleID {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	if controllerID != "player-1" {
		return nil, xerrors.NewNotParticipantError(battleID, controllerID)
	}
	return f.view, nil
}

func (f *fakeOperator) SubmitAndResolve(_ context.Context, controllerID, battleID string, actions []battle.BattleAction) (*service.SubmitResult, *battle.TurnReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	if controllerID != "player-1" {
		return nil, nil, xerrors.NewNotParticipantError(battleID, controllerID)
	}
	f.submitted = append(f.submitted, actions...)
	return &service.SubmitResult{BattleID: battleID, TurnNumber: 1, AllSubmitted: f.report != nil, Waiting: []string{}}, f.report, nil
}

func (f *fakeOperator) ResolveTurn(_ context.Context, battleID string, expectedTurn int) (*battle.TurnReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolvedTurn = expectedTurn
	if expectedTurn > 1 {
		return nil, xerrors.NewTurnResolvedError(battleID, expectedTurn, 1)
	}
	return &battle.TurnReport{BattleID: battleID, TurnNumber: 1, NextTurn: 2}, nil
}

func (f *fakeOperator) AttemptFlee(_ context.Context, _, _, actorID string) (*service.FleeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fleeActor = actorID
	if f.flee != nil {
		return f.flee, nil
	}
	return &service.FleeResult{Success: true, Chance: 40, Phase: battle.PhaseFled}, nil
}

func (f *fakeOperator) ListActive(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.err
}

// apiResponse 统一响应外壳
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newTestEcho 注册与模块一致的战斗路由
func newTestEcho(op BattleOperator) *echo.Echo {
	respWriter := response.NewResponseHandler(log.NewNopLogger(), "development")
	h := NewBattleHandler(op, respWriter)

	e := echo.New()
	e.Validator = validator.New()
	g := e.Group("/api/v1/battle", custommiddleware.AuthMiddleware(respWriter, log.NewNopLogger(), nil))
	g.POST("/battles", h.StartBattle)
	g.GET("/battles/:battle_id", h.GetBattle)
	g.POST("/battles/:battle_id/actions", h.SubmitActions)
	g.POST("/battles/:battle_id/resolve", h.ResolveTurn)
	g.POST("/battles/:battle_id/flee", h.Flee)
	return e
}
