package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	custommiddleware "github.com/LEE00-KR/uglynos-v1-sub000/internal/middleware"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// BattleOperator handler 依赖的战斗操作，由 service.BattleService 实现
type BattleOperator interface {
	StartBattle(ctx context.Context, input *service.StartBattleInput) (*service.BattleView, error)
	GetState(ctx context.Context, controllerID, battleID string) (*service.BattleView, error)
	SubmitAndResolve(ctx context.Context, controllerID, battleID string, actions []battle.BattleAction) (*service.SubmitResult, *battle.TurnReport, error)
	ResolveTurn(ctx context.Context, battleID string, expectedTurn int) (*battle.TurnReport, error)
	AttemptFlee(ctx context.Context, controllerID, battleID, actorID string) (*service.FleeResult, error)
	ListActive(ctx context.Context) ([]string, error)
}

var _ BattleOperator = (*service.BattleService)(nil)

// BattleHandler 战斗 HTTP Handler
type BattleHandler struct {
	battles    BattleOperator
	respWriter response.Writer
}

// NewBattleHandler 创建战斗 Handler
func NewBattleHandler(battles BattleOperator, respWriter response.Writer) *BattleHandler {
	return &BattleHandler{
		battles:    battles,
		respWriter: respWriter,
	}
}

// ==================== HTTP Request/Response Models ====================

// StartBattleRequest 开始战斗请求
type StartBattleRequest struct {
	StageID      string   `json:"stage_id" validate:"required,max=64"`                    // 关卡ID（必填）
	CharacterID  string   `json:"character_id,omitempty" validate:"omitempty,max=64"`     // 出战角色，为空时使用默认角色
	CompanionIDs []string `json:"companion_ids,omitempty" validate:"max=5,dive,required"` // 出战宠物，最多 5 只
}

// ActionRequest 单个行动
type ActionRequest struct {
	ActorID  string `json:"actor_id" validate:"required"`
	Type     string `json:"type" validate:"required,battle_action"`
	TargetID string `json:"target_id,omitempty"`
	SkillID  string `json:"skill_id,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
}

// SubmitActionsRequest 提交行动请求
type SubmitActionsRequest struct {
	Actions []ActionRequest `json:"actions" validate:"required,min=1,max=6,dive"`
}

// ResolveTurnRequest 手动结算请求，expected_turn 缺省时取读到的当前回合
type ResolveTurnRequest struct {
	ExpectedTurn int `json:"expected_turn" validate:"min=0"`
}

// FleeRequest 逃跑请求，actor_id 为空时使用当前角色
type FleeRequest struct {
	ActorID string `json:"actor_id,omitempty"`
}

// SubmitActionsResponse 提交行动响应，全部就绪时附带本回合战报
type SubmitActionsResponse struct {
	*service.SubmitResult
	Report *battle.TurnReport `json:"report,omitempty"`
}

func (r ActionRequest) toAction() battle.BattleAction {
	return battle.BattleAction{
		ActorID:  r.ActorID,
		Type:     battle.ActionType(r.Type),
		TargetID: r.TargetID,
		SkillID:  r.SkillID,
		ItemID:   r.ItemID,
	}
}

// ==================== HTTP Handlers ====================

// StartBattle 开始战斗
func (h *BattleHandler) StartBattle(c echo.Context) error {
	user, err := custommiddleware.GetCurrentUser(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	var req StartBattleRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	characterID := req.CharacterID
	if characterID == "" {
		characterID = user.CharacterID
	}

	view, err := h.battles.StartBattle(c.Request().Context(), &service.StartBattleInput{
		ControllerID: user.UserID,
		CharacterID:  characterID,
		StageID:      req.StageID,
		CompanionIDs: req.CompanionIDs,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoCreated(c, h.respWriter, view)
}

// GetBattle 获取战斗状态
func (h *BattleHandler) GetBattle(c echo.Context) error {
	userID, err := custommiddleware.GetCurrentUserID(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	view, err := h.battles.GetState(c.Request().Context(), userID, c.Param("battle_id"))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, view)
}

// SubmitActions 提交行动，所有单位就绪后立即结算
func (h *BattleHandler) SubmitActions(c echo.Context) error {
	userID, err := custommiddleware.GetCurrentUserID(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	var req SubmitActionsRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	actions := make([]battle.BattleAction, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, a.toAction())
	}

	result, report, err := h.battles.SubmitAndResolve(c.Request().Context(), userID, c.Param("battle_id"), actions)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, SubmitActionsResponse{SubmitResult: result, Report: report})
}

// ResolveTurn 手动结算当前回合（参与者可在未全部提交时强制结算）
func (h *BattleHandler) ResolveTurn(c echo.Context) error {
	userID, err := custommiddleware.GetCurrentUserID(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	var req ResolveTurnRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	ctx := c.Request().Context()
	battleID := c.Param("battle_id")
	view, err := h.battles.GetState(ctx, userID, battleID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	// 并发的重复请求中只有先拿到锁的一个能匹配回合号
	expected := req.ExpectedTurn
	if expected == 0 {
		expected = view.TurnNumber
	}

	report, err := h.battles.ResolveTurn(ctx, battleID, expected)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, report)
}

// Flee 立即尝试逃跑
func (h *BattleHandler) Flee(c echo.Context) error {
	user, err := custommiddleware.GetCurrentUser(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	var req FleeRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}

	ctx := c.Request().Context()
	battleID := c.Param("battle_id")
	actorID := req.ActorID
	if actorID == "" {
		actorID = user.CharacterID
	}
	if actorID == "" {
		view, err := h.battles.GetState(ctx, user.UserID, battleID)
		if err != nil {
			return response.EchoError(c, h.respWriter, err)
		}
		actorID = characterOf(view, user.UserID)
	}
	if actorID == "" {
		return response.EchoError(c, h.respWriter, xerrors.NewValidationError("actor_id", "不能为空"))
	}

	result, err := h.battles.AttemptFlee(ctx, user.UserID, battleID, actorID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, result)
}

// characterOf 控制者在战斗中的角色单位
func characterOf(view *service.BattleView, controllerID string) string {
	for _, u := range view.Units {
		if u.Type == battle.UnitCharacter && u.OwnerID == controllerID {
			return u.ID
		}
	}
	return ""
}
