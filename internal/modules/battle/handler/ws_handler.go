package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/realtime"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/modules/battle/service"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/auth"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/i18n"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/log"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/response"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/trace"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/validator"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

// WSHandler 战斗实时通道
type WSHandler struct {
	battles    BattleOperator
	hub        *realtime.Hub
	tokens     *auth.TokenManager
	validate   echo.Validator
	respWriter response.Writer
	logger     log.Logger

	// AllowedOrigins 为空时不校验 Origin（开发环境）
	AllowedOrigins []string
}

// NewWSHandler 创建实时通道 Handler
func NewWSHandler(battles BattleOperator, hub *realtime.Hub, tokens *auth.TokenManager, respWriter response.Writer, logger log.Logger) *WSHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &WSHandler{
		battles:    battles,
		hub:        hub,
		tokens:     tokens,
		validate:   validator.New(),
		respWriter: respWriter,
		logger:     logger.With("component", "battle_ws"),
	}
}

type wsStartPayload struct {
	StageID      string   `json:"stageId" validate:"required,max=64"`
	CharacterID  string   `json:"characterId,omitempty"`
	CompanionIDs []string `json:"companionIds,omitempty" validate:"max=5,dive,required"`
}

type wsJoinPayload struct {
	BattleID string `json:"battleId" validate:"required"`
}

type wsAction struct {
	ActorID  string `json:"actorId" validate:"required"`
	Type     string `json:"type" validate:"required,battle_action"`
	TargetID string `json:"targetId,omitempty"`
	SkillID  string `json:"skillId,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
}

type wsSubmitPayload struct {
	BattleID string     `json:"battleId" validate:"required"`
	Actions  []wsAction `json:"actions" validate:"required,min=1,max=6,dive"`
}

// Handle GET /ws/battle?token=<jwt>
func (h *WSHandler) Handle(c echo.Context) error {
	if h.tokens == nil {
		return response.EchoError(c, h.respWriter, xerrors.New(xerrors.CodeExternalServiceError, "实时通道未启用"))
	}
	claims, err := h.tokens.Parse(c.QueryParam("token"))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	opts := &websocket.AcceptOptions{OriginPatterns: h.AllowedOrigins}
	if len(h.AllowedOrigins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		h.logger.WarnContext(c.Request().Context(), "WebSocket 升级失败", log.Any("error", err))
		return nil
	}

	h.hub.Serve(c.Request().Context(), conn, claims.Subject, claims.CharacterID, h.dispatch)
	return nil
}

// dispatch 处理一条上行消息，失败时只回复给发送方
func (h *WSHandler) dispatch(ctx context.Context, client *realtime.Client, msg realtime.Envelope) {
	ctx = trace.WithTraceID(ctx, trace.NewID())
	var err error
	switch msg.Event {
	case realtime.EventStart:
		err = h.onStart(ctx, client, msg.Data)
	case realtime.EventJoin:
		err = h.onJoin(ctx, client, msg.Data)
	case realtime.EventSubmitActions:
		err = h.onSubmit(ctx, client, msg.Data)
	default:
		err = xerrors.NewValidationError("event", "未知的事件类型 "+msg.Event)
	}
	if err != nil {
		h.replyError(ctx, client, err)
	}
}

func (h *WSHandler) onStart(ctx context.Context, client *realtime.Client, data json.RawMessage) error {
	var p wsStartPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	characterID := p.CharacterID
	if characterID == "" {
		characterID = client.CharacterID
	}

	view, err := h.battles.StartBattle(ctx, &service.StartBattleInput{
		ControllerID: client.ControllerID,
		CharacterID:  characterID,
		StageID:      p.StageID,
		CompanionIDs: p.CompanionIDs,
	})
	if err != nil {
		return err
	}
	// 开战广播发生在加入房间之前，直接回给发起方
	h.hub.Join(client, view.BattleID)
	client.Send(service.EventBattleStarted, view)
	return nil
}

func (h *WSHandler) onJoin(ctx context.Context, client *realtime.Client, data json.RawMessage) error {
	var p wsJoinPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	view, err := h.battles.GetState(ctx, client.ControllerID, p.BattleID)
	if err != nil {
		return err
	}
	h.hub.Join(client, view.BattleID)
	client.Send(service.EventBattleStarted, view)
	return nil
}

func (h *WSHandler) onSubmit(ctx context.Context, client *realtime.Client, data json.RawMessage) error {
	var p wsSubmitPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	actions := make([]battle.BattleAction, 0, len(p.Actions))
	for _, a := range p.Actions {
		actions = append(actions, battle.BattleAction{
			ActorID:  a.ActorID,
			Type:     battle.ActionType(a.Type),
			TargetID: a.TargetID,
			SkillID:  a.SkillID,
			ItemID:   a.ItemID,
		})
	}

	// 确认参与者身份后再入房间，入房间在提交之前以收到本回合的结算推送
	view, err := h.battles.GetState(ctx, client.ControllerID, p.BattleID)
	if err != nil {
		return err
	}
	h.hub.Join(client, view.BattleID)
	_, _, err = h.battles.SubmitAndResolve(ctx, client.ControllerID, view.BattleID, actions)
	return err
}

func (h *WSHandler) decode(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return xerrors.NewValidationError("data", "不能为空")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return xerrors.NewValidationError("data", "消息格式错误")
	}
	return h.validate.Validate(out)
}

func (h *WSHandler) replyError(ctx context.Context, client *realtime.Client, err error) {
	var appErr *xerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err)
	}
	if appErr.Level >= xerrors.LevelError {
		log.LogAppError(ctx, "battle ws request failed", appErr)
	}
	client.Send(service.EventBattleError, service.ErrorPayload{
		Code:    appErr.Code.ToInt(),
		Message: i18n.Message(ctx, appErr.Code),
	})
}
