package handler

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

const rpcTimeout = 5 * time.Second

// BattleRPCHandler 战斗 RPC 处理器
// 供其他 mqant 模块查询战斗，请求与响应都是 structpb.Struct
type BattleRPCHandler struct {
	battles BattleOperator
}

// NewBattleRPCHandler 创建战斗 RPC Handler
func NewBattleRPCHandler(battles BattleOperator) *BattleRPCHandler {
	return &BattleRPCHandler{battles: battles}
}

// ==================== RPC Methods ====================

// GetBattleState 查询战斗状态
// 请求: {"battle_id": "...", "controller_id": "..."}
func (h *BattleRPCHandler) GetBattleState(data []byte) ([]byte, error) {
	req := &structpb.Struct{}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, xerrors.NewValidationError("request", "invalid protobuf data")
	}

	fields := req.GetFields()
	battleID := fields["battle_id"].GetStringValue()
	controllerID := fields["controller_id"].GetStringValue()
	if battleID == "" || controllerID == "" {
		return nil, xerrors.NewValidationError("battle_id", "battle_id 与 controller_id 不能为空")
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	view, err := h.battles.GetState(ctx, controllerID, battleID)
	if err != nil {
		return nil, err
	}

	resp, err := toStruct(view)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "failed to encode battle state")
	}
	return proto.Marshal(resp)
}

// ListActiveBattles 列出进行中的战斗
func (h *BattleRPCHandler) ListActiveBattles(data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	ids, err := h.battles.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, id)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"battle_ids": list,
		"total":      len(ids),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "failed to encode battle list")
	}
	return proto.Marshal(resp)
}

// toStruct 经 JSON 转为 structpb，字段名与 HTTP 响应一致
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
