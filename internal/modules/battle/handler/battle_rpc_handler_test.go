package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

func TestBattleRPCHandler_GetBattleState(t *testing.T) {
	h := NewBattleRPCHandler(newFakeOperator())

	t.Run("查询成功", func(t *testing.T) {
		req, err := structpb.NewStruct(map[string]any{"battle_id": "b-1", "controller_id": "player-1"})
		require.NoError(t, err)
		data, err := proto.Marshal(req)
		require.NoError(t, err)

		out, err := h.GetBattleState(data)
		require.NoError(t, err)

		resp := &structpb.Struct{}
		require.NoError(t, proto.Unmarshal(out, resp))
		assert.Equal(t, "b-1", resp.GetFields()["battleId"].GetStringValue())
		assert.Equal(t, "in_progress", resp.GetFields()["phase"].GetStringValue())
		assert.Len(t, resp.GetFields()["units"].GetListValue().GetValues(), 2)
	})

	t.Run("缺少参数", func(t *testing.T) {
		req, err := structpb.NewStruct(map[string]any{"battle_id": "b-1"})
		require.NoError(t, err)
		data, err := proto.Marshal(req)
		require.NoError(t, err)

		_, err = h.GetBattleState(data)
		assert.True(t, xerrors.HasCode(err, xerrors.CodeInvalidParams))
	})

	t.Run("非法数据", func(t *testing.T) {
		_, err := h.GetBattleState([]byte{0xff, 0xff})
		assert.True(t, xerrors.HasCode(err, xerrors.CodeInvalidParams))
	})
}

func TestBattleRPCHandler_ListActiveBattles(t *testing.T) {
	op := newFakeOperator()
	op.active = []string{"b-1", "b-2"}
	h := NewBattleRPCHandler(op)

	out, err := h.ListActiveBattles(nil)
	require.NoError(t, err)

	resp := &structpb.Struct{}
	require.NoError(t, proto.Unmarshal(out, resp))
	assert.Equal(t, float64(2), resp.GetFields()["total"].GetNumberValue())

	ids := resp.GetFields()["battle_ids"].GetListValue().AsSlice()
	assert.Equal(t, []any{"b-1", "b-2"}, ids)
}
