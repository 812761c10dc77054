package impl

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
)

// stateFormatVersion 存储格式版本，结构不兼容变更时递增
const stateFormatVersion = 1

// wireEntry map 展开后的键值对
type wireEntry[T any] struct {
	Key   string `json:"key"`
	Value T      `json:"value"`
}

// stateWire 存储格式：units / pendingActions 以按键排序的数组保存，保证相同状态序列化结果一致
type stateWire struct {
	*battle.BattleState
	Units          []wireEntry[*battle.BattleUnit]  `json:"units"`
	PendingActions []wireEntry[battle.BattleAction] `json:"pendingActions"`
	Format         int                              `json:"format"`
}

func flatten[T any](m map[string]T) []wireEntry[T] {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]wireEntry[T], 0, len(keys))
	for _, k := range keys {
		entries = append(entries, wireEntry[T]{Key: k, Value: m[k]})
	}
	return entries
}

func unflatten[T any](entries []wireEntry[T]) map[string]T {
	m := make(map[string]T, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}

// encodeState 序列化战斗状态
func encodeState(state *battle.BattleState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("battle state is nil")
	}
	data, err := json.Marshal(stateWire{
		BattleState:    state,
		Units:          flatten(state.Units),
		PendingActions: flatten(state.PendingActions),
		Format:         stateFormatVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化战斗状态失败: %w", err)
	}
	return data, nil
}

// decodeState 反序列化战斗状态
func decodeState(data []byte) (*battle.BattleState, error) {
	wire := stateWire{BattleState: &battle.BattleState{}}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("反序列化战斗状态失败: %w", err)
	}
	if wire.Format > stateFormatVersion {
		return nil, fmt.Errorf("不支持的战斗状态格式: %d", wire.Format)
	}

	state := wire.BattleState
	state.Units = unflatten(wire.Units)
	state.PendingActions = unflatten(wire.PendingActions)
	if state.CharacterLevels == nil {
		state.CharacterLevels = map[string]int{}
	}
	return state, nil
}
