package interfaces

import (
	"context"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
)

// UnlockFunc 释放战斗锁
type UnlockFunc func(ctx context.Context) error

// BattleStateRepository 战斗状态存储（只覆盖单场战斗的生命周期）
type BattleStateRepository interface {
	// Save 写入完整状态并递增 Version，ttl 为过期时间
	Save(ctx context.Context, state *battle.BattleState, ttl time.Duration) error
	// Load 读取状态，不存在时返回 ErrBattleStateNotFound
	Load(ctx context.Context, battleID string) (*battle.BattleState, error)
	Delete(ctx context.Context, battleID string) error

	// 进行中战斗索引，供超时扫描使用
	MarkActive(ctx context.Context, battleID string) error
	ClearActive(ctx context.Context, battleID string) error
	ListActive(ctx context.Context) ([]string, error)

	// Lock 获取跨实例的战斗锁，已被占用时返回 ErrBattleLocked
	Lock(ctx context.Context, battleID string, ttl time.Duration) (UnlockFunc, error)
}
