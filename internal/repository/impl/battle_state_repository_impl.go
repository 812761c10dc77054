package impl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	pkgredis "github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/redis"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

const (
	battleStateKeyPrefix = "battle:state:"
	battleLockKeyPrefix  = "battle:lock:"
	activeBattlesKey     = "battle:active"

	defaultStateTTL = time.Hour
)

type battleStateRepositoryImpl struct {
	client   *pkgredis.Client
	maxTries uint
	newBack  func() backoff.BackOff
}

// NewBattleStateRepository 创建基于 Redis 的战斗状态仓储，maxTries 为单次操作的最大尝试次数
func NewBattleStateRepository(client *pkgredis.Client, maxTries uint) interfaces.BattleStateRepository {
	if maxTries == 0 {
		maxTries = 3
	}
	return &battleStateRepositoryImpl{
		client:   client,
		maxTries: maxTries,
		newBack: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return b
		},
	}
}

func stateKey(battleID string) string { return battleStateKeyPrefix + battleID }
func lockKey(battleID string) string  { return battleLockKeyPrefix + battleID }

// retry 有界指数退避重试，键不存在不重试
func (r *battleStateRepositoryImpl) retry(ctx context.Context, fn func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := fn(); err != nil {
			if errors.Is(err, pkgredis.Nil) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(r.newBack()), backoff.WithMaxTries(r.maxTries))
	return err
}

func (r *battleStateRepositoryImpl) Save(ctx context.Context, state *battle.BattleState, ttl time.Duration) error {
	if state == nil || state.BattleID == "" {
		return fmt.Errorf("battle state is empty")
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	state.Version++
	data, err := encodeState(state)
	if err != nil {
		state.Version--
		return err
	}

	err = r.retry(ctx, func() error {
		return r.client.SetWithTTL(ctx, stateKey(state.BattleID), data, ttl)
	})
	if err != nil {
		state.Version--
		return fmt.Errorf("保存战斗状态失败: %w", err)
	}
	return nil
}

func (r *battleStateRepositoryImpl) Load(ctx context.Context, battleID string) (*battle.BattleState, error) {
	var data []byte
	err := r.retry(ctx, func() error {
		var getErr error
		data, getErr = r.client.GetBytes(ctx, stateKey(battleID))
		return getErr
	})
	if errors.Is(err, pkgredis.Nil) {
		return nil, interfaces.ErrBattleStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取战斗状态失败: %w", err)
	}
	return decodeState(data)
}

func (r *battleStateRepositoryImpl) Delete(ctx context.Context, battleID string) error {
	if err := r.retry(ctx, func() error {
		return r.client.DeleteKey(ctx, stateKey(battleID))
	}); err != nil {
		return fmt.Errorf("删除战斗状态失败: %w", err)
	}
	return nil
}

func (r *battleStateRepositoryImpl) MarkActive(ctx context.Context, battleID string) error {
	if err := r.retry(ctx, func() error {
		return r.client.AddMember(ctx, activeBattlesKey, battleID)
	}); err != nil {
		return fmt.Errorf("登记进行中战斗失败: %w", err)
	}
	return nil
}

func (r *battleStateRepositoryImpl) ClearActive(ctx context.Context, battleID string) error {
	if err := r.retry(ctx, func() error {
		return r.client.RemoveMember(ctx, activeBattlesKey, battleID)
	}); err != nil {
		return fmt.Errorf("移除进行中战斗失败: %w", err)
	}
	return nil
}

func (r *battleStateRepositoryImpl) ListActive(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.retry(ctx, func() error {
		var listErr error
		ids, listErr = r.client.Members(ctx, activeBattlesKey)
		return listErr
	})
	if err != nil && !errors.Is(err, pkgredis.Nil) {
		return nil, fmt.Errorf("查询进行中战斗失败: %w", err)
	}
	return ids, nil
}

func (r *battleStateRepositoryImpl) Lock(ctx context.Context, battleID string, ttl time.Duration) (interfaces.UnlockFunc, error) {
	token := uuid.NewString()
	key := lockKey(battleID)

	var acquired bool
	err := r.retry(ctx, func() error {
		var lockErr error
		acquired, lockErr = r.client.TryLock(ctx, key, token, ttl)
		return lockErr
	})
	if err != nil {
		return nil, fmt.Errorf("获取战斗锁失败: %w", err)
	}
	if !acquired {
		return nil, interfaces.ErrBattleLocked
	}

	return func(ctx context.Context) error {
		return r.client.Unlock(ctx, key, token)
	}, nil
}
