package interfaces

import (
	"context"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
)

// RosterRepository 角色与宠物资料（由角色服务维护，这里只做读取和战后回写）
type RosterRepository interface {
	// GetCharacter 读取控制者名下的角色，characterID 为空时取其默认角色
	GetCharacter(ctx context.Context, controllerID, characterID string) (*battle.CharacterProfile, error)
	// GetCompanions 读取控制者名下的指定宠物，ids 为空时取全部出战宠物
	GetCompanions(ctx context.Context, controllerID string, ids []string) ([]*battle.CompanionProfile, error)
	// AddCompanion 保存捕捉获得的宠物
	AddCompanion(ctx context.Context, companion *battle.CapturedCompanion) error
	// UpdateLoyalty 写回战后忠诚度
	UpdateLoyalty(ctx context.Context, companionID string, loyalty int) error
}
