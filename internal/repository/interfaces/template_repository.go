package interfaces

import (
	"context"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
)

// TemplateRepository 关卡/种族/技能/捕捉道具模板查询
// 未找到时返回 ErrTemplateNotFound
type TemplateRepository interface {
	GetStage(ctx context.Context, stageID string) (*battle.StageTemplate, error)
	GetSpecies(ctx context.Context, speciesID string) (*battle.SpeciesTemplate, error)
	GetSkill(ctx context.Context, skillID string) (*battle.SkillTemplate, error)
	GetCaptureItem(ctx context.Context, itemID string) (*battle.CaptureItem, error)
}
