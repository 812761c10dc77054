package impl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/lib/pq"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

type templateRepositoryImpl struct {
	db *sql.DB
}

// NewTemplateRepository 创建基于 Postgres 的模板仓储
func NewTemplateRepository(db *sql.DB) interfaces.TemplateRepository {
	return &templateRepositoryImpl{db: db}
}

func (r *templateRepositoryImpl) GetStage(ctx context.Context, stageID string) (*battle.StageTemplate, error) {
	query := `
		SELECT id, name, opponents, opponent_count_min, opponent_count_max,
		       gold, bonus_exp, drops, star_turn_threshold
		FROM game_config.battle_stages
		WHERE id = $1 AND deleted_at IS NULL
	`

	var (
		stage     battle.StageTemplate
		opponents []byte
		drops     []byte
		bonusExp  null.Int
	)
	err := r.db.QueryRowContext(ctx, query, stageID).Scan(
		&stage.ID,
		&stage.Name,
		&opponents,
		&stage.OpponentCount.Min,
		&stage.OpponentCount.Max,
		&stage.Gold,
		&bonusExp,
		&drops,
		&stage.StarTurnThreshold,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("关卡 %s: %w", stageID, interfaces.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("查询关卡失败: %w", err)
	}

	if err := decodeJSONColumn(opponents, &stage.Opponents, "opponents"); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(drops, &stage.Drops, "drops"); err != nil {
		return nil, err
	}
	if bonusExp.Valid {
		stage.BonusExp = bonusExp.Int
	}
	return &stage, nil
}

// speciesStatRanges base_stats 列结构
type speciesStatRanges struct {
	HP      battle.IntRange `json:"hp"`
	MP      battle.IntRange `json:"mp"`
	Attack  battle.IntRange `json:"attack"`
	Defense battle.IntRange `json:"defense"`
	Speed   battle.IntRange `json:"speed"`
	Evasion battle.IntRange `json:"evasion"`
}

func (r *templateRepositoryImpl) GetSpecies(ctx context.Context, speciesID string) (*battle.SpeciesTemplate, error) {
	query := `
		SELECT id, name, element_primary, element_secondary, element_ratio,
		       base_stats, growth, capturable, skill_ids
		FROM game_config.battle_species
		WHERE id = $1 AND deleted_at IS NULL
	`

	var (
		species   battle.SpeciesTemplate
		primary   string
		secondary null.String
		stats     []byte
		growth    []byte
		skillIDs  pq.StringArray
	)
	err := r.db.QueryRowContext(ctx, query, speciesID).Scan(
		&species.ID,
		&species.Name,
		&primary,
		&secondary,
		&species.Element.PrimaryRatio,
		&stats,
		&growth,
		&species.Capturable,
		&skillIDs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("种族 %s: %w", speciesID, interfaces.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("查询种族失败: %w", err)
	}

	species.Element.Primary = battle.Element(primary)
	if secondary.Valid {
		species.Element.Secondary = battle.Element(secondary.String)
	}

	var ranges speciesStatRanges
	if err := decodeJSONColumn(stats, &ranges, "base_stats"); err != nil {
		return nil, err
	}
	species.HP = ranges.HP
	species.MP = ranges.MP
	species.Attack = ranges.Attack
	species.Defense = ranges.Defense
	species.Speed = ranges.Speed
	species.Evasion = ranges.Evasion

	if err := decodeJSONColumn(growth, &species.Growth, "growth"); err != nil {
		return nil, err
	}
	if len(skillIDs) > 0 {
		species.SkillIDs = []string(skillIDs)
	}
	return &species, nil
}

func (r *templateRepositoryImpl) GetSkill(ctx context.Context, skillID string) (*battle.SkillTemplate, error) {
	query := `
		SELECT id, name, element, damage_ratio, heal_ratio, mp_cost, target, status
		FROM game_config.battle_skills
		WHERE id = $1 AND deleted_at IS NULL
	`

	var (
		skill       battle.SkillTemplate
		element     null.String
		damageRatio null.Int
		healRatio   null.Int
		target      string
		status      null.String
	)
	err := r.db.QueryRowContext(ctx, query, skillID).Scan(
		&skill.ID,
		&skill.Name,
		&element,
		&damageRatio,
		&healRatio,
		&skill.MPCost,
		&target,
		&status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("技能 %s: %w", skillID, interfaces.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}

	skill.Element = battle.Element(element.String)
	skill.DamageRatio = damageRatio.Int
	skill.HealRatio = healRatio.Int
	skill.Target = battle.SkillTarget(target)
	skill.Status = battle.StatusType(status.String)
	return &skill, nil
}

func (r *templateRepositoryImpl) GetCaptureItem(ctx context.Context, itemID string) (*battle.CaptureItem, error) {
	query := `
		SELECT id, name, capture_bonus
		FROM game_config.capture_items
		WHERE id = $1 AND deleted_at IS NULL
	`

	var item battle.CaptureItem
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&item.ID, &item.Name, &item.Bonus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("捕捉道具 %s: %w", itemID, interfaces.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("查询捕捉道具失败: %w", err)
	}
	return &item, nil
}
