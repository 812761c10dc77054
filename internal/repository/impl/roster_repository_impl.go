package impl

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/lib/pq"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

type rosterRepositoryImpl struct {
	db *sql.DB
}

// NewRosterRepository 创建角色/宠物仓储
func NewRosterRepository(db *sql.DB) interfaces.RosterRepository {
	return &rosterRepositoryImpl{db: db}
}

const characterColumns = `
	id, owner_id, name, level, hp, max_hp, mp, max_mp,
	attack, defense, speed, evasion,
	element_primary, element_secondary, element_ratio,
	weapon_attack_ratio, weapon_accuracy, skill_ids
`

func (r *rosterRepositoryImpl) GetCharacter(ctx context.Context, controllerID, characterID string) (*battle.CharacterProfile, error) {
	var row *sql.Row
	if characterID == "" {
		row = r.db.QueryRowContext(ctx, `
			SELECT `+characterColumns+`
			FROM game_runtime.characters
			WHERE owner_id = $1 AND deleted_at IS NULL
			ORDER BY is_default DESC, created_at ASC
			LIMIT 1
		`, controllerID)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT `+characterColumns+`
			FROM game_runtime.characters
			WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL
		`, controllerID, characterID)
	}

	var (
		c           battle.CharacterProfile
		primary     string
		secondary   null.String
		weaponRatio null.Int
		weaponAcc   null.Int
		skillIDs    pq.StringArray
	)
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Level,
		&c.HP, &c.MaxHP, &c.MP, &c.MaxMP,
		&c.Stats.Attack, &c.Stats.Defense, &c.Stats.Speed, &c.Stats.Evasion,
		&primary, &secondary, &c.Element.PrimaryRatio,
		&weaponRatio, &weaponAcc, &skillIDs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询角色失败: %w", err)
	}

	c.Element.Primary = battle.Element(primary)
	c.Element.Secondary = battle.Element(secondary.String)
	if weaponRatio.Valid {
		c.Weapon = &battle.Weapon{AttackRatio: weaponRatio.Int, Accuracy: weaponAcc.Int}
	}
	if len(skillIDs) > 0 {
		c.SkillIDs = []string(skillIDs)
	}
	return &c, nil
}

const companionColumns = `
	id, owner_id, species_id, name, level, hp, max_hp, mp, max_mp,
	attack, defense, speed, evasion,
	element_primary, element_secondary, element_ratio,
	loyalty, is_riding, is_representative, skill_ids
`

func (r *rosterRepositoryImpl) GetCompanions(ctx context.Context, controllerID string, ids []string) ([]*battle.CompanionProfile, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(ids) == 0 {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+companionColumns+`
			FROM game_runtime.companions
			WHERE owner_id = $1 AND in_party = TRUE AND deleted_at IS NULL
			ORDER BY party_slot ASC
		`, controllerID)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+companionColumns+`
			FROM game_runtime.companions
			WHERE owner_id = $1 AND id = ANY($2) AND deleted_at IS NULL
			ORDER BY party_slot ASC
		`, controllerID, pq.Array(ids))
	}
	if err != nil {
		return nil, fmt.Errorf("查询宠物失败: %w", err)
	}
	defer rows.Close()

	var companions []*battle.CompanionProfile
	for rows.Next() {
		var (
			p         battle.CompanionProfile
			primary   string
			secondary null.String
			skillIDs  pq.StringArray
		)
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.SpeciesID, &p.Name, &p.Level,
			&p.HP, &p.MaxHP, &p.MP, &p.MaxMP,
			&p.Stats.Attack, &p.Stats.Defense, &p.Stats.Speed, &p.Stats.Evasion,
			&primary, &secondary, &p.Element.PrimaryRatio,
			&p.Loyalty, &p.IsRiding, &p.IsRepresentative, &skillIDs,
		); err != nil {
			return nil, fmt.Errorf("扫描宠物失败: %w", err)
		}
		p.Element.Primary = battle.Element(primary)
		p.Element.Secondary = battle.Element(secondary.String)
		if len(skillIDs) > 0 {
			p.SkillIDs = []string(skillIDs)
		}
		companions = append(companions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历宠物失败: %w", err)
	}

	if len(ids) > 0 && len(companions) != len(ids) {
		return nil, interfaces.ErrCompanionNotFound
	}
	return companions, nil
}

func (r *rosterRepositoryImpl) AddCompanion(ctx context.Context, companion *battle.CapturedCompanion) error {
	if companion == nil {
		return fmt.Errorf("companion is nil")
	}

	growth, err := json.Marshal(companion.Growth)
	if err != nil {
		return fmt.Errorf("序列化成长率失败: %w", err)
	}

	query := `
		INSERT INTO game_runtime.companions (
			id, owner_id, species_id, name, level, hp, max_hp, mp, max_mp,
			attack, defense, speed, evasion,
			element_primary, element_secondary, element_ratio,
			loyalty, growth, growth_group, is_rare, skill_ids, in_party
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,FALSE)
	`
	_, err = r.db.ExecContext(ctx, query,
		companion.ID,
		companion.OwnerID,
		companion.SpeciesID,
		companion.Name,
		companion.Level,
		companion.HP,
		companion.MaxHP,
		companion.MP,
		companion.MaxMP,
		companion.Stats.Attack,
		companion.Stats.Defense,
		companion.Stats.Speed,
		companion.Stats.Evasion,
		string(companion.Element.Primary),
		null.NewString(string(companion.Element.Secondary), companion.Element.Secondary != ""),
		companion.Element.PrimaryRatio,
		companion.Loyalty,
		growth,
		string(companion.GrowthGroup),
		companion.IsRare,
		pq.Array(companion.SkillIDs),
	)
	if err != nil {
		return fmt.Errorf("保存捕捉宠物失败: %w", err)
	}
	return nil
}

func (r *rosterRepositoryImpl) UpdateLoyalty(ctx context.Context, companionID string, loyalty int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE game_runtime.companions
		SET loyalty = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, companionID, loyalty)
	if err != nil {
		return fmt.Errorf("更新宠物忠诚度失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取影响行数失败: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrCompanionNotFound
	}
	return nil
}
