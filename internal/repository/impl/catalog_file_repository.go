package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

// catalogDocument 静态模板文件结构
type catalogDocument struct {
	Stages       []*battle.StageTemplate   `json:"stages"`
	Species      []*battle.SpeciesTemplate `json:"species"`
	Skills       []*battle.SkillTemplate   `json:"skills"`
	CaptureItems []*battle.CaptureItem     `json:"captureItems"`
}

// fileTemplateRepository 启动时加载到内存的模板仓储，未配置数据库时使用
type fileTemplateRepository struct {
	stages  map[string]*battle.StageTemplate
	catalog *battle.StaticCatalog
}

// NewFileTemplateRepository 从 JSON 文件加载模板
func NewFileTemplateRepository(path string) (interfaces.TemplateRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取模板文件失败: %w", err)
	}
	return ParseTemplateCatalog(data)
}

// ParseTemplateCatalog 解析模板 JSON
func ParseTemplateCatalog(data []byte) (interfaces.TemplateRepository, error) {
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析模板文件失败: %w", err)
	}

	repo := &fileTemplateRepository{
		stages:  make(map[string]*battle.StageTemplate, len(doc.Stages)),
		catalog: battle.NewStaticCatalog(),
	}
	for _, s := range doc.Species {
		repo.catalog.SpeciesByID[s.ID] = s
	}
	for _, s := range doc.Skills {
		repo.catalog.Skills[s.ID] = s
	}
	for _, item := range doc.CaptureItems {
		repo.catalog.CaptureItems[item.ID] = item
	}
	for _, stage := range doc.Stages {
		for _, o := range stage.Opponents {
			if _, ok := repo.catalog.SpeciesByID[o.SpeciesID]; !ok {
				return nil, fmt.Errorf("关卡 %s 引用了不存在的种族 %s", stage.ID, o.SpeciesID)
			}
		}
		repo.stages[stage.ID] = stage
	}
	return repo, nil
}

func (r *fileTemplateRepository) GetStage(_ context.Context, stageID string) (*battle.StageTemplate, error) {
	if s, ok := r.stages[stageID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("关卡 %s: %w", stageID, interfaces.ErrTemplateNotFound)
}

func (r *fileTemplateRepository) GetSpecies(_ context.Context, speciesID string) (*battle.SpeciesTemplate, error) {
	if s, ok := r.catalog.Species(speciesID); ok {
		return s, nil
	}
	return nil, fmt.Errorf("种族 %s: %w", speciesID, interfaces.ErrTemplateNotFound)
}

func (r *fileTemplateRepository) GetSkill(_ context.Context, skillID string) (*battle.SkillTemplate, error) {
	if s, ok := r.catalog.Skill(skillID); ok {
		return s, nil
	}
	return nil, fmt.Errorf("技能 %s: %w", skillID, interfaces.ErrTemplateNotFound)
}

func (r *fileTemplateRepository) GetCaptureItem(_ context.Context, itemID string) (*battle.CaptureItem, error) {
	if item, ok := r.catalog.CaptureItem(itemID); ok {
		return item, nil
	}
	return nil, fmt.Errorf("捕捉道具 %s: %w", itemID, interfaces.ErrTemplateNotFound)
}
