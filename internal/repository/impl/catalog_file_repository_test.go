package impl

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/domain/battle"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

func catalogPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "configs", "battle", "catalog.json")
}

func TestFileTemplateRepository(t *testing.T) {
	repo, err := NewFileTemplateRepository(catalogPath(t))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("读取关卡", func(t *testing.T) {
		stage, err := repo.GetStage(ctx, "meadow-1")
		require.NoError(t, err)
		assert.Equal(t, 15, stage.Gold)
		assert.NotEmpty(t, stage.Opponents)
		assert.Equal(t, 5, stage.StarTurnThreshold)
	})

	t.Run("读取种族", func(t *testing.T) {
		species, err := repo.GetSpecies(ctx, "ember_fox")
		require.NoError(t, err)
		assert.Equal(t, battle.ElementFire, species.Element.Primary)
		assert.Equal(t, battle.ElementWind, species.Element.Secondary)
		assert.True(t, species.Capturable)
	})

	t.Run("读取技能和捕捉道具", func(t *testing.T) {
		skill, err := repo.GetSkill(ctx, "gale")
		require.NoError(t, err)
		assert.True(t, skill.IsArea())

		item, err := repo.GetCaptureItem(ctx, "silk_net")
		require.NoError(t, err)
		assert.Equal(t, 15, item.Bonus)
	})

	t.Run("不存在的模板", func(t *testing.T) {
		_, err := repo.GetStage(ctx, "nowhere")
		assert.ErrorIs(t, err, interfaces.ErrTemplateNotFound)
		_, err = repo.GetSkill(ctx, "nothing")
		assert.ErrorIs(t, err, interfaces.ErrTemplateNotFound)
	})
}

func TestParseTemplateCatalogRejectsUnknownSpecies(t *testing.T) {
	_, err := ParseTemplateCatalog([]byte(`{"stages":[{"id":"s","opponents":[{"speciesId":"ghost"}]}]}`))
	assert.Error(t, err)
}
