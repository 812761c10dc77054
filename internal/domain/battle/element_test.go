package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementMultiplierCycle(t *testing.T) {
	advantaged := [][2]Element{
		{ElementEarth, ElementWind},
		{ElementWind, ElementFire},
		{ElementFire, ElementWater},
		{ElementWater, ElementEarth},
	}
	for _, pair := range advantaged {
		assert.Equal(t, 1.3, ElementMultiplier(pair[0], pair[1]), "%s → %s", pair[0], pair[1])
		assert.Equal(t, 0.7, ElementMultiplier(pair[1], pair[0]), "%s → %s", pair[1], pair[0])
	}
	for _, e := range []Element{ElementEarth, ElementWind, ElementFire, ElementWater} {
		assert.Equal(t, 1.0, ElementMultiplier(e, e))
		assert.Equal(t, 1.0, ElementMultiplier(e, ElementNone))
	}
	assert.Equal(t, 1.0, ElementMultiplier(ElementEarth, ElementFire))
}

func TestProfileMultiplierWeighted(t *testing.T) {
	t.Run("单元素与直接查表一致", func(t *testing.T) {
		assert.Equal(t, 1.3, ProfileMultiplier(Single(ElementFire), Single(ElementWater)))
	})

	t.Run("副元素按占比加权", func(t *testing.T) {
		attack := ElementProfile{Primary: ElementFire, Secondary: ElementEarth, PrimaryRatio: 70}
		defend := Single(ElementWater)
		// 0.7×1.3 (火→水) + 0.3×1.0 (地 vs 水)
		assert.InDelta(t, 0.7*1.3+0.3*1.0, ProfileMultiplier(attack, defend), 1e-9)
	})

	t.Run("双方都有副元素", func(t *testing.T) {
		attack := ElementProfile{Primary: ElementEarth, Secondary: ElementWind, PrimaryRatio: 50}
		defend := ElementProfile{Primary: ElementWind, Secondary: ElementFire, PrimaryRatio: 50}
		want := 0.25*1.3 + 0.25*1.0 + 0.25*1.0 + 0.25*1.3
		assert.InDelta(t, want, ProfileMultiplier(attack, defend), 1e-9)
	})
}

func TestDominantElement(t *testing.T) {
	assert.Equal(t, ElementFire, ElementProfile{Primary: ElementFire, Secondary: ElementWater, PrimaryRatio: 60}.Dominant())
	assert.Equal(t, ElementWater, ElementProfile{Primary: ElementFire, Secondary: ElementWater, PrimaryRatio: 40}.Dominant())
}
