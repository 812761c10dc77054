package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCatchRate(t *testing.T) {
	assert.Equal(t, 95, CalculateCatchRate(0.05, 80, 50), "封顶 95")
	assert.Equal(t, 5, CalculateCatchRate(0.9, 1, 0))
	assert.Equal(t, 10, CalculateCatchRate(0.8, 1, 0))
	assert.Equal(t, 20, CalculateCatchRate(0.5, 1, 0))
	assert.Equal(t, 30, CalculateCatchRate(0.1, 1, 0))
	assert.Equal(t, 15, CalculateCatchRate(0.9, 30, 0))
	assert.Equal(t, 25, CalculateCatchRate(0.9, 50, 0))
	assert.Equal(t, 45, CalculateCatchRate(0.5, 50, 5))
}

func TestIsCapturable(t *testing.T) {
	slime := newTestUnit("slime", UnitMonster, 10, 10, 10)
	assert.False(t, IsCapturable(slime))

	slime.IsCapturable = true
	assert.True(t, IsCapturable(slime))

	slime.Level = 2
	assert.False(t, IsCapturable(slime), "只能捕捉 1 级")

	pet := newTestUnit("pet", UnitPet, 10, 10, 10)
	pet.IsCapturable = true
	assert.False(t, IsCapturable(pet))
}

func TestAttemptCapture(t *testing.T) {
	assert.True(t, AttemptCapture(fixedRand{f: 0.94}, 95))
	assert.False(t, AttemptCapture(fixedRand{f: 0.95}, 95))
}

func TestGrowthGroupFor(t *testing.T) {
	assert.Equal(t, GrowthS, GrowthGroupFor(0.95))
	assert.Equal(t, GrowthA, GrowthGroupFor(0.8))
	assert.Equal(t, GrowthB, GrowthGroupFor(0.5))
	assert.Equal(t, GrowthC, GrowthGroupFor(0.3))
	assert.Equal(t, GrowthD, GrowthGroupFor(0.1))
}

func TestSynthesizeCompanion(t *testing.T) {
	species := &SpeciesTemplate{
		ID:      "slime",
		Name:    "Slime",
		HP:      IntRange{Min: 20, Max: 40},
		Attack:  IntRange{Min: 5, Max: 15},
		Defense: IntRange{Min: 5, Max: 15},
		Speed:   IntRange{Min: 5, Max: 15},
		Growth: GrowthRanges{
			HP:     FloatRange{Min: 2, Max: 4},
			Attack: FloatRange{Min: 1, Max: 2},
		},
	}
	target := newTestUnit("m-1", UnitMonster, 15, 15, 15)
	target.TemplateID = "slime"
	target.MaxHP, target.HP = 40, 3
	target.IsRare = true
	target.Element = Single(ElementWater)

	pet := SynthesizeCompanion(fixedRand{f: 0.5}, target, species, "player-1", "pet-new")

	assert.Equal(t, "pet-new", pet.ID)
	assert.Equal(t, "slime", pet.SpeciesID)
	assert.Equal(t, "player-1", pet.OwnerID)
	assert.Equal(t, 1, pet.Level)
	assert.Equal(t, target.Stats, pet.Stats)
	assert.Equal(t, 40, pet.HP, "捕捉后满血")
	assert.True(t, pet.IsRare)
	assert.Equal(t, GrowthS, pet.GrowthGroup)
	assert.Equal(t, CapturedLoyalty, pet.Loyalty)
	assert.Equal(t, 3.0, pet.Growth.HP)
	assert.Equal(t, 1.5, pet.Growth.Attack)
	require.Equal(t, ElementWater, pet.Element.Primary)
}
