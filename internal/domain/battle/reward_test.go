package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonsterExp(t *testing.T) {
	assert.Equal(t, []int{2, 4, 6, 8}, []int{
		MonsterExp(1, false, false),
		MonsterExp(2, false, false),
		MonsterExp(3, false, false),
		MonsterExp(4, false, false),
	})
	prev := MonsterExp(4, false, false)
	for level := 5; level <= 120; level++ {
		cur := MonsterExp(level, false, false)
		require.Greater(t, cur, prev, "level %d", level)
		prev = cur
	}

	assert.Equal(t, 1, MonsterExp(1, false, true), "可捕捉的 1 级敌人固定 1 点")
	assert.Equal(t, 25, MonsterExp(10, false, false))
	assert.Equal(t, 27, MonsterExp(10, true, false)) // 25 × 1.1 = 27.5
}

func TestRequiredExp(t *testing.T) {
	assert.Equal(t, []int{10, 25, 45, 70}, []int{RequiredExp(1), RequiredExp(2), RequiredExp(3), RequiredExp(4)})
	prev := RequiredExp(4)
	for level := 5; level <= 150; level++ {
		cur := RequiredExp(level)
		require.Greater(t, cur, prev, "level %d", level)
		prev = cur
	}
}

func TestPartyMultiplier(t *testing.T) {
	assert.Equal(t, []int{100, 103, 106, 109, 120, 120}, []int{
		PartyMultiplier(1), PartyMultiplier(2), PartyMultiplier(3),
		PartyMultiplier(4), PartyMultiplier(5), PartyMultiplier(8),
	})
}

func TestLevelGapPenalty(t *testing.T) {
	assert.Equal(t, 0.0, LevelGapPenalty(-5))
	assert.Equal(t, 0.0, LevelGapPenalty(10))
	assert.Equal(t, 0.5, LevelGapPenalty(11))
	assert.Equal(t, 5.0, LevelGapPenalty(20))
	assert.InDelta(t, 6.4, LevelGapPenalty(21), 1e-9)
	assert.InDelta(t, 19.0, LevelGapPenalty(30), 1e-9)
	assert.Equal(t, 50.0, LevelGapPenalty(31))
}

func TestParticipantExp(t *testing.T) {
	assert.Equal(t, 100, ParticipantExp(100, 1, 5, 5))
	assert.Equal(t, 120, ParticipantExp(100, 5, 5, 5))
	assert.Equal(t, 50, ParticipantExp(100, 1, 50, 5))
}

func TestRollDrops(t *testing.T) {
	entries := []DropEntry{
		{Kind: "item", ItemID: "potion", Rate: 50, Quantity: IntRange{Min: 1, Max: 3}},
		{Kind: "item", ItemID: "gem", Rate: 10, Quantity: IntRange{Min: 1, Max: 1}},
	}
	r := &scriptedRand{floats: []float64{0.3, 0.2}, ints: []int{2}}
	drops := RollDrops(r, entries)
	require.Len(t, drops, 1)
	assert.Equal(t, Drop{Kind: "item", ItemID: "potion", Quantity: 3}, drops[0])
}

func TestStarRating(t *testing.T) {
	assert.Equal(t, 3, StarRating(true, 3, 5))
	assert.Equal(t, 1, StarRating(true, 8, 5))
	assert.Equal(t, 1, StarRating(false, 3, 5))
	assert.Equal(t, 0, StarRating(false, 8, 5))
}

func TestCalculateRewards(t *testing.T) {
	hero := newTestUnit("hero", UnitCharacter, 10, 10, 20)
	hero.Level = 5
	pet := newTestUnit("pet", UnitPet, 10, 10, 20)
	m1 := newTestUnit("m1", UnitMonster, 10, 10, 10)
	m1.Level = 4
	m2 := newTestUnit("m2", UnitMonster, 10, 10, 10)
	m2.Level = 2
	s := newTestState(hero, pet, m1, m2)
	m1.TakeDamage(m1.HP)
	m2.TakeDamage(m2.HP)
	s.TurnNumber = 2

	stage := &StageTemplate{ID: "stage-1", Gold: 40, StarTurnThreshold: 3}
	rewards := CalculateRewards(fixedRand{f: 0.5}, s, stage)

	// (8 + 4) × 103%
	assert.Equal(t, map[string]int{"player-1": 12}, rewards.Exp)
	assert.Equal(t, 40, rewards.Gold)
	assert.Equal(t, 3, rewards.Stars)
	assert.Empty(t, rewards.Drops)
}

func TestCalculateRewards_PartySizeFixedAtStart(t *testing.T) {
	hero := newTestUnit("hero", UnitCharacter, 10, 10, 20)
	hero.Level = 5
	pet := newTestUnit("pet", UnitPet, 10, 10, 20)
	m1 := newTestUnit("m1", UnitMonster, 10, 10, 10)
	m1.Level = 4
	m2 := newTestUnit("m2", UnitMonster, 10, 10, 10)
	m2.Level = 2
	s := newTestState(hero, pet, m1, m2)
	require.Equal(t, 2, s.PartySize)

	// 宠物中途逃走
	s.RemoveUnit("pet")
	m1.TakeDamage(m1.HP)
	m2.TakeDamage(m2.HP)

	stage := &StageTemplate{ID: "stage-1", BonusExp: 88}
	rewards := CalculateRewards(fixedRand{f: 0.5}, s, stage)

	// (8 + 4 + 88) × 103%
	assert.Equal(t, 103, rewards.Exp["player-1"])
}
