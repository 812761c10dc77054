package battle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTurnOrder(t *testing.T) {
	units := map[string]*BattleUnit{}
	speeds := []int{12, 30, 7, 30, 18, 0, 45, 12}
	for i, speed := range speeds {
		u := newTestUnit(fmt.Sprintf("u%d", i), UnitMonster, 10, 10, speed)
		units[u.ID] = u
	}
	dead := newTestUnit("dead", UnitCharacter, 10, 10, 99)
	dead.IsAlive = false
	units[dead.ID] = dead

	order := ComputeTurnOrder(units)
	require.Len(t, order, len(speeds))
	assert.NotContains(t, order, "dead")
	for i := 1; i < len(order); i++ {
		prev, cur := units[order[i-1]], units[order[i]]
		assert.GreaterOrEqual(t, prev.Stats.Speed, cur.Stats.Speed)
		if prev.Stats.Speed == cur.Stats.Speed {
			assert.Less(t, prev.ID, cur.ID, "同速按 ID 排序")
		}
	}

	for i := 0; i < 20; i++ {
		assert.Equal(t, order, ComputeTurnOrder(units), "未变化的阵容顺序稳定")
	}
}

func TestFindGangUpGroup(t *testing.T) {
	build := func(specs ...*BattleUnit) ([]string, map[string]*BattleUnit) {
		units := map[string]*BattleUnit{}
		order := make([]string, 0, len(specs))
		for _, u := range specs {
			units[u.ID] = u
			order = append(order, u.ID)
		}
		return order, units
	}

	t.Run("收集速度带内的同阵营单位", func(t *testing.T) {
		order, units := build(
			newTestUnit("a", UnitCharacter, 10, 10, 100),
			newTestUnit("b", UnitPet, 10, 10, 95),
			newTestUnit("c", UnitPet, 10, 10, 91),
			newTestUnit("d", UnitPet, 10, 10, 80),
		)
		assert.Equal(t, []string{"a", "b", "c"}, FindGangUpGroup("a", order, units))
	})

	t.Run("遇到敌方单位停止", func(t *testing.T) {
		order, units := build(
			newTestUnit("a", UnitCharacter, 10, 10, 100),
			newTestUnit("m", UnitMonster, 10, 10, 99),
			newTestUnit("b", UnitPet, 10, 10, 98),
		)
		group := FindGangUpGroup("a", order, units)
		assert.Equal(t, []string{"a"}, group)
		assert.NotContains(t, group, "m")
	})

	t.Run("遇到速度带外单位停止", func(t *testing.T) {
		order, units := build(
			newTestUnit("a", UnitCharacter, 10, 10, 100),
			newTestUnit("b", UnitPet, 10, 10, 50),
			newTestUnit("c", UnitPet, 10, 10, 99),
		)
		assert.Equal(t, []string{"a"}, FindGangUpGroup("a", order, units))
	})

	t.Run("敌方只有自己", func(t *testing.T) {
		order, units := build(
			newTestUnit("m1", UnitMonster, 10, 10, 100),
			newTestUnit("m2", UnitMonster, 10, 10, 100),
		)
		assert.Equal(t, []string{"m1"}, FindGangUpGroup("m1", order, units))
	})
}

func TestGangUpCriticalBonus(t *testing.T) {
	assert.Equal(t, 0, GangUpCriticalBonus(1))
	assert.Equal(t, 10, GangUpCriticalBonus(2))
	assert.Equal(t, 40, GangUpCriticalBonus(5))
	assert.Equal(t, 50, GangUpCriticalBonus(6))
	assert.Equal(t, 50, GangUpCriticalBonus(12))
}

func TestAdvanceTurn(t *testing.T) {
	hero := newTestUnit("hero", UnitCharacter, 10, 10, 20)
	slime := newTestUnit("slime", UnitMonster, 10, 10, 10)
	s := newTestState(hero, slime)
	s.UpsertAction(BattleAction{ActorID: "hero", Type: ActionAttack, TargetID: "slime"})

	later := testNow.Add(5e9)
	AdvanceTurn(s, later)
	assert.Equal(t, 1, s.CurrentTurnIndex)
	assert.Equal(t, 1, s.TurnNumber)
	assert.Len(t, s.PendingActions, 1)

	slime.Stats.Speed = 50
	AdvanceTurn(s, later)
	assert.Equal(t, 0, s.CurrentTurnIndex)
	assert.Equal(t, 2, s.TurnNumber)
	assert.Empty(t, s.PendingActions)
	assert.Equal(t, []string{"slime", "hero"}, s.TurnOrder, "新回合按最新速度排序")
	assert.Equal(t, later, s.TurnStartedAt)
}

func TestCheckBattleEnd(t *testing.T) {
	hero := newTestUnit("hero", UnitCharacter, 10, 10, 20)
	slime := newTestUnit("slime", UnitMonster, 10, 10, 10)
	s := newTestState(hero, slime)
	assert.Equal(t, PhaseInProgress, CheckBattleEnd(s))

	slime.TakeDamage(slime.HP)
	assert.Equal(t, PhaseVictory, CheckBattleEnd(s))

	slime.IsAlive, slime.HP = true, 1
	hero.TakeDamage(hero.HP)
	assert.Equal(t, PhaseDefeat, CheckBattleEnd(s))
}
