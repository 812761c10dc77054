package battle

import "time"

// fixedRand Float64 恒定返回 f，IntN 恒定返回 n（超界时取 0）
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }

func (r fixedRand) IntN(n int) int {
	if r.n < n {
		return r.n
	}
	return 0
}

// scriptedRand 按顺序返回预设值，用尽后返回默认值
type scriptedRand struct {
	floats       []float64
	ints         []int
	defaultFloat float64
	fi, ii       int
}

func (r *scriptedRand) Float64() float64 {
	if r.fi < len(r.floats) {
		v := r.floats[r.fi]
		r.fi++
		return v
	}
	return r.defaultFloat
}

func (r *scriptedRand) IntN(n int) int {
	if r.ii < len(r.ints) {
		v := r.ints[r.ii]
		r.ii++
		if v < n {
			return v
		}
	}
	return 0
}

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestUnit(id string, typ UnitType, attack, defense, speed int) *BattleUnit {
	return &BattleUnit{
		ID:      id,
		Type:    typ,
		Name:    id,
		OwnerID: ownerFor(typ),
		Level:   1,
		HP:      100,
		MaxHP:   100,
		MP:      20,
		MaxMP:   20,
		Stats:   Stats{Attack: attack, Defense: defense, Speed: speed},
		IsAlive: true,
		Loyalty: loyaltyFor(typ),
	}
}

func ownerFor(typ UnitType) string {
	if typ == UnitMonster {
		return ""
	}
	return "player-1"
}

func loyaltyFor(typ UnitType) int {
	if typ == UnitPet {
		return 100
	}
	return 0
}

func newTestState(units ...*BattleUnit) *BattleState {
	s := NewBattleState("battle-1", "stage-1", []string{"player-1"}, 30*time.Second, testNow)
	for _, u := range units {
		s.AddUnit(u)
	}
	s.TurnOrder = ComputeTurnOrder(s.Units)
	return s
}
