package battle

// Element 元素
type Element string

const (
	ElementNone  Element = ""
	ElementEarth Element = "earth"
	ElementWind  Element = "wind"
	ElementFire  Element = "fire"
	ElementWater Element = "water"
)

const (
	ElementAdvantage    = 1.3
	ElementDisadvantage = 0.7
	ElementNeutral      = 1.0
)

// 克制循环: 地→风→火→水→地
var elementBeats = map[Element]Element{
	ElementEarth: ElementWind,
	ElementWind:  ElementFire,
	ElementFire:  ElementWater,
	ElementWater: ElementEarth,
}

// Valid 是否为已知元素（含无元素）
func (e Element) Valid() bool {
	if e == ElementNone {
		return true
	}
	_, ok := elementBeats[e]
	return ok
}

// ElementProfile 单位元素构成
type ElementProfile struct {
	Primary      Element `json:"primary"`
	Secondary    Element `json:"secondary,omitempty"`
	PrimaryRatio int     `json:"primaryRatio"` // 0-100
}

// Single 单一元素构成
func Single(e Element) ElementProfile {
	return ElementProfile{Primary: e, PrimaryRatio: 100}
}

// weights 返回 (元素, 权重) 列表，无副元素时主元素权重为 1
func (p ElementProfile) weights() ([2]Element, [2]float64, int) {
	if p.Secondary == ElementNone || p.Secondary == p.Primary {
		return [2]Element{p.Primary}, [2]float64{1}, 1
	}
	ratio := clampInt(p.PrimaryRatio, 0, 100)
	primary := float64(ratio) / 100
	return [2]Element{p.Primary, p.Secondary}, [2]float64{primary, 1 - primary}, 2
}

// Dominant 占比较大的元素，用于状态弱点与解冻判定
func (p ElementProfile) Dominant() Element {
	if p.Secondary != ElementNone && p.PrimaryRatio < 50 {
		return p.Secondary
	}
	return p.Primary
}

// ElementMultiplier 单元素对单元素的倍率
func ElementMultiplier(attack, defend Element) float64 {
	if attack == ElementNone || defend == ElementNone {
		return ElementNeutral
	}
	if elementBeats[attack] == defend {
		return ElementAdvantage
	}
	if elementBeats[defend] == attack {
		return ElementDisadvantage
	}
	return ElementNeutral
}

// ProfileMultiplier 按双方主副元素占比加权求和的倍率
func ProfileMultiplier(attack, defend ElementProfile) float64 {
	atkElems, atkWeights, atkN := attack.weights()
	defElems, defWeights, defN := defend.weights()

	total := 0.0
	for i := 0; i < atkN; i++ {
		for j := 0; j < defN; j++ {
			total += atkWeights[i] * defWeights[j] * ElementMultiplier(atkElems[i], defElems[j])
		}
	}
	return total
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
