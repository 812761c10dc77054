package battle

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand 战斗内所有随机判定共用的随机源
// 暴击、命中、状态施加、掉落与生成浮动都通过它完成，测试中可替换为确定序列
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand 根据种子创建并发安全的随机源
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeededRand 以当前时间为种子
func NewTimeSeededRand() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// rollPercent 以 pct% 的概率返回 true
func rollPercent(r Rand, pct float64) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return r.Float64()*100 < pct
}

// randRange 返回 [min, max] 内的均匀整数
func randRange(r Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}

// randFloatRange 返回 [min, max) 内的均匀浮点数
func randFloatRange(r Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

// pickOne 从 ids 中均匀随机取一个，空切片返回空串
func pickOne(r Rand, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[r.IntN(len(ids))]
}
