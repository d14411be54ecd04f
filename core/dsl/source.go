package dsl

import (
	"math/rand"
	"sync"
)

// Source supplies the random draws used when rolling dice.
type Source interface {
	// Uniform returns an integer drawn uniformly from [low, high]. low <= high.
	Uniform(low, high int) int
}

type globalSource struct{}

func (globalSource) Uniform(low, high int) int {
	return low + rand.Intn(high-low+1)
}

// DefaultSource draws from the package-level math/rand generator and is safe for concurrent use.
var DefaultSource Source = globalSource{}

// SeededSource is a reproducible Source. Rolling with the same seed and the same
// expressions in the same order yields the same values.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *SeededSource) Uniform(low, high int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return low + s.rng.Intn(high-low+1)
}

// SourceFromSeed returns a SeededSource for a non-zero seed and DefaultSource otherwise.
func SourceFromSeed(seed int64) Source {
	if seed == 0 {
		return DefaultSource
	}
	return NewSeededSource(seed)
}
