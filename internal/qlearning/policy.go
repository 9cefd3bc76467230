package qlearning

import (
	"math/rand"
	"sort"
)

// TopK returns the indices of the k largest values, largest first. Equal
// values are ordered uniformly at random so that ties near the cut-off are
// broken fairly. k is clamped to len(values).
func TopK(values []float64, k int, rng *rand.Rand) []int {
	if k > len(values) {
		k = len(values)
	}
	if k <= 0 {
		return nil
	}
	idx := rng.Perm(len(values))
	sort.SliceStable(idx, func(i, j int) bool {
		return values[idx[i]] > values[idx[j]]
	})
	return idx[:k]
}

// PickTopK draws uniformly among the k largest values and returns its index.
func PickTopK(values []float64, k int, rng *rand.Rand) int {
	top := TopK(values, k, rng)
	return top[rng.Intn(len(top))]
}

// PolicyAction is the localized policy used during generation: with probability
// greedy pick uniformly among the `candidates` best actions at (row, col),
// otherwise a uniformly random action.
func (v *ValueTable) PolicyAction(row, col, candidates int, greedy float64, rng *rand.Rand) int {
	s := v.t.slice(row, col)
	if rng.Float64() < greedy {
		return PickTopK(s, candidates, rng)
	}
	return rng.Intn(len(s))
}
