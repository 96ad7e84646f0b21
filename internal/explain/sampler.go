// Package explain selects which records receive detailed explanation and
// ranks externally supplied per-feature impacts into top-k driver lists.
// Every selection is deterministic: score ties break on record index, the
// baseline sample is seeded, and driver ties break on feature name.
package explain

import (
	"math/rand"
	"sort"
)

// TopRisk returns the indices of the n highest scores, ordered by
// descending score with ties broken by ascending record index. When n
// exceeds the population the whole population is returned.
func TopRisk(scores []float64, n int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	if n > len(order) {
		n = len(order)
	}
	return order[:n]
}

// BaselineSample draws size indices without replacement from
// [0, population) using a fixed seed, so repeated runs over the same batch
// select the same baseline. Requesting more than the population is a
// *SampleSizeError.
func BaselineSample(population, size int, seed int64) ([]int, error) {
	if size > population {
		return nil, &SampleSizeError{Requested: size, Population: population}
	}

	rng := rand.New(rand.NewSource(seed))
	return rng.Perm(population)[:size], nil
}

// Union deduplicates the top-risk and baseline selections into a sorted
// SampleIndexSet. Impact computation is requested once per member, so no
// record is attributed twice.
func Union(topRisk, baseline []int) []int {
	seen := make(map[int]struct{}, len(topRisk)+len(baseline))
	union := make([]int, 0, len(topRisk)+len(baseline))
	for _, set := range [][]int{topRisk, baseline} {
		for _, idx := range set {
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			union = append(union, idx)
		}
	}
	sort.Ints(union)
	return union
}
