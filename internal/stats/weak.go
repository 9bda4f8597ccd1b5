package stats

import (
	"sort"
)

const weakLevelAccuracy = 70.0

// WeakestLevels returns up to n levels averaging below 70% accuracy, lowest
// first. n <= 0 keeps all of them.
func WeakestLevels(levels []LevelSummary, n int) []LevelSummary {
	var candidates []LevelSummary
	for _, l := range levels {
		if l.AverageAccuracy < weakLevelAccuracy {
			candidates = append(candidates, l)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].AverageAccuracy == candidates[j].AverageAccuracy {
			return candidates[i].LevelID < candidates[j].LevelID
		}
		return candidates[i].AverageAccuracy < candidates[j].AverageAccuracy
	})
	if n > 0 && n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates
}
