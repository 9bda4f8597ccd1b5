package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// LevelSummary aggregates the sessions played on one level.
type LevelSummary struct {
	LevelID         string
	Sessions        int
	AverageAccuracy float64
	BestAccuracy    float64
	AverageDPrime   float64
	BestDPrime      float64
	LastPlayedAt    time.Time
}

// SummarizeLevels groups sessions by level, ordered by level id.
func SummarizeLevels(sessions []model.SessionResult) []LevelSummary {
	byLevel := map[string]*LevelSummary{}
	for _, s := range sessions {
		id := s.Config.LevelID
		sum, ok := byLevel[id]
		if !ok {
			sum = &LevelSummary{LevelID: id, BestAccuracy: s.CombinedAccuracy, BestDPrime: s.CombinedDPrime}
			byLevel[id] = sum
		}
		sum.Sessions++
		sum.AverageAccuracy += s.CombinedAccuracy
		sum.AverageDPrime += s.CombinedDPrime
		sum.BestAccuracy = max(sum.BestAccuracy, s.CombinedAccuracy)
		sum.BestDPrime = max(sum.BestDPrime, s.CombinedDPrime)
		if s.StartedAt.After(sum.LastPlayedAt) {
			sum.LastPlayedAt = s.StartedAt
		}
	}
	out := make([]LevelSummary, 0, len(byLevel))
	for _, sum := range byLevel {
		n := float64(sum.Sessions)
		sum.AverageAccuracy /= n
		sum.AverageDPrime /= n
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LevelID < out[j].LevelID })
	return out
}

// MostPlayedLevels returns the top n levels by session count. n <= 0 keeps all.
func MostPlayedLevels(levels []LevelSummary, n int) []LevelSummary {
	items := make([]LevelSummary, len(levels))
	copy(items, levels)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Sessions == items[j].Sessions {
			return items[i].LevelID < items[j].LevelID
		}
		return items[i].Sessions > items[j].Sessions
	})
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}
