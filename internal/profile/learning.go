package profile

import (
	"fmt"
	"math"

	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
)

const (
	fastProgression      = 3.0
	slowProgression      = 8.0
	plateauWindow        = 10
	plateauMaxVariance   = 5.0
	plateauMaxMean       = 80.0
	recommendWindow      = 5
	recommendMinAccuracy = 80.0
)

// ProgressionRate classifies how quickly levels are unlocked.
type ProgressionRate string

// Progression rates.
const (
	ProgressionFast   ProgressionRate = "fast"
	ProgressionNormal ProgressionRate = "normal"
	ProgressionSlow   ProgressionRate = "slow"
)

// LearningProfile describes progression through the level catalog.
type LearningProfile struct {
	ProgressionRate      ProgressionRate
	SessionsPerLevel     float64
	PlateauDetected      bool
	PlateauDays          int
	PlateauMeanAccuracy  float64
	RecommendedLevelID   string
	RecommendationReason string
}

func analyzeLearning(sessions []model.SessionResult, progress model.UserProgress) LearningProfile {
	var p LearningProfile

	total := progress.TotalSessions
	if total < len(sessions) {
		total = len(sessions)
	}
	unlocked := max(len(progress.UnlockedLevelIDs), 1)
	p.SessionsPerLevel = float64(total) / float64(unlocked)
	switch {
	case p.SessionsPerLevel < fastProgression:
		p.ProgressionRate = ProgressionFast
	case p.SessionsPerLevel > slowProgression:
		p.ProgressionRate = ProgressionSlow
	default:
		p.ProgressionRate = ProgressionNormal
	}

	if len(sessions) >= plateauWindow {
		window := lastN(sessions, plateauWindow)
		accs := combinedAccuracies(window)
		m := mean(accs)
		if variance(accs) < plateauMaxVariance && m < plateauMaxMean {
			p.PlateauDetected = true
			p.PlateauMeanAccuracy = m
			span := window[len(window)-1].StartedAt.Sub(window[0].StartedAt)
			p.PlateauDays = int(math.Floor(span.Hours() / 24))
		}
	}

	if len(sessions) >= recommendWindow {
		recent := mean(combinedAccuracies(lastN(sessions, recommendWindow)))
		if recent >= recommendMinAccuracy {
			if next, ok := levels.NextLevelID(progress.CurrentLevelID); ok {
				p.RecommendedLevelID = next
				p.RecommendationReason = fmt.Sprintf("averaged %.0f%% over the last %d sessions", recent, recommendWindow)
			}
		}
	}
	return p
}

func combinedAccuracies(sessions []model.SessionResult) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = s.CombinedAccuracy
	}
	return out
}
