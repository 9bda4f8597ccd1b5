package profile

import (
	"fmt"
	"math"

	"github.com/verte-zerg/nback/internal/model"
)

const (
	strongAccuracy    = 80.0
	weakAccuracy      = 60.0
	modalityGapPoints = 10.0
	consistentStreak  = 3
	churnHighDays     = 14
	churnMediumDays   = 7
	churnLowAccuracy  = 50.0
)

// ChurnRisk estimates how likely the user is to stop training.
type ChurnRisk string

// Churn risk levels.
const (
	ChurnLow    ChurnRisk = "low"
	ChurnMedium ChurnRisk = "medium"
	ChurnHigh   ChurnRisk = "high"
)

// Insights holds qualitative feedback derived from a profile.
type Insights struct {
	Strengths    []string
	Improvements []string
	ChurnRisk    ChurnRisk
}

func deriveInsights(p UserBehavioralProfile, sessions []model.SessionResult, progress model.UserProgress) Insights {
	var in Insights
	perf := p.Performance

	if perf.SessionsAnalyzed > 0 {
		switch {
		case perf.AverageAccuracy >= strongAccuracy:
			in.Strengths = append(in.Strengths, fmt.Sprintf("High recent accuracy (%.0f%%)", perf.AverageAccuracy))
		case perf.AverageAccuracy < weakAccuracy:
			in.Improvements = append(in.Improvements, "Accuracy is below 60%; stay on the current level until responses are steadier")
		}
		if perf.AccuracyTrend == TrendImproving {
			in.Strengths = append(in.Strengths, "Accuracy is improving session over session")
		}
		if perf.AccuracyTrend == TrendDeclining {
			in.Improvements = append(in.Improvements, "Accuracy has dropped recently; consider shorter, more frequent sessions")
		}
		if perf.ResponseTimeTrend == SpeedFaster {
			in.Strengths = append(in.Strengths, "Responses are getting faster")
		}
	}

	if gap := modalityGap(sessions, perf); !math.IsNaN(gap) {
		switch {
		case gap > modalityGapPoints:
			in.Strengths = append(in.Strengths, "Position tracking is stronger than audio")
			in.Improvements = append(in.Improvements, "Practice audio-only levels to balance the modalities")
		case gap < -modalityGapPoints:
			in.Strengths = append(in.Strengths, "Audio tracking is stronger than position")
			in.Improvements = append(in.Improvements, "Practice position-only levels to balance the modalities")
		}
	}

	for _, e := range perf.ErrorPatterns {
		in.Improvements = append(in.Improvements, errorAdvice(e))
	}
	if perf.FatigueDetected() {
		in.Improvements = append(in.Improvements, "Accuracy falls late in sessions; take a break between sessions")
	}
	if p.Learning.PlateauDetected {
		in.Improvements = append(in.Improvements, fmt.Sprintf("Accuracy has plateaued for %d days; try a different mode", p.Learning.PlateauDays))
	}
	if progress.CurrentStreak >= consistentStreak {
		in.Strengths = append(in.Strengths, fmt.Sprintf("Consistent practice (%d-day streak)", progress.CurrentStreak))
	}

	in.ChurnRisk = churnRisk(p.Engagement, perf)
	return in
}

// modalityGap is position minus audio accuracy in points, or NaN when the
// recent window never scored both modalities.
func modalityGap(sessions []model.SessionResult, perf PerformanceProfile) float64 {
	var hasPos, hasAud bool
	for _, s := range lastN(sessions, performanceWindow) {
		hasPos = hasPos || s.Config.Mode.HasPosition()
		hasAud = hasAud || s.Config.Mode.HasAudio()
	}
	if !hasPos || !hasAud {
		return math.NaN()
	}
	return (perf.PositionStrength - perf.AudioStrength) * 100
}

func errorAdvice(e ErrorPattern) string {
	switch e.Kind {
	case ErrorPositionMisses:
		return fmt.Sprintf("Missing %.0f%% of position matches; watch the grid closely", e.Rate*100)
	case ErrorAudioMisses:
		return fmt.Sprintf("Missing %.0f%% of audio matches; rehearse the letter sequence", e.Rate*100)
	case ErrorPositionFalseAlarms:
		return fmt.Sprintf("%.0f%% position false alarms; only respond when sure", e.Rate*100)
	default:
		return fmt.Sprintf("%.0f%% audio false alarms; only respond when sure", e.Rate*100)
	}
}

func churnRisk(e EngagementProfile, perf PerformanceProfile) ChurnRisk {
	if e.DaysSinceLastSession == nil || *e.DaysSinceLastSession > churnHighDays {
		return ChurnHigh
	}
	if *e.DaysSinceLastSession >= churnMediumDays {
		return ChurnMedium
	}
	if perf.SessionsAnalyzed > 0 && perf.AverageAccuracy < churnLowAccuracy {
		return ChurnMedium
	}
	return ChurnLow
}
