// Package profile derives behavioral trends from session history and
// interaction events. Every function here is a pure computation over its
// inputs.
package profile

import (
	"sort"
	"time"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
)

// UserBehavioralProfile aggregates the four analyses and the insights drawn
// from them.
type UserBehavioralProfile struct {
	GeneratedAt time.Time
	Performance PerformanceProfile
	Learning    LearningProfile
	Engagement  EngagementProfile
	HelpSeeking HelpProfile
	Insights    Insights
}

// BuildBehavioralProfile analyzes history, progress, and events as of now.
// History may be passed in any order.
func BuildBehavioralProfile(history []model.SessionResult, progress model.UserProgress, events []model.AnalyticsEvent, now time.Time) UserBehavioralProfile {
	sessions := chronological(history)
	p := UserBehavioralProfile{
		GeneratedAt: now,
		Performance: analyzePerformance(sessions),
		Learning:    analyzeLearning(sessions, progress),
		Engagement:  analyzeEngagement(sessions, progress, now),
		HelpSeeking: analyzeHelpSeeking(events),
	}
	p.Insights = deriveInsights(p, sessions, progress)
	return p
}

// UserProfile is a compact summary of a behavioral profile.
type UserProfile struct {
	CurrentLevelID     string
	RecommendedLevelID string
	TotalSessions      int
	CurrentStreak      int
	AverageAccuracy    float64
	AverageDPrime      float64
	Tier               string
	PreferredTimeOfDay TimeOfDay
	Strengths          []string
	Improvements       []string
	ChurnRisk          ChurnRisk
}

// BuildUserProfile summarizes BuildBehavioralProfile for display.
func BuildUserProfile(history []model.SessionResult, progress model.UserProgress, events []model.AnalyticsEvent, now time.Time) UserProfile {
	bp := BuildBehavioralProfile(history, progress, events, now)
	window := lastN(chronological(history), performanceWindow)
	var dSum float64
	for _, s := range window {
		dSum += s.CombinedDPrime
	}
	avgD := 0.0
	if len(window) > 0 {
		avgD = dSum / float64(len(window))
	}
	total := progress.TotalSessions
	if total < len(history) {
		total = len(history)
	}
	return UserProfile{
		CurrentLevelID:     progress.CurrentLevelID,
		RecommendedLevelID: bp.Learning.RecommendedLevelID,
		TotalSessions:      total,
		CurrentStreak:      progress.CurrentStreak,
		AverageAccuracy:    bp.Performance.AverageAccuracy,
		AverageDPrime:      avgD,
		Tier:               string(stats.PerformanceTier(avgD)),
		PreferredTimeOfDay: bp.Engagement.PreferredTimeOfDay,
		Strengths:          bp.Insights.Strengths,
		Improvements:       bp.Insights.Improvements,
		ChurnRisk:          bp.Insights.ChurnRisk,
	}
}

func chronological(history []model.SessionResult) []model.SessionResult {
	out := make([]model.SessionResult, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func lastN(sessions []model.SessionResult, n int) []model.SessionResult {
	if len(sessions) <= n {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

// halves compares the mean of the first half of values with the second.
func halves(values []float64) (first, second float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	mid := len(values) / 2
	return mean(values[:mid]), mean(values[mid:]), true
}
