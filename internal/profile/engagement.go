package profile

import (
	"math"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

const week = 7 * 24 * time.Hour

// TimeOfDay buckets session start hours.
type TimeOfDay string

// Time of day buckets.
const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"
	TimeUnknown   TimeOfDay = "unknown"
)

// EngagementProfile describes how often and when the user trains.
type EngagementProfile struct {
	TotalSessions        int
	SessionsLast7Days    int
	SessionsPerWeek      float64
	PreferredTimeOfDay   TimeOfDay
	CurrentStreak        int
	LongestStreak        int
	TotalTrainingMinutes float64
	// DaysSinceLastSession is nil when no session was ever recorded.
	DaysSinceLastSession *int
}

func analyzeEngagement(sessions []model.SessionResult, progress model.UserProgress, now time.Time) EngagementProfile {
	p := EngagementProfile{
		TotalSessions:        len(sessions),
		PreferredTimeOfDay:   TimeUnknown,
		CurrentStreak:        progress.CurrentStreak,
		LongestStreak:        progress.LongestStreak,
		TotalTrainingMinutes: float64(progress.TotalTrainingMs) / 60000,
	}
	if last, ok := lastSessionAt(sessions, progress); ok {
		days := int(math.Floor(now.Sub(last).Hours() / 24))
		p.DaysSinceLastSession = &days
	}
	if len(sessions) == 0 {
		return p
	}

	cutoff := now.Add(-week)
	for _, s := range sessions {
		if !s.StartedAt.Before(cutoff) && !s.StartedAt.After(now) {
			p.SessionsLast7Days++
		}
	}

	span := sessions[len(sessions)-1].StartedAt.Sub(sessions[0].StartedAt)
	weeks := math.Max(1, span.Hours()/(24*7))
	p.SessionsPerWeek = float64(len(sessions)) / weeks

	p.PreferredTimeOfDay = preferredTimeOfDay(sessions)
	return p
}

func lastSessionAt(sessions []model.SessionResult, progress model.UserProgress) (time.Time, bool) {
	if len(sessions) > 0 {
		return sessions[len(sessions)-1].StartedAt, true
	}
	if progress.LastSessionDate != nil {
		return *progress.LastSessionDate, true
	}
	return time.Time{}, false
}

func bucketHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 21:
		return TimeEvening
	default:
		return TimeNight
	}
}

// preferredTimeOfDay is the majority bucket; ties go to the earlier bucket.
func preferredTimeOfDay(sessions []model.SessionResult) TimeOfDay {
	counts := map[TimeOfDay]int{}
	for _, s := range sessions {
		counts[bucketHour(s.StartedAt.Hour())]++
	}
	best, bestCount := TimeUnknown, 0
	for _, b := range []TimeOfDay{TimeMorning, TimeAfternoon, TimeEvening, TimeNight} {
		if counts[b] > bestCount {
			best, bestCount = b, counts[b]
		}
	}
	return best
}
