package model

import "time"

// LevelProgress records the best results achieved on a level.
type LevelProgress struct {
	LevelID        string
	BestAccuracy   float64
	BestDPrime     float64
	SessionsPlayed int
	LastPlayedAt   time.Time
}

// UserProgress is the singleton progress record of the trainee.
type UserProgress struct {
	CurrentLevelID   string
	UnlockedLevelIDs []string
	TotalSessions    int
	TotalTrainingMs  int64
	CurrentStreak    int
	LongestStreak    int
	LastSessionDate  *time.Time
	Levels           map[string]LevelProgress
}

// IsUnlocked reports whether levelID is in the unlocked set.
func (p UserProgress) IsUnlocked(levelID string) bool {
	for _, id := range p.UnlockedLevelIDs {
		if id == levelID {
			return true
		}
	}
	return false
}

// RecordSessionDay returns a copy of p with the day streak updated for a
// session played on day. Another session on the same calendar day leaves the
// streak unchanged, the following day extends it, and any gap restarts it.
func (p UserProgress) RecordSessionDay(day time.Time) UserProgress {
	today := truncateDay(day)
	switch {
	case p.LastSessionDate == nil:
		p.CurrentStreak = 1
	default:
		last := truncateDay(*p.LastSessionDate)
		switch {
		case today.Equal(last):
			if p.CurrentStreak == 0 {
				p.CurrentStreak = 1
			}
		case today.Equal(last.AddDate(0, 0, 1)):
			p.CurrentStreak++
		case today.Before(last):
			// Out-of-order timestamp; keep what we have.
			return p
		default:
			p.CurrentStreak = 1
		}
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastSessionDate = &today
	return p
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
