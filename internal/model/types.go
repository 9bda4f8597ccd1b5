// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// SessionConfig defines the parameters of one training session.
type SessionConfig struct {
	LevelID       string
	NBack         NBackLevel
	Mode          TrainingMode
	TrialCount    int
	TrialDuration time.Duration
}

// Validate checks the configuration for values that would corrupt scoring.
func (c SessionConfig) Validate() error {
	if _, err := NewNBackLevel(c.NBack.Int()); err != nil {
		return err
	}
	if _, err := ParseTrainingMode(string(c.Mode)); err != nil {
		return err
	}
	if c.TrialCount <= 0 {
		return fmt.Errorf("%w: trial count must be > 0, got %d", ErrInvalidConfig, c.TrialCount)
	}
	if c.TrialDuration < 0 {
		return fmt.Errorf("%w: trial duration must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// PerformanceStats summarizes signal-detection outcomes for one modality.
type PerformanceStats struct {
	Hits              int      `json:"hits"`
	Misses            int      `json:"misses"`
	FalseAlarms       int      `json:"falseAlarms"`
	CorrectRejections int      `json:"correctRejections"`
	HitRate           float64  `json:"hitRate"`
	FalseAlarmRate    float64  `json:"falseAlarmRate"`
	DPrime            float64  `json:"dPrime"`
	Accuracy          float64  `json:"accuracy"`
	AvgResponseMs     *float64 `json:"avgResponseMs,omitempty"`
}

// Total returns the number of scored trials.
func (s PerformanceStats) Total() int {
	return s.Hits + s.Misses + s.FalseAlarms + s.CorrectRejections
}

// SessionResult is the frozen outcome of a session.
type SessionResult struct {
	ID               string
	Config           SessionConfig
	StartedAt        time.Time
	EndedAt          time.Time
	Trials           []Trial
	Position         PerformanceStats
	Audio            PerformanceStats
	CombinedAccuracy float64
	CombinedDPrime   float64
	Completed        bool
}

// Duration returns the wall-clock length of the session.
func (r SessionResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
