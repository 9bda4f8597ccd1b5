// Package session tracks a single n-back training session.
package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
)

// Progress reports how far a session has advanced.
type Progress struct {
	Current    int
	Total      int
	Percentage int
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for timestamps and latencies.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session owns the trial log of one training run. Calls are serialized by an
// internal mutex; trials are replaced by index, never mutated in place.
type Session struct {
	mu sync.Mutex

	id        string
	config    model.SessionConfig
	trials    []model.Trial
	cursor    int
	startedAt time.Time
	endedAt   time.Time
	completed bool
	now       func() time.Time
}

// New builds a session from a generated sequence.
func New(cfg model.SessionConfig, generated []model.GeneratedTrial, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(generated) != cfg.TrialCount {
		return nil, fmt.Errorf("%w: %d generated trials for trial count %d", model.ErrInvalidConfig, len(generated), cfg.TrialCount)
	}
	trials := make([]model.Trial, len(generated))
	for i, g := range generated {
		trials[i] = model.NewTrial(i, g)
	}
	s := &Session{
		config: cfg,
		trials: trials,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration.
func (s *Session) Config() model.SessionConfig {
	return s.config
}

// Start records the start time and stamps the onset of the first trial.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.startedAt = now
	s.stampOnset(now)
}

// StartedAt returns the start time, zero before Start.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// CurrentTrial returns the trial at the cursor. ok is false once the
// session is exhausted.
func (s *Session) CurrentTrial() (model.Trial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.trials) {
		return model.Trial{}, false
	}
	return s.trials[s.cursor], true
}

// SetStimulusOnset re-stamps the onset of the current trial, for example
// after the presentation layer resumes from a pause.
func (s *Session) SetStimulusOnset(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampOnset(at)
}

// RecordPositionResponse records the position response for the current
// trial. It does nothing once the session is exhausted.
func (s *Session) RecordPositionResponse(responded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.trials) {
		return
	}
	s.trials[s.cursor] = s.trials[s.cursor].WithPositionResponse(responded, s.now())
}

// RecordAudioResponse records the audio response for the current trial. It
// does nothing once the session is exhausted.
func (s *Session) RecordAudioResponse(responded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.trials) {
		return
	}
	s.trials[s.cursor] = s.trials[s.cursor].WithAudioResponse(responded, s.now())
}

// AdvanceToNextTrial moves the cursor forward and reports whether a trial
// remains.
func (s *Session) AdvanceToNextTrial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < len(s.trials) {
		s.cursor++
	}
	if s.cursor >= len(s.trials) {
		return false
	}
	s.stampOnset(s.now())
	return true
}

// Progress returns the 1-based current trial, the total, and the share of
// trials already finished.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.trials)
	if total == 0 {
		return Progress{}
	}
	return Progress{
		Current:    min(s.cursor+1, total),
		Total:      total,
		Percentage: int(math.Round(float64(s.cursor) / float64(total) * 100)),
	}
}

// IsComplete reports whether every trial has been advanced past.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= len(s.trials)
}

// Trials returns a copy of the trial log.
func (s *Session) Trials() []model.Trial {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Complete scores the trial log. The end time and completed flag are fixed by
// the first call; statistics are recomputed from the trials on every call.
func (s *Session) Complete() model.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		s.completed = true
		s.endedAt = s.now()
	}
	return stats.CalculateSessionResult(stats.SessionInput{
		ID:        s.id,
		Config:    s.config,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
		Trials:    s.trials,
		Completed: s.completed,
	})
}

func (s *Session) stampOnset(at time.Time) {
	if s.cursor >= len(s.trials) {
		return
	}
	s.trials[s.cursor] = s.trials[s.cursor].WithOnset(at)
}
