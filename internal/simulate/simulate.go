// Package simulate plays sessions with a scripted responder.
package simulate

import (
	"sync"
	"time"

	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/session"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Response is what a responder does during one trial.
type Response struct {
	Position bool
	Audio    bool
	Latency  time.Duration
}

// Responder decides how to answer a trial.
type Responder interface {
	Respond(t model.Trial, mode model.TrainingMode) Response
}

// SeededResponder answers each scored modality correctly with probability
// Accuracy and presses after a fixed Latency.
type SeededResponder struct {
	Accuracy float64
	Latency  time.Duration
	src      generator.Source
}

// NewSeededResponder returns a reproducible responder.
func NewSeededResponder(seed uint32, accuracy float64, latency time.Duration) *SeededResponder {
	return &SeededResponder{Accuracy: accuracy, Latency: latency, src: generator.Mulberry32(seed)}
}

// Respond implements Responder.
func (r *SeededResponder) Respond(t model.Trial, mode model.TrainingMode) Response {
	resp := Response{Latency: r.Latency}
	if mode.HasPosition() {
		resp.Position = r.answer(t.IsPositionMatch)
	}
	if mode.HasAudio() {
		resp.Audio = r.answer(t.IsAudioMatch)
	}
	return resp
}

func (r *SeededResponder) answer(isMatch bool) bool {
	if r.src() < r.Accuracy {
		return isMatch
	}
	return !isMatch
}

// Play runs s from start to completion. Button presses are recorded after
// the responder's latency; trials without a press are left unanswered. The
// clock must be the one s was created with.
func Play(s *session.Session, r Responder, clock *Clock) model.SessionResult {
	cfg := s.Config()
	s.Start()
	for {
		trial, ok := s.CurrentTrial()
		if !ok {
			break
		}
		resp := r.Respond(trial, cfg.Mode)
		latency := min(resp.Latency, cfg.TrialDuration)
		clock.Advance(latency)
		if cfg.Mode.HasPosition() && resp.Position {
			s.RecordPositionResponse(true)
		}
		if cfg.Mode.HasAudio() && resp.Audio {
			s.RecordAudioResponse(true)
		}
		clock.Advance(cfg.TrialDuration - latency)
		if !s.AdvanceToNextTrial() {
			break
		}
	}
	return s.Complete()
}
