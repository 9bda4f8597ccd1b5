// Package training runs the session workflow on top of the repositories:
// starting sessions, recording results, unlocking levels, and emitting
// analytics events.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/profile"
	"github.com/verte-zerg/nback/internal/session"
	"github.com/verte-zerg/nback/internal/stats"
	"github.com/verte-zerg/nback/internal/store"
)

// ErrLevelLocked is returned when a session is requested for a level that
// has not been unlocked yet.
var ErrLevelLocked = errors.New("level is locked")

// ErrSessionIncomplete is returned by Finish for a session that was not
// started or still has trials left to play.
var ErrSessionIncomplete = errors.New("session is incomplete")

// ErrSessionFinished is returned by Finish for a session already stored.
var ErrSessionFinished = errors.New("session already finished")

// SessionRepository persists session results.
type SessionRepository interface {
	SaveSession(ctx context.Context, r model.SessionResult) error
	GetSession(ctx context.Context, id string) (model.SessionResult, error)
	ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.SessionResult, error)
}

// ProgressRepository persists the singleton progress record.
type ProgressRepository interface {
	GetProgress(ctx context.Context) (model.UserProgress, bool, error)
	SaveProgress(ctx context.Context, p model.UserProgress, at time.Time) error
	UnlockLevel(ctx context.Context, levelID string, at time.Time) (bool, error)
	UpdateStreak(ctx context.Context, day time.Time) (model.UserProgress, error)
}

// EventRepository records analytics events.
type EventRepository interface {
	AppendEvent(ctx context.Context, e model.AnalyticsEvent) (int64, error)
	QueryEvents(ctx context.Context, filter store.EventFilter) ([]model.AnalyticsEvent, error)
}

// Repository is the full persistence surface the service needs.
type Repository interface {
	SessionRepository
	ProgressRepository
	EventRepository
}

// Settings holds the session parameters shared by every level.
type Settings struct {
	TrialCount               int
	TrialDuration            time.Duration
	PositionMatchProbability float64
	AudioMatchProbability    float64
	AdvanceThreshold         float64
}

// DefaultSettings returns 20 trials of 3 seconds with the default match
// probabilities and advancement threshold.
func DefaultSettings() Settings {
	return Settings{
		TrialCount:               20,
		TrialDuration:            3 * time.Second,
		PositionMatchProbability: generator.DefaultPositionMatchProbability,
		AudioMatchProbability:    generator.DefaultAudioMatchProbability,
		AdvanceThreshold:         stats.DefaultAdvancementThreshold,
	}
}

// Option customizes a Service.
type Option func(*Service)

// WithCatalog replaces the default level catalog.
func WithCatalog(catalog []levels.Descriptor) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithSettings replaces the default session settings.
func WithSettings(settings Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithClock replaces the wall clock. Sessions created by the service share it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service drives training sessions and keeps progress up to date.
type Service struct {
	repo     Repository
	catalog  []levels.Descriptor
	settings Settings
	now      func() time.Time
}

// NewService validates the catalog and returns a service backed by repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	s := &Service{
		repo:     repo,
		catalog:  levels.DefaultCatalog(),
		settings: DefaultSettings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := levels.Validate(s.catalog); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the level catalog in use.
func (s *Service) Catalog() []levels.Descriptor {
	return s.catalog
}

// Progress returns the stored progress, creating it from the catalog on
// first use.
func (s *Service) Progress(ctx context.Context) (model.UserProgress, error) {
	p, found, err := s.repo.GetProgress(ctx)
	if err != nil {
		return model.UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	if found && p.CurrentLevelID != "" {
		if p.Levels == nil {
			p.Levels = map[string]model.LevelProgress{}
		}
		return p, nil
	}
	p.UnlockedLevelIDs = mergeIDs(p.UnlockedLevelIDs, levels.UnlockedIDs(s.catalog, p.Levels))
	if len(p.UnlockedLevelIDs) == 0 {
		return model.UserProgress{}, fmt.Errorf("level catalog has no open level")
	}
	p.CurrentLevelID = p.UnlockedLevelIDs[0]
	if p.Levels == nil {
		p.Levels = map[string]model.LevelProgress{}
	}
	if err := s.repo.SaveProgress(ctx, p, s.now()); err != nil {
		return model.UserProgress{}, fmt.Errorf("save progress: %w", err)
	}
	return p, nil
}

// NewSession generates a sequence for levelID, or the current level when
// levelID is empty, and records a session_started event. A nil seed draws a
// fresh sequence.
func (s *Service) NewSession(ctx context.Context, levelID string, seed *uint32) (*session.Session, error) {
	progress, err := s.Progress(ctx)
	if err != nil {
		return nil, err
	}
	if levelID == "" {
		levelID = progress.CurrentLevelID
	}
	level, err := levels.Find(s.catalog, levelID)
	if err != nil {
		return nil, err
	}
	if !progress.IsUnlocked(level.ID) {
		return nil, fmt.Errorf("%w: %s", ErrLevelLocked, level.ID)
	}

	generated, err := generator.Generate(generator.Options{
		NBack:                    level.NBack,
		TrialCount:               s.settings.TrialCount,
		Mode:                     level.Mode,
		PositionMatchProbability: s.settings.PositionMatchProbability,
		AudioMatchProbability:    s.settings.AudioMatchProbability,
		Seed:                     seed,
	})
	if err != nil {
		return nil, fmt.Errorf("generate sequence: %w", err)
	}
	sess, err := session.New(level.SessionConfig(s.settings.TrialCount, s.settings.TrialDuration), generated, session.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, model.EventSessionStarted, sess.ID(), map[string]any{
		model.PayloadLevelID: level.ID,
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

// Outcome reports what finishing a session changed.
type Outcome struct {
	Result   model.SessionResult
	Progress model.UserProgress
	// Advanced is set when the current level moved to NextLevelID.
	Advanced    bool
	NextLevelID string
	Unlocked    []string
}

// Finish completes sess, stores the result, and updates progress: totals,
// per-level bests, the day streak, rule-based unlocks, and advancement when
// the session met the d-prime threshold on the current level. A session is
// finished at most once, and only after every trial was played.
func (s *Service) Finish(ctx context.Context, sess *session.Session) (Outcome, error) {
	if sess.StartedAt().IsZero() || !sess.IsComplete() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrSessionIncomplete, sess.ID())
	}
	_, err := s.repo.GetSession(ctx, sess.ID())
	switch {
	case err == nil:
		return Outcome{}, fmt.Errorf("%w: %s", ErrSessionFinished, sess.ID())
	case !errors.Is(err, store.ErrNotFound):
		return Outcome{}, fmt.Errorf("load session: %w", err)
	}

	result := sess.Complete()
	if err := s.repo.SaveSession(ctx, result); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}

	progress, err := s.Progress(ctx)
	if err != nil {
		return Outcome{}, err
	}
	progress.TotalSessions++
	progress.TotalTrainingMs += result.Duration().Milliseconds()
	progress.Levels[result.Config.LevelID] = recordBest(progress.Levels[result.Config.LevelID], result)
	if err := s.repo.SaveProgress(ctx, progress, result.EndedAt); err != nil {
		return Outcome{}, fmt.Errorf("save progress: %w", err)
	}
	if progress, err = s.repo.UpdateStreak(ctx, result.EndedAt); err != nil {
		return Outcome{}, fmt.Errorf("update streak: %w", err)
	}

	out := Outcome{Result: result}
	candidates := levels.UnlockedIDs(s.catalog, progress.Levels)
	advance := stats.MeetsAdvancementCriteria(result, s.settings.AdvanceThreshold) &&
		result.Config.LevelID == progress.CurrentLevelID
	if advance {
		if next, ok := levels.NextLevelID(progress.CurrentLevelID); ok {
			if _, err := levels.Find(s.catalog, next); err == nil {
				candidates = append(candidates, next)
				out.NextLevelID = next
			}
		}
	}
	for _, id := range candidates {
		if progress.IsUnlocked(id) {
			continue
		}
		added, err := s.repo.UnlockLevel(ctx, id, result.EndedAt)
		if err != nil {
			return Outcome{}, fmt.Errorf("unlock %s: %w", id, err)
		}
		progress.UnlockedLevelIDs = append(progress.UnlockedLevelIDs, id)
		if !added {
			continue
		}
		out.Unlocked = append(out.Unlocked, id)
		if err := s.emit(ctx, model.EventLevelUnlocked, result.ID, map[string]any{model.PayloadLevelID: id}); err != nil {
			return Outcome{}, err
		}
	}
	if out.NextLevelID != "" {
		progress.CurrentLevelID = out.NextLevelID
		out.Advanced = true
		if err := s.repo.SaveProgress(ctx, progress, result.EndedAt); err != nil {
			return Outcome{}, fmt.Errorf("save progress: %w", err)
		}
	}
	out.Progress = progress

	if err := s.emit(ctx, model.EventSessionCompleted, result.ID, map[string]any{
		model.PayloadLevelID:    result.Config.LevelID,
		model.PayloadAccuracy:   result.CombinedAccuracy,
		model.PayloadDurationMs: result.Duration().Milliseconds(),
	}); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// Abandon records that sess was discarded before completion. Nothing else
// is persisted.
func (s *Service) Abandon(ctx context.Context, sess *session.Session, reason string) error {
	return s.emit(ctx, model.EventSessionAbandoned, sess.ID(), map[string]any{
		model.PayloadLevelID:    sess.Config().LevelID,
		model.PayloadReason:     reason,
		model.PayloadTrialIndex: sess.Progress().Current - 1,
	})
}

// RecordEvent appends an interaction event that is not tied to a session.
func (s *Service) RecordEvent(ctx context.Context, t model.EventType, payload map[string]any) error {
	return s.emit(ctx, t, "", payload)
}

// Profile builds the behavioral profile from everything stored so far.
func (s *Service) Profile(ctx context.Context) (profile.UserBehavioralProfile, error) {
	progress, err := s.Progress(ctx)
	if err != nil {
		return profile.UserBehavioralProfile{}, err
	}
	return profile.Load(ctx, s.repo, progress, s.now())
}

// Summary builds the compact user profile.
func (s *Service) Summary(ctx context.Context) (profile.UserProfile, error) {
	progress, err := s.Progress(ctx)
	if err != nil {
		return profile.UserProfile{}, err
	}
	return profile.LoadSummary(ctx, s.repo, progress, s.now())
}

func (s *Service) emit(ctx context.Context, t model.EventType, sessionID string, payload map[string]any) error {
	_, err := s.repo.AppendEvent(ctx, model.AnalyticsEvent{
		Type:      t,
		Category:  model.CategoryFor(t),
		SessionID: sessionID,
		Timestamp: s.now(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("record %s event: %w", t, err)
	}
	return nil
}

func recordBest(lp model.LevelProgress, r model.SessionResult) model.LevelProgress {
	if lp.SessionsPlayed == 0 {
		lp.BestAccuracy = r.CombinedAccuracy
		lp.BestDPrime = r.CombinedDPrime
	}
	lp.LevelID = r.Config.LevelID
	lp.SessionsPlayed++
	lp.BestAccuracy = max(lp.BestAccuracy, r.CombinedAccuracy)
	lp.BestDPrime = max(lp.BestDPrime, r.CombinedDPrime)
	if r.EndedAt.After(lp.LastPlayedAt) {
		lp.LastPlayedAt = r.EndedAt
	}
	return lp
}

func mergeIDs(have, add []string) []string {
	seen := make(map[string]struct{}, len(have))
	out := append([]string(nil), have...)
	for _, id := range have {
		seen[id] = struct{}{}
	}
	for _, id := range add {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
