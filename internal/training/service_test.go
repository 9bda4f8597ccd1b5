package training

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/simulate"
	"github.com/verte-zerg/nback/internal/store"
)

type fixture struct {
	svc   *Service
	st    *store.Store
	clock *simulate.Clock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "nback.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	clock := simulate.NewClock(time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	svc, err := NewService(st, WithClock(clock.Now))
	require.NoError(t, err)
	return fixture{svc: svc, st: st, clock: clock}
}

func (f fixture) play(t *testing.T, levelID string, accuracy float64) Outcome {
	t.Helper()
	ctx := context.Background()
	seed := uint32(11)
	sess, err := f.svc.NewSession(ctx, levelID, &seed)
	require.NoError(t, err)
	simulate.Play(sess, simulate.NewSeededResponder(5, accuracy, 400*time.Millisecond), f.clock)
	out, err := f.svc.Finish(ctx, sess)
	require.NoError(t, err)
	return out
}

func eventTypes(t *testing.T, st *store.Store, filter store.EventFilter) []model.EventType {
	t.Helper()
	events, err := st.QueryEvents(context.Background(), filter)
	require.NoError(t, err)
	out := make([]model.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestProgressInitializedFromCatalog(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Progress(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "position-1", p.CurrentLevelID)
	assert.ElementsMatch(t, []string{"position-1", "audio-1"}, p.UnlockedLevelIDs)
	assert.Equal(t, 0, p.TotalSessions)

	stored, found, err := f.st.GetProgress(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "position-1", stored.CurrentLevelID)
}

func TestNewSessionRejectsLockedAndUnknownLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.NewSession(ctx, "dual-3", nil)
	assert.True(t, errors.Is(err, ErrLevelLocked), "got %v", err)

	_, err = f.svc.NewSession(ctx, "spatial-1", nil)
	assert.True(t, errors.Is(err, levels.ErrUnknownLevel), "got %v", err)
}

func TestNewSessionUsesCurrentLevel(t *testing.T) {
	f := newFixture(t)
	sess, err := f.svc.NewSession(context.Background(), "", nil)
	require.NoError(t, err)

	cfg := sess.Config()
	assert.Equal(t, "position-1", cfg.LevelID)
	assert.Equal(t, model.ModePositionOnly, cfg.Mode)
	assert.Equal(t, 20, cfg.TrialCount)
	assert.Equal(t, []model.EventType{model.EventSessionStarted}, eventTypes(t, f.st, store.EventFilter{SessionID: sess.ID()}))
}

func TestFinishAdvancesAfterStrongSession(t *testing.T) {
	f := newFixture(t)
	out := f.play(t, "position-1", 1)

	assert.True(t, out.Result.CombinedDPrime >= 2, "d' = %.2f", out.Result.CombinedDPrime)
	assert.True(t, out.Advanced)
	assert.Equal(t, "position-2", out.NextLevelID)
	assert.Equal(t, []string{"position-2"}, out.Unlocked)
	assert.Equal(t, "position-2", out.Progress.CurrentLevelID)
	assert.Equal(t, 1, out.Progress.TotalSessions)
	assert.Equal(t, int64(60000), out.Progress.TotalTrainingMs)
	assert.Equal(t, 1, out.Progress.CurrentStreak)

	lp := out.Progress.Levels["position-1"]
	assert.Equal(t, 1, lp.SessionsPlayed)
	assert.InDelta(t, 100, lp.BestAccuracy, 1e-9)

	saved, err := f.st.GetSession(context.Background(), out.Result.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Result.CombinedAccuracy, saved.CombinedAccuracy)

	assert.Equal(t,
		[]model.EventType{model.EventSessionStarted, model.EventLevelUnlocked, model.EventSessionCompleted},
		eventTypes(t, f.st, store.EventFilter{SessionID: out.Result.ID}))

	p, err := f.svc.Progress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "position-2", p.CurrentLevelID)
	assert.True(t, p.IsUnlocked("position-2"))
}

func TestFinishWeakSessionKeepsLevel(t *testing.T) {
	f := newFixture(t)
	out := f.play(t, "position-1", 0)

	assert.False(t, out.Advanced)
	assert.Empty(t, out.Unlocked)
	assert.Equal(t, "position-1", out.Progress.CurrentLevelID)
	assert.Equal(t, 1, out.Progress.Levels["position-1"].SessionsPlayed)
	assert.False(t, out.Progress.IsUnlocked("position-2"))
}

func TestFinishOnOtherLevelUnlocksWithoutAdvancing(t *testing.T) {
	f := newFixture(t)
	out := f.play(t, "audio-1", 1)

	assert.False(t, out.Advanced)
	assert.Equal(t, []string{"audio-2"}, out.Unlocked)
	assert.Equal(t, "position-1", out.Progress.CurrentLevelID)
}

func TestStreakAndTotalsAcrossSessions(t *testing.T) {
	f := newFixture(t)
	f.play(t, "position-1", 0)
	f.clock.Advance(time.Hour)
	out := f.play(t, "position-1", 0)
	assert.Equal(t, 1, out.Progress.CurrentStreak)
	assert.Equal(t, 2, out.Progress.TotalSessions)
	assert.Equal(t, int64(120000), out.Progress.TotalTrainingMs)

	f.clock.Advance(24 * time.Hour)
	out = f.play(t, "position-1", 0)
	assert.Equal(t, 2, out.Progress.CurrentStreak)
	assert.Equal(t, 2, out.Progress.LongestStreak)
	assert.Equal(t, 3, out.Progress.Levels["position-1"].SessionsPlayed)
}

func TestFinishRejectsUnplayedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.NewSession(ctx, "", nil)
	require.NoError(t, err)

	_, err = f.svc.Finish(ctx, sess)
	assert.ErrorIs(t, err, ErrSessionIncomplete)

	sess.Start()
	sess.AdvanceToNextTrial()
	_, err = f.svc.Finish(ctx, sess)
	assert.ErrorIs(t, err, ErrSessionIncomplete)

	sessions, err := f.st.ListSessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	progress, err := f.svc.Progress(ctx)
	require.NoError(t, err)
	assert.Zero(t, progress.TotalSessions)
}

func TestFinishTwiceKeepsCountersInStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := uint32(3)
	sess, err := f.svc.NewSession(ctx, "position-1", &seed)
	require.NoError(t, err)
	simulate.Play(sess, simulate.NewSeededResponder(5, 0.9, 400*time.Millisecond), f.clock)

	first, err := f.svc.Finish(ctx, sess)
	require.NoError(t, err)
	_, err = f.svc.Finish(ctx, sess)
	assert.ErrorIs(t, err, ErrSessionFinished)

	sessions, err := f.st.ListSessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	progress, err := f.svc.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.TotalSessions)
	assert.Equal(t, first.Progress.TotalTrainingMs, progress.TotalTrainingMs)
	assert.Equal(t, 1, progress.Levels["position-1"].SessionsPlayed)
}

func TestAbandonRecordsEventOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.NewSession(ctx, "", nil)
	require.NoError(t, err)
	sess.Start()
	sess.AdvanceToNextTrial()

	require.NoError(t, f.svc.Abandon(ctx, sess, "user quit"))

	events, err := f.st.QueryEvents(ctx, store.EventFilter{Type: model.EventSessionAbandoned})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "user quit", events[0].Payload[model.PayloadReason])
	idx, ok := events[0].PayloadFloat(model.PayloadTrialIndex)
	require.True(t, ok)
	assert.Equal(t, 1.0, idx)

	sessions, err := f.st.ListSessions(ctx, store.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestProfileAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RecordEvent(ctx, model.EventHelpViewed, map[string]any{model.PayloadDurationMs: 2000}))
	for i := 0; i < 3; i++ {
		f.play(t, "audio-1", 0.8)
		f.clock.Advance(24 * time.Hour)
	}

	p, err := f.svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Performance.SessionsAnalyzed)
	assert.Equal(t, 1, p.HelpSeeking.HelpViews)
	assert.Equal(t, 3, p.Engagement.TotalSessions)

	u, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, u.TotalSessions)
	assert.Equal(t, "position-1", u.CurrentLevelID)
}

func TestNewServiceRejectsInvalidCatalog(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "nback.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	bad := []levels.Descriptor{{ID: "position-1", Name: "P1", NBack: 12, Mode: model.ModePositionOnly}}
	_, err = NewService(st, WithCatalog(bad))
	assert.Error(t, err)
}
