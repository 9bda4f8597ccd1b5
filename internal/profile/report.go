package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/store"
)

// Source provides the history a profile is built from.
type Source interface {
	ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.SessionResult, error)
	QueryEvents(ctx context.Context, filter store.EventFilter) ([]model.AnalyticsEvent, error)
}

// Load reads every stored session and event up to now and builds the
// behavioral profile.
func Load(ctx context.Context, src Source, progress model.UserProgress, now time.Time) (UserBehavioralProfile, error) {
	history, events, err := loadHistory(ctx, src, now)
	if err != nil {
		return UserBehavioralProfile{}, err
	}
	return BuildBehavioralProfile(history, progress, events, now), nil
}

// LoadSummary is Load for the compact UserProfile.
func LoadSummary(ctx context.Context, src Source, progress model.UserProgress, now time.Time) (UserProfile, error) {
	history, events, err := loadHistory(ctx, src, now)
	if err != nil {
		return UserProfile{}, err
	}
	return BuildUserProfile(history, progress, events, now), nil
}

func loadHistory(ctx context.Context, src Source, now time.Time) ([]model.SessionResult, []model.AnalyticsEvent, error) {
	until := now.Add(time.Millisecond)
	history, err := src.ListSessions(ctx, store.SessionFilter{Until: &until})
	if err != nil {
		return nil, nil, fmt.Errorf("load sessions: %w", err)
	}
	events, err := src.QueryEvents(ctx, store.EventFilter{Until: &until})
	if err != nil {
		return nil, nil, fmt.Errorf("load events: %w", err)
	}
	return history, events, nil
}
