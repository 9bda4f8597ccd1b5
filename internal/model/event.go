package model

import "time"

// EventCategory groups analytics events.
type EventCategory string

// Event categories.
const (
	CategoryEngagement EventCategory = "engagement"
	CategoryHelp       EventCategory = "help"
	CategorySession    EventCategory = "session"
	CategoryProgress   EventCategory = "progress"
)

// EventType names a single kind of interaction.
type EventType string

// Event types.
const (
	EventAppOpened        EventType = "app_opened"
	EventHelpViewed       EventType = "help_viewed"
	EventTourStep         EventType = "tour_step"
	EventSettingsChanged  EventType = "settings_changed"
	EventSessionStarted   EventType = "session_started"
	EventSessionCompleted EventType = "session_completed"
	EventSessionAbandoned EventType = "session_abandoned"
	EventLevelUnlocked    EventType = "level_unlocked"
)

// Payload keys shared between producers and the analyzer.
const (
	PayloadDurationMs = "durationMs"
	PayloadLevelID    = "levelId"
	PayloadReason     = "reason"
	PayloadAccuracy   = "accuracy"
	PayloadTrialIndex = "trialIndex"
)

// CategoryFor returns the default category of an event type.
func CategoryFor(t EventType) EventCategory {
	switch t {
	case EventHelpViewed, EventTourStep:
		return CategoryHelp
	case EventSessionStarted, EventSessionCompleted, EventSessionAbandoned:
		return CategorySession
	case EventLevelUnlocked:
		return CategoryProgress
	default:
		return CategoryEngagement
	}
}

// AnalyticsEvent is one recorded interaction.
type AnalyticsEvent struct {
	ID        int64
	Type      EventType
	Category  EventCategory
	SessionID string
	Timestamp time.Time
	Payload   map[string]any
}

// PayloadFloat reads a numeric payload value regardless of its decoded type.
func (e AnalyticsEvent) PayloadFloat(key string) (float64, bool) {
	v, ok := e.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
