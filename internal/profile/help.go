package profile

import (
	"sort"

	"github.com/verte-zerg/nback/internal/model"
)

const (
	helpIncreasingRatio = 1.5
	helpDecreasingRatio = 0.5
)

// HelpTrend classifies how help usage changes over time.
type HelpTrend string

// Help trends.
const (
	HelpIncreasing HelpTrend = "increasing"
	HelpDecreasing HelpTrend = "decreasing"
	HelpStable     HelpTrend = "stable"
)

// HelpProfile describes help-content usage.
type HelpProfile struct {
	HelpViews     int
	AverageViewMs float64
	TourSteps     int
	Trend         HelpTrend
}

func analyzeHelpSeeking(events []model.AnalyticsEvent) HelpProfile {
	p := HelpProfile{Trend: HelpStable}
	var views []model.AnalyticsEvent
	var durations []float64
	for _, e := range events {
		switch e.Type {
		case model.EventHelpViewed:
			views = append(views, e)
			if d, ok := e.PayloadFloat(model.PayloadDurationMs); ok {
				durations = append(durations, d)
			}
		case model.EventTourStep:
			p.TourSteps++
		}
	}
	p.HelpViews = len(views)
	p.AverageViewMs = mean(durations)
	p.Trend = helpTrend(views)
	return p
}

// helpTrend splits the events at the midpoint of their time span and
// compares how many fall in each half. Splitting the sorted list by index
// would always put roughly equal counts on each side of a help-only list.
func helpTrend(events []model.AnalyticsEvent) HelpTrend {
	if len(events) < 2 {
		return HelpStable
	}
	sorted := make([]model.AnalyticsEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	start := sorted[0].Timestamp
	span := sorted[len(sorted)-1].Timestamp.Sub(start)
	if span <= 0 {
		return HelpStable
	}
	mid := start.Add(span / 2)
	first, second := 0, 0
	for _, e := range sorted {
		if e.Timestamp.Before(mid) {
			first++
		} else {
			second++
		}
	}
	if first == 0 {
		return HelpIncreasing
	}
	ratio := float64(second) / float64(first)
	switch {
	case ratio > helpIncreasingRatio:
		return HelpIncreasing
	case ratio < helpDecreasingRatio:
		return HelpDecreasing
	default:
		return HelpStable
	}
}
