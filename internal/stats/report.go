package stats

import (
	"context"
	"io"
	"time"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/store"
)

// SessionSource lists stored sessions.
type SessionSource interface {
	ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.SessionResult, error)
}

// ReportOptions selects the sessions a report covers.
type ReportOptions struct {
	LevelID     string
	Since       *time.Time
	Last        int
	CurveWindow int
	PlotWidth   int
	TopLevels   int
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionResult
	Window   []model.SessionResult
	Levels   []LevelSummary
	Options  ReportOptions
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src SessionSource, opts ReportOptions) (Report, error) {
	sessions, err := src.ListSessions(ctx, store.SessionFilter{LevelID: opts.LevelID, Since: opts.Since})
	if err != nil {
		return Report{}, err
	}
	if opts.Last > 0 && len(sessions) > opts.Last {
		sessions = sessions[len(sessions)-opts.Last:]
	}
	window := sessions
	if opts.CurveWindow > 0 && len(sessions) > opts.CurveWindow {
		window = sessions[len(sessions)-opts.CurveWindow:]
	}
	return Report{
		Sessions: sessions,
		Window:   window,
		Levels:   SummarizeLevels(sessions),
		Options:  opts,
	}, nil
}

// Render writes every section of the report.
func (r Report) Render(w io.Writer, style Style) error {
	if err := RenderSummary(w, r.Sessions, style); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCurves(w, r.Sessions, r.Options.CurveWindow, r.Options.PlotWidth, style); err != nil {
		return err
	}
	if err := RenderAccuracyPlot(w, r.Sessions, r.Options.PlotWidth, 0, style); err != nil {
		return err
	}
	if err := RenderLevelTable(w, MostPlayedLevels(r.Levels, r.Options.TopLevels), style); err != nil {
		return err
	}
	if weak := WeakestLevels(r.Levels, r.Options.TopLevels); len(weak) > 0 {
		if err := RenderWeakLevels(w, weak, style); err != nil {
			return err
		}
	}
	return RenderHistoryTable(w, r.Window, style)
}
