package stats

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/store"
)

type memorySessions []model.SessionResult

func (m memorySessions) ListSessions(_ context.Context, filter store.SessionFilter) ([]model.SessionResult, error) {
	var out []model.SessionResult
	for _, s := range m {
		if filter.LevelID != "" && s.Config.LevelID != filter.LevelID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func reportSession(id, level string, i int, acc, dprime float64) model.SessionResult {
	start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
	return model.SessionResult{
		ID:               id,
		Config:           model.SessionConfig{LevelID: level, NBack: 1, Mode: model.ModePositionOnly, TrialCount: 20},
		StartedAt:        start,
		EndedAt:          start.Add(time.Minute),
		CombinedAccuracy: acc,
		CombinedDPrime:   dprime,
		Completed:        true,
	}
}

func TestBuildReport(t *testing.T) {
	src := memorySessions{
		reportSession("a", "position-1", 0, 60, 0.8),
		reportSession("b", "position-1", 1, 70, 1.2),
		reportSession("c", "position-2", 2, 55, 0.5),
		reportSession("d", "position-1", 3, 90, 2.6),
	}
	report, err := BuildReport(context.Background(), src, ReportOptions{Last: 3, CurveWindow: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 || report.Sessions[0].ID != "b" {
		t.Fatalf("unexpected sessions: %+v", report.Sessions)
	}
	if len(report.Window) != 2 || report.Window[0].ID != "c" {
		t.Fatalf("unexpected window: %+v", report.Window)
	}
	if len(report.Levels) != 2 {
		t.Fatalf("expected 2 level summaries, got %d", len(report.Levels))
	}
	p1 := report.Levels[0]
	if p1.LevelID != "position-1" || p1.Sessions != 2 || p1.AverageAccuracy != 80 || p1.BestDPrime != 2.6 {
		t.Fatalf("unexpected summary: %+v", p1)
	}

	filtered, err := BuildReport(context.Background(), src, ReportOptions{LevelID: "position-2"})
	if err != nil {
		t.Fatalf("build filtered report: %v", err)
	}
	if len(filtered.Sessions) != 1 || filtered.Sessions[0].ID != "c" {
		t.Fatalf("unexpected filtered sessions: %+v", filtered.Sessions)
	}
}

func TestReportRender(t *testing.T) {
	src := memorySessions{
		reportSession("a", "position-1", 0, 60, 0.8),
		reportSession("b", "position-2", 1, 50, 0.2),
	}
	report, err := BuildReport(context.Background(), src, ReportOptions{PlotWidth: 20})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, Style{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Sessions: 2", "Learning Curves", "Accuracy per Session", "Levels", "Needs Practice", "position-2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain style should not emit escape codes")
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil, Style{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No sessions found.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderAccuracyPlot(t *testing.T) {
	sessions := []model.SessionResult{
		reportSession("a", "dual-1", 0, 100, 3),
		reportSession("b", "dual-1", 1, 50, 1),
		reportSession("c", "dual-1", 2, 0, -1),
	}
	var buf bytes.Buffer
	if err := RenderAccuracyPlot(&buf, sessions, 10, 4, Style{}); err != nil {
		t.Fatalf("plot: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"Accuracy per Session",
		"100% | #",
		"     | #",
		" 50% | ##",
		"  0% | ##",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestResampleAveragesBuckets(t *testing.T) {
	got := resample([]float64{10, 20, 30, 40}, 2)
	if len(got) != 2 || got[0] != 15 || got[1] != 35 {
		t.Fatalf("unexpected resample: %v", got)
	}
}

func TestWeakestAndMostPlayedLevels(t *testing.T) {
	levels := []LevelSummary{
		{LevelID: "audio-1", Sessions: 5, AverageAccuracy: 65},
		{LevelID: "dual-1", Sessions: 2, AverageAccuracy: 40},
		{LevelID: "position-1", Sessions: 5, AverageAccuracy: 90},
	}
	weak := WeakestLevels(levels, 0)
	if len(weak) != 2 || weak[0].LevelID != "dual-1" || weak[1].LevelID != "audio-1" {
		t.Fatalf("unexpected weak levels: %+v", weak)
	}
	top := MostPlayedLevels(levels, 2)
	if len(top) != 2 || top[0].LevelID != "audio-1" || top[1].LevelID != "position-1" {
		t.Fatalf("unexpected top levels: %+v", top)
	}
}
