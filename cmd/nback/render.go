package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/profile"
	"github.com/verte-zerg/nback/internal/stats"
	"github.com/verte-zerg/nback/internal/training"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func renderSequence(w io.Writer, nBack int, mode model.TrainingMode, trials []model.GeneratedTrial) error {
	if err := writeLines(w, fmt.Sprintf("%d-back, %s, %d trials", nBack, mode, len(trials))); err != nil {
		return err
	}
	headers := []string{"#", "Cell", "Row/Col", "Letter", "Pos match", "Aud match"}
	rows := make([][]string, 0, len(trials))
	var posMatches, audMatches int
	for i, t := range trials {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", t.Position.Index()),
			fmt.Sprintf("%d/%d", t.Position.Row(), t.Position.Col()),
			t.Letter,
			matchCell(mode.HasPosition(), t.IsPositionMatch),
			matchCell(mode.HasAudio(), t.IsAudioMatch),
		})
		if t.IsPositionMatch {
			posMatches++
		}
		if t.IsAudioMatch {
			audMatches++
		}
	}
	if err := stats.RenderTable(w, headers, rows, map[int]bool{0: true, 1: true}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return writeLines(w, fmt.Sprintf("position matches: %d, audio matches: %d", posMatches, audMatches))
}

func matchCell(scored, match bool) string {
	switch {
	case !scored:
		return "-"
	case match:
		return "yes"
	default:
		return ""
	}
}

func renderOutcome(w io.Writer, n int, o training.Outcome) error {
	r := o.Result
	lines := []string{
		fmt.Sprintf("Session %d (%s) on %s: accuracy %.1f%%, d' %.2f (%s)",
			n, r.ID, r.Config.LevelID, r.CombinedAccuracy, r.CombinedDPrime, stats.PerformanceTier(r.CombinedDPrime)),
	}
	if r.Config.Mode.HasPosition() {
		lines = append(lines, "  position "+modalityLine(r.Position))
	}
	if r.Config.Mode.HasAudio() {
		lines = append(lines, "  audio    "+modalityLine(r.Audio))
	}
	for _, id := range o.Unlocked {
		lines = append(lines, "  unlocked "+id)
	}
	if o.Advanced {
		lines = append(lines, "  advanced to "+o.NextLevelID)
	}
	lines = append(lines, fmt.Sprintf("  streak %d day(s), %d session(s) total", o.Progress.CurrentStreak, o.Progress.TotalSessions))
	return writeLines(w, lines...)
}

func modalityLine(s model.PerformanceStats) string {
	line := fmt.Sprintf("H %d  M %d  FA %d  CR %d  acc %.1f%%  d' %.2f",
		s.Hits, s.Misses, s.FalseAlarms, s.CorrectRejections, s.Accuracy, s.DPrime)
	if s.AvgResponseMs != nil {
		line += fmt.Sprintf("  rt %.0fms", *s.AvgResponseMs)
	}
	return line
}

func renderStatus(w io.Writer, p model.UserProgress, style stats.Style) error {
	lines := []string{
		style.Heading("Progress"),
		fmt.Sprintf("Current level: %s", p.CurrentLevelID),
		fmt.Sprintf("Unlocked: %d level(s)", len(p.UnlockedLevelIDs)),
		fmt.Sprintf("Sessions: %d (%.0f min)", p.TotalSessions, float64(p.TotalTrainingMs)/60000),
		fmt.Sprintf("Streak: %d day(s), longest %d", p.CurrentStreak, p.LongestStreak),
	}
	if p.LastSessionDate != nil {
		lines = append(lines, "Last session: "+p.LastSessionDate.Format("2006-01-02"))
	}
	return writeLines(w, lines...)
}

func renderLevels(w io.Writer, catalog []levels.Descriptor, p model.UserProgress, style stats.Style) error {
	if err := writeLines(w, style.Heading("Levels")); err != nil {
		return err
	}
	headers := []string{"", "Level", "Name", "State", "Sessions", "Best Acc", "Best d'"}
	rows := make([][]string, 0, len(catalog))
	for _, d := range catalog {
		marker := ""
		if d.ID == p.CurrentLevelID {
			marker = "*"
		}
		state := "open"
		if !p.IsUnlocked(d.ID) {
			state = "locked"
			if d.Unlock != nil {
				state = fmt.Sprintf("needs %s %.0f%%", d.Unlock.RequiredLevelID, d.Unlock.MinAccuracy)
			}
		}
		sessions, bestAcc, bestD := "-", "-", "-"
		if lp, ok := p.Levels[d.ID]; ok && lp.SessionsPlayed > 0 {
			sessions = fmt.Sprintf("%d", lp.SessionsPlayed)
			bestAcc = fmt.Sprintf("%.1f%%", lp.BestAccuracy)
			bestD = fmt.Sprintf("%.2f", lp.BestDPrime)
		}
		rows = append(rows, []string{marker, d.ID, d.Name, state, sessions, bestAcc, bestD})
	}
	if err := stats.RenderTable(w, headers, rows, map[int]bool{4: true, 5: true, 6: true}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func renderProfile(w io.Writer, bp profile.UserBehavioralProfile, u profile.UserProfile, style stats.Style) error {
	perf := bp.Performance
	lines := []string{
		style.Heading("Summary"),
		fmt.Sprintf("Level: %s", u.CurrentLevelID),
		fmt.Sprintf("Sessions: %d, streak %d", u.TotalSessions, u.CurrentStreak),
		fmt.Sprintf("Recent accuracy: %.1f%%, d' %.2f (%s)", u.AverageAccuracy, u.AverageDPrime, u.Tier),
		fmt.Sprintf("Churn risk: %s", u.ChurnRisk),
		"",
		style.Heading("Performance"),
		fmt.Sprintf("Sessions analyzed: %d", perf.SessionsAnalyzed),
		fmt.Sprintf("Accuracy trend: %s", perf.AccuracyTrend),
		fmt.Sprintf("Response time trend: %s", perf.ResponseTimeTrend),
		fmt.Sprintf("Position strength: %.2f, audio strength: %.2f", perf.PositionStrength, perf.AudioStrength),
	}
	if perf.AverageResponseMs != nil {
		lines = append(lines, fmt.Sprintf("Average response: %.0fms", *perf.AverageResponseMs))
	}
	for _, f := range perf.Fatigue {
		lines = append(lines, fmt.Sprintf("Fatigue in %s: %.0f%% -> %.0f%%", f.SessionID, f.FirstHalfAccuracy, f.SecondHalfAccuracy))
	}

	learn := bp.Learning
	lines = append(lines,
		"",
		style.Heading("Learning"),
		fmt.Sprintf("Progression: %s (%.1f sessions per level)", learn.ProgressionRate, learn.SessionsPerLevel),
	)
	if learn.PlateauDetected {
		lines = append(lines, fmt.Sprintf("Plateau: %d day(s) around %.1f%%", learn.PlateauDays, learn.PlateauMeanAccuracy))
	}
	if learn.RecommendedLevelID != "" {
		lines = append(lines, fmt.Sprintf("Recommended: %s (%s)", learn.RecommendedLevelID, learn.RecommendationReason))
	}

	eng := bp.Engagement
	since := "never"
	if eng.DaysSinceLastSession != nil {
		since = fmt.Sprintf("%d day(s) ago", *eng.DaysSinceLastSession)
	}
	lines = append(lines,
		"",
		style.Heading("Engagement"),
		fmt.Sprintf("Last session: %s", since),
		fmt.Sprintf("Sessions last 7 days: %d, per week: %.1f", eng.SessionsLast7Days, eng.SessionsPerWeek),
		fmt.Sprintf("Preferred time: %s", eng.PreferredTimeOfDay),
		fmt.Sprintf("Training time: %.0f min", eng.TotalTrainingMinutes),
		"",
		style.Heading("Help"),
		fmt.Sprintf("Help views: %d (avg %.0fms), tour steps: %d, trend %s",
			bp.HelpSeeking.HelpViews, bp.HelpSeeking.AverageViewMs, bp.HelpSeeking.TourSteps, bp.HelpSeeking.Trend),
	)
	if len(u.Strengths) > 0 {
		lines = append(lines, "", style.Heading("Strengths"), bulletList(u.Strengths))
	}
	if len(u.Improvements) > 0 {
		lines = append(lines, "", style.Heading("To Improve"), bulletList(u.Improvements))
	}
	return writeLines(w, lines...)
}

func bulletList(items []string) string {
	return "- " + strings.Join(items, "\n- ")
}
