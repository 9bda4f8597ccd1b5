// Package stats scores n-back sessions with signal detection theory and
// renders session history.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/nback/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints aggregate figures for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionResult, style Style) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc, totalDPrime float64
	best := sessions[0]
	for _, s := range sessions {
		totalAcc += s.CombinedAccuracy
		totalDPrime += s.CombinedDPrime
		if s.CombinedDPrime > best.CombinedDPrime {
			best = s
		}
	}
	count := float64(len(sessions))
	avgDPrime := totalDPrime / count
	lines := []string{
		style.Heading("Summary"),
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count),
		fmt.Sprintf("Avg d': %.2f (%s)", avgDPrime, PerformanceTier(avgDPrime)),
		fmt.Sprintf("Best d': %.2f on %s", best.CombinedDPrime, best.Config.LevelID),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints smoothed accuracy and d-prime sparklines.
func RenderCurves(w io.Writer, sessions []model.SessionResult, window, width int, style Style) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	dps := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = s.CombinedAccuracy
		dps[i] = s.CombinedDPrime
	}
	accs = tail(MovingAverage(accs, window), width)
	dps = tail(MovingAverage(dps, window), width)
	lines := []string{
		style.Heading("Learning Curves"),
		fmt.Sprintf("Accuracy %s %.1f%%", Sparkline(accs), accs[len(accs)-1]),
		fmt.Sprintf("d'       %s %.2f", Sparkline(dps), dps[len(dps)-1]),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistoryTable prints one row per session.
func RenderHistoryTable(w io.Writer, sessions []model.SessionResult, style Style) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, style.Heading("Sessions")); err != nil {
		return err
	}
	headers := []string{"Date", "Level", "Mode", "Accuracy", "d'", "Pos H/M/FA", "Aud H/M/FA", "RT (ms)"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Config.LevelID,
			string(s.Config.Mode),
			fmt.Sprintf("%.1f%%", s.CombinedAccuracy),
			fmt.Sprintf("%.2f", s.CombinedDPrime),
			countsCell(s.Config.Mode.HasPosition(), s.Position),
			countsCell(s.Config.Mode.HasAudio(), s.Audio),
			responseCell(s),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLevelTable prints per-level aggregates.
func RenderLevelTable(w io.Writer, levels []LevelSummary, style Style) error {
	if len(levels) == 0 {
		return nil
	}
	return renderLevels(w, "Levels", levels, style)
}

// RenderWeakLevels prints the levels that need more practice.
func RenderWeakLevels(w io.Writer, levels []LevelSummary, style Style) error {
	if len(levels) == 0 {
		return nil
	}
	return renderLevels(w, "Needs Practice", levels, style)
}

func renderLevels(w io.Writer, title string, levels []LevelSummary, style Style) error {
	if _, err := fmt.Fprintln(w, style.Heading(title)); err != nil {
		return err
	}
	headers := []string{"Level", "Sessions", "Avg Acc", "Best Acc", "Avg d'", "Best d'", "Last Played"}
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{
			l.LevelID,
			fmt.Sprintf("%d", l.Sessions),
			fmt.Sprintf("%.1f%%", l.AverageAccuracy),
			fmt.Sprintf("%.1f%%", l.BestAccuracy),
			fmt.Sprintf("%.2f", l.AverageDPrime),
			fmt.Sprintf("%.2f", l.BestDPrime),
			l.LastPlayedAt.Local().Format("2006-01-02"),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func countsCell(scored bool, s model.PerformanceStats) string {
	if !scored {
		return "-"
	}
	return fmt.Sprintf("%d/%d/%d", s.Hits, s.Misses, s.FalseAlarms)
}

func responseCell(s model.SessionResult) string {
	var sum float64
	n := 0
	for _, v := range []*float64{s.Position.AvgResponseMs, s.Audio.AvgResponseMs} {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", sum/float64(n))
}

func tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
