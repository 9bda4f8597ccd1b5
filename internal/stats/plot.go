package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/nback/internal/model"
)

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	plotAxisWidth     = 7
	plotFill          = '#'
	plotEmpty         = ' '
)

// RenderAccuracyPlot draws combined accuracy per session as a column chart on
// a fixed 0-100% scale. Sessions are resampled to fit width columns.
func RenderAccuracyPlot(w io.Writer, sessions []model.SessionResult, width, height int, style Style) error {
	if len(sessions) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}
	values := make([]float64, len(sessions))
	for i, s := range sessions {
		values[i] = s.CombinedAccuracy
	}
	cols := resample(values, min(width, len(values)))

	if _, err := fmt.Fprintln(w, style.Heading("Accuracy per Session")); err != nil {
		return err
	}
	for row := height; row >= 1; row-- {
		threshold := float64(row-1) / float64(height) * 100
		var b strings.Builder
		b.WriteString(axisLabel(row, height))
		for _, v := range cols {
			if v > threshold {
				b.WriteRune(plotFill)
			} else {
				b.WriteRune(plotEmpty)
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	return max(totalWidth-plotAxisWidth, minPlotWidth)
}

func axisLabel(row, height int) string {
	label := ""
	switch row {
	case height:
		label = "100%"
	case (height + 1) / 2:
		label = "50%"
	case 1:
		label = "0%"
	}
	return fmt.Sprintf("%4s | ", label)
}

// resample averages values into n buckets.
func resample(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if n >= len(values) {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, n)
	for i := range out {
		start := i * len(values) / n
		end := max((i+1)*len(values)/n, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = math.Round(sum/float64(end-start)*100) / 100
	}
	return out
}
