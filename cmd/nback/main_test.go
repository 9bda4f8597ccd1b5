package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/nback/internal/config"
	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/model"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Training.Trials != nil || len(cfg.Levels) != 0 {
		t.Fatalf("template values should all be commented out: %+v", cfg)
	}
}

func TestRenderSequence(t *testing.T) {
	seed := uint32(3)
	opts := generator.DefaultOptions(1, 6, model.ModePositionOnly)
	opts.Seed = &seed
	trials, err := generator.Generate(opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var buf bytes.Buffer
	if err := renderSequence(&buf, 1, model.ModePositionOnly, trials); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "1-back, position-only, 6 trials\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Title, table header, six rows, match totals.
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[len(lines)-1], "position matches: ") {
		t.Fatalf("unexpected footer: %q", lines[len(lines)-1])
	}
}

func TestMatchCell(t *testing.T) {
	if matchCell(false, true) != "-" || matchCell(true, true) != "yes" || matchCell(true, false) != "" {
		t.Fatalf("unexpected match cells")
	}
}

func TestResolveTrainingFlagBeatsFile(t *testing.T) {
	cmd := &cobra.Command{Use: "generate"}
	addTrainingFlags(cmd)
	if err := cmd.Flags().Set("trials", "40"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	trials, audio := 30, 0.25
	fileCfg := config.FileConfig{Training: config.TrainingConfig{Trials: &trials, AudioProb: &audio}}

	tr, err := resolveTraining(cmd, fileCfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tr.Trials != 40 {
		t.Fatalf("trials = %d, want flag value 40", tr.Trials)
	}
	if tr.AudioProb != 0.25 {
		t.Fatalf("audio prob = %v, want file value 0.25", tr.AudioProb)
	}
	if tr.Level != "" || tr.PositionProb != generator.DefaultPositionMatchProbability {
		t.Fatalf("unset values should keep defaults: %+v", tr)
	}
}

func TestResolveStatsRejectsInvalidFileValue(t *testing.T) {
	cmd := newStatsCmd()
	top := 3
	st, err := resolveStats(cmd, config.FileConfig{Stats: config.StatsConfig{Top: &top}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.Top != 3 || st.CurveWindow != config.DefaultCurveWindow {
		t.Fatalf("unexpected stats settings: %+v", st)
	}

	cmd = newStatsCmd()
	window := 0
	if _, err := resolveStats(cmd, config.FileConfig{Stats: config.StatsConfig{CurveWindow: &window}}); err == nil {
		t.Fatalf("expected validation error for curve-window = 0")
	}
}

func TestStyleFollowsParsedNoColor(t *testing.T) {
	noColor = false
	a := app{env: config.Env{NoColor: "1"}}
	if a.style().Color {
		t.Fatalf("NO_COLOR from the parsed env should disable color")
	}
}
