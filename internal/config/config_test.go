package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/nback/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Training.Trials != nil || len(cfg.Levels) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigReadsSetKeys(t *testing.T) {
	path := writeConfig(t, `
[training]
level = "dual-2"
trials = 30
trial-duration-ms = 2500
audio-prob = 0.25

[stats]
curve-window = 4
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Training.Level == nil || *cfg.Training.Level != "dual-2" {
		t.Fatalf("level = %v", cfg.Training.Level)
	}
	if cfg.Training.Trials == nil || *cfg.Training.Trials != 30 {
		t.Fatalf("trials = %v", cfg.Training.Trials)
	}
	if cfg.Training.AudioProb == nil || *cfg.Training.AudioProb != 0.25 {
		t.Fatalf("audio-prob = %v", cfg.Training.AudioProb)
	}
	if cfg.Training.PositionProb != nil || cfg.Training.AdvanceThreshold != nil {
		t.Fatalf("unset keys should stay nil: %+v", cfg.Training)
	}
	if cfg.Stats.CurveWindow == nil || *cfg.Stats.CurveWindow != 4 || cfg.Stats.Top != nil {
		t.Fatalf("unexpected stats config: %+v", cfg.Stats)
	}
	tr := Training{TrialDurationMs: *cfg.Training.TrialDurationMs}
	if tr.TrialDuration().Milliseconds() != 2500 {
		t.Fatalf("trial duration = %v", tr.TrialDuration())
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, "[training\ntrials = ")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTrainingValidate(t *testing.T) {
	tr := DefaultTraining()
	tr.Trials = 0
	tr.PositionProb = 1.5
	err := tr.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Trials") || !strings.Contains(msg, "PositionProb") {
		t.Fatalf("error should name both fields: %v", msg)
	}

	st := DefaultStats()
	st.CurveWindow = 0
	if err := st.Validate(); err == nil {
		t.Fatalf("expected stats validation error")
	}
}

func TestCatalogFromConfig(t *testing.T) {
	path := writeConfig(t, `
[[levels]]
id = "position-1"
n-back = 1
mode = "position-only"

[[levels]]
id = "position-2"
name = "Two Back"
n-back = 2
mode = "position-only"
requires = "position-1"
min-accuracy = 75.0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(catalog))
	}
	if catalog[0].Name != "position-1" || catalog[0].Unlock != nil {
		t.Fatalf("unexpected first level: %+v", catalog[0])
	}
	second := catalog[1]
	if second.Mode != model.ModePositionOnly || second.Unlock == nil || second.Unlock.MinAccuracy != 75 {
		t.Fatalf("unexpected second level: %+v", second)
	}
}

func TestCatalogDefaultsAndErrors(t *testing.T) {
	catalog, err := FileConfig{}.Catalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(catalog) != 27 {
		t.Fatalf("default catalog has %d levels", len(catalog))
	}

	bad := FileConfig{Levels: []LevelConfig{{ID: "x-1", NBack: 1, Mode: "dual", Requires: "missing"}}}
	if _, err := bad.Catalog(); err == nil {
		t.Fatalf("expected error for unknown required level")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NBACK_DATA_DIR", "/tmp/nback-data")
	t.Setenv("NBACK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("NO_COLOR", "1")

	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if e.DataDir != "/tmp/nback-data" {
		t.Fatalf("data dir = %q", e.DataDir)
	}
	if e.ConfigPath != filepath.Join("/tmp/xdg-config", "nback", "config.toml") {
		t.Fatalf("config path = %q", e.ConfigPath)
	}
	if !e.ColorDisabled() {
		t.Fatalf("NO_COLOR should disable color")
	}
	if DBPath(e.DataDir) != filepath.Join("/tmp/nback-data", "nback.db") {
		t.Fatalf("db path = %q", DBPath(e.DataDir))
	}
}

func TestDefaultDataDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	if got := DefaultDataDir(); got != filepath.Join("/tmp/xdg-data", "nback") {
		t.Fatalf("data dir = %q", got)
	}
}
