// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Training TrainingConfig `toml:"training"`
	Stats    StatsConfig    `toml:"stats"`
	Levels   []LevelConfig  `toml:"levels"`
}

// TrainingConfig maps session settings.
type TrainingConfig struct {
	Level            *string  `toml:"level"`
	Trials           *int     `toml:"trials"`
	TrialDurationMs  *int     `toml:"trial-duration-ms"`
	PositionProb     *float64 `toml:"position-prob"`
	AudioProb        *float64 `toml:"audio-prob"`
	AdvanceThreshold *float64 `toml:"advance-threshold"`
}

// StatsConfig maps report settings.
type StatsConfig struct {
	Last        *int `toml:"last"`
	CurveWindow *int `toml:"curve-window"`
	Top         *int `toml:"top"`
}

// LevelConfig is one entry of a custom level catalog.
type LevelConfig struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	NBack       int      `toml:"n-back"`
	Mode        string   `toml:"mode"`
	Requires    string   `toml:"requires"`
	MinAccuracy *float64 `toml:"min-accuracy"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Catalog returns the configured level catalog, or the default one when the
// file defines no levels.
func (c FileConfig) Catalog() ([]levels.Descriptor, error) {
	if len(c.Levels) == 0 {
		return levels.DefaultCatalog(), nil
	}
	out := make([]levels.Descriptor, 0, len(c.Levels))
	for _, l := range c.Levels {
		d := levels.Descriptor{
			ID:    l.ID,
			Name:  l.Name,
			NBack: l.NBack,
			Mode:  model.TrainingMode(l.Mode),
		}
		if d.Name == "" {
			d.Name = l.ID
		}
		if l.Requires != "" {
			minAcc := levels.DefaultUnlockAccuracy
			if l.MinAccuracy != nil {
				minAcc = *l.MinAccuracy
			}
			d.Unlock = &levels.UnlockRule{RequiredLevelID: l.Requires, MinAccuracy: minAcc}
		}
		out = append(out, d)
	}
	if err := levels.Validate(out); err != nil {
		return nil, fmt.Errorf("invalid [[levels]]: %w", err)
	}
	return out, nil
}
