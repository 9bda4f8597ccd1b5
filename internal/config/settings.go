package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/stats"
)

// Defaults for training settings.
const (
	DefaultLevel           = "position-1"
	DefaultTrials          = 20
	DefaultTrialDurationMs = 3000
	DefaultCurveWindow     = 10
	DefaultTopLevels       = 5
)

var validate = validator.New()

// Training is the resolved set of session settings.
type Training struct {
	Level            string  `validate:"required"`
	Trials           int     `validate:"min=1,max=1000"`
	TrialDurationMs  int     `validate:"min=0"`
	PositionProb     float64 `validate:"gte=0,lte=1"`
	AudioProb        float64 `validate:"gte=0,lte=1"`
	AdvanceThreshold float64 `validate:"gt=0"`
}

// DefaultTraining returns the built-in training settings.
func DefaultTraining() Training {
	return Training{
		Level:            DefaultLevel,
		Trials:           DefaultTrials,
		TrialDurationMs:  DefaultTrialDurationMs,
		PositionProb:     generator.DefaultPositionMatchProbability,
		AudioProb:        generator.DefaultAudioMatchProbability,
		AdvanceThreshold: stats.DefaultAdvancementThreshold,
	}
}

// TrialDuration returns the per-trial duration.
func (t Training) TrialDuration() time.Duration {
	return time.Duration(t.TrialDurationMs) * time.Millisecond
}

// Validate checks the settings and names the offending fields.
func (t Training) Validate() error {
	return validateStruct(t)
}

// Stats is the resolved set of report settings.
type Stats struct {
	Last        int `validate:"min=0"`
	CurveWindow int `validate:"min=1"`
	Top         int `validate:"min=0"`
}

// DefaultStats returns the built-in report settings.
func DefaultStats() Stats {
	return Stats{CurveWindow: DefaultCurveWindow, Top: DefaultTopLevels}
}

// Validate checks the settings and names the offending fields.
func (s Stats) Validate() error {
	return validateStruct(s)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}
