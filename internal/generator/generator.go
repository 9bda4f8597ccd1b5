// Package generator builds n-back stimulus sequences.
package generator

import (
	"fmt"

	"github.com/verte-zerg/nback/internal/model"
)

// Default match probabilities.
const (
	DefaultPositionMatchProbability = 0.3
	DefaultAudioMatchProbability    = 0.3
)

// Options configures a single Generate call.
type Options struct {
	NBack                    int
	TrialCount               int
	Mode                     model.TrainingMode
	PositionMatchProbability float64
	AudioMatchProbability    float64
	// Seed makes the sequence reproducible when set.
	Seed *uint32
}

// DefaultOptions returns options with the default match probabilities.
func DefaultOptions(nBack, trialCount int, mode model.TrainingMode) Options {
	return Options{
		NBack:                    nBack,
		TrialCount:               trialCount,
		Mode:                     mode,
		PositionMatchProbability: DefaultPositionMatchProbability,
		AudioMatchProbability:    DefaultAudioMatchProbability,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if _, err := model.NewNBackLevel(o.NBack); err != nil {
		return err
	}
	if o.TrialCount <= 0 {
		return fmt.Errorf("%w: trial count must be > 0, got %d", model.ErrInvalidConfig, o.TrialCount)
	}
	if _, err := model.ParseTrainingMode(string(o.Mode)); err != nil {
		return err
	}
	if o.PositionMatchProbability < 0 || o.PositionMatchProbability > 1 {
		return fmt.Errorf("%w: position match probability must be between 0 and 1", model.ErrInvalidConfig)
	}
	if o.AudioMatchProbability < 0 || o.AudioMatchProbability > 1 {
		return fmt.Errorf("%w: audio match probability must be between 0 and 1", model.ErrInvalidConfig)
	}
	return nil
}

// Generate validates opts and produces a sequence, seeded when opts.Seed is set.
func Generate(opts Options) ([]model.GeneratedTrial, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var g *Generator
	if opts.Seed != nil {
		g = NewSeeded(*opts.Seed)
	} else {
		g = New()
	}
	mode, _ := model.ParseTrainingMode(string(opts.Mode))
	return g.Generate(model.NBackLevel(opts.NBack), opts.TrialCount, mode, opts.PositionMatchProbability, opts.AudioMatchProbability), nil
}

// Generator produces n-back stimulus sequences from a random Source.
type Generator struct {
	rnd Source
}

// New returns a Generator backed by a time-seeded source.
func New() *Generator {
	return &Generator{rnd: NewSource()}
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed uint32) *Generator {
	return &Generator{rnd: Mulberry32(seed)}
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src Source) *Generator {
	return &Generator{rnd: src}
}

// Generate builds count trials. The first nBack trials are never matches, and
// a modality never matches on two consecutive trials. Non-matching stimuli are
// resampled until they differ from the stimulus nBack trials earlier, so the
// match flags always describe the sequence exactly.
func (g *Generator) Generate(nBack model.NBackLevel, count int, mode model.TrainingMode, posProb, audioProb float64) []model.GeneratedTrial {
	n := nBack.Int()
	result := make([]model.GeneratedTrial, 0, count)
	for i := 0; i < count; i++ {
		var trial model.GeneratedTrial
		if i < n {
			trial.Position = model.Position(intn(g.rnd, model.GridCells))
			trial.Letter = model.Alphabet[intn(g.rnd, len(model.Alphabet))]
			result = append(result, trial)
			continue
		}
		back := result[i-n]
		prev := result[i-1]

		if mode.HasPosition() && g.shouldMatch(posProb, prev.IsPositionMatch) {
			trial.Position = back.Position
			trial.IsPositionMatch = true
		} else {
			trial.Position = model.Position(g.drawExcluding(model.GridCells, back.Position.Index()))
		}

		backLetter := letterIndex(back.Letter)
		if mode.HasAudio() && g.shouldMatch(audioProb, prev.IsAudioMatch) {
			trial.Letter = back.Letter
			trial.IsAudioMatch = true
		} else {
			trial.Letter = model.Alphabet[g.drawExcluding(len(model.Alphabet), backLetter)]
		}
		result = append(result, trial)
	}
	return result
}

func (g *Generator) shouldMatch(prob float64, prevMatched bool) bool {
	if prevMatched {
		return false
	}
	return g.rnd() < prob
}

func (g *Generator) drawExcluding(n, excluded int) int {
	v := intn(g.rnd, n)
	for v == excluded {
		v = intn(g.rnd, n)
	}
	return v
}

func letterIndex(letter string) int {
	for i, l := range model.Alphabet {
		if l == letter {
			return i
		}
	}
	return -1
}
