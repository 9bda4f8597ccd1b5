package model

import (
	"fmt"
	"strings"
	"time"
)

// N-back bounds.
const (
	MinNBack = 1
	MaxNBack = 9
)

// Grid geometry.
const (
	GridSize  = 3
	GridCells = GridSize * GridSize
)

// Alphabet is the set of spoken letters. The letters are chosen to be
// phonetically distinct from each other.
var Alphabet = []string{"C", "H", "K", "L", "Q", "R", "S", "T"}

// NBackLevel is the lag distance for matches.
type NBackLevel int

// NewNBackLevel validates n and returns it as an NBackLevel.
func NewNBackLevel(n int) (NBackLevel, error) {
	if n < MinNBack || n > MaxNBack {
		return 0, fmt.Errorf("%w: %d is outside [%d,%d]", ErrInvalidNBack, n, MinNBack, MaxNBack)
	}
	return NBackLevel(n), nil
}

// Int returns the lag as an int.
func (n NBackLevel) Int() int {
	return int(n)
}

// TrainingMode selects which modalities produce matches and are scored.
type TrainingMode string

// Training modes.
const (
	ModePositionOnly TrainingMode = "position-only"
	ModeAudioOnly    TrainingMode = "audio-only"
	ModeDual         TrainingMode = "dual"
)

// ParseTrainingMode parses a mode name.
func ParseTrainingMode(s string) (TrainingMode, error) {
	switch mode := TrainingMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ModePositionOnly, ModeAudioOnly, ModeDual:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q (want %s, %s or %s)", ErrInvalidMode, s, ModePositionOnly, ModeAudioOnly, ModeDual)
	}
}

// HasPosition reports whether position matches are produced and scored.
func (m TrainingMode) HasPosition() bool {
	return m == ModePositionOnly || m == ModeDual
}

// HasAudio reports whether audio matches are produced and scored.
func (m TrainingMode) HasAudio() bool {
	return m == ModeAudioOnly || m == ModeDual
}

// Position is a cell of the 3x3 grid, indexed row-major from 0 to 8.
type Position int

// NewPosition validates index and returns it as a Position.
func NewPosition(index int) (Position, error) {
	if index < 0 || index >= GridCells {
		return 0, fmt.Errorf("%w: %d is outside [0,%d]", ErrInvalidPosition, index, GridCells-1)
	}
	return Position(index), nil
}

// Index returns the row-major cell index.
func (p Position) Index() int {
	return int(p)
}

// Row returns the zero-based grid row.
func (p Position) Row() int {
	return int(p) / GridSize
}

// Col returns the zero-based grid column.
func (p Position) Col() int {
	return int(p) % GridSize
}

// GeneratedTrial is one element of a generated stimulus sequence.
type GeneratedTrial struct {
	Position        Position `json:"position"`
	Letter          string   `json:"letter"`
	IsPositionMatch bool     `json:"isPositionMatch"`
	IsAudioMatch    bool     `json:"isAudioMatch"`
}

// Trial is an immutable snapshot of a presented stimulus and the responses
// given to it. Recording a response yields a new Trial.
type Trial struct {
	Index           int
	Position        Position
	Letter          string
	IsPositionMatch bool
	IsAudioMatch    bool

	PositionResponse   *bool
	AudioResponse      *bool
	PositionResponseMs *int64
	AudioResponseMs    *int64
	OnsetAt            time.Time
}

// NewTrial wraps a generated trial at the given sequence index.
func NewTrial(index int, g GeneratedTrial) Trial {
	return Trial{
		Index:           index,
		Position:        g.Position,
		Letter:          g.Letter,
		IsPositionMatch: g.IsPositionMatch,
		IsAudioMatch:    g.IsAudioMatch,
	}
}

// WithOnset returns a copy of t with the stimulus onset set to at.
func (t Trial) WithOnset(at time.Time) Trial {
	t.OnsetAt = at
	return t
}

// WithPositionResponse returns a copy of t carrying the position response and
// its latency measured from onset to now. A trial that already has a
// position response is returned unchanged.
func (t Trial) WithPositionResponse(responded bool, now time.Time) Trial {
	if t.PositionResponse != nil {
		return t
	}
	latency := t.latencyAt(now)
	t.PositionResponse = &responded
	t.PositionResponseMs = &latency
	return t
}

// WithAudioResponse is the audio counterpart of WithPositionResponse.
func (t Trial) WithAudioResponse(responded bool, now time.Time) Trial {
	if t.AudioResponse != nil {
		return t
	}
	latency := t.latencyAt(now)
	t.AudioResponse = &responded
	t.AudioResponseMs = &latency
	return t
}

// Responded reports whether the user pressed the button for the modality.
// A missing response counts as not responded.
func Responded(resp *bool) bool {
	return resp != nil && *resp
}

func (t Trial) latencyAt(now time.Time) int64 {
	if t.OnsetAt.IsZero() {
		return 0
	}
	ms := now.Sub(t.OnsetAt).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
