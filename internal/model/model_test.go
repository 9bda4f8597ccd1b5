package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewNBackLevelBounds(t *testing.T) {
	for _, n := range []int{1, 5, 9} {
		if _, err := NewNBackLevel(n); err != nil {
			t.Fatalf("expected %d to be valid: %v", n, err)
		}
	}
	for _, n := range []int{0, -1, 10} {
		_, err := NewNBackLevel(n)
		if !errors.Is(err, ErrInvalidNBack) {
			t.Fatalf("expected ErrInvalidNBack for %d, got %v", n, err)
		}
	}
}

func TestNewPositionRowCol(t *testing.T) {
	p, err := NewPosition(7)
	if err != nil {
		t.Fatalf("new position: %v", err)
	}
	if p.Row() != 2 || p.Col() != 1 {
		t.Fatalf("unexpected row/col for 7: %d,%d", p.Row(), p.Col())
	}
	if _, err := NewPosition(9); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition for 9, got %v", err)
	}
}

func TestParseTrainingMode(t *testing.T) {
	mode, err := ParseTrainingMode(" Dual ")
	if err != nil || mode != ModeDual {
		t.Fatalf("expected dual, got %q (%v)", mode, err)
	}
	if !mode.HasPosition() || !mode.HasAudio() {
		t.Fatalf("dual mode must score both modalities")
	}
	if ModeAudioOnly.HasPosition() {
		t.Fatalf("audio-only must not score position")
	}
	if _, err := ParseTrainingMode("tri"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestTrialResponseIsSetOnce(t *testing.T) {
	onset := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTrial(0, GeneratedTrial{Position: 4, Letter: "K", IsPositionMatch: true}).WithOnset(onset)

	first := tr.WithPositionResponse(true, onset.Add(420*time.Millisecond))
	if tr.PositionResponse != nil {
		t.Fatalf("original trial must not be mutated")
	}
	if first.PositionResponseMs == nil || *first.PositionResponseMs != 420 {
		t.Fatalf("expected 420ms latency, got %v", first.PositionResponseMs)
	}
	second := first.WithPositionResponse(false, onset.Add(900*time.Millisecond))
	if !*second.PositionResponse || *second.PositionResponseMs != 420 {
		t.Fatalf("second response must be ignored")
	}
	if second.AudioResponse != nil {
		t.Fatalf("audio response must stay unset")
	}
}

func TestRecordSessionDay(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 18, 30, 0, 0, time.UTC) }
	p := UserProgress{}.RecordSessionDay(day(1))
	if p.CurrentStreak != 1 || p.LongestStreak != 1 {
		t.Fatalf("expected streak 1, got %+v", p)
	}
	p = p.RecordSessionDay(day(1))
	p = p.RecordSessionDay(day(2))
	p = p.RecordSessionDay(day(3))
	if p.CurrentStreak != 3 || p.LongestStreak != 3 {
		t.Fatalf("expected streak 3, got %d/%d", p.CurrentStreak, p.LongestStreak)
	}
	p = p.RecordSessionDay(day(6))
	if p.CurrentStreak != 1 || p.LongestStreak != 3 {
		t.Fatalf("expected reset streak, got %d/%d", p.CurrentStreak, p.LongestStreak)
	}
}

func TestPayloadFloat(t *testing.T) {
	ev := AnalyticsEvent{Payload: map[string]any{"a": 12, "b": 3.5, "c": "x"}}
	if v, ok := ev.PayloadFloat("a"); !ok || v != 12 {
		t.Fatalf("expected 12, got %v %v", v, ok)
	}
	if v, ok := ev.PayloadFloat("b"); !ok || v != 3.5 {
		t.Fatalf("expected 3.5, got %v %v", v, ok)
	}
	if _, ok := ev.PayloadFloat("c"); ok {
		t.Fatalf("string payload must not parse")
	}
}
