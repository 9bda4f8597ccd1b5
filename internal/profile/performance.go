package profile

import (
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
)

const (
	performanceWindow      = 10
	trendThreshold         = 5.0
	missRateThreshold      = 0.15
	falseAlarmThreshold    = 0.10
	fatigueThreshold       = 15.0
	severeFatigueThreshold = 25.0
	minFatigueTrials       = 4
)

// Trend classifies the direction of accuracy over recent sessions.
type Trend string

// Accuracy trends.
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// SpeedTrend classifies the direction of response time.
type SpeedTrend string

// Response time trends.
const (
	SpeedFaster SpeedTrend = "faster"
	SpeedSlower SpeedTrend = "slower"
	SpeedStable SpeedTrend = "stable"
)

// ErrorKind names a recurring error pattern.
type ErrorKind string

// Error pattern kinds.
const (
	ErrorPositionMisses      ErrorKind = "position-misses"
	ErrorAudioMisses         ErrorKind = "audio-misses"
	ErrorPositionFalseAlarms ErrorKind = "position-false-alarms"
	ErrorAudioFalseAlarms    ErrorKind = "audio-false-alarms"
)

// ErrorPattern is an error kind whose rate over all trials crossed its threshold.
type ErrorPattern struct {
	Kind ErrorKind
	Rate float64
}

// FatigueSignal flags a session whose accuracy dropped in its second half.
type FatigueSignal struct {
	SessionID          string
	FirstHalfAccuracy  float64
	SecondHalfAccuracy float64
	Drop               float64
	Severe             bool
}

// PerformanceProfile describes the most recent sessions.
type PerformanceProfile struct {
	SessionsAnalyzed  int
	AverageAccuracy   float64
	AccuracyTrend     Trend
	AverageResponseMs *float64
	ResponseTimeTrend SpeedTrend
	PositionStrength  float64
	AudioStrength     float64
	ErrorPatterns     []ErrorPattern
	Fatigue           []FatigueSignal
}

// FatigueDetected reports whether any analyzed session showed fatigue.
func (p PerformanceProfile) FatigueDetected() bool {
	return len(p.Fatigue) > 0
}

// HasErrorPattern reports whether kind was detected.
func (p PerformanceProfile) HasErrorPattern(kind ErrorKind) bool {
	for _, e := range p.ErrorPatterns {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func analyzePerformance(sessions []model.SessionResult) PerformanceProfile {
	window := lastN(sessions, performanceWindow)
	p := PerformanceProfile{
		SessionsAnalyzed:  len(window),
		AccuracyTrend:     TrendStable,
		ResponseTimeTrend: SpeedStable,
	}
	if len(window) == 0 {
		return p
	}

	accs := make([]float64, len(window))
	var rts, posAcc, audAcc []float64
	for i, s := range window {
		accs[i] = s.CombinedAccuracy
		if rt, ok := sessionResponseMs(s); ok {
			rts = append(rts, rt)
		}
		if s.Config.Mode.HasPosition() {
			posAcc = append(posAcc, s.Position.Accuracy)
		}
		if s.Config.Mode.HasAudio() {
			audAcc = append(audAcc, s.Audio.Accuracy)
		}
		if f, ok := detectFatigue(s); ok {
			p.Fatigue = append(p.Fatigue, f)
		}
	}
	p.AverageAccuracy = mean(accs)
	p.AccuracyTrend = accuracyTrend(accs)
	if len(rts) > 0 {
		avg := mean(rts)
		p.AverageResponseMs = &avg
	}
	p.ResponseTimeTrend = responseTimeTrend(rts)
	p.PositionStrength = mean(posAcc) / 100
	p.AudioStrength = mean(audAcc) / 100
	p.ErrorPatterns = detectErrorPatterns(window)
	return p
}

func accuracyTrend(values []float64) Trend {
	first, second, ok := halves(values)
	if !ok {
		return TrendStable
	}
	switch diff := second - first; {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// responseTimeTrend uses the accuracy rule with the sign inverted: a falling
// response time is an improvement.
func responseTimeTrend(values []float64) SpeedTrend {
	switch accuracyTrend(values) {
	case TrendImproving:
		return SpeedSlower
	case TrendDeclining:
		return SpeedFaster
	default:
		return SpeedStable
	}
}

func sessionResponseMs(s model.SessionResult) (float64, bool) {
	var vals []float64
	if s.Position.AvgResponseMs != nil {
		vals = append(vals, *s.Position.AvgResponseMs)
	}
	if s.Audio.AvgResponseMs != nil {
		vals = append(vals, *s.Audio.AvgResponseMs)
	}
	if len(vals) == 0 {
		return 0, false
	}
	return mean(vals), true
}

func detectErrorPatterns(window []model.SessionResult) []ErrorPattern {
	var trials, posMiss, audMiss, posFA, audFA int
	for _, s := range window {
		trials += sessionTrialCount(s)
		posMiss += s.Position.Misses
		audMiss += s.Audio.Misses
		posFA += s.Position.FalseAlarms
		audFA += s.Audio.FalseAlarms
	}
	if trials == 0 {
		return nil
	}
	checks := []struct {
		kind      ErrorKind
		count     int
		threshold float64
	}{
		{ErrorPositionMisses, posMiss, missRateThreshold},
		{ErrorAudioMisses, audMiss, missRateThreshold},
		{ErrorPositionFalseAlarms, posFA, falseAlarmThreshold},
		{ErrorAudioFalseAlarms, audFA, falseAlarmThreshold},
	}
	var out []ErrorPattern
	for _, c := range checks {
		rate := float64(c.count) / float64(trials)
		if rate > c.threshold {
			out = append(out, ErrorPattern{Kind: c.kind, Rate: rate})
		}
	}
	return out
}

func sessionTrialCount(s model.SessionResult) int {
	if n := len(s.Trials); n > 0 {
		return n
	}
	return max(s.Position.Total(), s.Audio.Total())
}

func detectFatigue(s model.SessionResult) (FatigueSignal, bool) {
	if len(s.Trials) < minFatigueTrials {
		return FatigueSignal{}, false
	}
	mid := len(s.Trials) / 2
	first := trialAccuracy(s.Trials[:mid], s.Config.Mode)
	second := trialAccuracy(s.Trials[mid:], s.Config.Mode)
	drop := first - second
	if drop <= fatigueThreshold {
		return FatigueSignal{}, false
	}
	return FatigueSignal{
		SessionID:          s.ID,
		FirstHalfAccuracy:  first,
		SecondHalfAccuracy: second,
		Drop:               drop,
		Severe:             drop > severeFatigueThreshold,
	}, true
}

// trialAccuracy is the percentage of trials answered correctly in every
// scored modality.
func trialAccuracy(trials []model.Trial, mode model.TrainingMode) float64 {
	if len(trials) == 0 {
		return 0
	}
	correct := 0
	for _, t := range trials {
		if trialCorrect(t, mode) {
			correct++
		}
	}
	return float64(correct) / float64(len(trials)) * 100
}

func trialCorrect(t model.Trial, mode model.TrainingMode) bool {
	if mode.HasPosition() && !outcomeCorrect(stats.Categorize(t.IsPositionMatch, t.PositionResponse)) {
		return false
	}
	if mode.HasAudio() && !outcomeCorrect(stats.Categorize(t.IsAudioMatch, t.AudioResponse)) {
		return false
	}
	return true
}

func outcomeCorrect(o stats.Outcome) bool {
	return o == stats.Hit || o == stats.CorrectRejection
}
