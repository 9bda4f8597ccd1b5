package stats

import (
	"math"

	"github.com/verte-zerg/nback/internal/model"
)

// Rate clamps keep z-scores finite.
const (
	uncorrectedRateMin = 0.001
	uncorrectedRateMax = 0.999
	correctedRateMin   = 0.01
	correctedRateMax   = 0.99
)

// Outcome is the signal-detection category of one scored trial.
type Outcome int

// Trial outcomes.
const (
	Hit Outcome = iota
	Miss
	FalseAlarm
	CorrectRejection
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case FalseAlarm:
		return "false-alarm"
	case CorrectRejection:
		return "correct-rejection"
	default:
		return "unknown"
	}
}

// Categorize classifies a trial. An absent response counts as not responded.
func Categorize(isMatch bool, response *bool) Outcome {
	responded := model.Responded(response)
	switch {
	case isMatch && responded:
		return Hit
	case isMatch:
		return Miss
	case responded:
		return FalseAlarm
	default:
		return CorrectRejection
	}
}

// Modality selects one stimulus channel.
type Modality int

// Modalities.
const (
	ModalityPosition Modality = iota
	ModalityAudio
)

// ResponseRecord is the scoring input for one trial in one modality.
type ResponseRecord struct {
	IsMatch    bool
	Response   *bool
	ResponseMs *int64
}

// ModalityRecords extracts the scoring records of a modality from trials.
func ModalityRecords(trials []model.Trial, modality Modality) []ResponseRecord {
	records := make([]ResponseRecord, len(trials))
	for i, t := range trials {
		if modality == ModalityAudio {
			records[i] = ResponseRecord{IsMatch: t.IsAudioMatch, Response: t.AudioResponse, ResponseMs: t.AudioResponseMs}
			continue
		}
		records[i] = ResponseRecord{IsMatch: t.IsPositionMatch, Response: t.PositionResponse, ResponseMs: t.PositionResponseMs}
	}
	return records
}

// Counts holds raw outcome counts.
type Counts struct {
	Hits              int
	Misses            int
	FalseAlarms       int
	CorrectRejections int
}

// Total returns the number of counted trials.
func (c Counts) Total() int {
	return c.Hits + c.Misses + c.FalseAlarms + c.CorrectRejections
}

// CountOutcomes tallies the outcome of every record.
func CountOutcomes(records []ResponseRecord) Counts {
	var c Counts
	for _, r := range records {
		switch Categorize(r.IsMatch, r.Response) {
		case Hit:
			c.Hits++
		case Miss:
			c.Misses++
		case FalseAlarm:
			c.FalseAlarms++
		case CorrectRejection:
			c.CorrectRejections++
		}
	}
	return c
}

// AverageResponseMs returns the mean of all recorded latencies, or nil when
// none were recorded.
func AverageResponseMs(records []ResponseRecord) *float64 {
	var sum int64
	n := 0
	for _, r := range records {
		if r.ResponseMs == nil {
			continue
		}
		sum += *r.ResponseMs
		n++
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

// CalculateStats scores records with uncorrected rates.
func CalculateStats(records []ResponseRecord) model.PerformanceStats {
	return CreatePerformanceStats(CountOutcomes(records), AverageResponseMs(records))
}

// CalculateStatsWithCorrection scores records with the log-linear corrected
// d-prime used for final session scoring.
func CalculateStatsWithCorrection(records []ResponseRecord) model.PerformanceStats {
	return CreateCorrectedPerformanceStats(CountOutcomes(records), AverageResponseMs(records))
}

// CreatePerformanceStats derives uncorrected stats from counts.
func CreatePerformanceStats(c Counts, avgResponseMs *float64) model.PerformanceStats {
	hitRate, faRate := observedRates(c)
	return model.PerformanceStats{
		Hits:              c.Hits,
		Misses:            c.Misses,
		FalseAlarms:       c.FalseAlarms,
		CorrectRejections: c.CorrectRejections,
		HitRate:           hitRate,
		FalseAlarmRate:    faRate,
		DPrime:            DPrime(hitRate, faRate),
		Accuracy:          accuracy(c),
		AvgResponseMs:     avgResponseMs,
	}
}

// CreateCorrectedPerformanceStats derives stats whose d-prime uses the
// log-linear correction. Hit and false-alarm rates and accuracy stay the
// observed, uncorrected values.
func CreateCorrectedPerformanceStats(c Counts, avgResponseMs *float64) model.PerformanceStats {
	s := CreatePerformanceStats(c, avgResponseMs)
	s.DPrime = CorrectedDPrime(c)
	return s
}

// DPrime returns z(hitRate) - z(falseAlarmRate) with both rates clamped to
// [0.001, 0.999].
func DPrime(hitRate, falseAlarmRate float64) float64 {
	h := clamp(hitRate, uncorrectedRateMin, uncorrectedRateMax)
	f := clamp(falseAlarmRate, uncorrectedRateMin, uncorrectedRateMax)
	return InverseNormalCDF(h) - InverseNormalCDF(f)
}

// CorrectedDPrime applies the +0.5/+1 log-linear correction, clamps both
// rates to [0.01, 0.99], and rounds the result to two decimals.
func CorrectedDPrime(c Counts) float64 {
	signal := c.Hits + c.Misses
	noise := c.FalseAlarms + c.CorrectRejections
	h := (float64(c.Hits) + 0.5) / float64(signal+1)
	f := (float64(c.FalseAlarms) + 0.5) / float64(noise+1)
	h = clamp(h, correctedRateMin, correctedRateMax)
	f = clamp(f, correctedRateMin, correctedRateMax)
	return round2(InverseNormalCDF(h) - InverseNormalCDF(f))
}

func observedRates(c Counts) (hitRate, faRate float64) {
	if signal := c.Hits + c.Misses; signal > 0 {
		hitRate = float64(c.Hits) / float64(signal)
	}
	if noise := c.FalseAlarms + c.CorrectRejections; noise > 0 {
		faRate = float64(c.FalseAlarms) / float64(noise)
	}
	return hitRate, faRate
}

func accuracy(c Counts) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Hits+c.CorrectRejections) / float64(total) * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
