package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/model"
)

func boolPtr(v bool) *bool { return &v }
func msPtr(v int64) *int64 { return &v }

func TestInverseNormalCDFKnownValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		p    float64
		want float64
	}{
		{0.5, 0},
		{0.975, 1.959963984540054},
		{0.025, -1.959963984540054},
		{0.8413447460685429, 1.0},
		{0.01, -2.3263478740408408},
		{0.99, 2.3263478740408408},
		{0.999, 3.090232306167813},
		{0.001, -3.090232306167813},
		{0.2, -0.8416212335729143},
		{0.9, 1.2815515655446004},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, InverseNormalCDF(tc.p), 1e-8, "p=%v", tc.p)
	}
	assert.True(t, math.IsInf(InverseNormalCDF(0), -1))
	assert.True(t, math.IsInf(InverseNormalCDF(1), 1))
}

func TestInverseNormalCDFIsMonotonic(t *testing.T) {
	t.Parallel()
	prev := math.Inf(-1)
	for p := 0.0005; p < 1; p += 0.0005 {
		z := InverseNormalCDF(p)
		require.Greater(t, z, prev, "p=%v", p)
		prev = z
	}
}

func TestDPrimeMonotonicity(t *testing.T) {
	t.Parallel()
	assert.Greater(t, DPrime(0.999, 0.001), DPrime(0.6, 0.4))
	assert.InDelta(t, 0, DPrime(0.5, 0.5), 1e-12)
	assert.False(t, math.IsInf(DPrime(1, 0), 0), "clamping must keep d' finite")
}

func TestCategorize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Hit, Categorize(true, boolPtr(true)))
	assert.Equal(t, Miss, Categorize(true, boolPtr(false)))
	assert.Equal(t, Miss, Categorize(true, nil))
	assert.Equal(t, FalseAlarm, Categorize(false, boolPtr(true)))
	assert.Equal(t, CorrectRejection, Categorize(false, nil))
	assert.Equal(t, "false-alarm", FalseAlarm.String())
}

func TestCalculateStatsCountsEveryTrial(t *testing.T) {
	t.Parallel()
	records := []ResponseRecord{
		{IsMatch: true, Response: boolPtr(true), ResponseMs: msPtr(400)},
		{IsMatch: true},
		{IsMatch: false, Response: boolPtr(true), ResponseMs: msPtr(600)},
		{IsMatch: false, Response: boolPtr(false)},
		{IsMatch: false},
	}
	s := CalculateStats(records)
	assert.Equal(t, len(records), s.Total())
	assert.Equal(t, 1, s.Hits)
	assert.Equal(t, 1, s.Misses)
	assert.Equal(t, 1, s.FalseAlarms)
	assert.Equal(t, 2, s.CorrectRejections)
	assert.InDelta(t, 0.5, s.HitRate, 1e-12)
	assert.InDelta(t, 1.0/3.0, s.FalseAlarmRate, 1e-12)
	assert.InDelta(t, 60, s.Accuracy, 1e-9)
	require.NotNil(t, s.AvgResponseMs)
	assert.InDelta(t, 500, *s.AvgResponseMs, 1e-9)
}

func TestCalculateStatsEmpty(t *testing.T) {
	t.Parallel()
	s := CalculateStats(nil)
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Accuracy)
	assert.Nil(t, s.AvgResponseMs)
	assert.False(t, math.IsNaN(s.DPrime))
}

func TestCalculateStatsNoSignalTrials(t *testing.T) {
	t.Parallel()
	records := make([]ResponseRecord, 5)
	s := CalculateStats(records)
	assert.Equal(t, 5, s.CorrectRejections)
	assert.Equal(t, 0.0, s.HitRate)
	assert.False(t, math.IsNaN(s.HitRate))
	assert.Equal(t, 0.0, s.FalseAlarmRate)
	assert.Equal(t, 100.0, s.Accuracy)
}

func TestCalculateStatsWithCorrection(t *testing.T) {
	t.Parallel()
	records := make([]ResponseRecord, 0, 20)
	for i := 0; i < 10; i++ {
		records = append(records, ResponseRecord{IsMatch: true, Response: boolPtr(true)})
		records = append(records, ResponseRecord{IsMatch: false})
	}
	corrected := CalculateStatsWithCorrection(records)
	uncorrected := CalculateStats(records)

	assert.Equal(t, uncorrected.Accuracy, corrected.Accuracy)
	assert.Equal(t, 1.0, corrected.HitRate)
	assert.Equal(t, 0.0, corrected.FalseAlarmRate)
	assert.False(t, math.IsInf(corrected.DPrime, 0))
	assert.Less(t, corrected.DPrime, uncorrected.DPrime)
	assert.Equal(t, math.Round(corrected.DPrime*100)/100, corrected.DPrime)

	h := (10 + 0.5) / 11.0
	f := 0.5 / 11.0
	assert.InDelta(t, InverseNormalCDF(h)-InverseNormalCDF(f), corrected.DPrime, 0.005)
}

func TestCorrectedDPrimeClampsRates(t *testing.T) {
	t.Parallel()
	c := Counts{Hits: 500, CorrectRejections: 500}
	want := round2(InverseNormalCDF(0.99) - InverseNormalCDF(0.01))
	assert.Equal(t, want, CorrectedDPrime(c))
}

func TestPerfectResponsesOnGeneratedSequence(t *testing.T) {
	t.Parallel()
	opts := generator.DefaultOptions(2, 20, model.ModeDual)
	seed := uint32(42)
	opts.Seed = &seed
	generated, err := generator.Generate(opts)
	require.NoError(t, err)
	again, err := generator.Generate(opts)
	require.NoError(t, err)
	require.Equal(t, generated, again)

	trials := make([]model.Trial, len(generated))
	for i, g := range generated {
		tr := model.NewTrial(i, g)
		if g.IsPositionMatch {
			tr.PositionResponse = boolPtr(true)
		}
		if g.IsAudioMatch {
			tr.AudioResponse = boolPtr(true)
		}
		trials[i] = tr
	}
	for _, modality := range []Modality{ModalityPosition, ModalityAudio} {
		records := ModalityRecords(trials, modality)
		s := CalculateStats(records)
		if s.Hits+s.Misses > 0 {
			assert.Equal(t, 1.0, s.HitRate)
		}
		assert.Equal(t, 0.0, s.FalseAlarmRate)
		assert.Equal(t, 100.0, s.Accuracy)
	}
}

func TestPerformanceTier(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TierPoor, PerformanceTier(0.99))
	assert.Equal(t, TierFair, PerformanceTier(1))
	assert.Equal(t, TierGood, PerformanceTier(2.5))
	assert.Equal(t, TierExcellent, PerformanceTier(3))
}

func TestMeetsAdvancementCriteria(t *testing.T) {
	t.Parallel()
	assert.True(t, MeetsAdvancementCriteria(model.SessionResult{CombinedDPrime: 2.0}, 0))
	assert.False(t, MeetsAdvancementCriteria(model.SessionResult{CombinedDPrime: 1.99}, 0))
	assert.True(t, MeetsAdvancementCriteria(model.SessionResult{CombinedDPrime: 1.5}, 1.5))
}

func TestCombinedAccuracyByMode(t *testing.T) {
	t.Parallel()
	pos := model.PerformanceStats{Accuracy: 90, DPrime: 3}
	aud := model.PerformanceStats{Accuracy: 70, DPrime: 1}
	assert.Equal(t, 90.0, CombinedAccuracy(model.ModePositionOnly, pos, aud))
	assert.Equal(t, 70.0, CombinedAccuracy(model.ModeAudioOnly, pos, aud))
	assert.Equal(t, 80.0, CombinedAccuracy(model.ModeDual, pos, aud))
	assert.Equal(t, 2.0, CombinedDPrime(model.ModeDual, pos, aud))
}
