package stats

import (
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// DefaultAdvancementThreshold is the combined d-prime needed to advance.
const DefaultAdvancementThreshold = 2.0

// SessionInput carries what CalculateSessionResult needs from a session.
type SessionInput struct {
	ID        string
	Config    model.SessionConfig
	StartedAt time.Time
	EndedAt   time.Time
	Trials    []model.Trial
	Completed bool
}

// CalculateSessionResult scores both modalities with the corrected d-prime and
// combines them according to the session mode.
func CalculateSessionResult(in SessionInput) model.SessionResult {
	trials := make([]model.Trial, len(in.Trials))
	copy(trials, in.Trials)

	position := CalculateStatsWithCorrection(ModalityRecords(trials, ModalityPosition))
	audio := CalculateStatsWithCorrection(ModalityRecords(trials, ModalityAudio))
	return model.SessionResult{
		ID:               in.ID,
		Config:           in.Config,
		StartedAt:        in.StartedAt,
		EndedAt:          in.EndedAt,
		Trials:           trials,
		Position:         position,
		Audio:            audio,
		CombinedAccuracy: CombinedAccuracy(in.Config.Mode, position, audio),
		CombinedDPrime:   CombinedDPrime(in.Config.Mode, position, audio),
		Completed:        in.Completed,
	}
}

// CombinedAccuracy picks or averages modality accuracy by mode.
func CombinedAccuracy(mode model.TrainingMode, position, audio model.PerformanceStats) float64 {
	switch mode {
	case model.ModePositionOnly:
		return position.Accuracy
	case model.ModeAudioOnly:
		return audio.Accuracy
	default:
		return (position.Accuracy + audio.Accuracy) / 2
	}
}

// CombinedDPrime picks or averages modality d-prime by mode.
func CombinedDPrime(mode model.TrainingMode, position, audio model.PerformanceStats) float64 {
	switch mode {
	case model.ModePositionOnly:
		return position.DPrime
	case model.ModeAudioOnly:
		return audio.DPrime
	default:
		return (position.DPrime + audio.DPrime) / 2
	}
}

// MeetsAdvancementCriteria reports whether the combined d-prime reaches
// threshold. A non-positive threshold selects DefaultAdvancementThreshold.
func MeetsAdvancementCriteria(result model.SessionResult, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultAdvancementThreshold
	}
	return result.CombinedDPrime >= threshold
}

// Tier is a qualitative performance band.
type Tier string

// Performance tiers.
const (
	TierPoor      Tier = "poor"
	TierFair      Tier = "fair"
	TierGood      Tier = "good"
	TierExcellent Tier = "excellent"
)

// PerformanceTier maps a d-prime to its tier.
func PerformanceTier(dPrime float64) Tier {
	switch {
	case dPrime < 1:
		return TierPoor
	case dPrime < 2:
		return TierFair
	case dPrime < 3:
		return TierGood
	default:
		return TierExcellent
	}
}
