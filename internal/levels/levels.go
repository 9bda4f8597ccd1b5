// Package levels defines the level catalog and its unlock rules.
package levels

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/nback/internal/model"
)

// DefaultUnlockAccuracy is the accuracy a level must reach to open the next.
const DefaultUnlockAccuracy = 80.0

// Level families, used as id prefixes.
const (
	FamilyPosition = "position"
	FamilyAudio    = "audio"
	FamilyDual     = "dual"
)

// ErrUnknownLevel is returned when a level id is not in the catalog.
var ErrUnknownLevel = errors.New("unknown level")

var validate = validator.New()

// UnlockRule requires a minimum best accuracy on another level.
type UnlockRule struct {
	RequiredLevelID string  `validate:"required"`
	MinAccuracy     float64 `validate:"gte=0,lte=100"`
}

// Descriptor describes one playable level.
type Descriptor struct {
	ID     string             `validate:"required"`
	Name   string             `validate:"required"`
	NBack  int                `validate:"min=1,max=9"`
	Mode   model.TrainingMode `validate:"oneof=position-only audio-only dual"`
	Unlock *UnlockRule        `validate:"omitempty"`
}

// DefaultCatalog returns the built-in levels: position, audio, and dual
// families from 1-back to 9-back.
func DefaultCatalog() []Descriptor {
	families := []struct {
		name  string
		title string
		mode  model.TrainingMode
	}{
		{FamilyPosition, "Position", model.ModePositionOnly},
		{FamilyAudio, "Audio", model.ModeAudioOnly},
		{FamilyDual, "Dual", model.ModeDual},
	}
	out := make([]Descriptor, 0, len(families)*model.MaxNBack)
	for _, f := range families {
		for n := model.MinNBack; n <= model.MaxNBack; n++ {
			d := Descriptor{
				ID:    levelID(f.name, n),
				Name:  fmt.Sprintf("%s %d-Back", f.title, n),
				NBack: n,
				Mode:  f.mode,
			}
			switch {
			case n > 1:
				d.Unlock = &UnlockRule{RequiredLevelID: levelID(f.name, n-1), MinAccuracy: DefaultUnlockAccuracy}
			case f.name == FamilyDual:
				d.Unlock = &UnlockRule{RequiredLevelID: levelID(FamilyPosition, 2), MinAccuracy: DefaultUnlockAccuracy}
			}
			out = append(out, d)
		}
	}
	return out
}

// Validate checks every descriptor and the references between them.
func Validate(catalog []Descriptor) error {
	if len(catalog) == 0 {
		return fmt.Errorf("level catalog is empty")
	}
	seen := make(map[string]struct{}, len(catalog))
	for _, d := range catalog {
		if err := validate.Struct(d); err != nil {
			return fmt.Errorf("level %q: %w", d.ID, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate level id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	for _, d := range catalog {
		if d.Unlock == nil {
			continue
		}
		if _, ok := seen[d.Unlock.RequiredLevelID]; !ok {
			return fmt.Errorf("level %q requires %w %q", d.ID, ErrUnknownLevel, d.Unlock.RequiredLevelID)
		}
	}
	return nil
}

// Find returns the descriptor with the given id.
func Find(catalog []Descriptor, id string) (Descriptor, error) {
	for _, d := range catalog {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w %q", ErrUnknownLevel, id)
}

// SessionConfig builds the session configuration for a level.
func (d Descriptor) SessionConfig(trialCount int, trialDuration time.Duration) model.SessionConfig {
	return model.SessionConfig{
		LevelID:       d.ID,
		NBack:         model.NBackLevel(d.NBack),
		Mode:          d.Mode,
		TrialCount:    trialCount,
		TrialDuration: trialDuration,
	}
}

// IsUnlockCriteriaMet reports whether d is open given per-level progress.
// A level without a rule is always open; otherwise the required level must
// have a recorded best accuracy of at least the rule's minimum.
func IsUnlockCriteriaMet(d Descriptor, progress map[string]model.LevelProgress) bool {
	if d.Unlock == nil {
		return true
	}
	lp, ok := progress[d.Unlock.RequiredLevelID]
	if !ok {
		return false
	}
	return lp.BestAccuracy >= d.Unlock.MinAccuracy
}

// UnlockedIDs returns the ids of every level whose criteria are met, in
// catalog order.
func UnlockedIDs(catalog []Descriptor, progress map[string]model.LevelProgress) []string {
	var ids []string
	for _, d := range catalog {
		if IsUnlockCriteriaMet(d, progress) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// NextLevelID increments the numeric suffix of id within its family. ok is
// false when id is malformed or already at the highest n-back.
func NextLevelID(id string) (string, bool) {
	family, n, ok := splitLevelID(id)
	if !ok || n >= model.MaxNBack {
		return "", false
	}
	return levelID(family, n+1), true
}

// Family returns the family prefix of a level id.
func Family(id string) string {
	family, _, ok := splitLevelID(id)
	if !ok {
		return ""
	}
	return family
}

func splitLevelID(id string) (string, int, bool) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 || idx == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return "", 0, false
	}
	family := id[:idx]
	switch family {
	case FamilyPosition, FamilyAudio, FamilyDual:
		return family, n, true
	default:
		return "", 0, false
	}
}

func levelID(family string, n int) string {
	return family + "-" + strconv.Itoa(n)
}
