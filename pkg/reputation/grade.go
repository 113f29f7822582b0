package reputation

import (
	"fmt"
	"sort"
)

// Threshold pairs a tier with its inclusive lower score bound. The next
// threshold's bound is the exclusive upper bound.
type Threshold struct {
	Tier     Tier  `json:"tier" yaml:"tier"`
	MinScore int64 `json:"min_score" yaml:"min_score"`
}

// DefaultThresholds returns the reference tier boundaries
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Tier: TierBronze, MinScore: 0},
		{Tier: TierSilver, MinScore: 50},
		{Tier: TierGold, MinScore: 200},
	}
}

// Calculator maps an accumulated point total to a grade tier. Thresholds are
// configuration, validated once at construction; the mapping itself is a pure
// function and safe for concurrent use.
type Calculator struct {
	thresholds []Threshold
}

// NewCalculator creates a Calculator from ordered (tier, inclusive lower
// bound) pairs. Thresholds must start at zero, be strictly increasing in both
// score and privilege, and contain no admin entry (admin is assigned
// out-of-band, never by score).
func NewCalculator(thresholds []Threshold) (*Calculator, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: at least one tier threshold is required", ErrInvalidInput)
	}

	sorted := make([]Threshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })

	if sorted[0].MinScore != 0 {
		return nil, fmt.Errorf("%w: lowest threshold must start at 0, got %d", ErrInvalidInput, sorted[0].MinScore)
	}

	for i, th := range sorted {
		if !th.Tier.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, th.Tier)
		}
		if th.Tier == TierAdmin {
			return nil, fmt.Errorf("%w: admin tier cannot have a score threshold", ErrInvalidInput)
		}
		if i > 0 {
			if th.MinScore == sorted[i-1].MinScore {
				return nil, fmt.Errorf("%w: duplicate threshold at score %d", ErrInvalidInput, th.MinScore)
			}
			if th.Tier.Rank() <= sorted[i-1].Tier.Rank() {
				return nil, fmt.Errorf("%w: tier %q must outrank %q", ErrInvalidInput, th.Tier, sorted[i-1].Tier)
			}
		}
	}

	return &Calculator{thresholds: sorted}, nil
}

// GradeOf returns the tier containing score. isAdmin short-circuits to the
// admin tier regardless of score. When ranges were misconfigured to overlap,
// the more privileged tier wins (the scan starts from the highest threshold).
func (c *Calculator) GradeOf(score int64, isAdmin bool) (Tier, error) {
	if isAdmin {
		return TierAdmin, nil
	}
	if score < 0 {
		return "", fmt.Errorf("%w: score must be non-negative, got %d", ErrInvalidInput, score)
	}

	for i := len(c.thresholds) - 1; i >= 0; i-- {
		if score >= c.thresholds[i].MinScore {
			return c.thresholds[i].Tier, nil
		}
	}
	// Unreachable with a validated configuration: the lowest threshold is 0.
	return c.thresholds[0].Tier, nil
}

// ProgressToNext reports a user's position between their current tier's floor
// and the next tier's ceiling. For the top tier the ceiling is nil and the
// fraction is 1.0.
func (c *Calculator) ProgressToNext(score int64) (Progress, error) {
	if score < 0 {
		return Progress{}, fmt.Errorf("%w: score must be non-negative, got %d", ErrInvalidInput, score)
	}

	idx := 0
	for i := len(c.thresholds) - 1; i >= 0; i-- {
		if score >= c.thresholds[i].MinScore {
			idx = i
			break
		}
	}

	current := c.thresholds[idx]
	if idx == len(c.thresholds)-1 {
		return Progress{
			Tier:         current.Tier,
			CurrentFloor: current.MinScore,
			Fraction:     1.0,
		}, nil
	}

	ceiling := c.thresholds[idx+1].MinScore
	fraction := float64(score-current.MinScore) / float64(ceiling-current.MinScore)
	if fraction > 1.0 {
		fraction = 1.0
	}

	return Progress{
		Tier:         current.Tier,
		CurrentFloor: current.MinScore,
		NextCeiling:  &ceiling,
		Fraction:     fraction,
	}, nil
}

// Thresholds returns a copy of the configured thresholds
func (c *Calculator) Thresholds() []Threshold {
	out := make([]Threshold, len(c.thresholds))
	copy(out, c.thresholds)
	return out
}
