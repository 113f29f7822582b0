package wiki

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/apidockhq/apidock/pkg/reputation"
)

// BoundKind names which quota bound an edit exceeded
type BoundKind string

const (
	// BoundAbsolute is the absolute character cap
	BoundAbsolute BoundKind = "absolute"
	// BoundRelative is the fraction-of-document cap
	BoundRelative BoundKind = "relative"
)

// QuotaExceededError reports an edit rejected by the quota validator.
// It is an expected user-facing outcome, not a system fault.
type QuotaExceededError struct {
	Kind            BoundKind `json:"kind"`
	Delta           int64     `json:"delta"`
	Fraction        float64   `json:"fraction"`
	AllowedChars    int64     `json:"allowed_chars"`
	AllowedFraction float64   `json:"allowed_fraction"`
}

// Error implements the error interface
func (e *QuotaExceededError) Error() string {
	switch e.Kind {
	case BoundAbsolute:
		return fmt.Sprintf("edit quota exceeded: %d characters changed, at most %d allowed", e.Delta, e.AllowedChars)
	default:
		return fmt.Sprintf("edit quota exceeded: %.1f%% of the document changed, at most %.1f%% allowed", e.Fraction*100, e.AllowedFraction*100)
	}
}

// IsQuotaExceeded reports whether err is a quota rejection
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// Measurement is the size of a proposed edit
type Measurement struct {
	Delta    int64   `json:"delta"`
	Fraction float64 `json:"fraction"`
}

// MeasureEdit computes the size delta between an original document and a
// proposed replacement. Lengths are counted in Unicode scalars so the
// policy behaves the same across scripts. An empty original counts as
// length 1 for the fraction only.
func MeasureEdit(original, proposed string) Measurement {
	origLen := int64(utf8.RuneCountInString(original))
	propLen := int64(utf8.RuneCountInString(proposed))

	delta := propLen - origLen
	if delta < 0 {
		delta = -delta
	}

	base := origLen
	if base < 1 {
		base = 1
	}

	return Measurement{
		Delta:    delta,
		Fraction: float64(delta) / float64(base),
	}
}

// Validator checks proposed edits against the tier quota policy.
// The policy can be replaced at runtime by the config watcher.
type Validator struct {
	mu     sync.RWMutex
	policy *Policy
}

// NewValidator creates a validator over a quota policy
func NewValidator(policy *Policy) *Validator {
	return &Validator{policy: policy}
}

// Policy returns the current quota policy
func (v *Validator) Policy() *Policy {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.policy
}

// ReplacePolicy swaps in a new quota policy
func (v *Validator) ReplacePolicy(policy *Policy) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.policy = policy
}

// Validate accepts or rejects a proposed edit for a tier. On rejection
// the returned error is a *QuotaExceededError naming the violated bound,
// checking the absolute cap before the relative one.
func (v *Validator) Validate(original, proposed string, tier reputation.Tier) (Measurement, error) {
	m := MeasureEdit(original, proposed)

	quota, err := v.Policy().QuotaFor(tier)
	if err != nil {
		return m, err
	}

	if m.Delta > quota.MaxChars {
		return m, &QuotaExceededError{
			Kind:            BoundAbsolute,
			Delta:           m.Delta,
			Fraction:        m.Fraction,
			AllowedChars:    quota.MaxChars,
			AllowedFraction: quota.MaxFraction,
		}
	}
	if m.Fraction > quota.MaxFraction {
		return m, &QuotaExceededError{
			Kind:            BoundRelative,
			Delta:           m.Delta,
			Fraction:        m.Fraction,
			AllowedChars:    quota.MaxChars,
			AllowedFraction: quota.MaxFraction,
		}
	}

	return m, nil
}

// ValidateCreate checks the initial content of a page that does not
// exist yet. With no original document the relative cap has no
// denominator, so only the absolute character cap applies.
func (v *Validator) ValidateCreate(proposed string, tier reputation.Tier) (Measurement, error) {
	m := MeasureEdit("", proposed)

	quota, err := v.Policy().QuotaFor(tier)
	if err != nil {
		return m, err
	}

	if m.Delta > quota.MaxChars {
		return m, &QuotaExceededError{
			Kind:            BoundAbsolute,
			Delta:           m.Delta,
			Fraction:        m.Fraction,
			AllowedChars:    quota.MaxChars,
			AllowedFraction: quota.MaxFraction,
		}
	}

	return m, nil
}
