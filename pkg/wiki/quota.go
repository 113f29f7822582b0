package wiki

import (
	"fmt"
	"math"
	"sort"

	"github.com/apidockhq/apidock/pkg/reputation"
)

// UnlimitedChars marks a quota with no absolute character cap
const UnlimitedChars = int64(math.MaxInt64)

// EditQuota bounds the size of a single wiki edit. The effective limit
// is the tighter of the absolute and relative caps.
type EditQuota struct {
	MaxChars    int64   `json:"max_chars"`
	MaxFraction float64 `json:"max_fraction"`
}

// Unlimited reports whether the quota has no absolute character cap
func (q EditQuota) Unlimited() bool {
	return q.MaxChars == UnlimitedChars
}

// Policy maps a grade tier to its edit quota. Quotas are monotonic:
// a higher tier is never allowed less than a lower one.
type Policy struct {
	quotas map[reputation.Tier]EditQuota
}

// DefaultQuotas returns the built-in tier quota table
func DefaultQuotas() map[reputation.Tier]EditQuota {
	return map[reputation.Tier]EditQuota{
		reputation.TierBronze: {MaxChars: 300, MaxFraction: 0.30},
		reputation.TierSilver: {MaxChars: 1500, MaxFraction: 0.60},
		reputation.TierGold:   {MaxChars: 5000, MaxFraction: 0.90},
		reputation.TierAdmin:  {MaxChars: UnlimitedChars, MaxFraction: 1.0},
	}
}

// NewPolicy validates the quota table and returns a Policy.
// Every known tier needs an entry, fractions must lie in (0, 1], the
// admin quota must be unbounded, and quotas must not shrink as tiers rise.
func NewPolicy(quotas map[reputation.Tier]EditQuota) (*Policy, error) {
	for _, tier := range []reputation.Tier{reputation.TierBronze, reputation.TierSilver, reputation.TierGold, reputation.TierAdmin} {
		if _, ok := quotas[tier]; !ok {
			return nil, fmt.Errorf("%w: missing edit quota for tier %q", reputation.ErrInvalidInput, tier)
		}
	}
	for tier, q := range quotas {
		if !tier.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %q in quota table", reputation.ErrInvalidInput, tier)
		}
		if q.MaxChars < 0 {
			return nil, fmt.Errorf("%w: negative max chars for tier %q", reputation.ErrInvalidInput, tier)
		}
		if q.MaxFraction <= 0 || q.MaxFraction > 1 {
			return nil, fmt.Errorf("%w: max fraction for tier %q must be in (0, 1], got %v", reputation.ErrInvalidInput, tier, q.MaxFraction)
		}
	}

	admin := quotas[reputation.TierAdmin]
	if !admin.Unlimited() || admin.MaxFraction != 1.0 {
		return nil, fmt.Errorf("%w: admin quota must be unbounded", reputation.ErrInvalidInput)
	}

	// Check monotonicity in ascending rank order
	tiers := make([]reputation.Tier, 0, len(quotas))
	for tier := range quotas {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rank() < tiers[j].Rank() })
	for i := 1; i < len(tiers); i++ {
		lower, higher := quotas[tiers[i-1]], quotas[tiers[i]]
		if higher.MaxChars < lower.MaxChars || higher.MaxFraction < lower.MaxFraction {
			return nil, fmt.Errorf("%w: quota for tier %q is tighter than for tier %q", reputation.ErrInvalidInput, tiers[i], tiers[i-1])
		}
	}

	copied := make(map[reputation.Tier]EditQuota, len(quotas))
	for tier, q := range quotas {
		copied[tier] = q
	}
	return &Policy{quotas: copied}, nil
}

// DefaultPolicy returns a Policy built from DefaultQuotas
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultQuotas())
	if err != nil {
		panic(fmt.Sprintf("default quota table is invalid: %v", err))
	}
	return p
}

// QuotaFor returns the edit quota for a tier
func (p *Policy) QuotaFor(tier reputation.Tier) (EditQuota, error) {
	q, ok := p.quotas[tier]
	if !ok {
		return EditQuota{}, fmt.Errorf("%w: no edit quota for tier %q", reputation.ErrInvalidInput, tier)
	}
	return q, nil
}

// Quotas returns a copy of the tier quota table
func (p *Policy) Quotas() map[reputation.Tier]EditQuota {
	copied := make(map[reputation.Tier]EditQuota, len(p.quotas))
	for tier, q := range p.quotas {
		copied[tier] = q
	}
	return copied
}
