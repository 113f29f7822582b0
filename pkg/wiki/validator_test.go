package wiki

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidockhq/apidock/pkg/reputation"
)

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	policy, err := NewPolicy(map[reputation.Tier]EditQuota{
		reputation.TierBronze: {MaxChars: 50, MaxFraction: 0.1},
		reputation.TierSilver: {MaxChars: 1000, MaxFraction: 0.1},
		reputation.TierGold:   {MaxChars: 5000, MaxFraction: 0.9},
		reputation.TierAdmin:  {MaxChars: UnlimitedChars, MaxFraction: 1.0},
	})
	require.NoError(t, err)
	return policy
}

func TestMeasureEdit(t *testing.T) {
	tests := []struct {
		name         string
		original     string
		proposed     string
		wantDelta    int64
		wantFraction float64
	}{
		{
			name:         "no-op edit",
			original:     "hello world",
			proposed:     "hello world",
			wantDelta:    0,
			wantFraction: 0,
		},
		{
			name:         "append",
			original:     strings.Repeat("a", 100),
			proposed:     strings.Repeat("a", 120),
			wantDelta:    20,
			wantFraction: 0.2,
		},
		{
			name:         "shrink counts the same as grow",
			original:     strings.Repeat("a", 100),
			proposed:     strings.Repeat("a", 80),
			wantDelta:    20,
			wantFraction: 0.2,
		},
		{
			name:         "empty original counts as length one",
			original:     "",
			proposed:     "ab",
			wantDelta:    2,
			wantFraction: 2.0,
		},
		{
			name:         "multibyte runes count once",
			original:     "héllo wörld",
			proposed:     "héllo wörld!!",
			wantDelta:    2,
			wantFraction: 2.0 / 11.0,
		},
		{
			name:         "cjk runes count once",
			original:     "日本語のドキュメント",
			proposed:     "日本語のドキュメント追加",
			wantDelta:    2,
			wantFraction: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MeasureEdit(tt.original, tt.proposed)
			assert.Equal(t, tt.wantDelta, m.Delta)
			assert.InDelta(t, tt.wantFraction, m.Fraction, 1e-9)
		})
	}
}

func TestValidateNoOpAlwaysAccepts(t *testing.T) {
	v := NewValidator(testPolicy(t))
	doc := strings.Repeat("x", 5000)

	for _, tier := range []reputation.Tier{reputation.TierBronze, reputation.TierSilver, reputation.TierGold, reputation.TierAdmin} {
		m, err := v.Validate(doc, doc, tier)
		require.NoError(t, err, "tier %s", tier)
		assert.Equal(t, int64(0), m.Delta)
	}
}

func TestValidateAbsoluteBound(t *testing.T) {
	v := NewValidator(testPolicy(t))
	original := strings.Repeat("x", 1000)

	// 51 chars is 5.1% of the document, under the 10% fraction, so only
	// the absolute cap of 50 is exceeded.
	m, err := v.Validate(original, original+strings.Repeat("y", 51), reputation.TierBronze)
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))

	quotaErr, ok := err.(*QuotaExceededError)
	require.True(t, ok)
	assert.Equal(t, BoundAbsolute, quotaErr.Kind)
	assert.Equal(t, int64(51), quotaErr.Delta)
	assert.Equal(t, int64(50), quotaErr.AllowedChars)
	assert.Equal(t, int64(51), m.Delta)

	// 40 chars is under both caps
	_, err = v.Validate(original, original+strings.Repeat("y", 40), reputation.TierBronze)
	require.NoError(t, err)
}

func TestValidateRelativeBound(t *testing.T) {
	v := NewValidator(testPolicy(t))
	original := strings.Repeat("x", 10)

	// 2 chars is far under the absolute cap of 1000 but 20% of a
	// 10-char document, over the 10% fraction.
	_, err := v.Validate(original, original+"yy", reputation.TierSilver)
	require.Error(t, err)

	quotaErr, ok := err.(*QuotaExceededError)
	require.True(t, ok)
	assert.Equal(t, BoundRelative, quotaErr.Kind)
	assert.Equal(t, int64(2), quotaErr.Delta)
	assert.InDelta(t, 0.2, quotaErr.Fraction, 1e-9)
	assert.Equal(t, 0.1, quotaErr.AllowedFraction)
}

func TestValidateAbsoluteCitedBeforeRelative(t *testing.T) {
	v := NewValidator(testPolicy(t))
	original := strings.Repeat("x", 100)

	// 60 chars breaks both the 50-char cap and the 10% fraction
	_, err := v.Validate(original, original+strings.Repeat("y", 60), reputation.TierBronze)
	require.Error(t, err)

	quotaErr, ok := err.(*QuotaExceededError)
	require.True(t, ok)
	assert.Equal(t, BoundAbsolute, quotaErr.Kind)
}

func TestValidateAdminUnbounded(t *testing.T) {
	v := NewValidator(testPolicy(t))
	original := strings.Repeat("x", 10)
	proposed := strings.Repeat("y", 100000)

	_, err := v.Validate(original, proposed, reputation.TierAdmin)
	require.NoError(t, err)
}

func TestValidateTinyDocumentFullReplacement(t *testing.T) {
	v := NewValidator(testPolicy(t))

	// Replacing a one-char document stays accepted at gold, where the
	// fraction cap of 0.9 still allows a zero-delta rewrite and the
	// absolute cap covers growth.
	_, err := v.Validate("a", "b", reputation.TierGold)
	require.NoError(t, err)
}

func TestValidateCreateUsesAbsoluteCapOnly(t *testing.T) {
	v := NewValidator(testPolicy(t))

	// 40 new chars is 4000% of a missing document but under bronze's
	// absolute cap, so creation succeeds.
	_, err := v.ValidateCreate(strings.Repeat("a", 40), reputation.TierBronze)
	require.NoError(t, err)

	_, err = v.ValidateCreate(strings.Repeat("a", 60), reputation.TierBronze)
	require.Error(t, err)
	quotaErr, ok := err.(*QuotaExceededError)
	require.True(t, ok)
	assert.Equal(t, BoundAbsolute, quotaErr.Kind)
}

func TestIsQuotaExceeded(t *testing.T) {
	assert.True(t, IsQuotaExceeded(&QuotaExceededError{Kind: BoundAbsolute}))
	assert.False(t, IsQuotaExceeded(assert.AnError))
	assert.False(t, IsQuotaExceeded(nil))
}

func TestQuotaExceededErrorMessage(t *testing.T) {
	absErr := &QuotaExceededError{Kind: BoundAbsolute, Delta: 51, AllowedChars: 50}
	assert.Contains(t, absErr.Error(), "51 characters changed")
	assert.Contains(t, absErr.Error(), "at most 50 allowed")

	relErr := &QuotaExceededError{Kind: BoundRelative, Fraction: 0.2, AllowedFraction: 0.1}
	assert.Contains(t, relErr.Error(), "20.0%")
	assert.Contains(t, relErr.Error(), "10.0%")
}

func TestReplacePolicy(t *testing.T) {
	v := NewValidator(testPolicy(t))
	original := strings.Repeat("x", 1000)
	proposed := original + strings.Repeat("y", 60)

	_, err := v.Validate(original, proposed, reputation.TierBronze)
	require.Error(t, err)

	wider, err := NewPolicy(map[reputation.Tier]EditQuota{
		reputation.TierBronze: {MaxChars: 100, MaxFraction: 0.5},
		reputation.TierSilver: {MaxChars: 1000, MaxFraction: 0.5},
		reputation.TierGold:   {MaxChars: 5000, MaxFraction: 0.9},
		reputation.TierAdmin:  {MaxChars: UnlimitedChars, MaxFraction: 1.0},
	})
	require.NoError(t, err)
	v.ReplacePolicy(wider)

	_, err = v.Validate(original, proposed, reputation.TierBronze)
	require.NoError(t, err)
}
