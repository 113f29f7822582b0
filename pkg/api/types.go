package api

import (
	"time"

	"github.com/apidockhq/apidock/pkg/reputation"
)

// ReputationResponse is the user reputation summary
type ReputationResponse struct {
	UserID   int64               `json:"user_id"`
	Score    int64               `json:"score"`
	Tier     reputation.Tier     `json:"tier"`
	TierInfo reputation.TierInfo `json:"tier_info"`
	Progress reputation.Progress `json:"progress"`
}

// EventsResponse is a page of activity events
type EventsResponse struct {
	UserID int64                      `json:"user_id"`
	Events []reputation.ActivityEvent `json:"events"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

// AwardRequest records points for a user action
type AwardRequest struct {
	Action string `json:"action"`
}

// AwardResponse reports the outcome of a point award
type AwardResponse struct {
	Event         reputation.ActivityEvent `json:"event"`
	PreviousScore int64                    `json:"previous_score"`
	NewScore      int64                    `json:"new_score"`
	PreviousTier  reputation.Tier          `json:"previous_tier"`
	NewTier       reputation.Tier          `json:"new_tier"`
	Upgraded      bool                     `json:"upgraded"`
}

// TierResponse describes one grade tier and its policy
type TierResponse struct {
	Tier        reputation.Tier `json:"tier"`
	DisplayName string          `json:"display_name"`
	Color       string          `json:"color"`
	MinScore    *int64          `json:"min_score,omitempty"`
	MaxChars    *int64          `json:"max_edit_chars,omitempty"`
	MaxFraction float64         `json:"max_edit_fraction"`
}

// WikiPageResponse is a wiki page
type WikiPageResponse struct {
	APIName   string    `json:"api_name"`
	Content   string    `json:"content"`
	Revision  int64     `json:"revision"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WikiEditRequest is a proposed full-page replacement
type WikiEditRequest struct {
	Content string `json:"content"`
}

// WikiEditResponse reports an accepted edit
type WikiEditResponse struct {
	Page         WikiPageResponse `json:"page"`
	DeltaChars   int64            `json:"delta_chars"`
	PointsEarned int64            `json:"points_earned"`
	Tier         reputation.Tier  `json:"tier"`
	Upgraded     bool             `json:"upgraded"`
}

// QuotaRejection is the structured 403 payload for an over-quota edit
type QuotaRejection struct {
	Bound           string  `json:"bound"`
	Delta           int64   `json:"delta"`
	Fraction        float64 `json:"fraction"`
	AllowedChars    int64   `json:"allowed_chars"`
	AllowedFraction float64 `json:"allowed_fraction"`
}

// ReconcileResponse reports a score reconciliation outcome
type ReconcileResponse struct {
	UserID      int64 `json:"user_id"`
	CachedScore int64 `json:"cached_score"`
	EventSum    int64 `json:"event_sum"`
	Drift       int64 `json:"drift"`
	Repaired    bool  `json:"repaired"`
}
