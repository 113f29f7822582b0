package reputation

import (
	"errors"
	"time"
)

// Tier represents a reputation grade tier
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
	TierAdmin  Tier = "admin"
)

// tierRanks orders tiers for privilege comparison. Admin always ranks highest
// and is assigned out-of-band, never reached by point accumulation.
var tierRanks = map[Tier]int{
	TierBronze: 0,
	TierSilver: 1,
	TierGold:   2,
	TierAdmin:  3,
}

// Valid reports whether the tier is a known tier
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the tier's position in the privilege ordering, or -1 for an
// unknown tier
func (t Tier) Rank() int {
	rank, ok := tierRanks[t]
	if !ok {
		return -1
	}
	return rank
}

// Less reports whether t is strictly less privileged than other
func (t Tier) Less(other Tier) bool {
	return t.Rank() < other.Rank()
}

// AtLeast reports whether t is at least as privileged as other
func (t Tier) AtLeast(other Tier) bool {
	return t.Valid() && other.Valid() && t.Rank() >= other.Rank()
}

// TierInfo holds display metadata for a tier
type TierInfo struct {
	Tier        Tier   `json:"tier"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

var tierInfos = map[Tier]TierInfo{
	TierBronze: {Tier: TierBronze, DisplayName: "Bronze", Color: "#cd7f32"},
	TierSilver: {Tier: TierSilver, DisplayName: "Silver", Color: "#c0c0c0"},
	TierGold:   {Tier: TierGold, DisplayName: "Gold", Color: "#ffd700"},
	TierAdmin:  {Tier: TierAdmin, DisplayName: "Admin", Color: "#9b59b6"},
}

// Info returns display metadata for the tier
func (t Tier) Info() TierInfo {
	return tierInfos[t]
}

// ActionType identifies a point-earning action
type ActionType string

const (
	ActionAPISubmission    ActionType = "api_submission"
	ActionAPIApproved      ActionType = "api_approved"
	ActionWikiEdit         ActionType = "wiki_edit"
	ActionWikiEditApproved ActionType = "wiki_edit_approved"
	ActionCommentPosted    ActionType = "comment_posted"
	ActionCSVUpload        ActionType = "csv_upload"
	ActionCSVUpdate        ActionType = "csv_update"
	ActionPenalty          ActionType = "penalty"
)

// KnownActions returns all recognized action types
func KnownActions() []ActionType {
	return []ActionType{
		ActionAPISubmission,
		ActionAPIApproved,
		ActionWikiEdit,
		ActionWikiEditApproved,
		ActionCommentPosted,
		ActionCSVUpload,
		ActionCSVUpdate,
		ActionPenalty,
	}
}

// Valid reports whether the action type is part of the closed set
func (a ActionType) Valid() bool {
	switch a {
	case ActionAPISubmission, ActionAPIApproved, ActionWikiEdit, ActionWikiEditApproved,
		ActionCommentPosted, ActionCSVUpload, ActionCSVUpdate, ActionPenalty:
		return true
	}
	return false
}

// ActivityEvent is an immutable record of one point-earning action.
// Events are append-only; the sum of a user's event points is the
// authoritative definition of their activity score.
type ActivityEvent struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Action    ActionType `json:"action"`
	Points    int64      `json:"points"`
	CreatedAt time.Time  `json:"created_at"`
}

// UpgradeEvent signals that a user's tier strictly increased after an award
type UpgradeEvent struct {
	UserID int64     `json:"user_id"`
	From   Tier      `json:"from"`
	To     Tier      `json:"to"`
	Score  int64     `json:"score"`
	At     time.Time `json:"at"`
}

// Progress describes a user's position between tier thresholds for UI
// progress bars. NextCeiling is nil for the top non-admin tier, in which
// case Fraction is 1.0.
type Progress struct {
	Tier         Tier   `json:"tier"`
	CurrentFloor int64  `json:"current_floor"`
	NextCeiling  *int64 `json:"next_ceiling,omitempty"`
	Fraction     float64 `json:"fraction"`
}

// ErrInvalidInput is wrapped by all bad-input failures from the pure
// functions in this package
var ErrInvalidInput = errors.New("invalid input")

// ErrUserNotFound indicates the user has no score record
var ErrUserNotFound = errors.New("user not found")
