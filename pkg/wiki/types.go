package wiki

import (
	"context"
	"errors"
	"time"

	"github.com/apidockhq/apidock/pkg/reputation"
)

// Page is a community-maintained wiki document attached to an API entry
type Page struct {
	APIName   string    `json:"api_name"`
	Content   string    `json:"content"`
	Revision  int64     `json:"revision"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor identifies the user submitting an edit together with the grade
// tier in effect before the edit's own point award
type Actor struct {
	UserID  int64           `json:"user_id"`
	Tier    reputation.Tier `json:"tier"`
	IsAdmin bool            `json:"is_admin"`
}

// RejectEvent describes a quota rejection for surfacing to the end user
type RejectEvent struct {
	UserID  int64              `json:"user_id"`
	APIName string             `json:"api_name"`
	Tier    reputation.Tier    `json:"tier"`
	Reason  *QuotaExceededError `json:"reason"`
	At      time.Time          `json:"at"`
}

// RejectNotifier receives quota rejections. Implementations must not
// block the edit path for long and must not fail the request.
type RejectNotifier interface {
	NotifyReject(ctx context.Context, event RejectEvent)
}

// ErrPageNotFound indicates no wiki page exists for the API name
var ErrPageNotFound = errors.New("wiki page not found")

// ErrRevisionConflict indicates the page changed under a concurrent edit
var ErrRevisionConflict = errors.New("wiki page revision conflict")
