package api

import (
	"errors"
	"net/http"

	"github.com/apidockhq/apidock/pkg/auth"
	"github.com/apidockhq/apidock/pkg/httputil"
	"github.com/apidockhq/apidock/pkg/middleware"
	"github.com/apidockhq/apidock/pkg/reputation"
)

// getReputation returns a user's score, tier, and progress to the next tier
func (s *Server) getReputation(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	score, err := s.ledger.Score(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	tier, progress, err := s.ledger.Grade(r.Context(), userID, user.IsAdmin)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, ReputationResponse{
		UserID:   userID,
		Score:    score,
		Tier:     tier,
		TierInfo: tier.Info(),
		Progress: progress,
	})
}

// listEvents returns a user's activity event log, newest first
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	events, err := s.ledger.Events(r.Context(), userID, limit, offset)
	if err != nil {
		if errors.Is(err, reputation.ErrInvalidInput) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, EventsResponse{
		UserID: userID,
		Events: events,
		Limit:  limit,
		Offset: offset,
	})
}

// awardPoints records a point-earning action for a user. Admin only:
// regular activity earns points through its own endpoints, this exists
// for corrections and backfills.
func (s *Server) awardPoints(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireAdmin(w, r); !ok {
		return
	}

	userID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req AwardRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	target, err := s.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	result, err := s.ledger.Award(r.Context(), userID, target.IsAdmin, reputation.ActionType(req.Action))
	if err != nil {
		if errors.Is(err, reputation.ErrInvalidInput) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, AwardResponse{
		Event:         result.Event,
		PreviousScore: result.PreviousScore,
		NewScore:      result.NewScore,
		PreviousTier:  result.PreviousTier,
		NewTier:       result.NewTier,
		Upgraded:      result.Upgrade != nil,
	})
}

// reconcileUser re-derives a user's score from their event log. Admin only.
func (s *Server) reconcileUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireAdmin(w, r); !ok {
		return
	}

	userID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	report, err := s.ledger.Reconcile(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, ReconcileResponse{
		UserID:      report.UserID,
		CachedScore: report.CachedScore,
		EventSum:    report.EventSum,
		Drift:       report.Drift,
		Repaired:    report.Repaired,
	})
}

// listTiers returns the grade tier table with thresholds and edit quotas
func (s *Server) listTiers(w http.ResponseWriter, r *http.Request) {
	thresholds := s.ledger.Calculator().Thresholds()
	quotas := s.validator.Policy().Quotas()

	floors := make(map[reputation.Tier]int64, len(thresholds))
	for _, th := range thresholds {
		floors[th.Tier] = th.MinScore
	}

	tiers := []reputation.Tier{
		reputation.TierBronze,
		reputation.TierSilver,
		reputation.TierGold,
		reputation.TierAdmin,
	}

	resp := make([]TierResponse, 0, len(tiers))
	for _, tier := range tiers {
		info := tier.Info()
		entry := TierResponse{
			Tier:        tier,
			DisplayName: info.DisplayName,
			Color:       info.Color,
		}
		if floor, ok := floors[tier]; ok {
			f := floor
			entry.MinScore = &f
		}
		if quota, ok := quotas[tier]; ok {
			entry.MaxFraction = quota.MaxFraction
			if !quota.Unlimited() {
				c := quota.MaxChars
				entry.MaxChars = &c
			}
		}
		resp = append(resp, entry)
	}

	httputil.WriteSuccess(w, resp)
}
