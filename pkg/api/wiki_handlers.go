package api

import (
	"errors"
	"net/http"

	"github.com/apidockhq/apidock/pkg/httputil"
	"github.com/apidockhq/apidock/pkg/middleware"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// listWikiPages returns all documented API names
func (s *Server) listWikiPages(w http.ResponseWriter, r *http.Request) {
	names, err := s.wikiSvc.ListPages(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.WriteSuccess(w, names)
}

// getWikiPage returns the wiki page for an API
func (s *Server) getWikiPage(w http.ResponseWriter, r *http.Request) {
	apiName, ok := httputil.ParsePathStringOrError(w, r, "api")
	if !ok {
		return
	}

	page, err := s.wikiSvc.GetPage(r.Context(), apiName)
	if err != nil {
		if errors.Is(err, wiki.ErrPageNotFound) {
			httputil.WriteNotFoundError(w, "wiki page not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, pageResponse(page))
}

// putWikiPage submits a full-page replacement. The edit is validated
// against the quota of the tier the user holds before this edit's own
// point award; a rejection returns 403 with the violated bound.
func (s *Server) putWikiPage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	apiName, ok := httputil.ParsePathStringOrError(w, r, "api")
	if !ok {
		return
	}

	var req WikiEditRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tier, _, err := s.ledger.Grade(r.Context(), user.ID, user.IsAdmin)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	actor := wiki.Actor{
		UserID:  user.ID,
		Tier:    tier,
		IsAdmin: user.IsAdmin,
	}

	result, err := s.wikiSvc.SubmitEdit(r.Context(), actor, apiName, req.Content)
	if err != nil {
		var quotaErr *wiki.QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			httputil.WriteDetailedError(w, http.StatusForbidden, quotaErr.Error(), QuotaRejection{
				Bound:           string(quotaErr.Kind),
				Delta:           quotaErr.Delta,
				Fraction:        quotaErr.Fraction,
				AllowedChars:    quotaErr.AllowedChars,
				AllowedFraction: quotaErr.AllowedFraction,
			})
		case errors.Is(err, wiki.ErrRevisionConflict):
			httputil.WriteConflict(w, "wiki page was modified concurrently, reload and retry")
		case errors.Is(err, reputation.ErrInvalidInput):
			httputil.WriteValidationError(w, err.Error())
		default:
			httputil.WriteInternalError(w, err)
		}
		return
	}

	resp := WikiEditResponse{
		Page:       pageResponse(result.Page),
		DeltaChars: result.Measurement.Delta,
		Tier:       tier,
	}
	if result.Award != nil {
		resp.PointsEarned = result.Award.Event.Points
		resp.Upgraded = result.Award.Upgrade != nil
	}

	httputil.WriteSuccess(w, resp)
}

func pageResponse(page *wiki.Page) WikiPageResponse {
	return WikiPageResponse{
		APIName:   page.APIName,
		Content:   page.Content,
		Revision:  page.Revision,
		UpdatedBy: page.UpdatedBy,
		UpdatedAt: page.UpdatedAt,
	}
}
