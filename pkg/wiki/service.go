package wiki

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
)

// EditResult describes an accepted wiki edit
type EditResult struct {
	Page        *Page                   `json:"page"`
	Measurement Measurement             `json:"measurement"`
	Award       *reputation.AwardResult `json:"award,omitempty"`
}

// Service coordinates wiki edits: quota validation, persistence, and
// the point award for the edit itself
type Service struct {
	store     PageStore
	validator *Validator
	ledger    *reputation.Ledger
	notifier  RejectNotifier
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithRejectNotifier sets the rejection notifier
func WithRejectNotifier(n RejectNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger
func WithLogger(logger *observability.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the service metrics
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a wiki service
func NewService(store PageStore, validator *Validator, ledger *reputation.Ledger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		validator: validator,
		ledger:    ledger,
		logger:    observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPage returns the wiki page for an API name
func (s *Service) GetPage(ctx context.Context, apiName string) (*Page, error) {
	if apiName == "" {
		return nil, fmt.Errorf("%w: api name is required", reputation.ErrInvalidInput)
	}
	return s.store.GetPage(ctx, apiName)
}

// ListPages returns all wiki page names
func (s *Service) ListPages(ctx context.Context) ([]string, error) {
	return s.store.ListPages(ctx)
}

// SubmitEdit validates a proposed page replacement against the actor's
// edit quota and persists it when accepted. The quota is checked against
// the tier the actor held before this edit's own point award. A rejected
// edit mutates nothing and awards nothing; the rejection reason names
// the violated bound. Editing a missing page creates it; creation is
// bounded by the absolute character cap only, since there is no
// original document for the relative cap to measure against.
func (s *Service) SubmitEdit(ctx context.Context, actor Actor, apiName, proposed string) (*EditResult, error) {
	if apiName == "" {
		return nil, fmt.Errorf("%w: api name is required", reputation.ErrInvalidInput)
	}
	if actor.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", reputation.ErrInvalidInput, actor.UserID)
	}

	tier := actor.Tier
	if actor.IsAdmin {
		tier = reputation.TierAdmin
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", reputation.ErrInvalidInput, tier)
	}

	original := ""
	creating := false
	expectedRevision := int64(0)
	page, err := s.store.GetPage(ctx, apiName)
	switch {
	case err == nil:
		original = page.Content
		expectedRevision = page.Revision
	case errors.Is(err, ErrPageNotFound):
		creating = true
	default:
		return nil, err
	}

	var measurement Measurement
	if creating {
		measurement, err = s.validator.ValidateCreate(proposed, tier)
	} else {
		measurement, err = s.validator.Validate(original, proposed, tier)
	}
	if err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.rejectEdit(ctx, actor, apiName, tier, quotaErr)
		}
		return nil, err
	}

	updated := &Page{
		APIName:   apiName,
		Content:   proposed,
		UpdatedBy: actor.UserID,
	}
	if err := s.store.SavePage(ctx, updated, expectedRevision); err != nil {
		return nil, err
	}

	result := &EditResult{Page: updated, Measurement: measurement}
	if s.metrics != nil {
		s.metrics.EditsAcceptedTotal.Inc()
	}

	// The edit is already durable; a failed award is logged and retried
	// by reconciliation workflows rather than failing the request.
	award, err := s.ledger.Award(ctx, actor.UserID, actor.IsAdmin, reputation.ActionWikiEdit)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id":  actor.UserID,
			"api_name": apiName,
		}).Warn("Failed to award points for accepted wiki edit")
		return result, nil
	}
	result.Award = award

	return result, nil
}

func (s *Service) rejectEdit(ctx context.Context, actor Actor, apiName string, tier reputation.Tier, reason *QuotaExceededError) {
	if s.metrics != nil {
		s.metrics.EditsRejectedTotal.WithLabelValues(string(reason.Kind)).Inc()
	}
	s.logger.WithFields(map[string]interface{}{
		"user_id":  actor.UserID,
		"api_name": apiName,
		"tier":     string(tier),
		"bound":    string(reason.Kind),
		"delta":    reason.Delta,
	}).Info("Rejected wiki edit over quota")

	if s.notifier != nil {
		s.notifier.NotifyReject(ctx, RejectEvent{
			UserID:  actor.UserID,
			APIName: apiName,
			Tier:    tier,
			Reason:  reason,
			At:      time.Now().UTC(),
		})
	}
}
