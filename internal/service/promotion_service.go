package service

import (
	"context"
	"fmt"
	"time"

	"promo-engine/internal/engine"
	"promo-engine/internal/model"
	"promo-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// promotionService implements PromotionService on top of a PromotionStore.
type promotionService struct {
	store     repository.PromotionStore
	generator *engine.Generator
	evaluator *engine.Evaluator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(store repository.PromotionStore, logger zerolog.Logger) PromotionService {
	return &promotionService{
		store:     store,
		generator: engine.NewGenerator(store, store, logger),
		evaluator: engine.NewEvaluator(store, store, logger),
		logger:    logger.With().Str("service", "promotion").Logger(),
		now:       time.Now,
	}
}

// Create validates and persists a single promotion. The code is reserved
// through the uniqueness index before the insert; the reservation is
// released again if the insert fails.
func (s *promotionService) Create(ctx context.Context, draft *model.PromotionDraft) (*model.Promotion, error) {
	if err := draft.Validate(); err != nil {
		s.logger.Warn().Err(err).Str("code", draft.Code).Msg("invalid promotion draft")
		return nil, err
	}

	code := model.NormalizeCode(draft.Code)
	if err := s.store.Reserve(ctx, code); err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("code reservation failed")
		return nil, err
	}

	now := s.now()
	p := &model.Promotion{
		ID:                    uuid.New(),
		Name:                  draft.Name,
		Code:                  code,
		Type:                  draft.Type,
		Value:                 draft.Value,
		Active:                draft.Active,
		StartDate:             draft.StartDate,
		EndDate:               draft.EndDate,
		UsageCount:            0,
		UsageLimit:            draft.UsageLimit,
		UsageLimitPerCustomer: draft.UsageLimitPerCustomer,
		MinOrderValue:         draft.MinOrderValue,
		CustomerGroups:        draft.CustomerGroups,
		ProductCategories:     draft.ProductCategories,
		FirstTimeOnly:         draft.FirstTimeOnly,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.store.Insert(ctx, p); err != nil {
		if relErr := s.store.Release(ctx, code); relErr != nil {
			s.logger.Error().Err(relErr).Str("code", code).Msg("failed to release code after insert failure")
		}
		s.logger.Error().Err(err).Str("code", code).Msg("failed to insert promotion")
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	s.logger.Info().
		Str("promotion_id", p.ID.String()).
		Str("code", p.Code).
		Str("type", string(p.Type)).
		Msg("promotion created")

	p.Status = engine.Classify(p, now)
	return p, nil
}

// BulkGenerate creates one promotion per candidate code from a template.
func (s *promotionService) BulkGenerate(ctx context.Context, req *model.BulkRequest) ([]model.Promotion, error) {
	created, err := s.generator.Generate(ctx, &req.Template, req.Codes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range created {
		created[i].Status = engine.Classify(&created[i], now)
	}
	return created, nil
}

// Get retrieves a promotion by id.
func (s *promotionService) Get(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to get promotion")
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}
	p.Status = engine.Classify(p, s.now())
	return p, nil
}

// Update applies a partial update to a promotion's mutable fields.
func (s *promotionService) Update(ctx context.Context, id uuid.UUID, patch *model.PromotionPatch) (*model.Promotion, error) {
	if patch.Code != nil || patch.ID != nil {
		s.logger.Warn().Str("promotion_id", id.String()).Msg("attempt to change immutable field")
		return nil, model.ErrImmutableField
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}

	applyPatch(p, patch)
	if p.EndDate.Before(p.StartDate) {
		return nil, model.ErrInvalidDateRange
	}
	p.UpdatedAt = s.now()

	if err := s.store.Update(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to update promotion")
		return nil, err
	}

	s.logger.Info().Str("promotion_id", id.String()).Msg("promotion updated")

	p.Status = engine.Classify(p, s.now())
	return p, nil
}

// Delete retires a promotion and frees its code.
func (s *promotionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("promotion_id", id.String()).Msg("promotion deleted")
	return nil
}

// List returns promotions matching the filter. The type filter is pushed to
// the store; the status filter is applied here because status is derived.
func (s *promotionService) List(ctx context.Context, filter model.ListFilter) ([]model.Promotion, error) {
	promotions, err := s.store.List(ctx, filter.Type)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list promotions")
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	now := s.now()
	result := make([]model.Promotion, 0, len(promotions))
	for i := range promotions {
		promotions[i].Status = engine.Classify(&promotions[i], now)
		if filter.Status != nil && promotions[i].Status != *filter.Status {
			continue
		}
		result = append(result, promotions[i])
	}
	return result, nil
}

// Evaluate runs a read-only eligibility check.
func (s *promotionService) Evaluate(ctx context.Context, req *model.EvaluationRequest) (*model.Evaluation, error) {
	return s.evaluator.Evaluate(ctx, req)
}

// ConfirmRedemption increments usage counters after an order is finalised.
func (s *promotionService) ConfirmRedemption(ctx context.Context, code, customerID string) (*model.Promotion, error) {
	normalized := model.NormalizeCode(code)

	p, err := s.store.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}

	if err := s.store.IncrementUsage(ctx, p.ID, customerID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("code", normalized).
			Str("customer_id", customerID).
			Msg("redemption confirmation failed")
		return nil, err
	}

	s.logger.Info().
		Str("code", normalized).
		Str("customer_id", customerID).
		Msg("redemption confirmed")

	updated, err := s.store.GetByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if updated == nil {
		return nil, model.ErrPromotionNotFound
	}
	updated.Status = engine.Classify(updated, s.now())
	return updated, nil
}

// Export projects the filtered promotion set into tabular rows.
func (s *promotionService) Export(ctx context.Context, filter model.ListFilter) ([][]string, error) {
	promotions, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return engine.ExportRows(promotions, s.now()), nil
}

// applyPatch copies the patch's non-nil fields onto the promotion.
func applyPatch(p *model.Promotion, patch *model.PromotionPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Value != nil {
		p.Value = *patch.Value
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.UsageLimit != nil {
		p.UsageLimit = patch.UsageLimit
	}
	if patch.UsageLimitPerCustomer != nil {
		p.UsageLimitPerCustomer = patch.UsageLimitPerCustomer
	}
	if patch.MinOrderValue != nil {
		p.MinOrderValue = patch.MinOrderValue
	}
	if patch.CustomerGroups != nil {
		p.CustomerGroups = *patch.CustomerGroups
	}
	if patch.ProductCategories != nil {
		p.ProductCategories = *patch.ProductCategories
	}
	if patch.FirstTimeOnly != nil {
		p.FirstTimeOnly = *patch.FirstTimeOnly
	}
}
