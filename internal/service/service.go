package service

import (
	"context"

	"promo-engine/internal/model"

	"github.com/google/uuid"
)

// PromotionService defines operations for promotion management and
// redemption evaluation.
type PromotionService interface {
	// Create validates and persists a single promotion.
	Create(ctx context.Context, draft *model.PromotionDraft) (*model.Promotion, error)

	// BulkGenerate creates one promotion per candidate code from a template.
	// The batch is atomic: a single conflicting code rejects all of it.
	BulkGenerate(ctx context.Context, req *model.BulkRequest) ([]model.Promotion, error)

	// Get retrieves a promotion by id with its derived status populated.
	Get(ctx context.Context, id uuid.UUID) (*model.Promotion, error)

	// Update applies a partial update. Attempts to change code or id are
	// rejected with model.ErrImmutableField.
	Update(ctx context.Context, id uuid.UUID, patch *model.PromotionPatch) (*model.Promotion, error)

	// Delete retires a promotion and frees its code.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns promotions matching the filter, statuses derived at
	// read time.
	List(ctx context.Context, filter model.ListFilter) ([]model.Promotion, error)

	// Evaluate runs a read-only eligibility check for a redemption preview.
	Evaluate(ctx context.Context, req *model.EvaluationRequest) (*model.Evaluation, error)

	// ConfirmRedemption atomically increments usage counters after an order
	// is finalised. This is the redemption-confirmation hook; evaluation
	// alone never touches the counters.
	ConfirmRedemption(ctx context.Context, code, customerID string) (*model.Promotion, error)

	// Export projects the filtered promotion set into tabular rows.
	Export(ctx context.Context, filter model.ListFilter) ([][]string, error)
}
