package repository

import (
	"context"

	"promo-engine/internal/model"

	"github.com/google/uuid"
)

// PromotionStore defines the interface for promotion data access operations.
// Codes are expected to be normalized (trimmed, upper-cased) before they
// reach the store.
type PromotionStore interface {
	// Insert persists a new promotion. The code must already be reserved
	// through the store's code index.
	Insert(ctx context.Context, p *model.Promotion) error

	// Update overwrites the mutable fields of an existing promotion.
	// Returns model.ErrPromotionNotFound when the id is unknown.
	Update(ctx context.Context, p *model.Promotion) error

	// GetByID retrieves a promotion by id. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)

	// GetByCode retrieves a promotion by normalized code.
	// Returns (nil, nil) when absent.
	GetByCode(ctx context.Context, code string) (*model.Promotion, error)

	// List returns promotions, optionally narrowed by type, in a stable
	// order (ascending by code). Status filtering happens above the store
	// because status is derived, not stored.
	List(ctx context.Context, promotionType *model.PromotionType) ([]model.Promotion, error)

	// Delete removes a promotion and releases its code reservation.
	// Returns model.ErrPromotionNotFound when the id is unknown.
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementUsage atomically increments the promotion's usage counter and
	// the customer's redemption history. The increment is guarded against
	// the usage limit: once the cap is hit it fails with
	// model.ErrUsageLimitReached instead of over-counting.
	IncrementUsage(ctx context.Context, id uuid.UUID, customerID string) error

	// CustomerRedemptions returns how many times the customer has redeemed
	// the promotion. Zero for customers with no history.
	CustomerRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int, error)

	// Reserve atomically checks and claims a code in the uniqueness index.
	// Returns model.ErrDuplicateCode when the code is already taken.
	Reserve(ctx context.Context, code string) error

	// Release frees a reserved code. Releasing an unreserved code is a no-op.
	Release(ctx context.Context, code string) error
}
