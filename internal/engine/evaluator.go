package engine

import (
	"context"
	"fmt"
	"time"

	"promo-engine/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PromotionLookup resolves a normalized code to a promotion snapshot.
type PromotionLookup interface {
	// GetByCode retrieves a promotion by its normalized code.
	// Returns (nil, nil) when no promotion carries the code.
	GetByCode(ctx context.Context, code string) (*model.Promotion, error)
}

// UsageHistory supplies per-customer redemption counts. The counts are
// written by the redemption-confirmation hook after an order is finalised;
// the evaluator only reads them.
type UsageHistory interface {
	// CustomerRedemptions returns how many times the customer has redeemed
	// the promotion. Zero for customers with no history.
	CustomerRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int, error)
}

// Evaluator decides whether a redemption request qualifies for a promotion's
// discount. Evaluation is read-only and idempotent: it never touches usage
// counters, so it is safe to run repeatedly for cart previews.
type Evaluator struct {
	lookup  PromotionLookup
	history UsageHistory
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEvaluator creates a new eligibility evaluator.
func NewEvaluator(lookup PromotionLookup, history UsageHistory, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		lookup:  lookup,
		history: history,
		logger:  logger.With().Str("component", "evaluator").Logger(),
		now:     time.Now,
	}
}

// Evaluate runs the eligibility checks in a fixed order, short-circuiting at
// the first failure. An ineligible outcome is returned as a structured
// result, not an error; a non-nil error means the check itself could not run.
func (e *Evaluator) Evaluate(ctx context.Context, req *model.EvaluationRequest) (*model.Evaluation, error) {
	code := model.NormalizeCode(req.Code)

	p, err := e.lookup.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up promotion: %w", err)
	}
	if p == nil {
		e.logger.Debug().Str("code", code).Msg("promotion not found")
		return model.Ineligible(model.ReasonNotFound), nil
	}

	now := e.now()
	status := Classify(p, now)
	if status != model.StatusActive {
		// An exhausted usage cap classifies as paused; it surfaces here as
		// a usage-limit failure rather than a generic inactive one.
		if status == model.StatusPaused {
			return model.Ineligible(model.ReasonUsageLimitReached), nil
		}
		e.logger.Debug().
			Str("code", code).
			Str("status", string(status)).
			Msg("promotion not active")
		return model.Ineligible(model.ReasonNotActive), nil
	}

	if p.UsageLimitPerCustomer != nil {
		redemptions, err := e.history.CustomerRedemptions(ctx, p.ID, req.Customer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read customer redemption history: %w", err)
		}
		if redemptions >= *p.UsageLimitPerCustomer {
			return model.Ineligible(model.ReasonPerCustomerLimitReached), nil
		}
	}

	if p.MinOrderValue != nil && req.Cart.Subtotal < *p.MinOrderValue {
		return model.Ineligible(model.ReasonBelowMinimumOrderValue), nil
	}

	if !matchesGroups(p.CustomerGroups, req.Customer.Segments) {
		return model.Ineligible(model.ReasonCustomerGroupMismatch), nil
	}

	eligibleItems := eligibleCartItems(p.ProductCategories, req.Cart.Items)
	if !containsAll(p.ProductCategories) && len(eligibleItems) == 0 {
		return model.Ineligible(model.ReasonCategoryMismatch), nil
	}

	if p.FirstTimeOnly && req.Customer.CompletedOrders > 0 {
		return model.Ineligible(model.ReasonFirstTimeOnlyViolation), nil
	}

	eligibleSubtotal := subtotal(eligibleItems)
	discount := computeDiscount(p, &req.Cart, eligibleItems, eligibleSubtotal)

	e.logger.Debug().
		Str("code", code).
		Float64("discount", discount).
		Float64("eligible_subtotal", eligibleSubtotal).
		Msg("promotion eligible")

	return &model.Evaluation{
		Eligible:         true,
		DiscountAmount:   discount,
		EligibleSubtotal: eligibleSubtotal,
	}, nil
}

// containsAll reports whether the restriction set carries the wildcard
// entry, or is empty (no restriction configured).
func containsAll(set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == model.SegmentAll {
			return true
		}
	}
	return false
}

// matchesGroups reports whether the customer's segments intersect the
// promotion's eligible groups.
func matchesGroups(groups, segments []string) bool {
	if containsAll(groups) {
		return true
	}
	allowed := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		allowed[g] = struct{}{}
	}
	for _, s := range segments {
		if _, ok := allowed[s]; ok {
			return true
		}
	}
	return false
}

// eligibleCartItems returns the cart lines the promotion applies to: all
// lines under the wildcard, otherwise only lines in an eligible category.
func eligibleCartItems(categories []string, items []model.CartItem) []model.CartItem {
	if containsAll(categories) {
		return items
	}
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	var eligible []model.CartItem
	for _, it := range items {
		if _, ok := allowed[it.Category]; ok {
			eligible = append(eligible, it)
		}
	}
	return eligible
}

func subtotal(items []model.CartItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// computeDiscount computes the discount amount for an eligible request.
func computeDiscount(p *model.Promotion, cart *model.CartContext, eligible []model.CartItem, eligibleSubtotal float64) float64 {
	switch p.Type {
	case model.TypePercentage:
		return eligibleSubtotal * p.Value / 100.0
	case model.TypeFixed:
		// Never discount more than the eligible subtotal.
		if p.Value > eligibleSubtotal {
			return eligibleSubtotal
		}
		return p.Value
	case model.TypeShipping:
		return cart.ShippingCost
	case model.TypeBogo:
		return bogoDiscount(eligible)
	}
	return 0
}

// bogoDiscount is the price of the cheapest eligible unit among lines
// holding at least two units of the same product. Zero when no line
// qualifies.
func bogoDiscount(eligible []model.CartItem) float64 {
	lowest := 0.0
	found := false
	for _, it := range eligible {
		if it.Quantity < 2 {
			continue
		}
		if !found || it.Price < lowest {
			lowest = it.Price
			found = true
		}
	}
	if !found {
		return 0
	}
	return lowest
}
