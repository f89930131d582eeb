package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"promo-engine/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemoryStore is an in-process, mutex-guarded implementation of
// PromotionStore. The promotion table, the code uniqueness index and the
// per-customer redemption history all live under one lock, so the
// reserve-then-insert sequence is a single critical section and two
// concurrent creations of the same code cannot both succeed.
type MemoryStore struct {
	mu          sync.RWMutex
	promotions  map[uuid.UUID]*model.Promotion
	codes       map[string]uuid.UUID
	redemptions map[uuid.UUID]map[string]int
	logger      zerolog.Logger
}

// NewMemoryStore creates an empty in-memory promotion store.
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		promotions:  make(map[uuid.UUID]*model.Promotion),
		codes:       make(map[string]uuid.UUID),
		redemptions: make(map[uuid.UUID]map[string]int),
		logger:      logger.With().Str("store", "memory").Logger(),
	}
}

// Reserve atomically checks and claims a code in the uniqueness index.
func (s *MemoryStore) Reserve(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[code]; taken {
		return model.ErrDuplicateCode
	}
	// uuid.Nil marks a reservation whose promotion has not been inserted yet.
	s.codes[code] = uuid.Nil
	return nil
}

// Release frees a reserved code.
func (s *MemoryStore) Release(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, code)
	return nil
}

// Insert persists a new promotion under a previously reserved code.
func (s *MemoryStore) Insert(ctx context.Context, p *model.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := clone(p)
	s.promotions[p.ID] = cp
	s.codes[p.Code] = p.ID
	return nil
}

// Update overwrites the mutable fields of an existing promotion.
func (s *MemoryStore) Update(ctx context.Context, p *model.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.promotions[p.ID]; !ok {
		return model.ErrPromotionNotFound
	}
	s.promotions[p.ID] = clone(p)
	return nil
}

// GetByID retrieves a promotion by id.
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.promotions[id]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

// GetByCode retrieves a promotion by normalized code.
func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*model.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok || id == uuid.Nil {
		return nil, nil
	}
	p, ok := s.promotions[id]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

// List returns promotions ordered by code, optionally narrowed by type.
func (s *MemoryStore) List(ctx context.Context, promotionType *model.PromotionType) ([]model.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Promotion, 0, len(s.promotions))
	for _, p := range s.promotions {
		if promotionType != nil && p.Type != *promotionType {
			continue
		}
		result = append(result, *clone(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result, nil
}

// Delete removes a promotion and releases its code.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.promotions[id]
	if !ok {
		return model.ErrPromotionNotFound
	}
	delete(s.promotions, id)
	delete(s.codes, p.Code)
	delete(s.redemptions, id)
	return nil
}

// IncrementUsage atomically increments the usage counter and the customer's
// redemption history, guarded against the usage limit.
func (s *MemoryStore) IncrementUsage(ctx context.Context, id uuid.UUID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.promotions[id]
	if !ok {
		return model.ErrPromotionNotFound
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return model.ErrUsageLimitReached
	}
	p.UsageCount++
	p.UpdatedAt = time.Now()

	byCustomer, ok := s.redemptions[id]
	if !ok {
		byCustomer = make(map[string]int)
		s.redemptions[id] = byCustomer
	}
	byCustomer[customerID]++

	s.logger.Debug().
		Str("promotion_id", id.String()).
		Str("customer_id", customerID).
		Int("usage_count", p.UsageCount).
		Msg("usage incremented")
	return nil
}

// CustomerRedemptions returns the customer's redemption count for a promotion.
func (s *MemoryStore) CustomerRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.redemptions[promotionID][customerID], nil
}

// clone copies a promotion so callers never share memory with the store.
func clone(p *model.Promotion) *model.Promotion {
	cp := *p
	if p.UsageLimit != nil {
		v := *p.UsageLimit
		cp.UsageLimit = &v
	}
	if p.UsageLimitPerCustomer != nil {
		v := *p.UsageLimitPerCustomer
		cp.UsageLimitPerCustomer = &v
	}
	if p.MinOrderValue != nil {
		v := *p.MinOrderValue
		cp.MinOrderValue = &v
	}
	cp.CustomerGroups = append([]string(nil), p.CustomerGroups...)
	cp.ProductCategories = append([]string(nil), p.ProductCategories...)
	return &cp
}
