package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promo-engine/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CodeIndex guarantees no two live promotions share a code. Reserve is
// linearizable: of two concurrent reservations of the same code exactly one
// succeeds and the other gets model.ErrDuplicateCode.
type CodeIndex interface {
	// Reserve atomically checks and claims a normalized code.
	Reserve(ctx context.Context, code string) error

	// Release frees a reserved code after an enclosing creation failed.
	Release(ctx context.Context, code string) error
}

// BatchStore is the slice of the promotion store the generator needs:
// inserting generated promotions and removing them again on rollback.
type BatchStore interface {
	Insert(ctx context.Context, p *model.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Generator creates many promotions from one template plus a caller-supplied
// code list. The batch is all-or-nothing: every code becomes a promotion or
// none do.
type Generator struct {
	store  BatchStore
	index  CodeIndex
	logger zerolog.Logger
	now    func() time.Time
}

// NewGenerator creates a new bulk generator.
func NewGenerator(store BatchStore, index CodeIndex, logger zerolog.Logger) *Generator {
	return &Generator{
		store:  store,
		index:  index,
		logger: logger.With().Str("component", "generator").Logger(),
		now:    time.Now,
	}
}

// Generate creates one promotion per candidate code. It reserves every code
// up front, collecting the full set of conflicts (codes already in use and
// duplicates within the batch itself) before rejecting the whole batch, then
// inserts the promotions, rolling back reservations and inserts on any
// failure.
func (g *Generator) Generate(ctx context.Context, tmpl *model.PromotionTemplate, codes []string) ([]model.Promotion, error) {
	if len(codes) == 0 {
		return nil, model.ErrEmptyBatch
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	normalized := make([]string, len(codes))
	for i, code := range codes {
		normalized[i] = model.NormalizeCode(code)
		if normalized[i] == "" {
			return nil, model.ErrMissingCode
		}
	}

	// Phase one: reserve everything. Reserving sequentially through the
	// index catches both pre-existing codes and repeats inside the batch,
	// and the conflict list is complete because no code is skipped.
	var reserved []string
	var conflicts []string
	for _, code := range normalized {
		err := g.index.Reserve(ctx, code)
		if err == nil {
			reserved = append(reserved, code)
			continue
		}
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == model.ErrCodeDuplicateCode {
			conflicts = append(conflicts, code)
			continue
		}
		g.releaseAll(ctx, reserved)
		return nil, fmt.Errorf("failed to reserve code %s: %w", code, err)
	}

	if len(conflicts) > 0 {
		g.releaseAll(ctx, reserved)
		g.logger.Warn().
			Strs("codes", conflicts).
			Int("batch_size", len(codes)).
			Msg("bulk generation rejected due to duplicate codes")
		return nil, &model.DuplicateCodeError{Codes: conflicts}
	}

	// Phase two: commit. Any insert failure rolls the whole batch back.
	now := g.now()
	created := make([]model.Promotion, 0, len(normalized))
	for _, code := range normalized {
		p := g.fromTemplate(tmpl, code, now)
		if err := g.store.Insert(ctx, p); err != nil {
			g.rollback(ctx, created, normalized)
			return nil, fmt.Errorf("failed to insert promotion for code %s: %w", code, err)
		}
		created = append(created, *p)
	}

	g.logger.Info().
		Int("count", len(created)).
		Str("template", tmpl.Name).
		Msg("bulk generation completed")

	return created, nil
}

// fromTemplate instantiates one promotion for a code. The batch total usage
// limit defaults to the per-customer limit when unset.
func (g *Generator) fromTemplate(tmpl *model.PromotionTemplate, code string, now time.Time) *model.Promotion {
	usageLimit := tmpl.UsageLimit
	if usageLimit == nil && tmpl.UsageLimitPerCustomer != nil {
		limit := *tmpl.UsageLimitPerCustomer
		usageLimit = &limit
	}

	return &model.Promotion{
		ID:                    uuid.New(),
		Name:                  fmt.Sprintf("%s - %s", strings.TrimSpace(tmpl.Name), code),
		Code:                  code,
		Type:                  tmpl.Type,
		Value:                 tmpl.Value,
		Active:                tmpl.Active,
		StartDate:             tmpl.StartDate,
		EndDate:               tmpl.EndDate,
		UsageCount:            0,
		UsageLimit:            usageLimit,
		UsageLimitPerCustomer: tmpl.UsageLimitPerCustomer,
		MinOrderValue:         tmpl.MinOrderValue,
		CustomerGroups:        tmpl.CustomerGroups,
		ProductCategories:     tmpl.ProductCategories,
		FirstTimeOnly:         tmpl.FirstTimeOnly,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func (g *Generator) releaseAll(ctx context.Context, codes []string) {
	for _, code := range codes {
		if err := g.index.Release(ctx, code); err != nil {
			g.logger.Error().Err(err).Str("code", code).Msg("failed to release reserved code")
		}
	}
}

func (g *Generator) rollback(ctx context.Context, created []model.Promotion, codes []string) {
	for _, p := range created {
		if err := g.store.Delete(ctx, p.ID); err != nil {
			g.logger.Error().Err(err).Str("promotion_id", p.ID.String()).Msg("failed to roll back inserted promotion")
		}
	}
	g.releaseAll(ctx, codes)
}
