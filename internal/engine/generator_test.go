package engine

import (
	"context"
	"testing"
	"time"

	"promo-engine/internal/model"
	"promo-engine/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate() *model.PromotionTemplate {
	return &model.PromotionTemplate{
		Name:      "Spring Sale",
		Type:      model.TypePercentage,
		Value:     15,
		Active:    true,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerator_Generate_Success(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())
	ctx := context.Background()

	created, err := g.Generate(ctx, testTemplate(), []string{"SPRING1", "SPRING2", "SPRING3"})

	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Equal(t, "Spring Sale - SPRING1", created[0].Name)
	assert.Equal(t, "SPRING1", created[0].Code)
	assert.Equal(t, model.TypePercentage, created[0].Type)
	assert.Equal(t, 15.0, created[0].Value)
	assert.Equal(t, 0, created[0].UsageCount)

	// All three are retrievable from the store.
	for _, code := range []string{"SPRING1", "SPRING2", "SPRING3"} {
		p, err := store.GetByCode(ctx, code)
		require.NoError(t, err)
		require.NotNil(t, p, "code %s should exist", code)
	}
}

func TestGenerator_Generate_EmptyBatch(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())

	created, err := g.Generate(context.Background(), testTemplate(), nil)

	require.Error(t, err)
	assert.Equal(t, model.ErrEmptyBatch, err)
	assert.Nil(t, created)
}

func TestGenerator_Generate_BlankCode(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())

	_, err := g.Generate(context.Background(), testTemplate(), []string{"SPRING1", "   "})

	require.Error(t, err)
	assert.Equal(t, model.ErrMissingCode, err)
}

func TestGenerator_Generate_ExistingCodeRejectsWholeBatch(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	// A1 already exists.
	existing := activePromotion("A1")
	seedPromotion(t, store, existing)

	g := NewGenerator(store, store, zerolog.Nop())

	created, err := g.Generate(ctx, testTemplate(), []string{"A1", "A2"})

	require.Error(t, err)
	assert.Nil(t, created)

	var dupErr *model.DuplicateCodeError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []string{"A1"}, dupErr.Codes)

	// Neither code got created; A2's reservation was rolled back.
	p, err := store.GetByCode(ctx, "A2")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, store.Reserve(ctx, "A2"))
}

func TestGenerator_Generate_ReportsAllConflicts(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	ctx := context.Background()

	seedPromotion(t, store, activePromotion("TAKEN1"))
	seedPromotion(t, store, activePromotion("TAKEN2"))

	g := NewGenerator(store, store, zerolog.Nop())

	_, err := g.Generate(ctx, testTemplate(), []string{"TAKEN1", "FRESH1", "TAKEN2"})

	var dupErr *model.DuplicateCodeError
	require.ErrorAs(t, err, &dupErr)
	assert.ElementsMatch(t, []string{"TAKEN1", "TAKEN2"}, dupErr.Codes)

	p, err := store.GetByCode(ctx, "FRESH1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGenerator_Generate_IntraBatchDuplicate(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())
	ctx := context.Background()

	// The same code twice in one batch, differing only by case.
	_, err := g.Generate(ctx, testTemplate(), []string{"DOUBLE1", "double1"})

	var dupErr *model.DuplicateCodeError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []string{"DOUBLE1"}, dupErr.Codes)

	p, err := store.GetByCode(ctx, "DOUBLE1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGenerator_Generate_InvalidTemplate(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())

	tmpl := testTemplate()
	tmpl.StartDate = tmpl.EndDate.Add(24 * time.Hour)

	_, err := g.Generate(context.Background(), tmpl, []string{"SPRING1"})

	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidDateRange, err)
}

func TestGenerator_Generate_UsageLimitDefaultsToPerCustomer(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())

	tmpl := testTemplate()
	perCustomer := 2
	tmpl.UsageLimitPerCustomer = &perCustomer

	created, err := g.Generate(context.Background(), tmpl, []string{"LIMITED1"})

	require.NoError(t, err)
	require.Len(t, created, 1)
	require.NotNil(t, created[0].UsageLimit)
	assert.Equal(t, 2, *created[0].UsageLimit)
	require.NotNil(t, created[0].UsageLimitPerCustomer)
	assert.Equal(t, 2, *created[0].UsageLimitPerCustomer)
}

func TestGenerator_Generate_ExplicitUsageLimitKept(t *testing.T) {
	store := repository.NewMemoryStore(zerolog.Nop())
	g := NewGenerator(store, store, zerolog.Nop())

	tmpl := testTemplate()
	total, perCustomer := 100, 2
	tmpl.UsageLimit = &total
	tmpl.UsageLimitPerCustomer = &perCustomer

	created, err := g.Generate(context.Background(), tmpl, []string{"LIMITED2"})

	require.NoError(t, err)
	require.NotNil(t, created[0].UsageLimit)
	assert.Equal(t, 100, *created[0].UsageLimit)
}
