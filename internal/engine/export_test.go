package engine

import (
	"testing"
	"time"

	"promo-engine/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRows(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	limit := 100
	minOrder := 25.5

	id1 := uuid.New()
	id2 := uuid.New()

	promotions := []model.Promotion{
		{
			ID:                id1,
			Name:              "Summer Sale",
			Code:              "SUMMER20",
			Type:              model.TypePercentage,
			Value:             20,
			Active:            true,
			StartDate:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			UsageCount:        7,
			UsageLimit:        &limit,
			MinOrderValue:     &minOrder,
			CustomerGroups:    []string{"vip", "regular"},
			ProductCategories: []string{"all"},
			FirstTimeOnly:     true,
		},
		{
			ID:                id2,
			Name:              "Welcome",
			Code:              "WELCOME5",
			Type:              model.TypeFixed,
			Value:             5,
			Active:            false,
			StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			CustomerGroups:    []string{"all"},
			ProductCategories: []string{"books"},
		},
	}

	rows := ExportRows(promotions, now)

	require.Len(t, rows, 3)
	assert.Equal(t, ExportHeader, rows[0])

	assert.Equal(t, []string{
		id1.String(),
		"Summer Sale",
		"SUMMER20",
		"percentage",
		"20",
		"active",
		"2026-06-01",
		"2026-06-30",
		"7",
		"100",
		"25.50",
		"vip, regular",
		"all",
		"Yes",
	}, rows[1])

	assert.Equal(t, []string{
		id2.String(),
		"Welcome",
		"WELCOME5",
		"fixed",
		"5",
		"draft",
		"2026-01-01",
		"2026-12-31",
		"0",
		"Unlimited",
		"None",
		"all",
		"books",
		"No",
	}, rows[2])
}

func TestExportRows_Empty(t *testing.T) {
	rows := ExportRows(nil, time.Now())

	require.Len(t, rows, 1)
	assert.Equal(t, ExportHeader, rows[0])
}

func TestExportRows_DoesNotMutate(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	p := model.Promotion{
		ID:        uuid.New(),
		Name:      "Immutable",
		Code:      "FROZEN1",
		Type:      model.TypeShipping,
		Active:    true,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
	before := p

	ExportRows([]model.Promotion{p}, now)

	assert.Equal(t, before, p)
}
