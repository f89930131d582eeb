package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PromotionType determines how a promotion's value is interpreted.
type PromotionType string

const (
	TypePercentage PromotionType = "percentage"
	TypeFixed      PromotionType = "fixed"
	TypeShipping   PromotionType = "shipping"
	TypeBogo       PromotionType = "bogo"
)

// Valid reports whether t is one of the supported promotion types.
func (t PromotionType) Valid() bool {
	switch t {
	case TypePercentage, TypeFixed, TypeShipping, TypeBogo:
		return true
	}
	return false
}

// PromotionStatus is the derived lifecycle state of a promotion.
// It is always recomputed from the active flag, the date range and the
// usage counters; a stored status column is a cache, never the source of truth.
type PromotionStatus string

const (
	StatusDraft     PromotionStatus = "draft"
	StatusScheduled PromotionStatus = "scheduled"
	StatusActive    PromotionStatus = "active"
	StatusExpired   PromotionStatus = "expired"
	StatusPaused    PromotionStatus = "paused"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s PromotionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusActive, StatusExpired, StatusPaused:
		return true
	}
	return false
}

// SegmentAll is the wildcard entry matching any customer group or
// product category.
const SegmentAll = "all"

// Promotion represents a discount rule identified by a unique code.
type Promotion struct {
	ID                    uuid.UUID     `json:"id" db:"id"`
	Name                  string        `json:"name" db:"name"`
	Code                  string        `json:"code" db:"code"`
	Type                  PromotionType `json:"type" db:"type"`
	Value                 float64       `json:"value" db:"value"`
	Active                bool          `json:"activeFlag" db:"active"`
	StartDate             time.Time     `json:"startDate" db:"start_date"`
	EndDate               time.Time     `json:"endDate" db:"end_date"`
	UsageCount            int           `json:"usageCount" db:"usage_count"`
	UsageLimit            *int          `json:"usageLimit,omitempty" db:"usage_limit"`
	UsageLimitPerCustomer *int          `json:"usageLimitPerCustomer,omitempty" db:"usage_limit_per_customer"`
	MinOrderValue         *float64      `json:"minOrderValue,omitempty" db:"min_order_value"`
	CustomerGroups        []string      `json:"customerGroups" db:"customer_groups"`
	ProductCategories     []string      `json:"productCategories" db:"product_categories"`
	FirstTimeOnly         bool          `json:"firstTimeOnly" db:"first_time_only"`
	CreatedAt             time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time     `json:"updatedAt" db:"updated_at"`

	// Status is populated from the lifecycle classifier on read paths.
	// It is never written to storage.
	Status PromotionStatus `json:"status,omitempty" db:"-"`
}

// NormalizeCode canonicalises a coupon code for storage and matching.
// Codes are matched case-insensitively, so they are stored trimmed and
// upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromotionDraft is the request payload for creating a single promotion.
type PromotionDraft struct {
	Name                  string        `json:"name"`
	Code                  string        `json:"code"`
	Type                  PromotionType `json:"type"`
	Value                 float64       `json:"value"`
	Active                bool          `json:"activeFlag"`
	StartDate             time.Time     `json:"startDate"`
	EndDate               time.Time     `json:"endDate"`
	UsageLimit            *int          `json:"usageLimit,omitempty"`
	UsageLimitPerCustomer *int          `json:"usageLimitPerCustomer,omitempty"`
	MinOrderValue         *float64      `json:"minOrderValue,omitempty"`
	CustomerGroups        []string      `json:"customerGroups,omitempty"`
	ProductCategories     []string      `json:"productCategories,omitempty"`
	FirstTimeOnly         bool          `json:"firstTimeOnly"`
}

// Validate checks the draft's required fields and date ordering.
func (d *PromotionDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(d.Code) == "" {
		return ErrMissingCode
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return ErrMissingDates
	}
	if d.EndDate.Before(d.StartDate) {
		return ErrInvalidDateRange
	}
	switch d.Type {
	case TypePercentage:
		if d.Value <= 0 || d.Value > 100 {
			return ErrInvalidValue
		}
	case TypeFixed:
		if d.Value <= 0 {
			return ErrInvalidValue
		}
	}
	return nil
}

// PromotionTemplate is the shared shape for bulk generation: a promotion
// minus its id and code, both of which are assigned per generated entry.
type PromotionTemplate struct {
	Name                  string        `json:"name"`
	Type                  PromotionType `json:"type"`
	Value                 float64       `json:"value"`
	Active                bool          `json:"activeFlag"`
	StartDate             time.Time     `json:"startDate"`
	EndDate               time.Time     `json:"endDate"`
	UsageLimit            *int          `json:"usageLimit,omitempty"`
	UsageLimitPerCustomer *int          `json:"usageLimitPerCustomer,omitempty"`
	MinOrderValue         *float64      `json:"minOrderValue,omitempty"`
	CustomerGroups        []string      `json:"customerGroups,omitempty"`
	ProductCategories     []string      `json:"productCategories,omitempty"`
	FirstTimeOnly         bool          `json:"firstTimeOnly"`
}

// Validate checks the template's required fields and date ordering.
func (t *PromotionTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrMissingName
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return ErrMissingDates
	}
	if t.EndDate.Before(t.StartDate) {
		return ErrInvalidDateRange
	}
	switch t.Type {
	case TypePercentage:
		if t.Value <= 0 || t.Value > 100 {
			return ErrInvalidValue
		}
	case TypeFixed:
		if t.Value <= 0 {
			return ErrInvalidValue
		}
	}
	return nil
}

// BulkRequest is the request payload for bulk generation.
type BulkRequest struct {
	Template PromotionTemplate `json:"template"`
	Codes    []string          `json:"codes"`
}

// PromotionPatch is a partial update. Nil fields are left unchanged.
// Code and ID are immutable after creation; a patch carrying either is
// rejected.
type PromotionPatch struct {
	ID                    *string        `json:"id,omitempty"`
	Code                  *string        `json:"code,omitempty"`
	Name                  *string        `json:"name,omitempty"`
	Value                 *float64       `json:"value,omitempty"`
	Active                *bool          `json:"activeFlag,omitempty"`
	StartDate             *time.Time     `json:"startDate,omitempty"`
	EndDate               *time.Time     `json:"endDate,omitempty"`
	UsageLimit            *int           `json:"usageLimit,omitempty"`
	UsageLimitPerCustomer *int           `json:"usageLimitPerCustomer,omitempty"`
	MinOrderValue         *float64       `json:"minOrderValue,omitempty"`
	CustomerGroups        *[]string      `json:"customerGroups,omitempty"`
	ProductCategories     *[]string      `json:"productCategories,omitempty"`
	FirstTimeOnly         *bool          `json:"firstTimeOnly,omitempty"`
}

// ListFilter narrows a promotion listing. Status is matched against the
// classifier's derived status at read time; Type is matched against the
// stored type.
type ListFilter struct {
	Status *PromotionStatus
	Type   *PromotionType
}
