package engine

import (
	"time"

	"promo-engine/internal/model"
)

// Classify derives a promotion's lifecycle status at the given instant.
// It is a pure function of the admin flag, the date range and the usage
// counters; callers re-derive it on every read instead of trusting a
// stored value.
//
// Precedence: an inactive flag wins over everything, then the date range,
// then the usage cap. The date range is inclusive on both ends.
func Classify(p *model.Promotion, now time.Time) model.PromotionStatus {
	if !p.Active {
		return model.StatusDraft
	}
	if now.Before(p.StartDate) {
		return model.StatusScheduled
	}
	if now.After(p.EndDate) {
		return model.StatusExpired
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return model.StatusPaused
	}
	return model.StatusActive
}
