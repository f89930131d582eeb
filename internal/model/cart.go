package model

// CartItem is a single line in the cart being evaluated.
type CartItem struct {
	ProductID string  `json:"productId"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// CartContext is the cart snapshot supplied with an eligibility request.
type CartContext struct {
	Items        []CartItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	ShippingCost float64    `json:"shippingCost"`
}

// CustomerContext identifies the acting customer for an eligibility request.
type CustomerContext struct {
	ID              string   `json:"id"`
	Segments        []string `json:"segments"`
	CompletedOrders int      `json:"completedOrders"`
}

// EvaluationRequest is a redemption-preview request.
type EvaluationRequest struct {
	Code     string          `json:"code"`
	Customer CustomerContext `json:"customerContext"`
	Cart     CartContext     `json:"cartContext"`
}

// IneligibleReason is the structured reason an evaluation came back negative.
type IneligibleReason string

const (
	ReasonNotFound                IneligibleReason = "NotFound"
	ReasonNotActive               IneligibleReason = "NotActive"
	ReasonUsageLimitReached       IneligibleReason = "UsageLimitReached"
	ReasonPerCustomerLimitReached IneligibleReason = "PerCustomerLimitReached"
	ReasonBelowMinimumOrderValue  IneligibleReason = "BelowMinimumOrderValue"
	ReasonCustomerGroupMismatch   IneligibleReason = "CustomerGroupMismatch"
	ReasonCategoryMismatch        IneligibleReason = "CategoryMismatch"
	ReasonFirstTimeOnlyViolation  IneligibleReason = "FirstTimeOnlyViolation"
)

// Evaluation is the outcome of an eligibility check. An ineligible outcome
// is a normal result, not an error: callers branch on Reason.
type Evaluation struct {
	Eligible         bool             `json:"eligible"`
	Reason           IneligibleReason `json:"reason,omitempty"`
	DiscountAmount   float64          `json:"discountAmount"`
	EligibleSubtotal float64          `json:"eligibleSubtotal"`
}

// Ineligible builds a negative evaluation with the given reason.
func Ineligible(reason IneligibleReason) *Evaluation {
	return &Evaluation{Eligible: false, Reason: reason}
}
