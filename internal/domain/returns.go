package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Return reason categories offered to the customer.
var ReturnReasonCategories = []string{
	"damaged",
	"wrong_item",
	"size_issue",
	"quality_issue",
	"not_as_described",
	"other",
}

// ReturnRequest is a customer's return or replacement request for a delivered order.
type ReturnRequest struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"orderId"`
	CustomerID       string         `json:"customerId,omitempty"`
	SellerID         string         `json:"sellerId,omitempty"`
	Type             string         `json:"type"` // return, replacement
	ReasonCategory   string         `json:"reasonCategory"`
	ReasonText       string         `json:"reasonText"`
	RefundMethod     string         `json:"refundMethod,omitempty"`
	RefundDetails    PaymentDetails `json:"refundDetails"`
	Status           Status         `json:"status"`
	PickupTrackingID string         `json:"pickupTrackingId,omitempty"`
	RejectionReason  string         `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

func (r *ReturnRequest) UnmarshalJSON(data []byte) error {
	type alias ReturnRequest
	var raw struct {
		alias
		CreatedAt json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ReturnRequest(raw.alias)
	r.CreatedAt = looseTime(raw.CreatedAt)
	return nil
}

func (r ReturnRequest) EntityID() string       { return r.ID }
func (r ReturnRequest) EntityState() Status    { return r.Status }
func (r ReturnRequest) EntityKind() EntityType { return EntityReturn }

// Open reports whether the request still blocks a new one for the same order.
func (r ReturnRequest) Open() bool {
	return r.Status != ReturnStatusClosed
}

func (r ReturnRequest) ValidateChange(next ReturnRequest) error {
	if r.Status != next.Status {
		if err := ValidateTransition(EntityReturn, r.Status, next.Status); err != nil {
			return err
		}
	}
	if r.OrderID != next.OrderID || r.Type != next.Type {
		return &InvalidTransitionError{Entity: EntityReturn, From: r.Status, To: next.Status,
			Reason: "order and request type cannot change"}
	}
	return nil
}

// CreateReturnReq is the body of POST /returns.
type CreateReturnReq struct {
	OrderID        string         `json:"orderId"`
	Type           string         `json:"type"`
	ReasonCategory string         `json:"reasonCategory"`
	ReasonText     string         `json:"reasonText"`
	RefundMethod   string         `json:"refundMethod,omitempty"`
	RefundDetails  PaymentDetails `json:"refundDetails"`
}

type ReturnRepository interface {
	ListAdmin(ctx context.Context) ([]ReturnRequest, error)
	ListMine(ctx context.Context) ([]ReturnRequest, error)
	Create(ctx context.Context, req CreateReturnReq) (*ReturnRequest, error)
	Approve(ctx context.Context, id string) (*ReturnRequest, error)
	Reject(ctx context.Context, id, reason string) (*ReturnRequest, error)
	ReversePickup(ctx context.Context, orderID string) (*ReturnRequest, error)
}
