package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Product is a listing awaiting or past admin moderation.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	SellerID        string          `json:"sellerId"`
	Price           decimal.Decimal `json:"price"`
	Status          Status          `json:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (p Product) EntityID() string       { return p.ID }
func (p Product) EntityState() Status    { return p.Status }
func (p Product) EntityKind() EntityType { return EntityProduct }

func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var raw struct {
		alias
		IsApproved *bool           `json:"isApproved"`
		CreatedAt  json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.alias)
	p.CreatedAt = looseTime(raw.CreatedAt)
	if p.Status == StatusNone {
		switch {
		case raw.IsApproved != nil && *raw.IsApproved:
			p.Status = ProductStatusApproved
		case p.RejectionReason != "":
			p.Status = ProductStatusRejected
		default:
			p.Status = ProductStatusPending
		}
	}
	return nil
}

func (p Product) ValidateChange(next Product) error {
	if p.Status != next.Status {
		if err := ValidateTransition(EntityProduct, p.Status, next.Status); err != nil {
			return err
		}
	}
	if next.Status == ProductStatusApproved && next.RejectionReason != "" {
		return &InvalidTransitionError{Entity: EntityProduct, From: p.Status, To: next.Status,
			Reason: "an approved product cannot carry a rejection reason"}
	}
	if next.Status == ProductStatusRejected && next.RejectionReason == "" {
		return NewValidationError("reason", "a rejection reason is required")
	}
	return nil
}

// BulkItemResult is the server's verdict on one id of a bulk moderation call.
type BulkItemResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Product *Product `json:"product,omitempty"`
}

type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	BulkApprove(ctx context.Context, ids []string) ([]BulkItemResult, error)
	BulkReject(ctx context.Context, ids []string, reason string) ([]BulkItemResult, error)
	Delete(ctx context.Context, id string) error
}
