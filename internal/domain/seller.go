package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Seller is a vendor account as the moderation views see it. Exactly one
// Status holds at a time; the upstream boolean flags are folded into it on decode.
type Seller struct {
	ID               string    `json:"id"`
	ShopName         string    `json:"shopName"`
	OwnerName        string    `json:"ownerName,omitempty"`
	Email            string    `json:"email,omitempty"`
	Status           Status    `json:"status"`
	RejectionReason  string    `json:"rejectionReason,omitempty"`
	SuspensionReason string    `json:"suspensionReason,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s Seller) EntityID() string       { return s.ID }
func (s Seller) EntityState() Status    { return s.Status }
func (s Seller) EntityKind() EntityType { return EntitySeller }

func (s *Seller) UnmarshalJSON(data []byte) error {
	type alias Seller
	var raw struct {
		alias
		IsApproved  *bool           `json:"isApproved"`
		IsSuspended *bool           `json:"isSuspended"`
		CreatedAt   json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Seller(raw.alias)
	s.CreatedAt = looseTime(raw.CreatedAt)
	if s.Status == StatusNone {
		s.Status = deriveSellerStatus(raw.IsApproved, raw.IsSuspended, s.RejectionReason)
	}
	return nil
}

func deriveSellerStatus(approved, suspended *bool, rejectionReason string) Status {
	switch {
	case suspended != nil && *suspended:
		return SellerStatusSuspended
	case approved != nil && *approved:
		return SellerStatusApproved
	case rejectionReason != "":
		return SellerStatusRejected
	}
	return SellerStatusPending
}

func (s Seller) ValidateChange(next Seller) error {
	if s.Status != next.Status {
		if err := ValidateTransition(EntitySeller, s.Status, next.Status); err != nil {
			return err
		}
	}
	switch next.Status {
	case SellerStatusRejected:
		if next.RejectionReason == "" {
			return NewValidationError("reason", "a rejection reason is required")
		}
	case SellerStatusApproved:
		if next.RejectionReason != "" || next.SuspensionReason != "" {
			return &InvalidTransitionError{Entity: EntitySeller, From: s.Status, To: next.Status,
				Reason: "an approved seller cannot carry a rejection or suspension reason"}
		}
	case SellerStatusSuspended:
		if next.SuspensionReason == "" {
			return NewValidationError("reason", "a suspension reason is required")
		}
	}
	return nil
}

type SellerRepository interface {
	List(ctx context.Context) ([]Seller, error)
	// SetStatus calls PUT /admin/sellers/{id}/{action}.
	SetStatus(ctx context.Context, id, action, reason string) (*Seller, error)
}

// Seller moderation actions as the upstream names them.
const (
	SellerActionApprove  = "approve"
	SellerActionReject   = "reject"
	SellerActionSuspend  = "suspend"
	SellerActionActivate = "activate"
)
