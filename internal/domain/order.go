package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type OrderFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// --- Order Entities ---

type Order struct {
	ID                    string          `json:"id"`
	OrderNumber           string          `json:"orderNumber"`
	CustomerID            string          `json:"customerId"`
	SellerID              string          `json:"sellerId"`
	Items                 []OrderItem     `json:"items"`
	TotalPrice            decimal.Decimal `json:"totalPrice"`
	PaymentMethod         string          `json:"paymentMethod"` // cod, online
	PaymentStatus         string          `json:"paymentStatus"`
	Status                Status          `json:"status"`
	CancellationRequested bool            `json:"cancellationRequested"`
	CancellationReason    string          `json:"cancellationReason,omitempty"`
	RefundStatus          string          `json:"refundStatus"`
	Shipment              *Shipment       `json:"shipment,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	DeliveredAt           *time.Time      `json:"deliveredAt,omitempty"`
}

func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	var raw struct {
		alias
		CreatedAt   json.RawMessage `json:"createdAt"`
		DeliveredAt json.RawMessage `json:"deliveredAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Order(raw.alias)
	o.CreatedAt = looseTime(raw.CreatedAt)
	o.DeliveredAt = looseTimePtr(raw.DeliveredAt)
	return nil
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type Shipment struct {
	Courier           string `json:"courier"`
	TrackingID        string `json:"trackingId"`
	Status            string `json:"status"`
	ReturningToOrigin bool   `json:"isRTO"`
}

func (o Order) EntityID() string       { return o.ID }
func (o Order) EntityState() Status    { return o.Status }
func (o Order) EntityKind() EntityType { return EntityOrder }

// Clone copies the order so edits never reach the original's slices or pointers.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	if o.Shipment != nil {
		s := *o.Shipment
		c.Shipment = &s
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return c
}

// RefundAvailable reports whether an admin may trigger a refund now.
func (o Order) RefundAvailable() bool {
	return o.Status == OrderStatusCancelled &&
		o.PaymentMethod != PaymentMethodCOD &&
		o.RefundStatus != RefundStatusRefunded
}

// LockedForSeller is true while the customer's cancellation request awaits an admin.
func (o Order) LockedForSeller() bool {
	return o.CancellationRequested && o.Status != OrderStatusCancelled
}

// ValidateChange checks that next is a legal successor of o.
func (o Order) ValidateChange(next Order) error {
	if o.Status != next.Status {
		if o.LockedForSeller() && next.Status != OrderStatusCancelled {
			return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: next.Status,
				Reason: "order is locked while a cancellation request is pending"}
		}
		if err := ValidateTransition(EntityOrder, o.Status, next.Status); err != nil {
			return err
		}
	}

	if !o.CancellationRequested && next.CancellationRequested {
		if o.Status != next.Status || !IsCancellable(o.Status) {
			return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: OrderCancellationRequested,
				Reason: "cancellation can only be requested before the order ships"}
		}
	}
	if o.CancellationRequested && !next.CancellationRequested && o.Status != OrderStatusCancelled {
		return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: next.Status,
			Reason: "a pending cancellation request can only be resolved by an admin"}
	}

	if o.RefundStatus != next.RefundStatus {
		if o.RefundStatus == RefundStatusRefunded {
			return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: next.Status,
				Reason: "refund already completed"}
		}
		if next.RefundStatus == RefundStatusRefunded &&
			(next.Status != OrderStatusCancelled || next.PaymentMethod == PaymentMethodCOD) {
			return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: OrderRefunded,
				Reason: "refunds apply only to cancelled orders paid online"}
		}
	}

	if o.LockedForSeller() && !sameShipment(o.Shipment, next.Shipment) {
		return &InvalidTransitionError{Entity: EntityOrder, From: o.Status, To: next.Status,
			Reason: "shipment is locked while a cancellation request is pending"}
	}
	return nil
}

func sameShipment(a, b *Shipment) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- Interfaces ---

type OrderRepository interface {
	ListMine(ctx context.Context) ([]Order, error)
	ListSeller(ctx context.Context) ([]Order, error)
	ListAdmin(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	RequestCancel(ctx context.Context, id, reason string) (*Order, error)
	ApproveCancel(ctx context.Context, id string) (*Order, error)
	Refund(ctx context.Context, id string) (*Order, error)
	CreateShipment(ctx context.Context, id string, courier string) (*Order, error)
	CancelShipment(ctx context.Context, id string) (*Order, error)
}
