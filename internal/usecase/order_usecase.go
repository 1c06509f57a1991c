package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
)

type OrderUsecase struct {
	orderRepo domain.OrderRepository
	store     *Store[domain.Order]
	now       func() time.Time
}

func NewOrderUsecase(repo domain.OrderRepository, recorder domain.TransitionRecorder, reconcileTimeout time.Duration) *OrderUsecase {
	return &OrderUsecase{
		orderRepo: repo,
		store:     NewStore(domain.EntityOrder, domain.Order.ValidateChange, recorder, reconcileTimeout),
		now:       time.Now,
	}
}

// --- Read side ---

func (u *OrderUsecase) RefreshMine(ctx context.Context) ([]domain.Order, error) {
	orders, err := u.orderRepo.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	u.store.Load(orders)
	return u.merged(orders), nil
}

func (u *OrderUsecase) RefreshSeller(ctx context.Context) ([]domain.Order, error) {
	orders, err := u.orderRepo.ListSeller(ctx)
	if err != nil {
		return nil, err
	}
	u.store.Load(orders)
	return u.merged(orders), nil
}

func (u *OrderUsecase) RefreshAdmin(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	since := u.store.Generation()
	orders, total, err := u.orderRepo.ListAdmin(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if completeListing(filter.Status, filter.Search, len(orders), total) {
		u.store.Replace(func(domain.Order) bool { return true }, orders, since)
	} else {
		u.store.Load(orders)
	}
	return u.merged(orders), total, nil
}

// merged swaps fetched records for their optimistic version where one exists.
func (u *OrderUsecase) merged(fetched []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(fetched))
	for _, o := range fetched {
		if cur, ok := u.store.Get(o.ID); ok {
			o = cur
		}
		out = append(out, o)
	}
	return out
}

func (u *OrderUsecase) Get(id string) (domain.Order, error) {
	o, ok := u.store.Get(id)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

// List filters the cached collection by status and a free-text search over
// order number and id.
func (u *OrderUsecase) List(filter domain.OrderFilter) []domain.Order {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	return u.store.Filter(func(o domain.Order) bool {
		if filter.Status != "" && string(o.Status) != filter.Status {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(o.ID), search) {
			return false
		}
		return true
	})
}

func (u *OrderUsecase) All() []domain.Order {
	return u.store.List()
}

func (u *OrderUsecase) Counts() map[domain.Status]int {
	return u.store.Counts()
}

// RefundAvailable reports whether the refund action should be offered for id.
func (u *OrderUsecase) RefundAvailable(id string) bool {
	o, ok := u.store.Get(id)
	return ok && o.RefundAvailable()
}

// --- Seller ---

// UpdateStatus moves an order along its fulfilment chain. A pending
// cancellation request freezes the order until an admin decides it.
func (u *OrderUsecase) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if cur.LockedForSeller() {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: status,
			Reason: "order is locked while a cancellation request is pending"}
	}
	if err := requireMove(domain.EntityOrder, cur.Status, status); err != nil {
		return nil, err
	}

	next := cur.Clone()
	next.Status = status
	effects := domain.SideEffectsFor(domain.Transition{
		Entity:        domain.EntityOrder,
		From:          cur.Status,
		To:            status,
		PaymentMethod: cur.PaymentMethod,
		Amount:        cur.TotalPrice,
	})
	if domain.HasEffect(effects, domain.EffectTriggerRefund) && next.RefundStatus != domain.RefundStatusRefunded {
		next.RefundStatus = domain.RefundStatusPending
	}
	if status == domain.OrderStatusDelivered {
		t := u.now()
		next.DeliveredAt = &t
	}

	logger.WithContext(ctx).Info().
		Str("order_id", id).
		Str("from", string(cur.Status)).
		Str("to", string(status)).
		Msg("Updating order status")

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.UpdateStatus(ctx, id, status)
	})
}

// CreateShipment books a courier for a confirmed or processing order.
func (u *OrderUsecase) CreateShipment(ctx context.Context, id, courier string) (*domain.Order, error) {
	courier = strings.TrimSpace(courier)
	if courier == "" {
		return nil, domain.NewValidationError("courier", "courier is required")
	}
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if cur.Status != domain.OrderStatusConfirmed && cur.Status != domain.OrderStatusProcessing {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: cur.Status,
			Reason: "shipments can only be created for confirmed or processing orders"}
	}
	if cur.Shipment != nil && cur.Shipment.Status != domain.ShipmentStatusCancelled {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: cur.Status,
			Reason: "order already has an active shipment"}
	}

	next := cur.Clone()
	next.Shipment = &domain.Shipment{Courier: courier, Status: domain.ShipmentStatusCreated}

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.CreateShipment(ctx, id, courier)
	})
}

// CancelShipment withdraws a shipment the courier has not picked up yet.
func (u *OrderUsecase) CancelShipment(ctx context.Context, id string) (*domain.Order, error) {
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if cur.Shipment == nil || cur.Shipment.Status != domain.ShipmentStatusCreated {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: cur.Status,
			Reason: "only a freshly created shipment can be cancelled"}
	}

	next := cur.Clone()
	next.Shipment.Status = domain.ShipmentStatusCancelled

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.CancelShipment(ctx, id)
	})
}

// --- Customer ---

// RequestCancellation flags the order for admin review and locks it against
// seller edits until the admin decides.
func (u *OrderUsecase) RequestCancellation(ctx context.Context, id, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "a cancellation reason is required")
	}
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if cur.CancellationRequested {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: domain.OrderCancellationRequested,
			Reason: "cancellation already requested"}
	}

	next := cur.Clone()
	next.CancellationRequested = true
	next.CancellationReason = reason

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.RequestCancel(ctx, id, reason)
	})
}

// --- Admin ---

func (u *OrderUsecase) ApproveCancellation(ctx context.Context, id string) (*domain.Order, error) {
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if !cur.CancellationRequested {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: domain.OrderStatusCancelled,
			Reason: "no cancellation request is pending"}
	}
	if err := requireMove(domain.EntityOrder, cur.Status, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}

	next := cur.Clone()
	next.Status = domain.OrderStatusCancelled
	effects := domain.SideEffectsFor(domain.Transition{
		Entity:        domain.EntityOrder,
		From:          cur.Status,
		To:            domain.OrderStatusCancelled,
		PaymentMethod: cur.PaymentMethod,
		Amount:        cur.TotalPrice,
	})
	if domain.HasEffect(effects, domain.EffectTriggerRefund) {
		next.RefundStatus = domain.RefundStatusPending
	}

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.ApproveCancel(ctx, id)
	})
}

// Refund pays back a cancelled online order. COD orders never collected money.
func (u *OrderUsecase) Refund(ctx context.Context, id string) (*domain.Order, error) {
	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if !cur.RefundAvailable() {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityOrder, From: cur.Status, To: domain.OrderRefunded,
			Reason: "refunds apply only to cancelled, not yet refunded orders paid online"}
	}

	next := cur.Clone()
	next.RefundStatus = domain.RefundStatusRefunded
	next.PaymentStatus = domain.PaymentStatusRefunded

	return u.run(ctx, id, next, func(ctx context.Context) (*domain.Order, error) {
		return u.orderRepo.Refund(ctx, id)
	})
}

func (u *OrderUsecase) run(ctx context.Context, id string, next domain.Order, call func(ctx context.Context) (*domain.Order, error)) (*domain.Order, error) {
	got, err := u.store.Run(ctx, id, next, func(ctx context.Context) (domain.Order, error) {
		o, err := call(ctx)
		if err != nil {
			return domain.Order{}, err
		}
		if o == nil || o.ID == "" {
			// Upstream answered without a body; keep what we proposed.
			return next, nil
		}
		return *o, nil
	})
	if err != nil {
		return nil, err
	}
	return &got, nil
}
