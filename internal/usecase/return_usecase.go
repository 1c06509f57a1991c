package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/utils"
)

type ReturnUsecase struct {
	returnRepo domain.ReturnRepository
	orders     *OrderUsecase
	store      *Store[domain.ReturnRequest]
	window     time.Duration

	// createMu keeps the one-open-request-per-order check and the insert together.
	createMu sync.Mutex
	now      func() time.Time
}

func NewReturnUsecase(repo domain.ReturnRepository, orders *OrderUsecase, recorder domain.TransitionRecorder, windowDays int, reconcileTimeout time.Duration) *ReturnUsecase {
	if windowDays <= 0 {
		windowDays = 10
	}
	return &ReturnUsecase{
		returnRepo: repo,
		orders:     orders,
		store:      NewStore(domain.EntityReturn, domain.ReturnRequest.ValidateChange, recorder, reconcileTimeout),
		window:     time.Duration(windowDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

func (u *ReturnUsecase) RefreshAdmin(ctx context.Context) ([]domain.ReturnRequest, error) {
	since := u.store.Generation()
	items, err := u.returnRepo.ListAdmin(ctx)
	if err != nil {
		return nil, err
	}
	u.store.Replace(func(domain.ReturnRequest) bool { return true }, items, since)
	return u.store.List(), nil
}

func (u *ReturnUsecase) RefreshMine(ctx context.Context, customerID string) ([]domain.ReturnRequest, error) {
	since := u.store.Generation()
	items, err := u.returnRepo.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].CustomerID == "" {
			items[i].CustomerID = customerID
		}
	}
	mine := func(r domain.ReturnRequest) bool { return r.CustomerID == customerID }
	u.store.Replace(mine, items, since)
	return u.store.Filter(mine), nil
}

func (u *ReturnUsecase) List(status string) []domain.ReturnRequest {
	return u.store.Filter(func(r domain.ReturnRequest) bool {
		return status == "" || string(r.Status) == status
	})
}

// ForSeller lists the cached requests against one seller's orders.
func (u *ReturnUsecase) ForSeller(sellerID string) []domain.ReturnRequest {
	return u.store.Filter(func(r domain.ReturnRequest) bool { return r.SellerID == sellerID })
}

func (u *ReturnUsecase) Get(id string) (domain.ReturnRequest, error) {
	r, ok := u.store.Get(id)
	if !ok {
		return domain.ReturnRequest{}, fmt.Errorf("return %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (u *ReturnUsecase) Counts() map[domain.Status]int {
	return u.store.Counts()
}

// Eligible explains why orderID cannot take a new return request, or returns nil.
func (u *ReturnUsecase) Eligible(orderID string) error {
	order, err := u.orders.Get(orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusDelivered {
		return &domain.InvalidTransitionError{Entity: domain.EntityReturn, From: domain.StatusNone, To: domain.ReturnStatusPending,
			Reason: "returns can only be requested for delivered orders"}
	}
	if order.DeliveredAt == nil || u.now().Sub(*order.DeliveredAt) > u.window {
		return &domain.InvalidTransitionError{Entity: domain.EntityReturn, From: domain.StatusNone, To: domain.ReturnStatusPending,
			Reason: fmt.Sprintf("the return window of %d days has passed", int(u.window.Hours()/24))}
	}
	open := u.store.Filter(func(r domain.ReturnRequest) bool { return r.OrderID == orderID && r.Open() })
	if len(open) > 0 {
		return &domain.InvalidTransitionError{Entity: domain.EntityReturn, From: domain.StatusNone, To: domain.ReturnStatusPending,
			Reason: "a return request for this order is already open"}
	}
	return nil
}

// Create files a return or replacement request for a delivered order.
func (u *ReturnUsecase) Create(ctx context.Context, customerID string, req domain.CreateReturnReq) (*domain.ReturnRequest, error) {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Type != domain.ReturnTypeReturn && req.Type != domain.ReturnTypeReplacement {
		return nil, domain.NewValidationError("type", "type must be return or replacement")
	}
	if !slices.Contains(domain.ReturnReasonCategories, req.ReasonCategory) {
		return nil, domain.NewValidationError("reasonCategory", "unknown reason category")
	}
	if req.ReasonCategory == "other" && strings.TrimSpace(req.ReasonText) == "" {
		return nil, domain.NewValidationError("reasonText", "please describe the problem")
	}
	if req.Type == domain.ReturnTypeReturn {
		req.RefundMethod = strings.ToLower(strings.TrimSpace(req.RefundMethod))
		if err := req.RefundDetails.Validate(req.RefundMethod); err != nil {
			return nil, err
		}
	}

	order, err := u.orders.Get(req.OrderID)
	if err != nil {
		return nil, err
	}
	proposed := domain.ReturnRequest{
		ID:             utils.TempID(),
		OrderID:        req.OrderID,
		CustomerID:     customerID,
		SellerID:       order.SellerID,
		Type:           req.Type,
		ReasonCategory: req.ReasonCategory,
		ReasonText:     strings.TrimSpace(req.ReasonText),
		RefundMethod:   req.RefundMethod,
		RefundDetails:  req.RefundDetails,
		Status:         domain.ReturnStatusPending,
		CreatedAt:      u.now(),
	}

	u.createMu.Lock()
	if err := u.Eligible(req.OrderID); err != nil {
		u.createMu.Unlock()
		return nil, err
	}
	err = u.store.Insert(proposed)
	u.createMu.Unlock()
	if err != nil {
		return nil, err
	}

	var none domain.ReturnRequest
	got, err := u.store.Settle(ctx, proposed.ID, none, proposed, func(ctx context.Context) (domain.ReturnRequest, error) {
		r, err := u.returnRepo.Create(ctx, req)
		if err != nil {
			return domain.ReturnRequest{}, err
		}
		if r == nil || r.ID == "" {
			return domain.ReturnRequest{}, &domain.ServerRejectedError{StatusCode: 502, Message: "upstream returned no return request id"}
		}
		if r.CustomerID == "" {
			r.CustomerID = customerID
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return &got, nil
}

func (u *ReturnUsecase) Approve(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	return u.transition(ctx, id, domain.ReturnStatusApproved, "", func(ctx context.Context) (*domain.ReturnRequest, error) {
		return u.returnRepo.Approve(ctx, id)
	})
}

func (u *ReturnUsecase) Reject(ctx context.Context, id, reason string) (*domain.ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "a rejection reason is required")
	}
	return u.transition(ctx, id, domain.ReturnStatusRejected, reason, func(ctx context.Context) (*domain.ReturnRequest, error) {
		return u.returnRepo.Reject(ctx, id, reason)
	})
}

// InitiateReversePickup books the courier pickup for an approved request.
func (u *ReturnUsecase) InitiateReversePickup(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	cur, ok := u.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("return %s: %w", id, domain.ErrNotFound)
	}
	if cur.Status != domain.ReturnStatusApproved {
		return nil, &domain.InvalidTransitionError{Entity: domain.EntityReturn, From: cur.Status, To: domain.ReturnStatusPickupInitiated,
			Reason: "the request must be approved by an admin first"}
	}
	return u.transition(ctx, id, domain.ReturnStatusPickupInitiated, "", func(ctx context.Context) (*domain.ReturnRequest, error) {
		return u.returnRepo.ReversePickup(ctx, cur.OrderID)
	})
}

func (u *ReturnUsecase) transition(ctx context.Context, id string, to domain.Status, reason string, call func(ctx context.Context) (*domain.ReturnRequest, error)) (*domain.ReturnRequest, error) {
	cur, ok := u.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("return %s: %w", id, domain.ErrNotFound)
	}
	if err := requireMove(domain.EntityReturn, cur.Status, to); err != nil {
		return nil, err
	}
	next := cur
	next.Status = to
	if reason != "" {
		next.RejectionReason = reason
	}

	got, err := u.store.Run(ctx, id, next, func(ctx context.Context) (domain.ReturnRequest, error) {
		r, err := call(ctx)
		if err != nil {
			return domain.ReturnRequest{}, err
		}
		if r == nil || r.ID == "" {
			return next, nil
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}

	effects := domain.SideEffectsFor(domain.Transition{Entity: domain.EntityReturn, From: cur.Status, To: got.Status, ReturnType: got.Type})
	for _, e := range effects {
		logger.WithContext(ctx).Info().
			Str("return_id", got.ID).
			Str("effect", string(e.Kind)).
			Msg("Return transition side effect")
	}
	return &got, nil
}
