package usecase

import (
	"context"
	"fmt"
	"sync"

	"bazaar-dashboard/internal/domain"
)

// fakeOrderRepo echoes each mutation back the way the upstream API does.
type fakeOrderRepo struct {
	orders map[string]domain.Order
	fail   error
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) list() []domain.Order {
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}

func (r *fakeOrderRepo) ListMine(context.Context) ([]domain.Order, error)   { return r.list(), nil }
func (r *fakeOrderRepo) ListSeller(context.Context) ([]domain.Order, error) { return r.list(), nil }
func (r *fakeOrderRepo) ListAdmin(context.Context, domain.OrderFilter) ([]domain.Order, int64, error) {
	l := r.list()
	return l, int64(len(l)), nil
}

func (r *fakeOrderRepo) mutate(id string, fn func(*domain.Order)) (*domain.Order, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, &domain.ServerRejectedError{StatusCode: 404, Message: "order not found"}
	}
	o = o.Clone()
	fn(&o)
	r.orders[id] = o
	return &o, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.Status) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) { o.Status = status })
}

func (r *fakeOrderRepo) RequestCancel(_ context.Context, id, reason string) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) {
		o.CancellationRequested = true
		o.CancellationReason = reason
	})
}

func (r *fakeOrderRepo) ApproveCancel(_ context.Context, id string) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) {
		o.Status = domain.OrderStatusCancelled
		if o.PaymentMethod != domain.PaymentMethodCOD {
			o.RefundStatus = domain.RefundStatusPending
		}
	})
}

func (r *fakeOrderRepo) Refund(_ context.Context, id string) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) {
		o.RefundStatus = domain.RefundStatusRefunded
		o.PaymentStatus = domain.PaymentStatusRefunded
	})
}

func (r *fakeOrderRepo) CreateShipment(_ context.Context, id, courier string) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) {
		o.Shipment = &domain.Shipment{Courier: courier, TrackingID: "TRK-" + id, Status: domain.ShipmentStatusCreated}
	})
}

func (r *fakeOrderRepo) CancelShipment(_ context.Context, id string) (*domain.Order, error) {
	return r.mutate(id, func(o *domain.Order) { o.Shipment.Status = domain.ShipmentStatusCancelled })
}

type fakeWithdrawalRepo struct {
	mu          sync.Mutex
	withdrawals []domain.Withdrawal
	earnings    []domain.Earning
	summary     *domain.WithdrawalSummary
	summaryHits int
	nextID      int
	onRequest   func(req domain.WithdrawalRequest) (*domain.Withdrawal, error)
	fail        error
}

func (r *fakeWithdrawalRepo) ListMine(context.Context) ([]domain.Withdrawal, error) {
	return r.withdrawals, nil
}

func (r *fakeWithdrawalRepo) ListEarnings(context.Context) ([]domain.Earning, error) {
	return r.earnings, nil
}

func (r *fakeWithdrawalRepo) Request(_ context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	if r.onRequest != nil {
		return r.onRequest(req)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w := domain.Withdrawal{
		ID:            fmt.Sprintf("w-srv-%d", r.nextID),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.WithdrawalStatusPending,
	}
	return &w, nil
}

func (r *fakeWithdrawalRepo) Delete(context.Context, string) error { return r.fail }

func (r *fakeWithdrawalRepo) AdminList(context.Context, domain.WithdrawalFilter) ([]domain.Withdrawal, int64, error) {
	return r.withdrawals, int64(len(r.withdrawals)), nil
}

func (r *fakeWithdrawalRepo) AdminSummary(context.Context) (*domain.WithdrawalSummary, error) {
	r.summaryHits++
	return r.summary, nil
}

func (r *fakeWithdrawalRepo) AdminUpdateStatus(_ context.Context, id string, status domain.Status, txID string) (*domain.Withdrawal, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	for _, w := range r.withdrawals {
		if w.ID == id {
			w.Status = status
			w.TransactionID = txID
			return &w, nil
		}
	}
	return nil, &domain.ServerRejectedError{StatusCode: 404, Message: "withdrawal not found"}
}

func (r *fakeWithdrawalRepo) AdminDelete(context.Context, string) error { return r.fail }

type fakeSellerRepo struct {
	sellers []domain.Seller
	fail    error
}

func (r *fakeSellerRepo) List(context.Context) ([]domain.Seller, error) { return r.sellers, nil }

func (r *fakeSellerRepo) SetStatus(_ context.Context, id, action, reason string) (*domain.Seller, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	return nil, nil
}

type fakeProductRepo struct {
	products []domain.Product
	results  []domain.BulkItemResult
	deleted  []string
}

func (r *fakeProductRepo) List(context.Context) ([]domain.Product, error) { return r.products, nil }

func (r *fakeProductRepo) BulkApprove(context.Context, []string) ([]domain.BulkItemResult, error) {
	return r.results, nil
}

func (r *fakeProductRepo) BulkReject(context.Context, []string, string) ([]domain.BulkItemResult, error) {
	return r.results, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeReturnRepo struct {
	returns []domain.ReturnRequest
	created int
}

func (r *fakeReturnRepo) ListAdmin(context.Context) ([]domain.ReturnRequest, error) {
	return r.returns, nil
}
func (r *fakeReturnRepo) ListMine(context.Context) ([]domain.ReturnRequest, error) {
	return r.returns, nil
}

func (r *fakeReturnRepo) Create(_ context.Context, req domain.CreateReturnReq) (*domain.ReturnRequest, error) {
	r.created++
	return &domain.ReturnRequest{
		ID:             "ret-1",
		OrderID:        req.OrderID,
		Type:           req.Type,
		ReasonCategory: req.ReasonCategory,
		Status:         domain.ReturnStatusPending,
	}, nil
}

func (r *fakeReturnRepo) Approve(context.Context, string) (*domain.ReturnRequest, error) {
	return nil, nil
}
func (r *fakeReturnRepo) Reject(context.Context, string, string) (*domain.ReturnRequest, error) {
	return nil, nil
}
func (r *fakeReturnRepo) ReversePickup(context.Context, string) (*domain.ReturnRequest, error) {
	return nil, nil
}

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[string][]byte)} }

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *memBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
