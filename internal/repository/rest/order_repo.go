package rest

import (
	"context"
	"net/http"

	"bazaar-dashboard/internal/domain"
)

type orderRepository struct {
	c *Client
}

func NewOrderRepository(c *Client) domain.OrderRepository {
	return &orderRepository{c: c}
}

func (r *orderRepository) ListMine(ctx context.Context) ([]domain.Order, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/orders/my", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Order](raw)
}

func (r *orderRepository) ListSeller(ctx context.Context) ([]domain.Order, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/seller/orders", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Order](raw)
}

func (r *orderRepository) ListAdmin(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	raw, err := r.c.request(ctx, http.MethodGet, "/admin/orders",
		pageQuery(filter.Page, filter.Limit, filter.Status, filter.Search), nil)
	if err != nil {
		return nil, 0, err
	}
	return decodePage[domain.Order](raw)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodPut, "/orders/"+pathID(orderID)+"/status", map[string]domain.Status{"status": status})
}

func (r *orderRepository) RequestCancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodPut, "/orders/"+pathID(orderID)+"/request-cancel", map[string]string{"reason": reason})
}

func (r *orderRepository) ApproveCancel(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodPut, "/admin/orders/"+pathID(orderID)+"/approve-cancel", nil)
}

func (r *orderRepository) Refund(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodPut, "/admin/orders/"+pathID(orderID)+"/refund", nil)
}

func (r *orderRepository) CreateShipment(ctx context.Context, orderID string, courier string) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodPost, "/orders/"+pathID(orderID)+"/shipment", map[string]string{"courier": courier})
}

func (r *orderRepository) CancelShipment(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.mutate(ctx, http.MethodDelete, "/orders/"+pathID(orderID)+"/shipment", nil)
}

func (r *orderRepository) mutate(ctx context.Context, method, path string, body any) (*domain.Order, error) {
	raw, err := r.c.do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Order](raw)
}
