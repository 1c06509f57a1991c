package rest

import (
	"context"
	"net/http"

	"bazaar-dashboard/internal/domain"
)

type returnRepository struct {
	c *Client
}

func NewReturnRepository(c *Client) domain.ReturnRepository {
	return &returnRepository{c: c}
}

func (r *returnRepository) ListAdmin(ctx context.Context) ([]domain.ReturnRequest, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/returns/admin", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.ReturnRequest](raw)
}

func (r *returnRepository) ListMine(ctx context.Context) ([]domain.ReturnRequest, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/returns/my", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.ReturnRequest](raw)
}

func (r *returnRepository) Create(ctx context.Context, req domain.CreateReturnReq) (*domain.ReturnRequest, error) {
	return r.mutate(ctx, http.MethodPost, "/returns", req)
}

func (r *returnRepository) Approve(ctx context.Context, returnID string) (*domain.ReturnRequest, error) {
	return r.mutate(ctx, http.MethodPut, "/returns/admin/"+pathID(returnID)+"/approve", nil)
}

func (r *returnRepository) Reject(ctx context.Context, returnID, reason string) (*domain.ReturnRequest, error) {
	return r.mutate(ctx, http.MethodPut, "/returns/admin/"+pathID(returnID)+"/reject", map[string]string{"reason": reason})
}

func (r *returnRepository) ReversePickup(ctx context.Context, orderID string) (*domain.ReturnRequest, error) {
	return r.mutate(ctx, http.MethodPost, "/returns/seller/reverse-pickup", map[string]string{"orderId": orderID})
}

func (r *returnRepository) mutate(ctx context.Context, method, path string, body any) (*domain.ReturnRequest, error) {
	raw, err := r.c.do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.ReturnRequest](raw)
}
