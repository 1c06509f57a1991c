package rest

import (
	"context"
	"net/http"

	"bazaar-dashboard/internal/domain"
)

type sellerRepository struct {
	c *Client
}

func NewSellerRepository(c *Client) domain.SellerRepository {
	return &sellerRepository{c: c}
}

func (r *sellerRepository) List(ctx context.Context) ([]domain.Seller, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/admin/sellers", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Seller](raw)
}

func (r *sellerRepository) SetStatus(ctx context.Context, sellerID, action, reason string) (*domain.Seller, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	raw, err := r.c.do(ctx, http.MethodPut, "/admin/sellers/"+pathID(sellerID)+"/"+action, nil, body)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Seller](raw)
}
