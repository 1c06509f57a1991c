package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"bazaar-dashboard/internal/domain"

	"github.com/goccy/go-json"
)

type productRepository struct {
	c *Client
}

func NewProductRepository(c *Client) domain.ProductRepository {
	return &productRepository{c: c}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/admin/products", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Product](raw)
}

type bulkBody struct {
	ProductIDs []string `json:"productIds"`
	Reason     string   `json:"reason,omitempty"`
}

func (r *productRepository) BulkApprove(ctx context.Context, ids []string) ([]domain.BulkItemResult, error) {
	return r.bulk(ctx, "/admin/products/bulk-approve", bulkBody{ProductIDs: ids})
}

func (r *productRepository) BulkReject(ctx context.Context, ids []string, reason string) ([]domain.BulkItemResult, error) {
	return r.bulk(ctx, "/admin/products/bulk-reject", bulkBody{ProductIDs: ids, Reason: reason})
}

func (r *productRepository) Delete(ctx context.Context, productID string) error {
	_, err := r.c.do(ctx, http.MethodDelete, "/admin/products/"+pathID(productID), nil, nil)
	return err
}

// bulk decodes either a bare result array or {"results": [...]}.
func (r *productRepository) bulk(ctx context.Context, path string, body bulkBody) ([]domain.BulkItemResult, error) {
	raw, err := r.c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if bytes.HasPrefix(raw, []byte("[")) {
		return decodeList[domain.BulkItemResult](raw)
	}
	var wrapped struct {
		Results []domain.BulkItemResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	return wrapped.Results, nil
}
