package rest

import (
	"context"
	"net/http"

	"bazaar-dashboard/internal/domain"
)

type withdrawalRepository struct {
	c *Client
}

func NewWithdrawalRepository(c *Client) domain.WithdrawalRepository {
	return &withdrawalRepository{c: c}
}

func (r *withdrawalRepository) ListMine(ctx context.Context) ([]domain.Withdrawal, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/withdrawals/my", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Withdrawal](raw)
}

func (r *withdrawalRepository) ListEarnings(ctx context.Context) ([]domain.Earning, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/withdrawals/earnings", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Earning](raw)
}

func (r *withdrawalRepository) Request(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	raw, err := r.c.do(ctx, http.MethodPost, "/withdrawals/request", nil, req)
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Withdrawal](raw)
}

func (r *withdrawalRepository) Delete(ctx context.Context, withdrawalID string) error {
	_, err := r.c.do(ctx, http.MethodDelete, "/withdrawals/"+pathID(withdrawalID), nil, nil)
	return err
}

func (r *withdrawalRepository) AdminList(ctx context.Context, filter domain.WithdrawalFilter) ([]domain.Withdrawal, int64, error) {
	raw, err := r.c.request(ctx, http.MethodGet, "/withdrawals/admin",
		pageQuery(filter.Page, filter.Limit, filter.Status, filter.Search), nil)
	if err != nil {
		return nil, 0, err
	}
	return decodePage[domain.Withdrawal](raw)
}

func (r *withdrawalRepository) AdminSummary(ctx context.Context) (*domain.WithdrawalSummary, error) {
	raw, err := r.c.do(ctx, http.MethodGet, "/withdrawals/admin/summary", nil, nil)
	if err != nil {
		return nil, err
	}
	summary, err := decodeOne[domain.WithdrawalSummary](raw)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		summary = &domain.WithdrawalSummary{}
	}
	return summary, nil
}

type withdrawalStatusBody struct {
	Status        domain.Status `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
}

func (r *withdrawalRepository) AdminUpdateStatus(ctx context.Context, withdrawalID string, status domain.Status, transactionID string) (*domain.Withdrawal, error) {
	raw, err := r.c.do(ctx, http.MethodPut, "/withdrawals/admin/"+pathID(withdrawalID)+"/status", nil,
		withdrawalStatusBody{Status: status, TransactionID: transactionID})
	if err != nil {
		return nil, err
	}
	return decodeOne[domain.Withdrawal](raw)
}

func (r *withdrawalRepository) AdminDelete(ctx context.Context, withdrawalID string) error {
	_, err := r.c.do(ctx, http.MethodDelete, "/withdrawals/admin/"+pathID(withdrawalID), nil, nil)
	return err
}
