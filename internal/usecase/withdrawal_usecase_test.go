package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"bazaar-dashboard/internal/domain"
	infraCache "bazaar-dashboard/internal/infrastructure/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upiDetails = domain.PaymentDetails{UPIID: "shop.owner@okbank"}

func newWithdrawalUsecase(t *testing.T, repo *fakeWithdrawalRepo) *WithdrawalUsecase {
	t.Helper()
	uc := NewWithdrawalUsecase(repo, nil, infraCache.NewMemoryCache(time.Minute, time.Minute), time.Minute, time.Second)
	_, _, err := uc.RefreshSeller(context.Background(), "s1")
	require.NoError(t, err)
	return uc
}

func TestWithdrawalUsecase_BalanceCapScenario(t *testing.T) {
	ctx := context.Background()
	repo := &fakeWithdrawalRepo{
		earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(5000)}},
	}
	uc := newWithdrawalUsecase(t, repo)
	require.True(t, decimal.NewFromInt(5000).Equal(uc.AvailableBalance("s1")))

	_, err := uc.Request(ctx, "s1", domain.WithdrawalRequest{
		Amount: decimal.NewFromInt(6000), PaymentMethod: "upi", PaymentDetails: upiDetails,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, uc.Mine("s1"))

	var balanceInFlight decimal.Decimal
	repo.onRequest = func(req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
		balanceInFlight = uc.AvailableBalance("s1")
		return &domain.Withdrawal{ID: "w-1", Amount: req.Amount, Status: domain.WithdrawalStatusPending}, nil
	}

	got, err := uc.Request(ctx, "s1", domain.WithdrawalRequest{
		Amount: decimal.NewFromInt(4000), PaymentMethod: "upi", PaymentDetails: upiDetails,
	})
	require.NoError(t, err)
	assert.Equal(t, "w-1", got.ID)
	assert.Equal(t, "s1", got.SellerID)
	assert.True(t, decimal.NewFromInt(1000).Equal(balanceInFlight), "balance while pending: %s", balanceInFlight)
	assert.True(t, decimal.NewFromInt(1000).Equal(uc.AvailableBalance("s1")))
}

func TestWithdrawalUsecase_RequestRollsBackWhenServerRejects(t *testing.T) {
	repo := &fakeWithdrawalRepo{
		earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(500)}},
		onRequest: func(domain.WithdrawalRequest) (*domain.Withdrawal, error) {
			return nil, &domain.ServerRejectedError{StatusCode: 400, Message: "Insufficient balance"}
		},
	}
	uc := newWithdrawalUsecase(t, repo)

	_, err := uc.Request(context.Background(), "s1", domain.WithdrawalRequest{
		Amount: decimal.NewFromInt(100), PaymentMethod: "upi", PaymentDetails: upiDetails,
	})

	assert.Equal(t, "Insufficient balance", domain.UserMessage(err, "failed"))
	assert.Empty(t, uc.Mine("s1"))
	assert.True(t, decimal.NewFromInt(500).Equal(uc.AvailableBalance("s1")))
}

func TestWithdrawalUsecase_RequestValidation(t *testing.T) {
	uc := newWithdrawalUsecase(t, &fakeWithdrawalRepo{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.WithdrawalRequest
	}{
		{"zero amount", domain.WithdrawalRequest{Amount: decimal.Zero, PaymentMethod: "upi", PaymentDetails: upiDetails}},
		{"bad upi", domain.WithdrawalRequest{Amount: decimal.NewFromInt(1), PaymentMethod: "upi", PaymentDetails: domain.PaymentDetails{UPIID: "nope"}}},
		{"bank without ifsc", domain.WithdrawalRequest{Amount: decimal.NewFromInt(1), PaymentMethod: "bank",
			PaymentDetails: domain.PaymentDetails{AccountHolder: "A", AccountNumber: "1"}}},
		{"unknown method", domain.WithdrawalRequest{Amount: decimal.NewFromInt(1), PaymentMethod: "cheque"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Request(ctx, "s1", tt.req)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestWithdrawalUsecase_RejectedRequestsFreeBalance(t *testing.T) {
	repo := &fakeWithdrawalRepo{
		earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(1000)}},
		withdrawals: []domain.Withdrawal{
			{ID: "w1", Amount: decimal.NewFromInt(300), Status: domain.WithdrawalStatusPending},
			{ID: "w2", Amount: decimal.NewFromInt(200), Status: domain.WithdrawalStatusRejected},
			{ID: "w3", Amount: decimal.NewFromInt(100), Status: domain.WithdrawalStatusPaid},
		},
	}
	uc := newWithdrawalUsecase(t, repo)

	assert.True(t, decimal.NewFromInt(600).Equal(uc.AvailableBalance("s1")))
}

func TestWithdrawalUsecase_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := &fakeWithdrawalRepo{
		withdrawals: []domain.Withdrawal{{ID: "w1", SellerID: "s1", Amount: decimal.NewFromInt(300), Status: domain.WithdrawalStatusApproved}},
	}
	uc := newWithdrawalUsecase(t, repo)

	_, err := uc.UpdateStatus(ctx, "w1", "paid", "")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	got, err := uc.UpdateStatus(ctx, "w1", "processed", "TXN-9")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPaid, got.Status)
	assert.Equal(t, "TXN-9", got.TransactionID)

	_, err = uc.UpdateStatus(ctx, "w1", "rejected", "")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestWithdrawalUsecase_Deletion(t *testing.T) {
	ctx := context.Background()
	repo := &fakeWithdrawalRepo{
		withdrawals: []domain.Withdrawal{
			{ID: "w1", Amount: decimal.NewFromInt(1), Status: domain.WithdrawalStatusPending},
			{ID: "w2", Amount: decimal.NewFromInt(1), Status: domain.WithdrawalStatusApproved},
			{ID: "w3", Amount: decimal.NewFromInt(1), Status: domain.WithdrawalStatusPaid},
		},
	}
	uc := newWithdrawalUsecase(t, repo)

	var invalid *domain.InvalidTransitionError
	assert.ErrorAs(t, uc.DeleteMine(ctx, "s1", "w2"), &invalid)
	assert.ErrorIs(t, uc.DeleteMine(ctx, "other", "w1"), domain.ErrNotFound)
	require.NoError(t, uc.DeleteMine(ctx, "s1", "w1"))

	assert.ErrorAs(t, uc.AdminDelete(ctx, "w3"), &invalid)
	require.NoError(t, uc.AdminDelete(ctx, "w2"))

	assert.Len(t, uc.All(), 1)
}

func TestWithdrawalUsecase_DeleteRollsBackOnFailure(t *testing.T) {
	repo := &fakeWithdrawalRepo{
		withdrawals: []domain.Withdrawal{{ID: "w1", Amount: decimal.NewFromInt(1), Status: domain.WithdrawalStatusPending}},
		fail:        &domain.NetworkFailureError{Op: "DELETE", Err: errors.New("timeout")},
	}
	uc := newWithdrawalUsecase(t, repo)

	err := uc.DeleteMine(context.Background(), "s1", "w1")

	var netErr *domain.NetworkFailureError
	require.ErrorAs(t, err, &netErr)
	assert.Len(t, uc.Mine("s1"), 1)
}

func TestWithdrawalUsecase_SummaryIsCached(t *testing.T) {
	repo := &fakeWithdrawalRepo{
		summary: &domain.WithdrawalSummary{Counts: map[domain.Status]int{"completed": 2, "paid": 1, "pending": 4}},
	}
	uc := newWithdrawalUsecase(t, repo)
	ctx := context.Background()

	first, err := uc.Summary(ctx)
	require.NoError(t, err)
	_, err = uc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.summaryHits)
	assert.Equal(t, 3, first.Counts[domain.WithdrawalStatusPaid])
	assert.Equal(t, 4, first.Counts[domain.WithdrawalStatusPending])
}

func TestWithdrawalUsecase_MonthlyTrendScenario(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 12, 0, 0, 0, time.UTC) }
	repo := &fakeWithdrawalRepo{
		withdrawals: []domain.Withdrawal{
			{ID: "w1", Amount: decimal.NewFromInt(100), Status: domain.WithdrawalStatusPaid, RequestedAt: day(time.January, 5)},
			{ID: "w2", Amount: decimal.NewFromInt(200), Status: domain.WithdrawalStatusPaid, RequestedAt: day(time.January, 20)},
			{ID: "w3", Amount: decimal.NewFromInt(300), Status: domain.WithdrawalStatusPending, RequestedAt: day(time.February, 1)},
		},
	}
	uc := newWithdrawalUsecase(t, repo)
	stats := NewStatsUsecase(nil, uc, nil, nil)

	buckets, err := stats.WithdrawalTrend("monthly", "")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01", buckets[0].Key)
	assert.True(t, decimal.NewFromInt(300).Equal(buckets[0].Sum))
	assert.Equal(t, "2024-02", buckets[1].Key)
	assert.True(t, decimal.NewFromInt(300).Equal(buckets[1].Sum))
}

func TestWithdrawalUsecase_RequestFetchesBalanceFirst(t *testing.T) {
	ctx := context.Background()
	req := func(n int64) domain.WithdrawalRequest {
		return domain.WithdrawalRequest{Amount: decimal.NewFromInt(n), PaymentMethod: "upi", PaymentDetails: upiDetails}
	}

	t.Run("never refreshed", func(t *testing.T) {
		repo := &fakeWithdrawalRepo{earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(5000)}}}
		uc := NewWithdrawalUsecase(repo, nil, infraCache.NewMemoryCache(time.Minute, time.Minute), time.Minute, time.Second)

		got, err := uc.Request(ctx, "s1", req(4000))
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalStatusPending, got.Status)
		assert.True(t, decimal.NewFromInt(1000).Equal(uc.AvailableBalance("s1")))
	})

	t.Run("stale snapshot", func(t *testing.T) {
		repo := &fakeWithdrawalRepo{earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(1000)}}}
		uc := newWithdrawalUsecase(t, repo)
		repo.earnings = append(repo.earnings, domain.Earning{ID: "e2", Amount: decimal.NewFromInt(4000)})

		_, err := uc.Request(ctx, "s1", req(3000))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2000).Equal(uc.AvailableBalance("s1")))
	})

	t.Run("server-side withdrawal counts", func(t *testing.T) {
		repo := &fakeWithdrawalRepo{earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(1000)}}}
		uc := newWithdrawalUsecase(t, repo)
		repo.withdrawals = []domain.Withdrawal{{ID: "w9", Amount: decimal.NewFromInt(800), Status: domain.WithdrawalStatusPending}}

		_, err := uc.Request(ctx, "s1", req(500))
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	})
}

func TestWithdrawalUsecase_RefreshDropsDeletedRequests(t *testing.T) {
	ctx := context.Background()
	repo := &fakeWithdrawalRepo{
		earnings: []domain.Earning{{ID: "e1", Amount: decimal.NewFromInt(1000)}},
		withdrawals: []domain.Withdrawal{
			{ID: "w1", Amount: decimal.NewFromInt(300), Status: domain.WithdrawalStatusPending},
			{ID: "w2", Amount: decimal.NewFromInt(200), Status: domain.WithdrawalStatusPending},
		},
	}
	uc := newWithdrawalUsecase(t, repo)
	require.True(t, decimal.NewFromInt(500).Equal(uc.AvailableBalance("s1")))

	repo.withdrawals = repo.withdrawals[1:]
	mine, _, err := uc.RefreshSeller(ctx, "s1")

	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "w2", mine[0].ID)
	assert.True(t, decimal.NewFromInt(800).Equal(uc.AvailableBalance("s1")))
}

func TestWithdrawalUsecase_UpdateStatusRejectsBadTargets(t *testing.T) {
	ctx := context.Background()
	repo := &fakeWithdrawalRepo{
		withdrawals: []domain.Withdrawal{{ID: "w1", SellerID: "s1", Amount: decimal.NewFromInt(300), Status: domain.WithdrawalStatusRejected}},
		fail:        errors.New("upstream must not be called"),
	}
	uc := newWithdrawalUsecase(t, repo)

	for _, status := range []string{"", "  ", "bogus"} {
		_, err := uc.UpdateStatus(ctx, "w1", status, "")
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation, "status %q", status)
		assert.Equal(t, "status", validation.Field)
	}

	_, err := uc.UpdateStatus(ctx, "w1", "rejected", "")
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.WithdrawalStatusRejected, invalid.To)

	w, err := uc.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusRejected, w.Status)
	assert.Nil(t, w.ProcessedAt)
}
