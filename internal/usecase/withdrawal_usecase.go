package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/cache"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	withdrawalCachePrefix = "withdrawals:admin:"
	withdrawalSummaryKey  = withdrawalCachePrefix + "summary"
)

type WithdrawalUsecase struct {
	withdrawalRepo domain.WithdrawalRepository
	store          *Store[domain.Withdrawal]
	cache          cache.CacheService
	summaryTTL     time.Duration

	// requestMu serialises the balance check and the optimistic insert of
	// new requests so two of them cannot spend the same earnings.
	requestMu sync.Mutex

	earningsMu sync.RWMutex
	earnings   map[string]map[string]domain.Earning // seller -> earning id -> earning

	now func() time.Time
}

func NewWithdrawalUsecase(repo domain.WithdrawalRepository, recorder domain.TransitionRecorder, cache cache.CacheService, summaryTTL, reconcileTimeout time.Duration) *WithdrawalUsecase {
	return &WithdrawalUsecase{
		withdrawalRepo: repo,
		store:          NewStore(domain.EntityWithdrawal, domain.Withdrawal.ValidateChange, recorder, reconcileTimeout),
		cache:          cache,
		summaryTTL:     summaryTTL,
		earnings:       make(map[string]map[string]domain.Earning),
		now:            time.Now,
	}
}

// --- Seller ---

// RefreshSeller reloads the seller's withdrawals and earnings from upstream.
// Requests the upstream no longer lists are dropped from the cache.
func (u *WithdrawalUsecase) RefreshSeller(ctx context.Context, sellerID string) ([]domain.Withdrawal, []domain.Earning, error) {
	since := u.store.Generation()
	withdrawals, err := u.withdrawalRepo.ListMine(ctx)
	if err != nil {
		return nil, nil, err
	}
	earnings, err := u.withdrawalRepo.ListEarnings(ctx)
	if err != nil {
		return nil, nil, err
	}

	for i := range withdrawals {
		if withdrawals[i].SellerID == "" {
			withdrawals[i].SellerID = sellerID
		}
	}
	u.store.Replace(func(w domain.Withdrawal) bool { return w.SellerID == sellerID }, withdrawals, since)
	u.setEarnings(sellerID, earnings)

	return u.Mine(sellerID), u.Earnings(sellerID), nil
}

func (u *WithdrawalUsecase) setEarnings(sellerID string, earnings []domain.Earning) {
	byID := make(map[string]domain.Earning, len(earnings))
	for _, e := range earnings {
		if e.SellerID == "" {
			e.SellerID = sellerID
		}
		byID[e.ID] = e
	}
	u.earningsMu.Lock()
	u.earnings[sellerID] = byID
	u.earningsMu.Unlock()
}

func (u *WithdrawalUsecase) Mine(sellerID string) []domain.Withdrawal {
	return u.store.Filter(func(w domain.Withdrawal) bool { return w.SellerID == sellerID })
}

func (u *WithdrawalUsecase) Earnings(sellerID string) []domain.Earning {
	u.earningsMu.RLock()
	defer u.earningsMu.RUnlock()
	out := make([]domain.Earning, 0, len(u.earnings[sellerID]))
	for _, e := range u.earnings[sellerID] {
		out = append(out, e)
	}
	return out
}

// AvailableBalance is the seller's earnings minus every withdrawal that still
// holds funds. The store is keyed by id, so each request is counted once.
func (u *WithdrawalUsecase) AvailableBalance(sellerID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range u.Earnings(sellerID) {
		total = total.Add(e.Amount)
	}
	for _, w := range u.Mine(sellerID) {
		if w.Counted() {
			total = total.Sub(w.Amount)
		}
	}
	return total
}

// Request files a new withdrawal. Earnings and withdrawals are fetched fresh,
// then the balance check and the optimistic insert happen under one lock so
// the next request sees this one.
func (u *WithdrawalUsecase) Request(ctx context.Context, sellerID string, req domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be greater than zero")
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if err := req.PaymentDetails.Validate(method); err != nil {
		return nil, err
	}
	req.PaymentMethod = method

	if _, _, err := u.RefreshSeller(ctx, sellerID); err != nil {
		return nil, err
	}

	proposed := domain.Withdrawal{
		ID:             utils.TempID(),
		SellerID:       sellerID,
		Amount:         req.Amount,
		PaymentMethod:  method,
		PaymentDetails: req.PaymentDetails,
		Status:         domain.WithdrawalStatusPending,
		RequestedAt:    u.now(),
	}

	u.requestMu.Lock()
	available := u.AvailableBalance(sellerID)
	if req.Amount.GreaterThan(available) {
		u.requestMu.Unlock()
		return nil, fmt.Errorf("requested %s but only %s is available: %w",
			req.Amount.StringFixed(2), available.StringFixed(2), domain.ErrInsufficientBalance)
	}
	err := u.store.Insert(proposed)
	u.requestMu.Unlock()
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Str("seller_id", sellerID).
		Str("amount", req.Amount.String()).
		Str("method", method).
		Msg("Withdrawal requested")

	var none domain.Withdrawal
	got, err := u.store.Settle(ctx, proposed.ID, none, proposed, func(ctx context.Context) (domain.Withdrawal, error) {
		w, err := u.withdrawalRepo.Request(ctx, req)
		if err != nil {
			return domain.Withdrawal{}, err
		}
		if w == nil || w.ID == "" {
			return domain.Withdrawal{}, &domain.ServerRejectedError{StatusCode: 502, Message: "upstream returned no withdrawal id"}
		}
		if w.SellerID == "" {
			w.SellerID = sellerID
		}
		return *w, nil
	})
	if err != nil {
		return nil, err
	}
	u.invalidateSummary()
	return &got, nil
}

// DeleteMine withdraws a request the seller filed, only while it is still pending.
func (u *WithdrawalUsecase) DeleteMine(ctx context.Context, sellerID, id string) error {
	cur, ok := u.store.Get(id)
	if !ok || cur.SellerID != sellerID {
		return fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	if cur.Status != domain.WithdrawalStatusPending {
		return &domain.InvalidTransitionError{Entity: domain.EntityWithdrawal, From: cur.Status, To: domain.StatusNone,
			Reason: "only pending requests can be withdrawn"}
	}
	if err := u.store.RunRemove(ctx, id, func(ctx context.Context) error {
		return u.withdrawalRepo.Delete(ctx, id)
	}); err != nil {
		return err
	}
	u.invalidateSummary()
	return nil
}

// --- Admin ---

func (u *WithdrawalUsecase) RefreshAdmin(ctx context.Context, filter domain.WithdrawalFilter) ([]domain.Withdrawal, int64, error) {
	since := u.store.Generation()
	items, total, err := u.withdrawalRepo.AdminList(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if completeListing(filter.Status, filter.Search, len(items), total) {
		u.store.Replace(func(domain.Withdrawal) bool { return true }, items, since)
	} else {
		u.store.Load(items)
	}

	out := make([]domain.Withdrawal, 0, len(items))
	for _, w := range items {
		if cur, ok := u.store.Get(w.ID); ok {
			w = cur
		}
		out = append(out, w)
	}
	return out, total, nil
}

// List filters the cached collection. Status accepts the paid aliases.
func (u *WithdrawalUsecase) List(filter domain.WithdrawalFilter) []domain.Withdrawal {
	status := domain.StatusNone
	if filter.Status != "" {
		status = domain.NormalizeWithdrawalStatus(strings.ToLower(filter.Status))
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	return u.store.Filter(func(w domain.Withdrawal) bool {
		if status != domain.StatusNone && w.Status != status {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(w.SellerName), search) &&
			!strings.Contains(strings.ToLower(w.ID), search) &&
			!strings.Contains(strings.ToLower(w.TransactionID), search) {
			return false
		}
		return true
	})
}

func (u *WithdrawalUsecase) All() []domain.Withdrawal {
	return u.store.List()
}

func (u *WithdrawalUsecase) Counts() map[domain.Status]int {
	return u.store.Counts()
}

func (u *WithdrawalUsecase) Get(id string) (domain.Withdrawal, error) {
	w, ok := u.store.Get(id)
	if !ok {
		return domain.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

// UpdateStatus moves a request through review and payout. A payout needs the
// bank or wallet transaction reference.
func (u *WithdrawalUsecase) UpdateStatus(ctx context.Context, id, status, transactionID string) (*domain.Withdrawal, error) {
	target := domain.NormalizeWithdrawalStatus(strings.ToLower(strings.TrimSpace(status)))
	if !slices.Contains(domain.StatusesFor(domain.EntityWithdrawal), target) {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown withdrawal status %q", status))
	}
	transactionID = strings.TrimSpace(transactionID)
	if target == domain.WithdrawalStatusPaid && transactionID == "" {
		return nil, domain.NewValidationError("transactionId", "a transaction id is required to mark a withdrawal paid")
	}

	cur, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	if err := requireMove(domain.EntityWithdrawal, cur.Status, target); err != nil {
		return nil, err
	}
	next := cur
	next.Status = target
	if transactionID != "" {
		next.TransactionID = transactionID
	}
	if target == domain.WithdrawalStatusPaid || target == domain.WithdrawalStatusRejected {
		t := u.now()
		next.ProcessedAt = &t
	}

	got, err := u.store.Run(ctx, id, next, func(ctx context.Context) (domain.Withdrawal, error) {
		w, err := u.withdrawalRepo.AdminUpdateStatus(ctx, id, target, transactionID)
		if err != nil {
			return domain.Withdrawal{}, err
		}
		if w == nil || w.ID == "" {
			return next, nil
		}
		return *w, nil
	})
	if err != nil {
		return nil, err
	}
	u.invalidateSummary()
	return &got, nil
}

// AdminDelete removes any request that has not been paid out.
func (u *WithdrawalUsecase) AdminDelete(ctx context.Context, id string) error {
	cur, err := u.Get(id)
	if err != nil {
		return err
	}
	if cur.Status == domain.WithdrawalStatusPaid {
		return &domain.InvalidTransitionError{Entity: domain.EntityWithdrawal, From: cur.Status, To: domain.StatusNone,
			Reason: "paid withdrawals cannot be deleted"}
	}
	if err := u.store.RunRemove(ctx, id, func(ctx context.Context) error {
		return u.withdrawalRepo.AdminDelete(ctx, id)
	}); err != nil {
		return err
	}
	u.invalidateSummary()
	return nil
}

// Summary returns the upstream aggregate, cached briefly.
func (u *WithdrawalUsecase) Summary(ctx context.Context) (*domain.WithdrawalSummary, error) {
	if u.cache != nil {
		if val, found := u.cache.Get(withdrawalSummaryKey); found {
			if s, ok := val.(*domain.WithdrawalSummary); ok {
				return s, nil
			}
		}
	}

	summary, err := u.withdrawalRepo.AdminSummary(ctx)
	if err != nil {
		return nil, err
	}
	if summary.Counts != nil {
		normalized := make(map[domain.Status]int, len(summary.Counts))
		for k, v := range summary.Counts {
			normalized[domain.NormalizeWithdrawalStatus(string(k))] += v
		}
		summary.Counts = normalized
	}

	if u.cache != nil {
		u.cache.Set(withdrawalSummaryKey, summary, u.summaryTTL)
	}
	return summary, nil
}

func (u *WithdrawalUsecase) invalidateSummary() {
	if u.cache != nil {
		u.cache.DeletePrefix(withdrawalCachePrefix)
	}
}
