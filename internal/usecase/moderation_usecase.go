package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
)

// ModerationUsecase drives the admin review of seller accounts and product listings.
type ModerationUsecase struct {
	sellerRepo  domain.SellerRepository
	productRepo domain.ProductRepository
	sellers     *Store[domain.Seller]
	products    *Store[domain.Product]
}

func NewModerationUsecase(sellerRepo domain.SellerRepository, productRepo domain.ProductRepository, recorder domain.TransitionRecorder, reconcileTimeout time.Duration) *ModerationUsecase {
	return &ModerationUsecase{
		sellerRepo:  sellerRepo,
		productRepo: productRepo,
		sellers:     NewStore(domain.EntitySeller, domain.Seller.ValidateChange, recorder, reconcileTimeout),
		products:    NewStore(domain.EntityProduct, domain.Product.ValidateChange, recorder, reconcileTimeout),
	}
}

// --- Sellers ---

func (u *ModerationUsecase) RefreshSellers(ctx context.Context) ([]domain.Seller, error) {
	since := u.sellers.Generation()
	sellers, err := u.sellerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	u.sellers.Replace(func(domain.Seller) bool { return true }, sellers, since)
	return u.sellers.List(), nil
}

func (u *ModerationUsecase) Sellers(status string) []domain.Seller {
	return u.sellers.Filter(func(s domain.Seller) bool {
		return status == "" || string(s.Status) == status
	})
}

func (u *ModerationUsecase) SellerCounts() map[domain.Status]int {
	return u.sellers.Counts()
}

func (u *ModerationUsecase) ApproveSeller(ctx context.Context, id string) (*domain.Seller, error) {
	return u.moderateSeller(ctx, id, domain.SellerActionApprove, "")
}

func (u *ModerationUsecase) RejectSeller(ctx context.Context, id, reason string) (*domain.Seller, error) {
	return u.moderateSeller(ctx, id, domain.SellerActionReject, reason)
}

func (u *ModerationUsecase) SuspendSeller(ctx context.Context, id, reason string) (*domain.Seller, error) {
	return u.moderateSeller(ctx, id, domain.SellerActionSuspend, reason)
}

// ActivateSeller lifts a suspension.
func (u *ModerationUsecase) ActivateSeller(ctx context.Context, id string) (*domain.Seller, error) {
	return u.moderateSeller(ctx, id, domain.SellerActionActivate, "")
}

func (u *ModerationUsecase) moderateSeller(ctx context.Context, id, action, reason string) (*domain.Seller, error) {
	reason = strings.TrimSpace(reason)
	cur, ok := u.sellers.Get(id)
	if !ok {
		return nil, fmt.Errorf("seller %s: %w", id, domain.ErrNotFound)
	}

	next := cur
	switch action {
	case domain.SellerActionApprove:
		next.Status = domain.SellerStatusApproved
		next.RejectionReason = ""
		next.SuspensionReason = ""
	case domain.SellerActionActivate:
		if cur.Status != domain.SellerStatusSuspended {
			return nil, &domain.InvalidTransitionError{Entity: domain.EntitySeller, From: cur.Status, To: domain.SellerStatusApproved,
				Reason: "only suspended sellers can be activated"}
		}
		next.Status = domain.SellerStatusApproved
		next.SuspensionReason = ""
	case domain.SellerActionReject:
		next.Status = domain.SellerStatusRejected
		next.RejectionReason = reason
	case domain.SellerActionSuspend:
		next.Status = domain.SellerStatusSuspended
		next.SuspensionReason = reason
	default:
		return nil, domain.NewValidationError("action", "unknown moderation action "+action)
	}
	if err := requireMove(domain.EntitySeller, cur.Status, next.Status); err != nil {
		return nil, err
	}

	got, err := u.sellers.Run(ctx, id, next, func(ctx context.Context) (domain.Seller, error) {
		s, err := u.sellerRepo.SetStatus(ctx, id, action, reason)
		if err != nil {
			return domain.Seller{}, err
		}
		if s == nil || s.ID == "" {
			return next, nil
		}
		return *s, nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Str("seller_id", id).
		Str("action", action).
		Str("status", string(got.Status)).
		Msg("Seller moderated")
	return &got, nil
}

// --- Products ---

func (u *ModerationUsecase) RefreshProducts(ctx context.Context) ([]domain.Product, error) {
	since := u.products.Generation()
	products, err := u.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	u.products.Replace(func(domain.Product) bool { return true }, products, since)
	return u.products.List(), nil
}

func (u *ModerationUsecase) Products(status string) []domain.Product {
	return u.products.Filter(func(p domain.Product) bool {
		return status == "" || string(p.Status) == status
	})
}

func (u *ModerationUsecase) ProductCounts() map[domain.Status]int {
	return u.products.Counts()
}

// BulkApprove approves every id in one upstream call. The server's per-item
// verdict decides which ones stick; the rest roll back and are reported in a
// *domain.PartialFailureError.
func (u *ModerationUsecase) BulkApprove(ctx context.Context, ids []string) ([]domain.Product, error) {
	approve := func(p domain.Product) domain.Product {
		p.Status = domain.ProductStatusApproved
		p.RejectionReason = ""
		return p
	}
	return u.products.RunBatch(ctx, ids, approve, func(ctx context.Context) (map[string]BatchItem[domain.Product], error) {
		results, err := u.productRepo.BulkApprove(ctx, ids)
		if err != nil {
			return nil, err
		}
		return bulkResults(results), nil
	})
}

func (u *ModerationUsecase) BulkReject(ctx context.Context, ids []string, reason string) ([]domain.Product, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "a rejection reason is required")
	}
	reject := func(p domain.Product) domain.Product {
		p.Status = domain.ProductStatusRejected
		p.RejectionReason = reason
		return p
	}
	return u.products.RunBatch(ctx, ids, reject, func(ctx context.Context) (map[string]BatchItem[domain.Product], error) {
		results, err := u.productRepo.BulkReject(ctx, ids, reason)
		if err != nil {
			return nil, err
		}
		return bulkResults(results), nil
	})
}

func (u *ModerationUsecase) DeleteProduct(ctx context.Context, id string) error {
	return u.products.RunRemove(ctx, id, func(ctx context.Context) error {
		return u.productRepo.Delete(ctx, id)
	})
}

func bulkResults(results []domain.BulkItemResult) map[string]BatchItem[domain.Product] {
	out := make(map[string]BatchItem[domain.Product], len(results))
	for _, r := range results {
		if r.Success {
			out[r.ID] = BatchItem[domain.Product]{Entity: r.Product}
			continue
		}
		msg := r.Error
		if msg == "" {
			msg = "rejected by server"
		}
		out[r.ID] = BatchItem[domain.Product]{Err: errors.New(msg)}
	}
	return out
}
