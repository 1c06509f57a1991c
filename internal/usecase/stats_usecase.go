package usecase

import (
	"context"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/report"

	"github.com/shopspring/decimal"
)

// StatsUsecase serves the dashboard projections. Everything except the
// upstream withdrawal summary is derived from the live collections on each call.
type StatsUsecase struct {
	orders      *OrderUsecase
	withdrawals *WithdrawalUsecase
	moderation  *ModerationUsecase
	returns     *ReturnUsecase
}

func NewStatsUsecase(orders *OrderUsecase, withdrawals *WithdrawalUsecase, moderation *ModerationUsecase, returns *ReturnUsecase) *StatsUsecase {
	return &StatsUsecase{
		orders:      orders,
		withdrawals: withdrawals,
		moderation:  moderation,
		returns:     returns,
	}
}

// Overview is the per-status count of every entity family.
type Overview struct {
	Orders      map[domain.Status]int `json:"orders"`
	Withdrawals map[domain.Status]int `json:"withdrawals"`
	Sellers     map[domain.Status]int `json:"sellers"`
	Products    map[domain.Status]int `json:"products"`
	Returns     map[domain.Status]int `json:"returns"`
}

func (uc *StatsUsecase) Overview() Overview {
	return Overview{
		Orders:      uc.orders.Counts(),
		Withdrawals: uc.withdrawals.Counts(),
		Sellers:     uc.moderation.SellerCounts(),
		Products:    uc.moderation.ProductCounts(),
		Returns:     uc.returns.Counts(),
	}
}

// Revenue sums order totals per period. Cancelled orders never earned anything.
func (uc *StatsUsecase) Revenue(periodName string) ([]report.Bucket, error) {
	period, ok := report.ParsePeriod(periodName)
	if !ok {
		return nil, domain.NewValidationError("period", "period must be daily, monthly or yearly")
	}
	orders := uc.orders.List(domain.OrderFilter{})
	live := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status != domain.OrderStatusCancelled {
			live = append(live, o)
		}
	}
	return report.BucketByPeriod(live, period,
		func(o domain.Order) time.Time { return o.CreatedAt },
		func(o domain.Order) decimal.Decimal { return o.TotalPrice },
	), nil
}

// WithdrawalTrend sums requested amounts per period, optionally for one seller.
func (uc *StatsUsecase) WithdrawalTrend(periodName, sellerID string) ([]report.Bucket, error) {
	period, ok := report.ParsePeriod(periodName)
	if !ok {
		return nil, domain.NewValidationError("period", "period must be daily, monthly or yearly")
	}
	items := uc.withdrawals.All()
	if sellerID != "" {
		items = uc.withdrawals.Mine(sellerID)
	}
	return report.BucketByPeriod(items, period,
		func(w domain.Withdrawal) time.Time { return w.RequestedAt },
		func(w domain.Withdrawal) decimal.Decimal { return w.Amount },
	), nil
}

// ProductStat is one product's totals across non-cancelled orders.
type ProductStat struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Top product rankings.
const (
	RankByRevenue  = "revenue"
	RankByQuantity = "quantity"
)

// TopProducts ranks products by revenue or quantity sold.
func (uc *StatsUsecase) TopProducts(limit int, by string) ([]ProductStat, error) {
	if limit < 1 || limit > 500 {
		return nil, domain.NewValidationError("limit", "limit must be 1-500")
	}
	if by == "" {
		by = RankByRevenue
	}
	if by != RankByRevenue && by != RankByQuantity {
		return nil, domain.NewValidationError("by", "rank by revenue or quantity")
	}

	var stats []ProductStat
	index := make(map[string]int)
	for _, o := range uc.orders.All() {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			i, seen := index[item.ProductID]
			if !seen {
				i = len(stats)
				index[item.ProductID] = i
				stats = append(stats, ProductStat{ProductID: item.ProductID, ProductName: item.ProductName})
			}
			qty := decimal.NewFromInt(int64(item.Quantity))
			stats[i].Quantity += int64(item.Quantity)
			stats[i].Revenue = stats[i].Revenue.Add(item.UnitPrice.Mul(qty))
		}
	}

	key := func(s ProductStat) decimal.Decimal { return s.Revenue }
	if by == RankByQuantity {
		key = func(s ProductStat) decimal.Decimal { return decimal.NewFromInt(s.Quantity) }
	}
	return report.TopN(stats, limit, key), nil
}

func (uc *StatsUsecase) WithdrawalSummary(ctx context.Context) (*domain.WithdrawalSummary, error) {
	return uc.withdrawals.Summary(ctx)
}
