package v1

import (
	"net/http"

	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

// AdminStatsHandler serves the dashboard projections. Every parameter comes
// from the query string.
type AdminStatsHandler struct {
	statsUC *usecase.StatsUsecase
}

func NewAdminStatsHandler(uc *usecase.StatsUsecase) *AdminStatsHandler {
	return &AdminStatsHandler{statsUC: uc}
}

// GET /api/v1/admin/stats/overview
func (h *AdminStatsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	utils.WriteData(w, http.StatusOK, h.statsUC.Overview())
}

// GET /api/v1/admin/stats/revenue?period=daily|monthly|yearly
func (h *AdminStatsHandler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.statsUC.Revenue(periodParam(r))
	if err != nil {
		writeError(w, r, err, "Failed to compute revenue")
		return
	}
	utils.WriteData(w, http.StatusOK, buckets)
}

// GET /api/v1/admin/stats/products/top?limit=10&by=revenue|quantity
func (h *AdminStatsHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 10)
	stats, err := h.statsUC.TopProducts(limit, r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, r, err, "Failed to rank products")
		return
	}
	utils.WriteData(w, http.StatusOK, stats)
}

// GET /api/v1/admin/stats/withdrawals?period=&sellerId=
func (h *AdminStatsHandler) GetWithdrawalTrend(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.statsUC.WithdrawalTrend(periodParam(r), r.URL.Query().Get("sellerId"))
	if err != nil {
		writeError(w, r, err, "Failed to compute withdrawal trend")
		return
	}
	utils.WriteData(w, http.StatusOK, buckets)
}

// GET /api/v1/admin/stats/withdrawals/summary
func (h *AdminStatsHandler) GetWithdrawalSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.statsUC.WithdrawalSummary(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load withdrawal summary")
		return
	}
	utils.WriteData(w, http.StatusOK, summary)
}

// GET /api/v1/seller/stats/withdrawals?period=
func (h *AdminStatsHandler) GetMyWithdrawalTrend(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	buckets, err := h.statsUC.WithdrawalTrend(periodParam(r), user.ID)
	if err != nil {
		writeError(w, r, err, "Failed to compute withdrawal trend")
		return
	}
	utils.WriteData(w, http.StatusOK, buckets)
}

func periodParam(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return "monthly"
}
