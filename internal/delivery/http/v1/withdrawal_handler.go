package v1

import (
	"net/http"
	"strings"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"

	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	withdrawalUC *usecase.WithdrawalUsecase
}

func NewWithdrawalHandler(uc *usecase.WithdrawalUsecase) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalUC: uc}
}

type sellerWithdrawals struct {
	Withdrawals      []domain.Withdrawal `json:"withdrawals"`
	Earnings         []domain.Earning    `json:"earnings"`
	AvailableBalance decimal.Decimal     `json:"availableBalance"`
}

// GET /api/v1/withdrawals/my
func (h *WithdrawalHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	withdrawals, earnings, err := h.withdrawalUC.RefreshSeller(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "Failed to load withdrawals")
		return
	}
	utils.WriteData(w, http.StatusOK, sellerWithdrawals{
		Withdrawals:      withdrawals,
		Earnings:         earnings,
		AvailableBalance: h.withdrawalUC.AvailableBalance(user.ID),
	})
}

// POST /api/v1/withdrawals/request
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.WithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.withdrawalUC.Request(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, r, err, "Failed to request withdrawal")
		return
	}
	utils.WriteData(w, http.StatusCreated, created)
}

// DELETE /api/v1/withdrawals/{id}
func (h *WithdrawalHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.withdrawalUC.DeleteMine(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err, "Failed to delete withdrawal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/withdrawals?page=&limit=&status=&search=
func (h *WithdrawalHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := domain.WithdrawalFilter{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	// The API only knows the canonical name.
	if filter.Status != "" {
		filter.Status = string(domain.NormalizeWithdrawalStatus(strings.ToLower(filter.Status)))
	}

	items, total, err := h.withdrawalUC.RefreshAdmin(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "Failed to load withdrawals")
		return
	}
	utils.WritePage(w, items, total, page, limit)
}

// GET /api/v1/admin/withdrawals/summary
func (h *WithdrawalHandler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.withdrawalUC.Summary(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load withdrawal summary")
		return
	}
	utils.WriteData(w, http.StatusOK, summary)
}

// PUT /api/v1/admin/withdrawals/{id}/status
func (h *WithdrawalHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status        string `json:"status"`
		TransactionID string `json:"transactionId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.withdrawalUC.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.TransactionID)
	if err != nil {
		writeError(w, r, err, "Failed to update withdrawal")
		return
	}
	utils.WriteData(w, http.StatusOK, updated)
}

// DELETE /api/v1/admin/withdrawals/{id}
func (h *WithdrawalHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.withdrawalUC.AdminDelete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Failed to delete withdrawal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
