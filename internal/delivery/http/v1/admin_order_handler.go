package v1

import (
	"net/http"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

// GET /api/v1/admin/orders?page=&limit=&status=&search=
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := domain.OrderFilter{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}

	orders, total, err := h.orderUC.RefreshAdmin(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "Failed to load orders")
		return
	}
	utils.WritePage(w, withRefundFlag(h.orderUC, orders), total, page, limit)
}

// GET /api/v1/admin/orders/{id}
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUC.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Order not found")
		return
	}
	utils.WriteData(w, http.StatusOK, orderView{Order: order, RefundAvailable: order.RefundAvailable()})
}

// PUT /api/v1/admin/orders/{id}/approve-cancel
func (h *AdminOrderHandler) ApproveCancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUC.ApproveCancellation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to approve cancellation")
		return
	}
	utils.WriteData(w, http.StatusOK, order)
}

// PUT /api/v1/admin/orders/{id}/refund
func (h *AdminOrderHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUC.Refund(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to refund order")
		return
	}
	utils.WriteData(w, http.StatusOK, order)
}
