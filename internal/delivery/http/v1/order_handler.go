package v1

import (
	"net/http"
	"strings"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

type OrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

// GET /api/v1/orders/my
func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUC.RefreshMine(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load orders")
		return
	}
	utils.WriteData(w, http.StatusOK, withRefundFlag(h.orderUC, orders))
}

// GET /api/v1/seller/orders?status=&search=
func (h *OrderHandler) GetSellerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUC.RefreshSeller(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load orders")
		return
	}

	status := r.URL.Query().Get("status")
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	filtered := orders[:0:0]
	for _, o := range orders {
		if status != "" && string(o.Status) != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.OrderNumber), search) && !strings.Contains(strings.ToLower(o.ID), search) {
			continue
		}
		filtered = append(filtered, o)
	}
	utils.WriteData(w, http.StatusOK, filtered)
}

// PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Status domain.Status `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.authorize(w, r, user, r.PathValue("id"), func(o domain.Order) string { return o.SellerID }) {
		return
	}

	order, err := h.orderUC.UpdateStatus(r.Context(), r.PathValue("id"), domain.Status(strings.ToLower(string(req.Status))))
	if err != nil {
		writeError(w, r, err, "Failed to update order status")
		return
	}
	utils.WriteData(w, http.StatusOK, order)
}

// PUT /api/v1/orders/{id}/request-cancel
func (h *OrderHandler) RequestCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.authorize(w, r, user, r.PathValue("id"), func(o domain.Order) string { return o.CustomerID }) {
		return
	}

	order, err := h.orderUC.RequestCancellation(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, r, err, "Failed to request cancellation")
		return
	}
	utils.WriteData(w, http.StatusOK, order)
}

// POST /api/v1/orders/{id}/shipment
func (h *OrderHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Courier string `json:"courier"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.authorize(w, r, user, r.PathValue("id"), func(o domain.Order) string { return o.SellerID }) {
		return
	}

	order, err := h.orderUC.CreateShipment(r.Context(), r.PathValue("id"), req.Courier)
	if err != nil {
		writeError(w, r, err, "Failed to create shipment")
		return
	}
	utils.WriteData(w, http.StatusCreated, order)
}

// DELETE /api/v1/orders/{id}/shipment
func (h *OrderHandler) CancelShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, user, r.PathValue("id"), func(o domain.Order) string { return o.SellerID }) {
		return
	}

	order, err := h.orderUC.CancelShipment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to cancel shipment")
		return
	}
	utils.WriteData(w, http.StatusOK, order)
}

// authorize loads the cached order and checks the caller owns it.
func (h *OrderHandler) authorize(w http.ResponseWriter, r *http.Request, user *domain.User, id string, owner func(domain.Order) string) bool {
	order, err := h.orderUC.Get(id)
	if err != nil {
		writeError(w, r, err, "Order not found")
		return false
	}
	if !owns(user, owner(order)) {
		utils.WriteError(w, http.StatusForbidden, "Forbidden: not your order")
		return false
	}
	return true
}

// orderView adds the derived refund flag the dashboards render.
type orderView struct {
	domain.Order
	RefundAvailable bool `json:"refundAvailable"`
}

func withRefundFlag(uc *usecase.OrderUsecase, orders []domain.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{Order: o, RefundAvailable: uc.RefundAvailable(o.ID)})
	}
	return out
}
