package v1

import (
	"errors"
	"net/http"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

type ModerationHandler struct {
	moderationUC *usecase.ModerationUsecase
}

func NewModerationHandler(uc *usecase.ModerationUsecase) *ModerationHandler {
	return &ModerationHandler{moderationUC: uc}
}

// --- Sellers ---

// GET /api/v1/admin/sellers?status=
func (h *ModerationHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.moderationUC.RefreshSellers(r.Context()); err != nil {
		writeError(w, r, err, "Failed to load sellers")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   h.moderationUC.Sellers(r.URL.Query().Get("status")),
		"counts": h.moderationUC.SellerCounts(),
	})
}

type reasonBody struct {
	Reason string `json:"reason"`
}

// PUT /api/v1/admin/sellers/{id}/{action}
func (h *ModerationHandler) ModerateSeller(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.PathValue("action")

	var body reasonBody
	if action == domain.SellerActionReject || action == domain.SellerActionSuspend {
		if !decodeJSON(w, r, &body) {
			return
		}
	}

	var (
		seller *domain.Seller
		err    error
	)
	switch action {
	case domain.SellerActionApprove:
		seller, err = h.moderationUC.ApproveSeller(r.Context(), id)
	case domain.SellerActionReject:
		seller, err = h.moderationUC.RejectSeller(r.Context(), id, body.Reason)
	case domain.SellerActionSuspend:
		seller, err = h.moderationUC.SuspendSeller(r.Context(), id, body.Reason)
	case domain.SellerActionActivate:
		seller, err = h.moderationUC.ActivateSeller(r.Context(), id)
	default:
		utils.WriteError(w, http.StatusNotFound, "Unknown seller action")
		return
	}
	if err != nil {
		writeError(w, r, err, "Failed to update seller")
		return
	}
	utils.WriteData(w, http.StatusOK, seller)
}

// --- Products ---

// GET /api/v1/admin/products?status=
func (h *ModerationHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if _, err := h.moderationUC.RefreshProducts(r.Context()); err != nil {
		writeError(w, r, err, "Failed to load products")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   h.moderationUC.Products(r.URL.Query().Get("status")),
		"counts": h.moderationUC.ProductCounts(),
	})
}

type bulkRequest struct {
	ProductIDs []string `json:"productIds"`
	Reason     string   `json:"reason"`
}

// POST /api/v1/admin/products/bulk-approve
func (h *ModerationHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ProductIDs) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "productIds is required")
		return
	}
	products, err := h.moderationUC.BulkApprove(r.Context(), req.ProductIDs)
	writeBulk(w, r, products, err, "Failed to approve products")
}

// POST /api/v1/admin/products/bulk-reject
func (h *ModerationHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.ProductIDs) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "productIds is required")
		return
	}
	products, err := h.moderationUC.BulkReject(r.Context(), req.ProductIDs, req.Reason)
	writeBulk(w, r, products, err, "Failed to reject products")
}

// DELETE /api/v1/admin/products/{id}
func (h *ModerationHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.moderationUC.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeBulk reports a partially applied batch as 207 with the per-id errors.
func writeBulk(w http.ResponseWriter, r *http.Request, confirmed []domain.Product, err error, fallback string) {
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		failed := make(map[string]string, len(partial.Failed))
		for id, cause := range partial.Failed {
			failed[id] = domain.UserMessage(cause, cause.Error())
		}
		utils.WriteJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"data":   confirmed,
			"failed": failed,
			"error":  partial.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, r, err, fallback)
		return
	}
	utils.WriteData(w, http.StatusOK, confirmed)
}
