package v1

import (
	"net/http"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

type ReturnHandler struct {
	returnUC *usecase.ReturnUsecase
}

func NewReturnHandler(uc *usecase.ReturnUsecase) *ReturnHandler {
	return &ReturnHandler{returnUC: uc}
}

// GET /api/v1/returns/my
func (h *ReturnHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.returnUC.RefreshMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "Failed to load return requests")
		return
	}
	utils.WriteData(w, http.StatusOK, items)
}

// GET /api/v1/orders/{id}/return-eligibility
func (h *ReturnHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	err := h.returnUC.Eligible(r.PathValue("id"))
	if err != nil && statusFor(err) != http.StatusUnprocessableEntity {
		writeError(w, r, err, "Failed to check eligibility")
		return
	}
	resp := map[string]interface{}{"eligible": err == nil}
	if err != nil {
		resp["reason"] = domain.UserMessage(err, "")
	}
	utils.WriteData(w, http.StatusOK, resp)
}

// POST /api/v1/returns
func (h *ReturnHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateReturnReq
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.returnUC.Create(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, r, err, "Failed to submit return request")
		return
	}
	utils.WriteData(w, http.StatusCreated, created)
}

// GET /api/v1/admin/returns?status=
func (h *ReturnHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	if _, err := h.returnUC.RefreshAdmin(r.Context()); err != nil {
		writeError(w, r, err, "Failed to load return requests")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":   h.returnUC.List(r.URL.Query().Get("status")),
		"counts": h.returnUC.Counts(),
	})
}

// PUT /api/v1/admin/returns/{id}/approve
func (h *ReturnHandler) Approve(w http.ResponseWriter, r *http.Request) {
	updated, err := h.returnUC.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to approve return request")
		return
	}
	utils.WriteData(w, http.StatusOK, updated)
}

// PUT /api/v1/admin/returns/{id}/reject
func (h *ReturnHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body reasonBody
	if !decodeJSON(w, r, &body) {
		return
	}
	updated, err := h.returnUC.Reject(r.Context(), r.PathValue("id"), body.Reason)
	if err != nil {
		writeError(w, r, err, "Failed to reject return request")
		return
	}
	utils.WriteData(w, http.StatusOK, updated)
}

// GET /api/v1/seller/returns
func (h *ReturnHandler) SellerList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteData(w, http.StatusOK, h.returnUC.ForSeller(user.ID))
}

// PUT /api/v1/seller/returns/{id}/reverse-pickup
func (h *ReturnHandler) ReversePickup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cur, err := h.returnUC.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Return request not found")
		return
	}
	if !owns(user, cur.SellerID) {
		utils.WriteError(w, http.StatusForbidden, "Forbidden: not your return request")
		return
	}

	updated, err := h.returnUC.InitiateReversePickup(r.Context(), cur.ID)
	if err != nil {
		writeError(w, r, err, "Failed to book reverse pickup")
		return
	}
	utils.WriteData(w, http.StatusOK, updated)
}
