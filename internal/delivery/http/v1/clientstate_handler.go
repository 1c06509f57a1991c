package v1

import (
	"net/http"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/usecase"
	"bazaar-dashboard/pkg/utils"
)

// ClientStateHandler serves the cart and address book kept for the signed-in user.
type ClientStateHandler struct {
	stateUC *usecase.ClientStateUsecase
}

func NewClientStateHandler(uc *usecase.ClientStateUsecase) *ClientStateHandler {
	return &ClientStateHandler{stateUC: uc}
}

// GET /api/v1/cart
func (h *ClientStateHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cart, err := h.stateUC.GetCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "Failed to load cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":     cart,
		"subtotal": cart.Subtotal(),
	})
}

// PUT /api/v1/cart
func (h *ClientStateHandler) SaveCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var cart domain.Cart
	if !decodeJSON(w, r, &cart) {
		return
	}
	saved, err := h.stateUC.SaveCart(r.Context(), user.ID, cart)
	if err != nil {
		writeError(w, r, err, "Failed to save cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":     saved,
		"subtotal": saved.Subtotal(),
	})
}

// DELETE /api/v1/cart
func (h *ClientStateHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.stateUC.ClearCart(r.Context(), user.ID); err != nil {
		writeError(w, r, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/user/addresses
func (h *ClientStateHandler) GetAddresses(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	addresses, err := h.stateUC.GetAddresses(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "Failed to load addresses")
		return
	}
	utils.WriteData(w, http.StatusOK, addresses)
}

// PUT /api/v1/user/addresses
func (h *ClientStateHandler) SaveAddresses(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var addresses []domain.Address
	if !decodeJSON(w, r, &addresses) {
		return
	}
	saved, err := h.stateUC.SaveAddresses(r.Context(), user.ID, addresses)
	if err != nil {
		writeError(w, r, err, "Failed to save addresses")
		return
	}
	utils.WriteData(w, http.StatusOK, saved)
}
