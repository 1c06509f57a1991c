package v1

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/repository/rest"
	"bazaar-dashboard/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

func TestReturnHandler_Lifecycle(t *testing.T) {
	recent := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	old := time.Now().Add(-20 * 24 * time.Hour).UTC().Format(time.RFC3339)

	up := newUpstream(t)
	up.on("GET /orders/my", fmt.Sprintf(`[
		{"id":"o1","customerId":"c1","sellerId":"s1","status":"delivered","paymentMethod":"online","deliveredAt":%q},
		{"id":"o2","customerId":"c1","sellerId":"s1","status":"delivered","paymentMethod":"online","deliveredAt":%q},
		{"id":"o3","customerId":"c1","sellerId":"s1","status":"shipped","paymentMethod":"cod"}]`, recent, old))
	up.on("POST /returns", `{"data":{"id":"r1","orderId":"o1","sellerId":"s1","type":"replacement","reasonCategory":"damaged","status":"pending"}}`)
	up.onStatus("PUT /returns/admin/r1/approve", http.StatusNoContent, "")
	up.on("POST /returns/seller/reverse-pickup", `{"data":{"id":"r1","orderId":"o1","sellerId":"s1","type":"replacement",
		"reasonCategory":"damaged","status":"pickup_initiated","pickupTrackingId":"RP-1"}}`)

	orderUC := usecase.NewOrderUsecase(rest.NewOrderRepository(up.client), nil, time.Second)
	returnUC := usecase.NewReturnUsecase(rest.NewReturnRepository(up.client), orderUC, nil, 10, time.Second)
	orders := NewOrderHandler(orderUC)
	h := NewReturnHandler(returnUC)

	require.Equal(t, http.StatusOK, serve(orders.GetMyOrders, http.MethodGet, "/api/v1/orders/my", customer, "").Code)

	tests := []struct {
		order    string
		eligible bool
		reason   string
	}{
		{"o1", true, ""},
		{"o2", false, "10 days"},
		{"o3", false, "delivered orders"},
	}
	for _, tt := range tests {
		rec := serve(h.Eligibility, http.MethodGet, "/api/v1/orders/"+tt.order+"/return-eligibility", customer, "", "id", tt.order)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeData[eligibility](t, rec)
		assert.Equal(t, tt.eligible, got.Eligible, tt.order)
		assert.Contains(t, got.Reason, tt.reason, tt.order)
	}

	rec := serve(h.Eligibility, http.MethodGet, "/api/v1/orders/zz/return-eligibility", customer, "", "id", "zz")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("refund details are checked for returns", func(t *testing.T) {
		rec := serve(h.Create, http.MethodPost, "/api/v1/returns", customer,
			`{"orderId":"o1","type":"return","reasonCategory":"damaged","refundMethod":"upi","refundDetails":{"upiId":"nope"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	rec = serve(h.Create, http.MethodPost, "/api/v1/returns", customer, `{"orderId":"o1","type":"replacement","reasonCategory":"damaged"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "r1", decodeData[domain.ReturnRequest](t, rec).ID)

	rec = serve(h.Eligibility, http.MethodGet, "/api/v1/orders/o1/return-eligibility", customer, "", "id", "o1")
	assert.False(t, decodeData[eligibility](t, rec).Eligible, "one open request per order")

	rec = serve(h.ReversePickup, http.MethodPut, "/api/v1/seller/returns/r1/reverse-pickup", seller, "", "id", "r1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "pickup waits for admin approval")

	rec = serve(h.Approve, http.MethodPut, "/api/v1/admin/returns/r1/approve", admin, "", "id", "r1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ReturnStatusApproved, decodeData[domain.ReturnRequest](t, rec).Status)

	otherSeller := &domain.User{ID: "s2", Role: domain.RoleSeller}
	rec = serve(h.ReversePickup, http.MethodPut, "/api/v1/seller/returns/r1/reverse-pickup", otherSeller, "", "id", "r1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h.ReversePickup, http.MethodPut, "/api/v1/seller/returns/r1/reverse-pickup", seller, "", "id", "r1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	picked := decodeData[domain.ReturnRequest](t, rec)
	assert.Equal(t, domain.ReturnStatusPickupInitiated, picked.Status)
	assert.Equal(t, "RP-1", picked.PickupTrackingID)

	rec = serve(h.SellerList, http.MethodGet, "/api/v1/seller/returns", seller, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]domain.ReturnRequest](t, rec), 1)

	rec = serve(h.SellerList, http.MethodGet, "/api/v1/seller/returns", otherSeller, "")
	assert.Empty(t, decodeData[[]domain.ReturnRequest](t, rec))
}
